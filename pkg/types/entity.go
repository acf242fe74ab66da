// Package types defines the core data structures for the careerctx engine:
// canonical organization entities, their time-series metric snapshots, and
// the derived context shapes handed to the downstream inference step.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Alias kind constants. An alias is any name a free-text employer label may
// use to refer to an entity.
const (
	// AliasKindName is the legal or registered company name.
	AliasKindName = "name"

	// AliasKindProduct is a product or service name the company is known by.
	AliasKindProduct = "product"
)

// Alias is one alternative name for an entity. Aliases are many-to-one to
// Entity and are matched exactly after lowercase+trim normalization.
type Alias struct {
	Value string `json:"value"` // The alias text as stored
	Kind  string `json:"kind"`  // One of the AliasKind constants
}

// Entity is the canonical organization record a free-text label resolves to.
// Entities are created by the ingestion path and are read-only to the
// retrieval engine.
type Entity struct {
	// Core identification fields
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`              // Display name
	NameEN string    `json:"name_en,omitempty"` // English name, when different

	// Business classification
	Industry    []string `json:"industry,omitempty"` // Business categories
	Tags        []string `json:"tags,omitempty"`     // Business tags
	Stage       string   `json:"stage,omitempty"`    // Funding stage (e.g. "Series B")
	Description string   `json:"description,omitempty"`

	// Company lifecycle dates
	FoundedDate *time.Time `json:"founded_date,omitempty"`
	IPODate     *time.Time `json:"ipo_date,omitempty"`

	// Aliases holds every name this entity can be resolved by, including the
	// canonical name itself.
	Aliases []Alias `json:"aliases,omitempty"`
}

// AliasValues returns the alias strings without their kinds.
func (e *Entity) AliasValues() []string {
	values := make([]string, 0, len(e.Aliases))
	for _, a := range e.Aliases {
		values = append(values, a.Value)
	}
	return values
}
