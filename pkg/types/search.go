package types

import (
	"time"

	"github.com/google/uuid"
)

// SearchWindow restricts a content search to one entity and a time range.
// A nil EndDate means the window is open-ended (no upper bound).
type SearchWindow struct {
	EntityID  uuid.UUID  `json:"entity_id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// Contains reports whether t falls inside the window.
func (w SearchWindow) Contains(t time.Time) bool {
	if t.Before(w.StartDate) {
		return false
	}
	if w.EndDate != nil && t.After(*w.EndDate) {
		return false
	}
	return true
}

// SearchQuery is one row of the batched content search: an entity, a time
// window, and a query vector. Text is the free-text the vector was generated
// from and is carried for logging only.
type SearchQuery struct {
	SearchWindow
	Vector []float32 `json:"vector"`
	Text   string    `json:"-"`
}

// RankedResult is one content chunk surfaced by the batched vector search.
// For a fixed entity, results are unique by ContentID, never exceed the
// per-query limit, and every Similarity is at or above the configured
// threshold.
type RankedResult struct {
	EntityID   uuid.UUID `json:"entity_id"`
	ContentID  uuid.UUID `json:"content_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Similarity float64   `json:"similarity"`
}

// ContentChunk is one stored piece of entity-related content (a news chunk)
// with its embedding. The retrieval engine only reads chunks; the supplement
// write path inserts them during seeding.
type ContentChunk struct {
	ID        uuid.UUID `json:"id"`
	EntityID  uuid.UUID `json:"entity_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Embedding []float32 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
