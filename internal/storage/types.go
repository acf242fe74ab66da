package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateEntity indicates an ingestion attempt for an entity id that
	// already exists.
	ErrDuplicateEntity = errors.New("entity already exists")
)

// EmbeddingDim is the fixed dimensionality of content and query embeddings
// (OpenAI text-embedding-3-small).
const EmbeddingDim = 1536

// ContentSearchOptions configures the batched content search.
type ContentSearchOptions struct {
	// LimitPerQuery caps the number of results per entity (default: 5, max: 50).
	LimitPerQuery int

	// SimilarityThreshold drops results whose cosine similarity falls below
	// this value (clamped to [0, 1], default: 0.5).
	SimilarityThreshold float64
}

// Normalize applies defaults and clamps the options.
func (o *ContentSearchOptions) Normalize() {
	if o.LimitPerQuery < 1 {
		o.LimitPerQuery = 5
	}
	if o.LimitPerQuery > 50 {
		o.LimitPerQuery = 50
	}
	if o.SimilarityThreshold < 0 {
		o.SimilarityThreshold = 0
	}
	if o.SimilarityThreshold > 1 {
		o.SimilarityThreshold = 1
	}
}

// BackendKind identifies a supported storage backend. The set is closed:
// construction-time dispatch uses these values and unknown strings are
// rejected with a typed error rather than failing at first use.
type BackendKind string

const (
	// BackendPostgres is the production backend (lib/pq + pgvector).
	BackendPostgres BackendKind = "postgres"

	// BackendSQLite is the embedded backend for development and tests.
	// Vector ranking runs in process.
	BackendSQLite BackendKind = "sqlite"
)

// UnknownBackendError is returned when configuration names a backend kind
// outside the closed set.
type UnknownBackendError struct {
	Kind string
}

func (e *UnknownBackendError) Error() string {
	return fmt.Sprintf("storage: unknown backend kind %q (supported: %s, %s)", e.Kind, BackendPostgres, BackendSQLite)
}

// ParseBackendKind validates a configured backend name against the closed set.
func ParseBackendKind(s string) (BackendKind, error) {
	switch BackendKind(s) {
	case BackendPostgres, BackendSQLite:
		return BackendKind(s), nil
	default:
		return "", &UnknownBackendError{Kind: s}
	}
}
