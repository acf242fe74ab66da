// Package storage provides composable storage interfaces for the careerctx
// engine.
//
// The storage layer is designed with small, focused read interfaces that can
// be implemented independently and composed as needed. The retrieval engine
// only ever reads entity, snapshot, and content data; the single write
// operation exists for ingestion/seeding and is kept on a separate interface.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/scoutline/careerctx/pkg/types"
)

// EntityReader resolves free-text labels to canonical entities.
type EntityReader interface {
	// ResolveAliases maps each label to its canonical entity, including the
	// entity's full alias set. Labels are normalized (lowercase+trim) before
	// matching and the result map is keyed by the normalized label.
	// Labels with no matching alias are simply absent from the map; that is
	// not an error. Store errors are surfaced, never swallowed.
	ResolveAliases(ctx context.Context, labels []string) (map[string]types.Entity, error)

	// GetEntities loads entities by id, with their alias sets populated.
	// Unknown ids are skipped.
	GetEntities(ctx context.Context, ids []uuid.UUID) ([]types.Entity, error)
}

// SnapshotReader loads per-entity metric snapshot histories.
type SnapshotReader interface {
	// GetSnapshots fetches every snapshot falling inside any of the given
	// per-entity windows, in one round-trip, grouped by entity id. Within a
	// group snapshots are ordered by reference_date descending, which is the
	// order the aggregator requires. A window that matches no snapshots
	// contributes no entry for its entity.
	GetSnapshots(ctx context.Context, windows []types.SearchWindow) (map[uuid.UUID][]types.MetricSnapshot, error)
}

// ContentSearcher performs the batched nearest-neighbor content search.
type ContentSearcher interface {
	// SearchContent executes every query in a single batched operation and
	// returns ranked results grouped by entity id. Ranking is a partitioned
	// top-K: each entity's results are ranked independently, capped at
	// opts.LimitPerQuery, and filtered to opts.SimilarityThreshold. Within a
	// group results are ordered by similarity descending. Ties on identical
	// distance are broken by arrival order and are not deterministic.
	//
	// An empty query slice returns an empty map without touching the store.
	// Store errors propagate unmodified; there is no partial-result mode.
	SearchContent(ctx context.Context, queries []types.SearchQuery, opts ContentSearchOptions) (map[uuid.UUID][]types.RankedResult, error)
}

// Writer is the ingestion-side interface. The retrieval engine never writes;
// this exists for the seeding path and for tests.
type Writer interface {
	// SaveEntityBundle persists an entity with its aliases, snapshots, and
	// content chunks in one transaction (commit on success, rollback on any
	// failure). Returns ErrDuplicateEntity when an entity with the same id
	// already exists.
	SaveEntityBundle(ctx context.Context, bundle *EntityBundle) error
}

// Store is the full storage surface a backend provides.
type Store interface {
	EntityReader
	SnapshotReader
	ContentSearcher
	Writer

	// Close releases the underlying connection pool.
	Close() error
}

// EntityBundle is the unit of ingestion: one entity and everything attached
// to it. Related records are independent value collections keyed by the
// entity id rather than an object graph with back-references.
type EntityBundle struct {
	Entity    types.Entity
	Snapshots []types.MetricSnapshot
	Chunks    []types.ContentChunk
}
