package sqlite

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scoutline/careerctx/internal/storage"
	"github.com/scoutline/careerctx/pkg/types"
)

// SearchContent executes the batched content search. Candidate chunks are
// window-filtered in one SQL statement; cosine similarity and the per-entity
// ranking run in process because SQLite has no vector index.
//
// Semantics match the postgres backend for disjoint queries: partitioned
// top-K per entity, similarity threshold applied before the rank cap,
// results ordered by similarity descending within a group. When multiple
// queries target the same entity, the backends diverge: here a chunk is
// scored against every query whose window contains it and kept once at its
// best similarity, while postgres ranks the duplicated join rows and can
// return the same chunk once per query.
func (s *Store) SearchContent(ctx context.Context, queries []types.SearchQuery, opts storage.ContentSearchOptions) (map[uuid.UUID][]types.RankedResult, error) {
	grouped := make(map[uuid.UUID][]types.RankedResult)
	if len(queries) == 0 {
		return grouped, nil
	}
	opts.Normalize()

	queriesByEntity := make(map[uuid.UUID][]types.SearchQuery)
	var (
		conditions []string
		args       []interface{}
	)
	for _, q := range queries {
		if len(q.Vector) != storage.EmbeddingDim {
			return nil, fmt.Errorf("sqlite: SearchContent: query vector for %s has dimension %d, want %d: %w",
				q.EntityID, len(q.Vector), storage.EmbeddingDim, storage.ErrInvalidInput)
		}
		queriesByEntity[q.EntityID] = append(queriesByEntity[q.EntityID], q)

		if q.EndDate != nil {
			conditions = append(conditions,
				"(entity_id = ? AND created_at >= ? AND created_at <= ?)")
			args = append(args, q.EntityID.String(), q.StartDate, *q.EndDate)
		} else {
			conditions = append(conditions,
				"(entity_id = ? AND created_at >= ?)")
			args = append(args, q.EntityID.String(), q.StartDate)
		}
	}

	querySQL := `
		SELECT id, entity_id, title, body, embedding, created_at
		FROM content_chunks
		WHERE ` + strings.Join(conditions, " OR ")

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: SearchContent query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var idText, entityText string
		var r types.RankedResult
		var blob []byte
		var createdAt time.Time
		if err := rows.Scan(&idText, &entityText, &r.Title, &r.Body, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: SearchContent scan: %w", err)
		}
		if r.ContentID, err = uuid.Parse(idText); err != nil {
			return nil, fmt.Errorf("sqlite: SearchContent parse chunk id %q: %w", idText, err)
		}
		if r.EntityID, err = uuid.Parse(entityText); err != nil {
			return nil, fmt.Errorf("sqlite: SearchContent parse entity id %q: %w", entityText, err)
		}

		embedding, err := deserializeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("sqlite: SearchContent chunk %s: %w", r.ContentID, err)
		}

		// Best similarity across every query for this entity whose window
		// actually contains the chunk (the OR predicate may admit a row via
		// a sibling query's window).
		best := math.Inf(-1)
		for _, q := range queriesByEntity[r.EntityID] {
			if !q.Contains(createdAt) {
				continue
			}
			if sim := cosineSimilarity(q.Vector, embedding); sim > best {
				best = sim
			}
		}
		if math.IsInf(best, -1) || best < opts.SimilarityThreshold {
			continue
		}
		r.Similarity = best
		grouped[r.EntityID] = append(grouped[r.EntityID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: SearchContent rows: %w", err)
	}

	// Partitioned top-K: rank and cap each entity group independently.
	// SliceStable keeps arrival order on ties, matching the documented
	// (non-deterministic) tie-break of the postgres backend.
	for id, results := range grouped {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Similarity > results[j].Similarity
		})
		if len(results) > opts.LimitPerQuery {
			results = results[:opts.LimitPerQuery]
		}
		grouped[id] = results
	}
	return grouped, nil
}

// cosineSimilarity returns 1 - cosine_distance for two vectors, matching the
// value pgvector's <=> operator produces on the postgres backend. Zero-norm
// inputs score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// serializeEmbedding encodes a float32 vector as a little-endian blob.
func serializeEmbedding(embedding []float32) []byte {
	buf := make([]byte, len(embedding)*4)
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// deserializeEmbedding decodes a little-endian float32 blob.
func deserializeEmbedding(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(buf))
	}
	embedding := make([]float32, len(buf)/4)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return embedding, nil
}
