package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/scoutline/careerctx/internal/storage"
	"github.com/scoutline/careerctx/pkg/types"
)

// SearchContent executes the batched nearest-neighbor search in a single
// round-trip. All queries are materialized as a VALUES relation and joined
// against content_chunks on entity id and creation-time window; ranking is
// per-entity via ROW_NUMBER (partitioned top-K, not global top-K).
//
// Similarity is 1 - cosine_distance, so well-formed unit-ish embeddings land
// in [0, 1]. Ties on identical distance keep arrival order and are not
// deterministic.
//
// When two queries target the same entity (re-employment at the same
// company), their join rows rank in one partition and a chunk matched by
// both windows can appear once per query. The sqlite backend instead keeps
// each chunk once at its best similarity.
func (s *Store) SearchContent(ctx context.Context, queries []types.SearchQuery, opts storage.ContentSearchOptions) (map[uuid.UUID][]types.RankedResult, error) {
	grouped := make(map[uuid.UUID][]types.RankedResult)
	if len(queries) == 0 {
		return grouped, nil
	}
	opts.Normalize()

	var (
		valueRows []string
		args      []interface{}
	)
	for _, q := range queries {
		if len(q.Vector) != storage.EmbeddingDim {
			return nil, fmt.Errorf("postgres: SearchContent: query vector for %s has dimension %d, want %d: %w",
				q.EntityID, len(q.Vector), storage.EmbeddingDim, storage.ErrInvalidInput)
		}
		base := len(args)
		valueRows = append(valueRows, fmt.Sprintf(
			"($%d::uuid, $%d::vector, $%d::timestamptz, $%d::timestamptz)",
			base+1, base+2, base+3, base+4,
		))
		var end sql.NullTime
		if q.EndDate != nil {
			end = sql.NullTime{Time: *q.EndDate, Valid: true}
		}
		args = append(args, q.EntityID, pgvector.NewVector(q.Vector), q.StartDate, end)
	}

	base := len(args)
	args = append(args, opts.SimilarityThreshold, opts.LimitPerQuery)

	// The threshold applies before ranking, the rank cap after, so an entity
	// can never receive below-threshold rows even when fewer than
	// LimitPerQuery chunks qualify.
	querySQL := `
		WITH q(entity_id, qvec, start_date, end_date) AS (
			VALUES ` + strings.Join(valueRows, ",\n\t\t\t       ") + `
		),
		ranked AS (
			SELECT
				c.id,
				c.entity_id,
				c.title,
				c.body,
				1 - (c.embedding <=> q.qvec) AS similarity,
				ROW_NUMBER() OVER (
					PARTITION BY c.entity_id
					ORDER BY c.embedding <=> q.qvec ASC
				) AS rn
			FROM q
			JOIN content_chunks c
			  ON c.entity_id = q.entity_id
			 AND c.created_at >= q.start_date
			 AND (q.end_date IS NULL OR c.created_at <= q.end_date)
			WHERE 1 - (c.embedding <=> q.qvec) >= $` + fmt.Sprint(base+1) + `
		)
		SELECT id, entity_id, title, body, similarity
		FROM ranked
		WHERE rn <= $` + fmt.Sprint(base+2) + `
		ORDER BY similarity DESC
	`

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: SearchContent query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r types.RankedResult
		if err := rows.Scan(&r.ContentID, &r.EntityID, &r.Title, &r.Body, &r.Similarity); err != nil {
			return nil, fmt.Errorf("postgres: SearchContent scan: %w", err)
		}
		grouped[r.EntityID] = append(grouped[r.EntityID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: SearchContent rows: %w", err)
	}
	return grouped, nil
}
