package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/scoutline/careerctx/internal/storage"
	"github.com/scoutline/careerctx/pkg/types"
)

// ResolveAliases maps free-text labels to their canonical entities.
// Matching is exact after lowercase+trim, using the expression index on
// entity_aliases. Unmatched labels are absent from the result map.
func (s *Store) ResolveAliases(ctx context.Context, labels []string) (map[string]types.Entity, error) {
	resolved := make(map[string]types.Entity)
	if len(labels) == 0 {
		return resolved, nil
	}

	normalized := make([]string, 0, len(labels))
	for _, label := range labels {
		if n := types.NormalizeLabel(label); n != "" {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return resolved, nil
	}

	const aliasSQL = `
		SELECT lower(btrim(alias)), entity_id
		FROM entity_aliases
		WHERE lower(btrim(alias)) = ANY($1)
	`
	rows, err := s.db.QueryContext(ctx, aliasSQL, pq.Array(normalized))
	if err != nil {
		return nil, fmt.Errorf("postgres: ResolveAliases query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	labelToEntity := make(map[string]uuid.UUID)
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for rows.Next() {
		var label string
		var id uuid.UUID
		if err := rows.Scan(&label, &id); err != nil {
			return nil, fmt.Errorf("postgres: ResolveAliases scan: %w", err)
		}
		labelToEntity[label] = id
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: ResolveAliases rows: %w", err)
	}

	entities, err := s.GetEntities(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]types.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	for label, id := range labelToEntity {
		if e, ok := byID[id]; ok {
			resolved[label] = e
		}
	}
	return resolved, nil
}

// entitySelectColumns is the canonical SELECT column list for the entities
// table. It must match the scan order in scanEntityRow.
const entitySelectColumns = `
	id, name, name_en, industry, tags, stage, description, founded_date, ipo_date
`

// GetEntities loads entities by id with their alias sets populated.
// Unknown ids are skipped.
func (s *Store) GetEntities(ctx context.Context, ids []uuid.UUID) ([]types.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = id.String()
	}

	const querySQL = `
		SELECT ` + entitySelectColumns + `
		FROM entities
		WHERE id = ANY($1)
	`
	rows, err := s.db.QueryContext(ctx, querySQL, pq.Array(idStrings))
	if err != nil {
		return nil, fmt.Errorf("postgres: GetEntities query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entities []types.Entity
	for rows.Next() {
		e, err := scanEntityRow(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: GetEntities rows: %w", err)
	}

	aliases, err := s.getAliases(ctx, idStrings)
	if err != nil {
		return nil, err
	}
	for i := range entities {
		entities[i].Aliases = aliases[entities[i].ID]
	}
	return entities, nil
}

// getAliases loads the full alias sets for the given entity ids, keyed by
// entity id.
func (s *Store) getAliases(ctx context.Context, idStrings []string) (map[uuid.UUID][]types.Alias, error) {
	const aliasSQL = `
		SELECT entity_id, alias, alias_kind
		FROM entity_aliases
		WHERE entity_id = ANY($1)
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, aliasSQL, pq.Array(idStrings))
	if err != nil {
		return nil, fmt.Errorf("postgres: getAliases query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	aliases := make(map[uuid.UUID][]types.Alias)
	for rows.Next() {
		var id uuid.UUID
		var a types.Alias
		if err := rows.Scan(&id, &a.Value, &a.Kind); err != nil {
			return nil, fmt.Errorf("postgres: getAliases scan: %w", err)
		}
		aliases[id] = append(aliases[id], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: getAliases rows: %w", err)
	}
	return aliases, nil
}

// scanEntityRow scans a single entities row. The SELECT column order must
// match entitySelectColumns.
func scanEntityRow(rows *sql.Rows) (types.Entity, error) {
	var e types.Entity
	var nameEN, stage, description sql.NullString
	var foundedDate, ipoDate sql.NullTime

	err := rows.Scan(
		&e.ID,
		&e.Name,
		&nameEN,
		pq.Array(&e.Industry),
		pq.Array(&e.Tags),
		&stage,
		&description,
		&foundedDate,
		&ipoDate,
	)
	if err != nil {
		return e, fmt.Errorf("postgres: scan entity row: %w", err)
	}

	if nameEN.Valid {
		e.NameEN = nameEN.String
	}
	if stage.Valid {
		e.Stage = stage.String
	}
	if description.Valid {
		e.Description = description.String
	}
	if foundedDate.Valid {
		t := foundedDate.Time
		e.FoundedDate = &t
	}
	if ipoDate.Valid {
		t := ipoDate.Time
		e.IPODate = &t
	}
	return e, nil
}

// SaveEntityBundle persists an entity with its aliases, snapshots, and
// content chunks in one transaction. Used by the seeding path and tests;
// the retrieval engine itself never writes.
func (s *Store) SaveEntityBundle(ctx context.Context, bundle *storage.EntityBundle) error {
	if bundle == nil || bundle.Entity.ID == uuid.Nil {
		return fmt.Errorf("postgres: SaveEntityBundle: %w", storage.ErrInvalidInput)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM entities WHERE id = $1)", bundle.Entity.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("postgres: SaveEntityBundle existence check: %w", err)
		}
		if exists {
			return fmt.Errorf("postgres: SaveEntityBundle %s: %w", bundle.Entity.ID, storage.ErrDuplicateEntity)
		}

		e := bundle.Entity
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entities (id, name, name_en, industry, tags, stage, description, founded_date, ipo_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			e.ID, e.Name, nullString(e.NameEN),
			pq.Array(e.Industry), pq.Array(e.Tags),
			nullString(e.Stage), nullString(e.Description),
			nullTime(e.FoundedDate), nullTime(e.IPODate),
		); err != nil {
			return fmt.Errorf("postgres: insert entity: %w", err)
		}

		for _, a := range e.Aliases {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO entity_aliases (entity_id, alias, alias_kind)
				VALUES ($1, $2, $3)`,
				e.ID, a.Value, a.Kind,
			); err != nil {
				return fmt.Errorf("postgres: insert alias %q: %w", a.Value, err)
			}
		}

		for _, snap := range bundle.Snapshots {
			metricsJSON, err := json.Marshal(snap.Metrics)
			if err != nil {
				return fmt.Errorf("postgres: marshal metrics: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO entity_metric_snapshots (entity_id, reference_date, metrics)
				VALUES ($1, $2, $3)`,
				e.ID, snap.ReferenceDate, metricsJSON,
			); err != nil {
				return fmt.Errorf("postgres: insert snapshot: %w", err)
			}
		}

		for _, chunk := range bundle.Chunks {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO content_chunks (id, entity_id, title, body, embedding, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				chunk.ID, e.ID, chunk.Title, chunk.Body,
				pgvector.NewVector(chunk.Embedding), chunk.CreatedAt,
			); err != nil {
				return fmt.Errorf("postgres: insert content chunk: %w", err)
			}
		}
		return nil
	})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
