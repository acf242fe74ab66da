package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scoutline/careerctx/internal/storage"
	"github.com/scoutline/careerctx/pkg/types"
)

// placeholders returns "?, ?, ..." for n parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// ResolveAliases maps free-text labels to their canonical entities.
// Matching is exact after lowercase+trim.
func (s *Store) ResolveAliases(ctx context.Context, labels []string) (map[string]types.Entity, error) {
	resolved := make(map[string]types.Entity)
	if len(labels) == 0 {
		return resolved, nil
	}

	var normalized []string
	for _, label := range labels {
		if n := types.NormalizeLabel(label); n != "" {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return resolved, nil
	}

	args := make([]interface{}, len(normalized))
	for i, n := range normalized {
		args[i] = n
	}

	querySQL := `
		SELECT lower(trim(alias)), entity_id
		FROM entity_aliases
		WHERE lower(trim(alias)) IN (` + placeholders(len(normalized)) + `)
	`
	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: ResolveAliases query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	labelToEntity := make(map[string]uuid.UUID)
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for rows.Next() {
		var label, idText string
		if err := rows.Scan(&label, &idText); err != nil {
			return nil, fmt.Errorf("sqlite: ResolveAliases scan: %w", err)
		}
		id, err := uuid.Parse(idText)
		if err != nil {
			return nil, fmt.Errorf("sqlite: ResolveAliases parse entity id %q: %w", idText, err)
		}
		labelToEntity[label] = id
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: ResolveAliases rows: %w", err)
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

// GetEntities loads entities by id with their alias sets populated.
// Unknown ids are skipped.
func (s *Store) GetEntities(ctx context.Context, ids []uuid.UUID) ([]types.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}

	querySQL := `
		SELECT id, name, name_en, industry, tags, stage, description, founded_date, ipo_date
		FROM entities
		WHERE id IN (` + placeholders(len(ids)) + `)
	`
	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: GetEntities query: %w", err)
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
		return nil, fmt.Errorf("sqlite: GetEntities rows: %w", err)
	}

	aliasSQL := `
		SELECT entity_id, alias, alias_kind
		FROM entity_aliases
		WHERE entity_id IN (` + placeholders(len(ids)) + `)
		ORDER BY id
	`
	aliasRows, err := s.db.QueryContext(ctx, aliasSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: GetEntities alias query: %w", err)
	}
	defer func() { _ = aliasRows.Close() }()

	aliases := make(map[uuid.UUID][]types.Alias)
	for aliasRows.Next() {
		var idText string
		var a types.Alias
		if err := aliasRows.Scan(&idText, &a.Value, &a.Kind); err != nil {
			return nil, fmt.Errorf("sqlite: GetEntities alias scan: %w", err)
		}
		id, err := uuid.Parse(idText)
		if err != nil {
			return nil, fmt.Errorf("sqlite: GetEntities parse alias entity id %q: %w", idText, err)
		}
		aliases[id] = append(aliases[id], a)
	}
	if err := aliasRows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: GetEntities alias rows: %w", err)
	}

	for i := range entities {
		entities[i].Aliases = aliases[entities[i].ID]
	}
	return entities, nil
}

// scanEntityRow scans a single entities row.
func scanEntityRow(rows *sql.Rows) (types.Entity, error) {
	var e types.Entity
	var idText, industryJSON, tagsJSON string
	var nameEN, stage, description sql.NullString
	var foundedDate, ipoDate sql.NullTime

	err := rows.Scan(
		&idText,
		&e.Name,
		&nameEN,
		&industryJSON,
		&tagsJSON,
		&stage,
		&description,
		&foundedDate,
		&ipoDate,
	)
	if err != nil {
		return e, fmt.Errorf("sqlite: scan entity row: %w", err)
	}

	e.ID, err = uuid.Parse(idText)
	if err != nil {
		return e, fmt.Errorf("sqlite: parse entity id %q: %w", idText, err)
	}
	if err := json.Unmarshal([]byte(industryJSON), &e.Industry); err != nil {
		return e, fmt.Errorf("sqlite: unmarshal industry: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &e.Tags); err != nil {
		return e, fmt.Errorf("sqlite: unmarshal tags: %w", err)
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
// content chunks in one transaction.
func (s *Store) SaveEntityBundle(ctx context.Context, bundle *storage.EntityBundle) error {
	if bundle == nil || bundle.Entity.ID == uuid.Nil {
		return fmt.Errorf("sqlite: SaveEntityBundle: %w", storage.ErrInvalidInput)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM entities WHERE id = ?)", bundle.Entity.ID.String(),
		).Scan(&exists); err != nil {
			return fmt.Errorf("sqlite: SaveEntityBundle existence check: %w", err)
		}
		if exists {
			return fmt.Errorf("sqlite: SaveEntityBundle %s: %w", bundle.Entity.ID, storage.ErrDuplicateEntity)
		}

		e := bundle.Entity
		industryJSON, err := json.Marshal(sliceOrEmpty(e.Industry))
		if err != nil {
			return fmt.Errorf("sqlite: marshal industry: %w", err)
		}
		tagsJSON, err := json.Marshal(sliceOrEmpty(e.Tags))
		if err != nil {
			return fmt.Errorf("sqlite: marshal tags: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entities (id, name, name_en, industry, tags, stage, description, founded_date, ipo_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID.String(), e.Name, nullString(e.NameEN),
			string(industryJSON), string(tagsJSON),
			nullString(e.Stage), nullString(e.Description),
			nullTime(e.FoundedDate), nullTime(e.IPODate),
		); err != nil {
			return fmt.Errorf("sqlite: insert entity: %w", err)
		}

		for _, a := range e.Aliases {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO entity_aliases (entity_id, alias, alias_kind)
				VALUES (?, ?, ?)`,
				e.ID.String(), a.Value, a.Kind,
			); err != nil {
				return fmt.Errorf("sqlite: insert alias %q: %w", a.Value, err)
			}
		}

		for _, snap := range bundle.Snapshots {
			metricsJSON, err := json.Marshal(snap.Metrics)
			if err != nil {
				return fmt.Errorf("sqlite: marshal metrics: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO entity_metric_snapshots (entity_id, reference_date, metrics)
				VALUES (?, ?, ?)`,
				e.ID.String(), snap.ReferenceDate, string(metricsJSON),
			); err != nil {
				return fmt.Errorf("sqlite: insert snapshot: %w", err)
			}
		}

		for _, chunk := range bundle.Chunks {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO content_chunks (id, entity_id, title, body, embedding, created_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				chunk.ID.String(), e.ID.String(), chunk.Title, chunk.Body,
				serializeEmbedding(chunk.Embedding), chunk.CreatedAt,
			); err != nil {
				return fmt.Errorf("sqlite: insert content chunk: %w", err)
			}
		}
		return nil
	})
}

// sliceOrEmpty prevents nil slices from marshaling as JSON null.
func sliceOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
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
