package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scoutline/careerctx/pkg/types"
)

// GetSnapshots fetches every snapshot inside any of the given per-entity
// windows in one statement, grouped by entity id and ordered reference_date
// descending within a group.
func (s *Store) GetSnapshots(ctx context.Context, windows []types.SearchWindow) (map[uuid.UUID][]types.MetricSnapshot, error) {
	grouped := make(map[uuid.UUID][]types.MetricSnapshot)
	if len(windows) == 0 {
		return grouped, nil
	}

	var (
		conditions []string
		args       []interface{}
	)
	for _, w := range windows {
		end := time.Now()
		if w.EndDate != nil {
			end = *w.EndDate
		}
		conditions = append(conditions,
			"(entity_id = ? AND reference_date >= ? AND reference_date <= ?)")
		args = append(args, w.EntityID.String(), w.StartDate, end)
	}

	querySQL := `
		SELECT entity_id, reference_date, metrics
		FROM entity_metric_snapshots
		WHERE ` + strings.Join(conditions, " OR ") + `
		ORDER BY reference_date DESC
	`

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: GetSnapshots query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var idText, metricsJSON string
		var snap types.MetricSnapshot
		if err := rows.Scan(&idText, &snap.ReferenceDate, &metricsJSON); err != nil {
			return nil, fmt.Errorf("sqlite: GetSnapshots scan: %w", err)
		}
		snap.EntityID, err = uuid.Parse(idText)
		if err != nil {
			return nil, fmt.Errorf("sqlite: GetSnapshots parse entity id %q: %w", idText, err)
		}
		if err := json.Unmarshal([]byte(metricsJSON), &snap.Metrics); err != nil {
			return nil, fmt.Errorf("sqlite: GetSnapshots unmarshal metrics: %w", err)
		}
		grouped[snap.EntityID] = append(grouped[snap.EntityID], snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: GetSnapshots rows: %w", err)
	}
	return grouped, nil
}
