package postgres

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
// windows in one round-trip. The windows are combined into a single
// OR-of-conditions predicate so N periods never become N queries. Results
// are grouped by entity id and ordered reference_date descending within a
// group, which is the order the aggregator requires.
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
		base := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(entity_id = $%d AND reference_date >= $%d AND reference_date <= $%d)",
			base+1, base+2, base+3,
		))
		args = append(args, w.EntityID, w.StartDate, end)
	}

	querySQL := `
		SELECT entity_id, reference_date, metrics
		FROM entity_metric_snapshots
		WHERE ` + strings.Join(conditions, " OR ") + `
		ORDER BY reference_date DESC
	`

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: GetSnapshots query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var snap types.MetricSnapshot
		var metricsJSON []byte
		if err := rows.Scan(&snap.EntityID, &snap.ReferenceDate, &metricsJSON); err != nil {
			return nil, fmt.Errorf("postgres: GetSnapshots scan: %w", err)
		}
		// The JSONB document becomes a typed Metrics value here and nowhere
		// else; aggregation logic never touches the raw document.
		if err := json.Unmarshal(metricsJSON, &snap.Metrics); err != nil {
			return nil, fmt.Errorf("postgres: GetSnapshots unmarshal metrics: %w", err)
		}
		grouped[snap.EntityID] = append(grouped[snap.EntityID], snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: GetSnapshots rows: %w", err)
	}
	return grouped, nil
}
