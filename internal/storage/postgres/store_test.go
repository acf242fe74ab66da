package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutline/careerctx/internal/storage"
	"github.com/scoutline/careerctx/internal/storage/postgres"
	"github.com/scoutline/careerctx/pkg/types"
)

// postgresTestDSN returns the DSN for the test database.
// If POSTGRES_TEST_DSN is not set, tests are skipped. The database needs the
// pgvector extension available.
func postgresTestDSN(t *testing.T) string {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set; skipping PostgreSQL integration tests")
	}
	return dsn
}

// newTestStore creates a fresh Store connected to the test database with the
// schema applied, and registers cleanup.
func newTestStore(t *testing.T) *postgres.Store {
	t.Helper()

	store, err := postgres.New(postgresTestDSN(t))
	require.NoError(t, err, "New should succeed")

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func unitVector(first, second float32) []float32 {
	vec := make([]float32, storage.EmbeddingDim)
	vec[0] = first
	vec[1] = second
	return vec
}

func day(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func TestSaveEntityBundle_InvalidInput(t *testing.T) {
	store := newTestStore(t)
	err := store.SaveEntityBundle(context.Background(), nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entityID := uuid.New()
	founded := day(2015, 3, 2)
	end := day(2021, 12, 31)
	bundle := &storage.EntityBundle{
		Entity: types.Entity{
			ID:          entityID,
			Name:        "Roundtrip Labs " + entityID.String()[:8],
			NameEN:      "Roundtrip Labs",
			Industry:    []string{"saas", "analytics"},
			Tags:        []string{"b2b"},
			Stage:       "Series A",
			Description: "Analytics platform",
			FoundedDate: &founded,
			Aliases: []types.Alias{
				{Value: "Roundtrip " + entityID.String()[:8], Kind: types.AliasKindName},
			},
		},
		Snapshots: []types.MetricSnapshot{
			{
				EntityID:      entityID,
				ReferenceDate: day(2020, 6, 1),
				Metrics: types.Metrics{
					Organizations: []types.Organization{{PeopleCount: 12}},
				},
			},
		},
		Chunks: []types.ContentChunk{
			{
				ID:        uuid.New(),
				EntityID:  entityID,
				Title:     "Roundtrip Labs launches",
				Body:      "The company launched its analytics platform.",
				Embedding: unitVector(1, 0),
				CreatedAt: day(2020, 5, 10),
			},
		},
	}
	require.NoError(t, store.SaveEntityBundle(ctx, bundle))

	err := store.SaveEntityBundle(ctx, bundle)
	assert.ErrorIs(t, err, storage.ErrDuplicateEntity)

	resolved, err := store.ResolveAliases(ctx, []string{"  ROUNDTRIP " + entityID.String()[:8] + " "})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	for _, e := range resolved {
		assert.Equal(t, entityID, e.ID)
		assert.Equal(t, []string{"saas", "analytics"}, e.Industry)
		require.NotNil(t, e.FoundedDate)
	}

	grouped, err := store.GetSnapshots(ctx, []types.SearchWindow{
		{EntityID: entityID, StartDate: day(2020, 1, 1), EndDate: &end},
	})
	require.NoError(t, err)
	require.Len(t, grouped[entityID], 1)
	assert.Equal(t, 12, grouped[entityID][0].Metrics.Organizations[0].PeopleCount)

	results, err := store.SearchContent(ctx, []types.SearchQuery{
		{
			SearchWindow: types.SearchWindow{EntityID: entityID, StartDate: day(2020, 1, 1), EndDate: &end},
			Vector:       unitVector(1, 0),
		},
	}, storage.ContentSearchOptions{LimitPerQuery: 5, SimilarityThreshold: 0.5})
	require.NoError(t, err)
	require.Len(t, results[entityID], 1)
	assert.Equal(t, "Roundtrip Labs launches", results[entityID][0].Title)
	assert.InDelta(t, 1.0, results[entityID][0].Similarity, 1e-6)
}

func TestSearchContent_DimensionValidation(t *testing.T) {
	store := newTestStore(t)
	_, err := store.SearchContent(context.Background(), []types.SearchQuery{
		{
			SearchWindow: types.SearchWindow{EntityID: uuid.New(), StartDate: day(2020, 1, 1)},
			Vector:       []float32{1, 2},
		},
	}, storage.ContentSearchOptions{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
