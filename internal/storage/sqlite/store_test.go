package sqlite_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutline/careerctx/internal/storage"
	"github.com/scoutline/careerctx/internal/storage/sqlite"
	"github.com/scoutline/careerctx/pkg/types"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err, "New should succeed")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// unitVector returns an EmbeddingDim vector at the given angle in the plane
// of the first two components, so cosine similarity against baseVector is
// cos(angle).
func unitVector(angle float64) []float32 {
	vec := make([]float32, storage.EmbeddingDim)
	vec[0] = float32(math.Cos(angle))
	vec[1] = float32(math.Sin(angle))
	return vec
}

func baseVector() []float32 {
	return unitVector(0)
}

func day(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func saveTestEntity(t *testing.T, store *sqlite.Store, bundle *storage.EntityBundle) {
	t.Helper()
	require.NoError(t, store.SaveEntityBundle(context.Background(), bundle))
}

func TestSaveEntityBundle_NilBundle(t *testing.T) {
	store := newTestStore(t)
	err := store.SaveEntityBundle(context.Background(), nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestSaveEntityBundle_Duplicate(t *testing.T) {
	store := newTestStore(t)
	bundle := &storage.EntityBundle{
		Entity: types.Entity{ID: uuid.New(), Name: "Acme"},
	}
	saveTestEntity(t, store, bundle)

	err := store.SaveEntityBundle(context.Background(), bundle)
	assert.ErrorIs(t, err, storage.ErrDuplicateEntity)
}

func TestResolveAliases(t *testing.T) {
	store := newTestStore(t)
	acme := types.Entity{
		ID:       uuid.New(),
		Name:     "Acme",
		NameEN:   "Acme Inc",
		Industry: []string{"fintech"},
		Aliases: []types.Alias{
			{Value: "Acme", Kind: types.AliasKindName},
			{Value: "Acme Pay", Kind: types.AliasKindProduct},
		},
	}
	saveTestEntity(t, store, &storage.EntityBundle{Entity: acme})

	resolved, err := store.ResolveAliases(context.Background(), []string{"  ACME ", "acme pay", "unknown corp"})
	require.NoError(t, err)
	require.Len(t, resolved, 2)

	// Both the name and the product alias land on the same entity.
	assert.Equal(t, acme.ID, resolved["acme"].ID)
	assert.Equal(t, acme.ID, resolved["acme pay"].ID)
	assert.Equal(t, []string{"fintech"}, resolved["acme"].Industry)
	assert.Len(t, resolved["acme"].Aliases, 2)

	_, ok := resolved["unknown corp"]
	assert.False(t, ok)
}

func TestResolveAliases_EmptyLabels(t *testing.T) {
	store := newTestStore(t)
	resolved, err := store.ResolveAliases(context.Background(), []string{"   ", ""})
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestGetSnapshots_WindowFiltering(t *testing.T) {
	store := newTestStore(t)
	entityID := uuid.New()
	saveTestEntity(t, store, &storage.EntityBundle{
		Entity: types.Entity{ID: entityID, Name: "Acme"},
		Snapshots: []types.MetricSnapshot{
			{EntityID: entityID, ReferenceDate: day(2019, 12, 1)},
			{EntityID: entityID, ReferenceDate: day(2020, 3, 1)},
			{EntityID: entityID, ReferenceDate: day(2020, 9, 1)},
			{EntityID: entityID, ReferenceDate: day(2022, 1, 1)},
		},
	})

	end := day(2021, 1, 1)
	grouped, err := store.GetSnapshots(context.Background(), []types.SearchWindow{
		{EntityID: entityID, StartDate: day(2020, 1, 1), EndDate: &end},
	})
	require.NoError(t, err)

	snaps := grouped[entityID]
	require.Len(t, snaps, 2)
	// Latest first.
	assert.Equal(t, day(2020, 9, 1), snaps[0].ReferenceDate.UTC())
	assert.Equal(t, day(2020, 3, 1), snaps[1].ReferenceDate.UTC())
}

func TestGetSnapshots_OpenEndedWindow(t *testing.T) {
	store := newTestStore(t)
	entityID := uuid.New()
	saveTestEntity(t, store, &storage.EntityBundle{
		Entity: types.Entity{ID: entityID, Name: "Acme"},
		Snapshots: []types.MetricSnapshot{
			{EntityID: entityID, ReferenceDate: day(2019, 1, 1)},
			{EntityID: entityID, ReferenceDate: day(2023, 1, 1)},
		},
	})

	grouped, err := store.GetSnapshots(context.Background(), []types.SearchWindow{
		{EntityID: entityID, StartDate: day(2020, 1, 1)},
	})
	require.NoError(t, err)
	require.Len(t, grouped[entityID], 1)
	assert.Equal(t, day(2023, 1, 1), grouped[entityID][0].ReferenceDate.UTC())
}

func TestSearchContent_EmptyQueries(t *testing.T) {
	store := newTestStore(t)
	grouped, err := store.SearchContent(context.Background(), nil, storage.ContentSearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, grouped)
}

func TestSearchContent_DimensionValidation(t *testing.T) {
	store := newTestStore(t)
	_, err := store.SearchContent(context.Background(), []types.SearchQuery{
		{
			SearchWindow: types.SearchWindow{EntityID: uuid.New(), StartDate: day(2020, 1, 1)},
			Vector:       []float32{1, 2, 3},
		},
	}, storage.ContentSearchOptions{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestSearchContent_RankedTopK(t *testing.T) {
	store := newTestStore(t)
	entityID := uuid.New()

	// Similarities against the base query vector: cos(angle).
	chunks := []struct {
		title string
		angle float64
	}{
		{"almost exact", 0.1},  // ~0.995
		{"close", 0.6},         // ~0.825
		{"borderline", 0.9},    // ~0.622
		{"below threshold", 2}, // ~-0.416
	}
	bundle := &storage.EntityBundle{Entity: types.Entity{ID: entityID, Name: "Acme"}}
	for _, c := range chunks {
		bundle.Chunks = append(bundle.Chunks, types.ContentChunk{
			ID:        uuid.New(),
			EntityID:  entityID,
			Title:     c.title,
			Body:      "body",
			Embedding: unitVector(c.angle),
			CreatedAt: day(2020, 6, 15),
		})
	}
	saveTestEntity(t, store, bundle)

	grouped, err := store.SearchContent(context.Background(), []types.SearchQuery{
		{
			SearchWindow: types.SearchWindow{EntityID: entityID, StartDate: day(2020, 1, 1)},
			Vector:       baseVector(),
		},
	}, storage.ContentSearchOptions{LimitPerQuery: 2, SimilarityThreshold: 0.5})
	require.NoError(t, err)

	results := grouped[entityID]
	require.Len(t, results, 2, "limit caps results even though three chunks pass the threshold")
	assert.Equal(t, "almost exact", results[0].Title)
	assert.Equal(t, "close", results[1].Title)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Similarity, 0.5)
	}
}

func TestSearchContent_WindowExcludesContent(t *testing.T) {
	store := newTestStore(t)
	entityID := uuid.New()
	saveTestEntity(t, store, &storage.EntityBundle{
		Entity: types.Entity{ID: entityID, Name: "Acme"},
		Chunks: []types.ContentChunk{
			{
				ID:        uuid.New(),
				EntityID:  entityID,
				Title:     "too early",
				Body:      "body",
				Embedding: baseVector(),
				CreatedAt: day(2019, 1, 1),
			},
			{
				ID:        uuid.New(),
				EntityID:  entityID,
				Title:     "in window",
				Body:      "body",
				Embedding: baseVector(),
				CreatedAt: day(2020, 6, 1),
			},
		},
	})

	end := day(2020, 12, 31)
	grouped, err := store.SearchContent(context.Background(), []types.SearchQuery{
		{
			SearchWindow: types.SearchWindow{EntityID: entityID, StartDate: day(2020, 1, 1), EndDate: &end},
			Vector:       baseVector(),
		},
	}, storage.ContentSearchOptions{})
	require.NoError(t, err)

	results := grouped[entityID]
	require.Len(t, results, 1)
	assert.Equal(t, "in window", results[0].Title)
}

func TestSearchContent_OverlappingQueriesKeepChunksUnique(t *testing.T) {
	store := newTestStore(t)
	entityID := uuid.New()
	saveTestEntity(t, store, &storage.EntityBundle{
		Entity: types.Entity{ID: entityID, Name: "Acme"},
		Chunks: []types.ContentChunk{
			{
				ID:        uuid.New(),
				EntityID:  entityID,
				Title:     "shared chunk",
				Body:      "body",
				Embedding: unitVector(0.2),
				CreatedAt: day(2020, 6, 1),
			},
		},
	})

	// Two windows for the same entity, both containing the chunk, queried
	// with vectors at different angles.
	firstEnd := day(2020, 12, 31)
	grouped, err := store.SearchContent(context.Background(), []types.SearchQuery{
		{
			SearchWindow: types.SearchWindow{EntityID: entityID, StartDate: day(2020, 1, 1), EndDate: &firstEnd},
			Vector:       baseVector(),
		},
		{
			SearchWindow: types.SearchWindow{EntityID: entityID, StartDate: day(2020, 5, 1)},
			Vector:       unitVector(0.2),
		},
	}, storage.ContentSearchOptions{LimitPerQuery: 5, SimilarityThreshold: 0.5})
	require.NoError(t, err)

	// The chunk appears once, at its best similarity: an exact match against
	// the second query's vector.
	results := grouped[entityID]
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
}

func TestSearchContent_MultiEntityPartitioning(t *testing.T) {
	store := newTestStore(t)
	first := uuid.New()
	second := uuid.New()
	for _, entityID := range []uuid.UUID{first, second} {
		saveTestEntity(t, store, &storage.EntityBundle{
			Entity: types.Entity{ID: entityID, Name: "Entity " + entityID.String()[:8]},
			Chunks: []types.ContentChunk{
				{
					ID:        uuid.New(),
					EntityID:  entityID,
					Title:     "chunk",
					Body:      "body",
					Embedding: unitVector(0.2),
					CreatedAt: day(2020, 6, 1),
				},
			},
		})
	}

	grouped, err := store.SearchContent(context.Background(), []types.SearchQuery{
		{SearchWindow: types.SearchWindow{EntityID: first, StartDate: day(2020, 1, 1)}, Vector: baseVector()},
		{SearchWindow: types.SearchWindow{EntityID: second, StartDate: day(2020, 1, 1)}, Vector: baseVector()},
	}, storage.ContentSearchOptions{LimitPerQuery: 1, SimilarityThreshold: 0.5})
	require.NoError(t, err)

	require.Len(t, grouped, 2)
	assert.Len(t, grouped[first], 1)
	assert.Len(t, grouped[second], 1)

	// Results stay unique by content id within each group.
	assert.NotEqual(t, grouped[first][0].ContentID, grouped[second][0].ContentID)
}
