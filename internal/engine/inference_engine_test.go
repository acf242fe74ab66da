package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutline/careerctx/internal/cache"
	"github.com/scoutline/careerctx/internal/engine"
	"github.com/scoutline/careerctx/pkg/types"
)

// fakeInferrer returns a canned answer and counts invocations.
type fakeInferrer struct {
	answer json.RawMessage
	err    error
	calls  int
}

func (f *fakeInferrer) Infer(_ context.Context, _ []types.PeriodContext) (json.RawMessage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func testProfile() types.Profile {
	return types.Profile{
		Periods: []types.Period{
			{Label: "Acme", Title: "Engineer", Start: types.YearMonth{Year: 2020, Month: 1}},
		},
	}
}

func newTestInferenceEngine(inferrer *fakeInferrer, cacheStore cache.Store) *engine.InferenceEngine {
	store := &fakeStore{entities: map[string]types.Entity{"acme": testEntity("Acme", "acme")}}
	contexts := engine.NewContextEngine(store, &fakeEmbedder{}, engine.ContextEngineConfig{})
	return engine.NewInferenceEngine(contexts, inferrer, cacheStore, 0)
}

func TestInferExperience_ComputesAndCaches(t *testing.T) {
	inferrer := &fakeInferrer{answer: json.RawMessage(`[{"label":"acme","tags":["billing"]}]`)}
	eng := newTestInferenceEngine(inferrer, cache.NewMemoryStore(0))

	first, err := eng.InferExperience(context.Background(), testProfile())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"label":"acme","tags":["billing"]}]`, string(first))

	second, err := eng.InferExperience(context.Background(), testProfile())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inferrer.calls, "repeat profile should be served from cache")
}

func TestInferExperience_EquivalentProfilesShareEntry(t *testing.T) {
	inferrer := &fakeInferrer{answer: json.RawMessage(`[]`)}
	eng := newTestInferenceEngine(inferrer, cache.NewMemoryStore(0))

	_, err := eng.InferExperience(context.Background(), types.Profile{
		Periods: []types.Period{
			{Label: "Acme", Title: "Engineer", Start: types.YearMonth{Year: 2020, Month: 1}},
		},
	})
	require.NoError(t, err)

	// Same content, different casing and whitespace.
	_, err = eng.InferExperience(context.Background(), types.Profile{
		Periods: []types.Period{
			{Label: "  ACME ", Title: "engineer", Start: types.YearMonth{Year: 2020, Month: 1}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inferrer.calls)
}

func TestInferExperience_FailuresAreNotCached(t *testing.T) {
	inferrer := &fakeInferrer{err: errors.New("provider down")}
	eng := newTestInferenceEngine(inferrer, cache.NewMemoryStore(0))

	_, err := eng.InferExperience(context.Background(), testProfile())
	require.Error(t, err)

	inferrer.err = nil
	inferrer.answer = json.RawMessage(`[]`)
	result, err := eng.InferExperience(context.Background(), testProfile())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(result))
	assert.Equal(t, 2, inferrer.calls, "failed computation must not be cached")
}

func TestInferExperience_EmptyProfileIsError(t *testing.T) {
	inferrer := &fakeInferrer{answer: json.RawMessage(`[]`)}
	eng := newTestInferenceEngine(inferrer, cache.NewMemoryStore(0))

	_, err := eng.InferExperience(context.Background(), types.Profile{})
	require.Error(t, err)
	assert.Zero(t, inferrer.calls)
}
