package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/scoutline/careerctx/internal/cache"
	"github.com/scoutline/careerctx/internal/llm"
	"github.com/scoutline/careerctx/pkg/types"
)

// DefaultInferenceTTL is how long a cached inference result stays valid.
const DefaultInferenceTTL = time.Hour

// InferenceEngine is the top-level entry point: it derives experience tags
// for a profile, serving repeats from the content-addressed cache.
type InferenceEngine struct {
	contexts *ContextEngine
	inferrer llm.ExperienceInferrer
	cache    cache.Store
	ttl      time.Duration
}

// NewInferenceEngine wires the inference entry point. A zero ttl selects
// DefaultInferenceTTL.
func NewInferenceEngine(contexts *ContextEngine, inferrer llm.ExperienceInferrer, cacheStore cache.Store, ttl time.Duration) *InferenceEngine {
	if ttl <= 0 {
		ttl = DefaultInferenceTTL
	}
	return &InferenceEngine{
		contexts: contexts,
		inferrer: inferrer,
		cache:    cacheStore,
		ttl:      ttl,
	}
}

// InferExperience returns the model's experience tags for a profile as raw
// JSON. The result is cached under the profile's content-addressed key;
// equivalent profiles (same content modulo casing, whitespace, and period
// order) share one cache entry. Cache backend failures degrade to computing
// fresh; only pipeline and provider failures surface as errors, and failed
// computations are never cached.
func (e *InferenceEngine) InferExperience(ctx context.Context, profile types.Profile) (json.RawMessage, error) {
	key := cache.ProfileKey(profile)
	result, err := cache.GetOrCompute(ctx, e.cache, key, e.ttl, func(ctx context.Context) ([]byte, error) {
		contexts, err := e.contexts.BuildContexts(ctx, profile)
		if err != nil {
			return nil, err
		}
		if len(contexts) == 0 {
			return nil, fmt.Errorf("engine: profile has no periods to infer from")
		}
		raw, err := e.inferrer.Infer(ctx, contexts)
		if err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(result), nil
}
