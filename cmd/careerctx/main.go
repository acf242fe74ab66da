// Command careerctx derives experience tags for a talent profile: it reads a
// profile JSON file, assembles employer context for each employment period,
// and prints the model's structured answer to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/scoutline/careerctx/internal/cache"
	"github.com/scoutline/careerctx/internal/config"
	"github.com/scoutline/careerctx/internal/engine"
	"github.com/scoutline/careerctx/internal/llm"
	"github.com/scoutline/careerctx/internal/storage"
	"github.com/scoutline/careerctx/internal/storage/postgres"
	"github.com/scoutline/careerctx/internal/storage/sqlite"
	"github.com/scoutline/careerctx/pkg/types"
)

func main() {
	profilePath := flag.String("profile", "", "Path to profile JSON file (reads stdin when omitted)")
	contextsOnly := flag.Bool("contexts-only", false, "Print assembled period contexts instead of running inference")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	profile, err := readProfile(*profilePath)
	if err != nil {
		log.Fatalf("Failed to read profile: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer func() { _ = store.Close() }()

	embedder := llm.NewOpenAIEmbeddingClient(llm.OpenAIEmbeddingConfig{
		APIKey:            cfg.LLM.OpenAIAPIKey,
		Model:             cfg.LLM.EmbeddingModel,
		BaseURL:           cfg.LLM.BaseURL,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
	})
	contextEngine := engine.NewContextEngine(store, embedder, engine.ContextEngineConfig{
		ContentLimitPerPeriod: cfg.Retrieval.ContentLimitPerPeriod,
		SimilarityThreshold:   cfg.Retrieval.SimilarityThreshold,
	})

	if *contextsOnly {
		contexts, err := contextEngine.BuildContexts(ctx, profile)
		if err != nil {
			log.Fatalf("Failed to build contexts: %v", err)
		}
		printJSON(contexts)
		return
	}

	cacheStore, err := newCache(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer func() { _ = cacheStore.Close() }()

	inferrer := llm.NewOpenAIInferrer(llm.OpenAIInferrerConfig{
		APIKey:  cfg.LLM.OpenAIAPIKey,
		Model:   cfg.LLM.InferenceModel,
		BaseURL: cfg.LLM.BaseURL,
	})
	inferenceEngine := engine.NewInferenceEngine(contextEngine, inferrer, cacheStore, cfg.Cache.TTL)

	result, err := inferenceEngine.InferExperience(ctx, profile)
	if err != nil {
		log.Fatalf("Inference failed: %v", err)
	}
	fmt.Println(string(result))
}

// newStore constructs the configured storage backend. The backend set is
// closed; config validation already rejected unknown names.
func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case storage.BackendPostgres:
		return postgres.New(cfg.Storage.DSN)
	case storage.BackendSQLite:
		return sqlite.New(cfg.Storage.DSN)
	default:
		return nil, &storage.UnknownBackendError{Kind: string(cfg.Storage.Backend)}
	}
}

// newCache constructs the configured cache backend.
func newCache(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case cache.BackendRedis:
		return cache.NewRedisStore(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	case cache.BackendMemory:
		return cache.NewMemoryStore(0), nil
	default:
		return nil, &cache.UnknownBackendError{Kind: string(cfg.Cache.Backend)}
	}
}

func readProfile(path string) (types.Profile, error) {
	var profile types.Profile
	data, err := readInput(path)
	if err != nil {
		return profile, err
	}
	if err := json.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("parse profile JSON: %w", err)
	}
	if len(profile.Periods) == 0 {
		return profile, fmt.Errorf("profile has no periods")
	}
	return profile, nil
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
}
