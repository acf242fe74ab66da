package engine

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/scoutline/careerctx/internal/llm"
	"github.com/scoutline/careerctx/internal/storage"
	"github.com/scoutline/careerctx/pkg/types"
)

// ContextEngineConfig tunes the retrieval pipeline.
type ContextEngineConfig struct {
	// ContentLimitPerPeriod caps content results per period. Default: 5
	ContentLimitPerPeriod int

	// SimilarityThreshold drops content below this cosine similarity.
	// Default: 0.5
	SimilarityThreshold float64
}

// Normalize fills in defaults.
func (c *ContextEngineConfig) Normalize() {
	if c.ContentLimitPerPeriod <= 0 {
		c.ContentLimitPerPeriod = 5
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = 0.5
	}
}

// ContextEngine assembles employer context for a talent profile: it resolves
// employer labels to entities, summarizes business metrics over each
// employment window, and retrieves the content most similar to each role
// description, all in a fixed number of storage round trips regardless of
// how many periods the profile has.
type ContextEngine struct {
	entities  storage.EntityReader
	snapshots storage.SnapshotReader
	content   storage.ContentSearcher
	embedder  llm.EmbeddingGenerator
	cfg       ContextEngineConfig
}

// NewContextEngine wires a context engine over a storage backend and an
// embedding provider.
func NewContextEngine(store storage.Store, embedder llm.EmbeddingGenerator, cfg ContextEngineConfig) *ContextEngine {
	cfg.Normalize()
	return &ContextEngine{
		entities:  store,
		snapshots: store,
		content:   store,
		embedder:  embedder,
		cfg:       cfg,
	}
}

// BuildContexts runs the retrieval pipeline for a profile and returns one
// context per period, ordered chronologically by period start.
//
// Degradation is per-period and graceful: a label that resolves to no entity
// yields a context with only the period filled in, and a resolved entity
// with no snapshots in the window yields a context without a summary.
// Backend and embedding failures are errors; absence of data is not.
func (e *ContextEngine) BuildContexts(ctx context.Context, profile types.Profile) ([]types.PeriodContext, error) {
	if len(profile.Periods) == 0 {
		return nil, nil
	}

	labels := make([]string, 0, len(profile.Periods))
	for _, p := range profile.Periods {
		labels = append(labels, p.Label)
	}
	resolved, err := e.entities.ResolveAliases(ctx, labels)
	if err != nil {
		return nil, fmt.Errorf("engine: resolve employer labels: %w", err)
	}

	contexts := make([]types.PeriodContext, len(profile.Periods))
	windows := make([]types.SearchWindow, len(profile.Periods))
	var snapshotWindows []types.SearchWindow
	for i, p := range profile.Periods {
		contexts[i] = types.PeriodContext{Period: p}

		entity, ok := resolved[p.NormalizedLabel()]
		if !ok {
			log.Printf("engine: no entity for label %q, degrading to period-only context", p.Label)
			continue
		}
		ent := entity
		contexts[i].Entity = &ent

		start, end := p.Window()
		windows[i] = types.SearchWindow{EntityID: entity.ID, StartDate: start, EndDate: end}
		snapshotWindows = append(snapshotWindows, windows[i])
	}

	if len(snapshotWindows) > 0 {
		grouped, err := e.snapshots.GetSnapshots(ctx, snapshotWindows)
		if err != nil {
			return nil, fmt.Errorf("engine: fetch metric snapshots: %w", err)
		}
		for i := range contexts {
			if contexts[i].Entity == nil {
				continue
			}
			// Grouped snapshots cover the union of windows per entity; keep
			// only those inside this period's own window. Order (latest
			// first) is preserved, which Summarize relies on.
			var inWindow []types.MetricSnapshot
			for _, snap := range grouped[contexts[i].Entity.ID] {
				if windows[i].Contains(snap.ReferenceDate) {
					inWindow = append(inWindow, snap)
				}
			}
			if summary := Summarize(inWindow); !summary.IsEmpty() {
				contexts[i].Summary = &summary
			}
		}
	}

	if err := e.attachContent(ctx, contexts, windows); err != nil {
		return nil, err
	}

	return AssembleContexts(contexts), nil
}

// attachContent embeds each period's role description and runs the batched
// content search. Periods without a resolved entity or without a description
// are skipped; they contribute no query and receive no content.
func (e *ContextEngine) attachContent(ctx context.Context, contexts []types.PeriodContext, windows []types.SearchWindow) error {
	var (
		texts   []string
		indices []int
	)
	for i := range contexts {
		if contexts[i].Entity == nil {
			continue
		}
		if strings.TrimSpace(contexts[i].Period.Description) == "" {
			continue
		}
		texts = append(texts, contexts[i].Period.Description)
		indices = append(indices, i)
	}
	if len(texts) == 0 {
		return nil
	}

	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("engine: embed role descriptions: %w", err)
	}

	queries := make([]types.SearchQuery, len(indices))
	for qi, i := range indices {
		queries[qi] = types.SearchQuery{
			SearchWindow: windows[i],
			Vector:       vectors[qi],
			Text:         contexts[i].Period.Description,
		}
	}

	grouped, err := e.content.SearchContent(ctx, queries, storage.ContentSearchOptions{
		LimitPerQuery:       e.cfg.ContentLimitPerPeriod,
		SimilarityThreshold: e.cfg.SimilarityThreshold,
	})
	if err != nil {
		return fmt.Errorf("engine: search content: %w", err)
	}

	for _, i := range indices {
		contexts[i].Content = grouped[contexts[i].Entity.ID]
	}
	return nil
}
