// Package llm holds the clients that talk to language-model providers:
// embedding generation for vector search and chat completion for experience
// inference. Providers sit behind small interfaces so the engine and tests
// never touch HTTP directly.
package llm

import (
	"context"
	"encoding/json"

	"github.com/scoutline/careerctx/pkg/types"
)

// EmbeddingGenerator produces embedding vectors for a batch of texts.
type EmbeddingGenerator interface {
	// Embed returns one vector per input text, in input order. The batch is
	// all-or-nothing: any provider failure fails the whole call.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ExperienceInferrer derives structured experience tags from assembled
// period contexts.
type ExperienceInferrer interface {
	// Infer returns the model's structured answer as raw JSON. The caller
	// owns interpretation of the payload; this layer only guarantees it is
	// syntactically valid JSON.
	Infer(ctx context.Context, contexts []types.PeriodContext) (json.RawMessage, error)
}
