package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutline/careerctx/internal/llm"
)

func newEmbeddingServer(t *testing.T, handler http.HandlerFunc) *llm.OpenAIEmbeddingClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return llm.NewOpenAIEmbeddingClient(llm.OpenAIEmbeddingConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
}

func embeddingResponse(vectors ...[]float64) string {
	type item struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	}
	items := make([]item, len(vectors))
	for i, v := range vectors {
		items[i] = item{Index: i, Embedding: v}
	}
	payload, _ := json.Marshal(map[string]interface{}{"data": items})
	return string(payload)
}

func TestEmbed_EmptyBatchIsGenerationError(t *testing.T) {
	client := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an empty batch")
	})

	_, err := client.Embed(context.Background(), nil)
	var genErr *llm.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.False(t, llm.Retryable(err))
}

func TestEmbed_BlankTextIsGenerationError(t *testing.T) {
	client := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for blank input")
	})

	_, err := client.Embed(context.Background(), []string{"fine", "   "})
	var genErr *llm.GenerationError
	require.ErrorAs(t, err, &genErr)
}

func TestEmbed_UnauthorizedIsConnectionError(t *testing.T) {
	client := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	})

	_, err := client.Embed(context.Background(), []string{"text"})
	var connErr *llm.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.True(t, llm.Retryable(err))
}

func TestEmbed_RateLimitedIsConnectionError(t *testing.T) {
	client := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
	})

	_, err := client.Embed(context.Background(), []string{"text"})
	var connErr *llm.ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func TestEmbed_CountMismatchIsGenerationError(t *testing.T) {
	client := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(embeddingResponse([]float64{0.1, 0.2})))
	})

	_, err := client.Embed(context.Background(), []string{"one", "two"})
	var genErr *llm.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.False(t, llm.Retryable(err))
}

func TestEmbed_ReturnsVectorsInInputOrder(t *testing.T) {
	client := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"first", "second"}, req.Input)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		// Out-of-order data entries; the index field governs placement.
		_, _ = w.Write([]byte(`{"data":[
			{"index":1,"embedding":[0.3,0.4]},
			{"index":0,"embedding":[0.1,0.2]}
		]}`))
	})

	vectors, err := client.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
}
