package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// OpenAIEmbeddingConfig holds configuration for the OpenAI embedding client.
type OpenAIEmbeddingConfig struct {
	APIKey  string
	Model   string        // default: text-embedding-3-small
	BaseURL string        // default: https://api.openai.com
	Timeout time.Duration // default: 30s

	// RequestsPerSecond caps outbound request rate. Zero disables limiting.
	RequestsPerSecond float64
}

// OpenAIEmbeddingClient implements EmbeddingGenerator using the OpenAI
// embeddings API. Each Embed call is a single batched request.
type OpenAIEmbeddingClient struct {
	cfg            OpenAIEmbeddingConfig
	client         *http.Client
	limiter        *rate.Limiter
	circuitBreaker *CircuitBreaker
}

var _ EmbeddingGenerator = (*OpenAIEmbeddingClient)(nil)

// NewOpenAIEmbeddingClient creates a new OpenAI embedding client.
func NewOpenAIEmbeddingClient(cfg OpenAIEmbeddingConfig) *OpenAIEmbeddingClient {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &OpenAIEmbeddingClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:        limiter,
		circuitBreaker: NewCircuitBreaker("openai-embeddings"),
	}
}

// openAIEmbeddingRequest is the request body for POST /v1/embeddings.
type openAIEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// openAIEmbeddingResponse is the response body from POST /v1/embeddings.
type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed generates one embedding vector per input text, in input order.
//
// Empty batches and blank texts are rejected as GenerationError without a
// network round trip. Authentication, rate-limit, server, and transport
// failures surface as ConnectionError; a response whose vector count does
// not match the request surfaces as GenerationError.
func (c *OpenAIEmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, &GenerationError{Provider: "openai", Err: errors.New("empty input batch")}
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, &GenerationError{Provider: "openai", Err: fmt.Errorf("input %d is empty", i)}
		}
	}

	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.embed(ctx, texts)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return nil, &ConnectionError{Provider: "openai", Err: err}
		}
		return nil, err
	}
	return result.([][]float32), nil
}

func (c *OpenAIEmbeddingClient) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	reqBody := openAIEmbeddingRequest{
		Model: c.cfg.Model,
		Input: texts,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/v1/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ConnectionError{Provider: "openai", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, classifyStatus("openai", resp.StatusCode, body)
	}

	var respData openAIEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return nil, &GenerationError{Provider: "openai", Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if len(respData.Data) != len(texts) {
		return nil, &GenerationError{Provider: "openai",
			Err: fmt.Errorf("got %d embeddings for %d inputs", len(respData.Data), len(texts))}
	}

	// The API documents data as request-ordered, but the index field is
	// authoritative.
	vectors := make([][]float32, len(texts))
	for _, item := range respData.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, &GenerationError{Provider: "openai",
				Err: fmt.Errorf("embedding index %d out of range", item.Index)}
		}
		if len(item.Embedding) == 0 {
			return nil, &GenerationError{Provider: "openai",
				Err: fmt.Errorf("empty embedding at index %d", item.Index)}
		}
		vec := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float32(v)
		}
		vectors[item.Index] = vec
	}
	return vectors, nil
}

// GetModel returns the configured model name.
func (c *OpenAIEmbeddingClient) GetModel() string {
	return c.cfg.Model
}

// classifyStatus maps a non-200 provider status to the error taxonomy.
// Auth rejections, rate limits, and server errors are connection-class
// (retryable); everything else means the request content was bad.
func classifyStatus(provider string, status int, body []byte) error {
	err := fmt.Errorf("status %d: %s", status, string(body))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &ConnectionError{Provider: provider, Err: err}
	case status == http.StatusTooManyRequests:
		return &ConnectionError{Provider: provider, Err: err}
	case status >= 500:
		return &ConnectionError{Provider: provider, Err: err}
	default:
		return &GenerationError{Provider: provider, Err: err}
	}
}
