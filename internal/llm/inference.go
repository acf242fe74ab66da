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

	"github.com/scoutline/careerctx/pkg/types"
)

// OpenAIInferrerConfig holds configuration for the inference client.
type OpenAIInferrerConfig struct {
	APIKey  string
	Model   string        // default: gpt-4o-mini
	BaseURL string        // default: https://api.openai.com
	Timeout time.Duration // default: 60s
}

// OpenAIInferrer implements ExperienceInferrer using the OpenAI chat
// completions API.
type OpenAIInferrer struct {
	cfg            OpenAIInferrerConfig
	client         *http.Client
	circuitBreaker *CircuitBreaker
}

var _ ExperienceInferrer = (*OpenAIInferrer)(nil)

// NewOpenAIInferrer creates a new inference client.
func NewOpenAIInferrer(cfg OpenAIInferrerConfig) *OpenAIInferrer {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &OpenAIInferrer{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		circuitBreaker: NewCircuitBreaker("openai-inference"),
	}
}

// openAIChatRequest is the request body for POST /v1/chat/completions.
type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAIChatResponse is the response body from POST /v1/chat/completions.
type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Infer sends the assembled period contexts to the model and returns its
// structured answer as raw JSON. The answer may arrive inside a ```json
// fence; the fence is stripped before validation.
func (c *OpenAIInferrer) Infer(ctx context.Context, contexts []types.PeriodContext) (json.RawMessage, error) {
	if len(contexts) == 0 {
		return nil, &GenerationError{Provider: "openai", Err: errors.New("no period contexts to infer from")}
	}

	prompt, err := buildInferencePrompt(contexts)
	if err != nil {
		return nil, &GenerationError{Provider: "openai", Err: err}
	}

	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.complete(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return nil, &ConnectionError{Provider: "openai", Err: err}
		}
		return nil, err
	}

	raw := extractJSON(result.(string))
	if !json.Valid([]byte(raw)) {
		return nil, &GenerationError{Provider: "openai", Err: errors.New("model answer is not valid JSON")}
	}
	return json.RawMessage(raw), nil
}

func (c *OpenAIInferrer) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	reqBody := openAIChatRequest{
		Model: c.cfg.Model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: inferenceSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &ConnectionError{Provider: "openai", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", classifyStatus("openai", resp.StatusCode, body)
	}

	var respData openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", &GenerationError{Provider: "openai", Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if len(respData.Choices) == 0 {
		return "", &GenerationError{Provider: "openai", Err: errors.New("no choices in response")}
	}
	return respData.Choices[0].Message.Content, nil
}

// GetModel returns the configured model name.
func (c *OpenAIInferrer) GetModel() string {
	return c.cfg.Model
}

const inferenceSystemPrompt = `You are an analyst deriving structured experience tags from a person's employment history. For each period you receive the role, the employer's profile, business metrics observed during the period, and news published during the period. Answer with a JSON array, one object per period, each with "label", "title", and "tags" (an array of short experience-tag strings). Answer with JSON only.`

// buildInferencePrompt renders the period contexts chronologically as the
// user message. The contexts arrive already sorted by period start.
func buildInferencePrompt(contexts []types.PeriodContext) (string, error) {
	var b strings.Builder
	for i, pc := range contexts {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## Period %d: %s", i+1, pc.Period.Label)
		if pc.Period.Title != "" {
			fmt.Fprintf(&b, " (%s)", pc.Period.Title)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "From %s", formatMonth(pc.Period.Start))
		if pc.Period.End != nil {
			fmt.Fprintf(&b, " to %s", formatMonth(*pc.Period.End))
		} else {
			b.WriteString(" to present")
		}
		b.WriteString("\n")
		if pc.Period.Description != "" {
			fmt.Fprintf(&b, "Role description: %s\n", pc.Period.Description)
		}

		if pc.Entity == nil {
			b.WriteString("Employer: unknown (no matching record)\n")
			continue
		}
		fmt.Fprintf(&b, "Employer: %s", pc.Entity.Name)
		if pc.Entity.NameEN != "" && pc.Entity.NameEN != pc.Entity.Name {
			fmt.Fprintf(&b, " (%s)", pc.Entity.NameEN)
		}
		b.WriteString("\n")
		if len(pc.Entity.Industry) > 0 {
			fmt.Fprintf(&b, "Industry: %s\n", strings.Join(pc.Entity.Industry, ", "))
		}
		if pc.Entity.Stage != "" {
			fmt.Fprintf(&b, "Stage: %s\n", pc.Entity.Stage)
		}
		if pc.Entity.Description != "" {
			fmt.Fprintf(&b, "About: %s\n", pc.Entity.Description)
		}

		if pc.Summary != nil && !pc.Summary.IsEmpty() {
			metricsJSON, err := json.Marshal(pc.Summary)
			if err != nil {
				return "", fmt.Errorf("marshal metrics summary: %w", err)
			}
			fmt.Fprintf(&b, "Metrics during period: %s\n", metricsJSON)
		}

		for _, content := range pc.Content {
			fmt.Fprintf(&b, "News: %s — %s\n", content.Title, content.Body)
		}
	}
	return b.String(), nil
}

func formatMonth(ym types.YearMonth) string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.MonthOrJanuary())
}

// extractJSON strips a markdown code fence from a model answer when present.
func extractJSON(answer string) string {
	trimmed := strings.TrimSpace(answer)
	if start := strings.Index(trimmed, "```json"); start >= 0 {
		rest := trimmed[start+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if start := strings.Index(trimmed, "```"); start >= 0 {
		rest := trimmed[start+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	return trimmed
}
