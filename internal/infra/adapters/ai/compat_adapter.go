package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hotel-guest-concierge/internal/domain/ports/adapter"
)

var _ adapter.LLMProvider = (*CompatAdapter)(nil)

// CompatAdapter covers any gateway speaking the OpenAI chat-completions wire
// format under its own base URL. One implementation, several provider names.
type CompatAdapter struct {
	name    string
	apiKey  string
	baseURL string
	httpCli *http.Client
}

func NewCompatAdapter(name, baseURL, apiKey string) *CompatAdapter {
	return &CompatAdapter{
		name:    name,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCli: &http.Client{Timeout: 60 * time.Second},
	}
}

func NewOpenRouterAdapter(apiKey string) *CompatAdapter {
	return NewCompatAdapter("openrouter", "https://openrouter.ai/api/v1", apiKey)
}

func NewGroqAdapter(apiKey string) *CompatAdapter {
	return NewCompatAdapter("groq", "https://api.groq.com/openai/v1", apiKey)
}

func (c *CompatAdapter) Name() string { return c.name }

func (c *CompatAdapter) IsAvailable() bool { return c.apiKey != "" }

func (c *CompatAdapter) WithTenantKey(apiKey string) adapter.LLMProvider {
	clone := *c
	clone.apiKey = apiKey
	return &clone
}

type compatRequest struct {
	Model       string            `json:"model"`
	Messages    []adapter.Message `json:"messages"`
	Temperature *float64          `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
}

type compatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *CompatAdapter) CreateCompletion(ctx context.Context, req adapter.CompletionRequest) (*adapter.Completion, error) {
	body := compatRequest{
		Model:     req.Model,
		Messages:  req.Messages,
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature != 0 {
		t := req.Temperature
		body.Temperature = &t
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", c.name, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpCli.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", c.name, err)
	}
	var parsed compatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%s: decode response (status %d): %w", c.name, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, fmt.Errorf("%s: status %d: %s", c.name, resp.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%s: no choices in response", c.name)
	}

	return &adapter.Completion{
		Content:      parsed.Choices[0].Message.Content,
		Model:        parsed.Model,
		Provider:     c.name,
		FinishReason: parsed.Choices[0].FinishReason,
		Usage: adapter.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}, nil
}
