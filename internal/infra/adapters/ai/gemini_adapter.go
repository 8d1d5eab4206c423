package ai

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"hotel-guest-concierge/internal/domain/ports/adapter"
)

var _ adapter.LLMProvider = (*GeminiAdapter)(nil)

// GeminiAdapter implements the provider port over the official SDK. Gemini
// has no "system" role in content history, so leading system messages are
// lifted into the SystemInstruction field instead.
type GeminiAdapter struct {
	apiKey string
	client *genai.Client
}

func NewGeminiAdapter(ctx context.Context, apiKey string) *GeminiAdapter {
	g := &GeminiAdapter{apiKey: apiKey}
	if apiKey == "" {
		return g
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err == nil {
		g.client = c
	}
	return g
}

func (g *GeminiAdapter) Name() string { return "gemini" }

func (g *GeminiAdapter) IsAvailable() bool { return g.client != nil }

func (g *GeminiAdapter) WithTenantKey(apiKey string) adapter.LLMProvider {
	return NewGeminiAdapter(context.Background(), apiKey)
}

func (g *GeminiAdapter) CreateCompletion(ctx context.Context, req adapter.CompletionRequest) (*adapter.Completion, error) {
	if g.client == nil {
		return nil, errors.New("gemini: client not configured")
	}

	var sys []string
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.RoleUser
		switch strings.ToLower(m.Role) {
		case "assistant", "model":
			role = genai.RoleModel
		case "system":
			sys = append(sys, m.Content)
			continue
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	cfg := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if len(sys) > 0 {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(sys, "\n\n")}},
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, err
	}

	text := ""
	finish := ""
	if resp != nil && len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		finish = string(cand.FinishReason)
		if cand.Content != nil && len(cand.Content.Parts) > 0 {
			text = cand.Content.Parts[0].Text
		}
	}
	if text == "" {
		return nil, errors.New("gemini: empty candidate content")
	}

	u := adapter.Usage{}
	if resp.UsageMetadata != nil {
		u.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		u.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		u.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return &adapter.Completion{
		Content:      text,
		Model:        req.Model,
		Provider:     g.Name(),
		FinishReason: finish,
		Usage:        u,
	}, nil
}
