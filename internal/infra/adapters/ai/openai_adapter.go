package ai

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"hotel-guest-concierge/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.LLMProvider = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements the provider port over the official SDK.
type OpenAIAdapter struct {
	apiKey string
	client openai.Client
}

func NewOpenAIAdapter(apiKey string) *OpenAIAdapter {
	return &OpenAIAdapter{
		apiKey: apiKey,
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}
}

func (o *OpenAIAdapter) Name() string { return "openai" }

func (o *OpenAIAdapter) IsAvailable() bool { return o.apiKey != "" }

func (o *OpenAIAdapter) WithTenantKey(apiKey string) adapter.LLMProvider {
	return NewOpenAIAdapter(apiKey)
}

func (o *OpenAIAdapter) CreateCompletion(ctx context.Context, req adapter.CompletionRequest) (*adapter.Completion, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: msgs,
	}
	if req.Temperature != 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: no choices in response")
	}

	choice := resp.Choices[0]
	return &adapter.Completion{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		Provider:     o.Name(),
		FinishReason: string(choice.FinishReason),
		Usage: adapter.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}
