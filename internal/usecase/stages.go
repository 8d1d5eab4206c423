package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hotel-guest-concierge/internal/domain/model"
	"hotel-guest-concierge/internal/domain/ports/adapter"
	"hotel-guest-concierge/internal/infra/metrics"
	"hotel-guest-concierge/internal/llmjson"
)

// call runs one completion against the configured provider, recording usage
// and latency.
func (s *ChatService) call(ctx context.Context, reg adapter.ProviderRegistry, task string, cfg model.TaskLLMConfig, msgs []adapter.Message) (*adapter.Completion, error) {
	provider, err := reg.Get(cfg.Provider)
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	start := time.Now()
	comp, err := provider.CreateCompletion(cctx, adapter.CompletionRequest{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Messages:    msgs,
	})
	latencyMs := int(time.Since(start).Milliseconds())
	if err != nil {
		metrics.ObserveLLMUsage(cfg.Provider, cfg.Model, task, 0, 0, 0, latencyMs, false)
		return nil, err
	}
	metrics.ObserveLLMUsage(comp.Provider, comp.Model, task,
		comp.Usage.PromptTokens, comp.Usage.CompletionTokens, comp.Usage.TotalTokens,
		latencyMs, true)
	return comp, nil
}

// complete tries the primary config and, on any failure, the alternative
// exactly once.
func (s *ChatService) complete(ctx context.Context, reg adapter.ProviderRegistry, task string, cfg model.TaskLLMConfig, msgs []adapter.Message) (*adapter.Completion, error) {
	comp, err := s.call(ctx, reg, task, cfg, msgs)
	if err == nil {
		return comp, nil
	}
	if cfg.Alternative == nil {
		return nil, err
	}

	s.log.Warn().Err(err).
		Str("task", task).
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("primary model failed, trying alternative")
	metrics.IncLLMFallback(task)

	alt := *cfg.Alternative
	alt.Alternative = nil
	comp, altErr := s.call(ctx, reg, task, alt, msgs)
	if altErr != nil {
		return nil, fmt.Errorf("primary %s/%s: %v; alternative %s/%s: %w",
			cfg.Provider, cfg.Model, err, alt.Provider, alt.Model, altErr)
	}
	return comp, nil
}

// condenseKnowledge shrinks an oversized knowledge base to the rows relevant
// for this message. Non-fatal: on any failure the text is hard-truncated to
// the token budget instead.
func (s *ChatService) condenseKnowledge(ctx context.Context, reg adapter.ProviderRegistry, data *CollectedData, userMessage string) string {
	knowledge := data.Knowledge
	if s.tokenBudget <= 0 || countTokens(knowledge) <= s.tokenBudget {
		return knowledge
	}

	msgs := []adapter.Message{
		{Role: "system", Content: data.Prompts[model.TaskSheetMatching]},
		{Role: "user", Content: "Guest message:\n" + userMessage + "\n\nKnowledge base rows:\n" + knowledge},
	}
	comp, err := s.complete(ctx, reg, model.TaskSheetMatching, data.Configs[model.TaskSheetMatching], msgs)
	if err != nil || strings.TrimSpace(comp.Content) == "" {
		s.log.Warn().Err(err).Msg("knowledge condensing failed, truncating")
		metrics.IncStageFailure("sheet_matching", "llm_call")
		return truncateToTokens(knowledge, s.tokenBudget)
	}
	return strings.TrimSpace(comp.Content)
}

// guestReply is the only fatal stage: without its output there is nothing to
// show the guest.
func (s *ChatService) guestReply(ctx context.Context, reg adapter.ProviderRegistry, data *CollectedData, knowledge, userMessage string) (model.GuestReply, error) {
	system := data.Prompts[model.TaskGuestService]
	if data.Tenant != nil && data.Tenant.SystemAddendum != "" {
		system += "\n\n" + data.Tenant.SystemAddendum
	}
	system += "\n\nKnowledge base:\n" + knowledge

	msgs := make([]adapter.Message, 0, len(data.History.Messages)+2)
	msgs = append(msgs, adapter.Message{Role: "system", Content: system})
	for _, m := range data.History.Ordered() {
		msgs = append(msgs, adapter.Message{Role: string(m.Role), Content: m.Content})
	}
	msgs = append(msgs, adapter.Message{Role: "user", Content: userMessage})

	comp, err := s.complete(ctx, reg, model.TaskGuestService, data.Configs[model.TaskGuestService], msgs)
	if err != nil {
		metrics.IncStageFailure("guest_service", "llm_call")
		return model.GuestReply{}, err
	}

	raw := strings.TrimSpace(comp.Content)
	reply := model.GuestReply{Text: raw}
	outcome := llmjson.DecodeInto(comp.Content, &reply)
	s.noteParse("guest_service", outcome, comp.Content)
	if strings.TrimSpace(reply.Text) == "" {
		// A parsed object with an empty text field still must not blank
		// the reply.
		reply.Text = raw
	}
	return reply, nil
}

// buttonsFor proposes quick replies and detects the guest's language.
// Non-fatal: any failure degrades to no buttons and the request language.
func (s *ChatService) buttonsFor(ctx context.Context, reg adapter.ProviderRegistry, data *CollectedData, knowledge, userMessage, requestLang string, guest model.GuestReply) model.ButtonsResult {
	fallback := model.ButtonsResult{Language: requestLang}

	system := data.Prompts[model.TaskButtons] + "\n\nKnowledge base:\n" + knowledge
	msgs := make([]adapter.Message, 0, len(data.History.Messages)+3)
	msgs = append(msgs, adapter.Message{Role: "system", Content: system})
	for _, m := range data.History.Ordered() {
		msgs = append(msgs, adapter.Message{Role: string(m.Role), Content: m.Content})
	}
	msgs = append(msgs,
		adapter.Message{Role: "user", Content: userMessage},
		adapter.Message{Role: "assistant", Content: guest.Text},
	)

	comp, err := s.complete(ctx, reg, model.TaskButtons, data.Configs[model.TaskButtons], msgs)
	if err != nil {
		s.log.Warn().Err(err).Msg("buttons stage failed, continuing without buttons")
		metrics.IncStageFailure("buttons", "llm_call")
		return fallback
	}

	result := fallback
	outcome := llmjson.DecodeInto(comp.Content, &result)
	s.noteParse("buttons", outcome, comp.Content)
	if result.Language == "" {
		result.Language = requestLang
	}
	return result
}

// emailDecisionFor classifies whether the message needs staff escalation. It
// sees the reply the guest is about to get so the email can quote it.
// Non-fatal: failure means no email and no clarification.
func (s *ChatService) emailDecisionFor(ctx context.Context, reg adapter.ProviderRegistry, data *CollectedData, knowledge, userMessage string, guest model.GuestReply) model.EmailDecision {
	system := data.Prompts[model.TaskEmail] + "\n\nKnowledge base:\n" + knowledge
	msgs := make([]adapter.Message, 0, len(data.History.Messages)+3)
	msgs = append(msgs, adapter.Message{Role: "system", Content: system})
	// Newest turns first; staff escalation hinges on the latest exchange and
	// long histories get truncated by the model from the tail.
	hist := data.History.Ordered()
	for i := len(hist) - 1; i >= 0; i-- {
		msgs = append(msgs, adapter.Message{Role: string(hist[i].Role), Content: hist[i].Content})
	}
	msgs = append(msgs,
		adapter.Message{Role: "user", Content: userMessage},
		adapter.Message{Role: "assistant", Content: guest.Text},
	)

	comp, err := s.complete(ctx, reg, model.TaskEmail, data.Configs[model.TaskEmail], msgs)
	if err != nil {
		s.log.Warn().Err(err).Msg("email stage failed, skipping escalation")
		metrics.IncStageFailure("email", "llm_call")
		return model.EmailDecision{}
	}

	var decision model.EmailDecision
	outcome := llmjson.DecodeInto(comp.Content, &decision)
	s.noteParse("email", outcome, comp.Content)
	return decision
}

// noteParse records how the model output decoded. Anything short of a clean
// parse also logs the raw content, truncated, for diagnostics.
func (s *ChatService) noteParse(stage string, outcome llmjson.Outcome, raw string) {
	metrics.IncParseOutcome(stage, outcome.String())
	if outcome == llmjson.Direct {
		return
	}
	s.log.Warn().
		Str("stage", stage).
		Str("outcome", outcome.String()).
		Str("raw", llmjson.Truncate(raw, 500)).
		Msg("model output needed lenient parsing")
}
