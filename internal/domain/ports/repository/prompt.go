package repository

import (
	"context"

	"hotel-guest-concierge/internal/domain/model"
)

// PromptProvider fetches named prompt templates from the prompt registry.
// A nil template (with nil error) means the registry has no such prompt;
// callers substitute their hardcoded default.
type PromptProvider interface {
	GetPrompt(ctx context.Context, name string) (*model.PromptTemplate, error)
}
