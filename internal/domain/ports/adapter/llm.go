package adapter

import "context"

// Message is a provider-neutral chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage for a single completion call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything a provider needs for one call.
type CompletionRequest struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Messages    []Message
}

// Completion is the normalized response contract every provider maps its
// vendor-specific shape into.
type Completion struct {
	Content      string
	Model        string
	Provider     string
	FinishReason string
	Usage        Usage
}

// LLMProvider is the port for one backend model provider. Callers must check
// IsAvailable before dispatch, or treat an unavailable provider like a failed
// call for fallback purposes.
type LLMProvider interface {
	Name() string

	// IsAvailable reports whether credentials are configured.
	IsAvailable() bool

	CreateCompletion(ctx context.Context, req CompletionRequest) (*Completion, error)

	// WithTenantKey returns a provider bound to a tenant-specific API key.
	// Tenant keys take precedence over process credentials, which requires
	// reconstructing the underlying client.
	WithTenantKey(apiKey string) LLMProvider
}

// ProviderRegistry resolves providers by name. ForTenant derives a view with
// tenant-supplied API keys applied without mutating the shared registry.
type ProviderRegistry interface {
	Get(name string) (LLMProvider, error)
	ForTenant(keys map[string]string) ProviderRegistry
}
