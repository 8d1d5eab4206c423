package model

// Task names used to look up prompts and per-task model configuration.
const (
	TaskGuestService  = "guest-service"
	TaskButtons       = "buttons"
	TaskEmail         = "email"
	TaskSheetMatching = "sheet-matching"
)

// TaskNames lists every task the pipeline fetches prompts and configs for.
var TaskNames = []string{TaskGuestService, TaskButtons, TaskEmail, TaskSheetMatching}

// TaskLLMConfig is the resolved model configuration for one task. Alternative,
// when set, is tried once after the primary config fails.
type TaskLLMConfig struct {
	Model       string         `json:"model" yaml:"model"`
	Provider    string         `json:"provider" yaml:"provider"`
	Temperature float64        `json:"temperature" yaml:"temperature"`
	MaxTokens   int            `json:"maxTokens" yaml:"max_tokens"`
	Alternative *TaskLLMConfig `json:"alternative,omitempty" yaml:"alternative,omitempty"`
}

// Overlay returns the receiver with non-zero fields of o applied on top.
func (c TaskLLMConfig) Overlay(o *TaskLLMConfig) TaskLLMConfig {
	if o == nil {
		return c
	}
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.Provider != "" {
		c.Provider = o.Provider
	}
	if o.Temperature != 0 {
		c.Temperature = o.Temperature
	}
	if o.MaxTokens != 0 {
		c.MaxTokens = o.MaxTokens
	}
	if o.Alternative != nil {
		c.Alternative = o.Alternative
	}
	return c
}

// TenantConfig scopes one hotel account: its knowledge spreadsheet, prompt
// overrides and optional per-provider API keys. Read-only for the pipeline;
// fetched fresh per request.
type TenantConfig struct {
	ID             string                   `json:"id"`
	SpreadsheetID  string                   `json:"spreadsheetId"`
	SystemAddendum string                   `json:"systemAddendum,omitempty"`
	EmailTo        string                   `json:"emailTo,omitempty"`
	TaskOverrides  map[string]TaskLLMConfig `json:"taskOverrides,omitempty"`
	ProviderKeys   map[string]string        `json:"providerKeys,omitempty"`
}
