package model

import "encoding/json"

// PromptTemplate is a named template fetched from the prompt registry.
// Config is the registry's free-form key/value map; the model-related keys
// are lifted into a TaskLLMConfig via LLMConfig.
type PromptTemplate struct {
	Prompt string         `json:"prompt"`
	Config map[string]any `json:"config,omitempty"`
}

// LLMConfig extracts the model configuration carried in the template's config
// map. Returns nil when the map holds no recognizable fields.
func (p *PromptTemplate) LLMConfig() *TaskLLMConfig {
	if p == nil || len(p.Config) == 0 {
		return nil
	}
	// Round-trip through JSON so the free-form map's numbers and nested
	// "alternative" object land in the typed struct.
	b, err := json.Marshal(p.Config)
	if err != nil {
		return nil
	}
	var cfg TaskLLMConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil
	}
	if cfg == (TaskLLMConfig{}) {
		return nil
	}
	return &cfg
}
