package ai

import (
	"fmt"
	"strings"

	"hotel-guest-concierge/internal/domain"
	"hotel-guest-concierge/internal/domain/ports/adapter"
)

var _ adapter.ProviderRegistry = (*Registry)(nil)

// Registry holds the configured providers keyed by name. Lookups are
// case-insensitive. ForTenant derives a per-request view with tenant API
// keys applied, leaving the shared registry untouched.
type Registry struct {
	byName map[string]adapter.LLMProvider
}

func NewRegistry(providers ...adapter.LLMProvider) *Registry {
	byName := make(map[string]adapter.LLMProvider, len(providers))
	for _, p := range providers {
		byName[strings.ToLower(p.Name())] = p
	}
	return &Registry{byName: byName}
}

func (r *Registry) Get(name string) (adapter.LLMProvider, error) {
	p, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("provider %q not registered: %w", name, domain.ErrProviderUnavailable)
	}
	if !p.IsAvailable() {
		return nil, fmt.Errorf("provider %q has no API key: %w", name, domain.ErrProviderUnavailable)
	}
	return p, nil
}

// Names lists the registered provider names, available or not.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	return out
}

// ForTenant overlays tenant-supplied API keys onto a copy of the registry.
// Providers without a tenant key keep the process-level credentials.
func (r *Registry) ForTenant(keys map[string]string) adapter.ProviderRegistry {
	if len(keys) == 0 {
		return r
	}
	byName := make(map[string]adapter.LLMProvider, len(r.byName))
	for name, p := range r.byName {
		byName[name] = p
	}
	for name, key := range keys {
		name = strings.ToLower(name)
		if key == "" {
			continue
		}
		if p, ok := byName[name]; ok {
			byName[name] = p.WithTenantKey(key)
		}
	}
	return &Registry{byName: byName}
}
