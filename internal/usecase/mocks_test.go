package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"hotel-guest-concierge/internal/domain"
	"hotel-guest-concierge/internal/domain/model"
	"hotel-guest-concierge/internal/domain/ports/adapter"
	"hotel-guest-concierge/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func testTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("test")
}

// ---- prompt provider ----

type fakePromptProvider struct {
	templates map[string]*model.PromptTemplate
	err       error
}

func (f *fakePromptProvider) GetPrompt(ctx context.Context, name string) (*model.PromptTemplate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.templates[name], nil
}

// ---- tenant repository ----

type fakeTenantRepo struct {
	tenants map[string]*model.TenantConfig
	err     error
}

func (f *fakeTenantRepo) FindByID(ctx context.Context, id string) (*model.TenantConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tenants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (f *fakeTenantRepo) Save(ctx context.Context, cfg *model.TenantConfig) error {
	if f.tenants == nil {
		f.tenants = map[string]*model.TenantConfig{}
	}
	f.tenants[cfg.ID] = cfg
	return nil
}

func (f *fakeTenantRepo) Delete(ctx context.Context, id string) error {
	delete(f.tenants, id)
	return nil
}

func (f *fakeTenantRepo) List(ctx context.Context, offset, limit int) ([]*model.TenantConfig, error) {
	out := make([]*model.TenantConfig, 0, len(f.tenants))
	for _, t := range f.tenants {
		out = append(out, t)
	}
	return out, nil
}

// ---- session store ----

type fakeSessionStore struct {
	mu      sync.Mutex
	mems    map[string]*model.SessionMemory
	getErr  error
	saveErr error
	saves   int
}

func sessionKey(tenantID, sessionID string) string { return tenantID + "/" + sessionID }

func (f *fakeSessionStore) Get(ctx context.Context, tenantID, sessionID string) (*model.SessionMemory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	mem, ok := f.mems[sessionKey(tenantID, sessionID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *mem
	cp.Messages = append([]model.ChatMessage(nil), mem.Messages...)
	return &cp, nil
}

func (f *fakeSessionStore) Save(ctx context.Context, tenantID, sessionID string, mem *model.SessionMemory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.mems == nil {
		f.mems = map[string]*model.SessionMemory{}
	}
	f.mems[sessionKey(tenantID, sessionID)] = mem
	f.saves++
	return nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, tenantID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.mems, sessionKey(tenantID, sessionID))
	return nil
}

// ---- knowledge ----

type fakeKnowledgeCache struct {
	mu      sync.Mutex
	entries map[string]*repository.KnowledgeEntry
	puts    int
}

func (f *fakeKnowledgeCache) Get(ctx context.Context, key string) (*repository.KnowledgeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[key], nil
}

func (f *fakeKnowledgeCache) Put(ctx context.Context, key, data string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries == nil {
		f.entries = map[string]*repository.KnowledgeEntry{}
	}
	f.entries[key] = &repository.KnowledgeEntry{Data: data, Timestamp: time.Now()}
	f.puts++
	return nil
}

type fakeKnowledgeSource struct {
	mu    sync.Mutex
	data  string
	err   error
	calls int
}

func (f *fakeKnowledgeSource) Fetch(ctx context.Context, spreadsheetID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.data, nil
}

// ---- LLM provider and registry ----

// fakeProvider scripts replies per stage. The stage is recognized by a
// marker substring in the system message.
type fakeProvider struct {
	name string
	fn   func(req adapter.CompletionRequest) (string, error)
}

func (f *fakeProvider) Name() string      { return f.name }
func (f *fakeProvider) IsAvailable() bool { return true }
func (f *fakeProvider) WithTenantKey(apiKey string) adapter.LLMProvider {
	return f
}

func (f *fakeProvider) CreateCompletion(ctx context.Context, req adapter.CompletionRequest) (*adapter.Completion, error) {
	content, err := f.fn(req)
	if err != nil {
		return nil, err
	}
	return &adapter.Completion{
		Content:      content,
		Model:        req.Model,
		Provider:     f.name,
		FinishReason: "stop",
		Usage:        adapter.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

type fakeRegistry struct {
	providers map[string]adapter.LLMProvider
}

func (f *fakeRegistry) Get(name string) (adapter.LLMProvider, error) {
	p, ok := f.providers[name]
	if !ok {
		return nil, domain.ErrProviderUnavailable
	}
	return p, nil
}

func (f *fakeRegistry) ForTenant(keys map[string]string) adapter.ProviderRegistry { return f }

// taskOf recognizes which stage issued the request, via markers in the
// built-in prompts.
func taskOf(req adapter.CompletionRequest) string {
	if len(req.Messages) == 0 {
		return ""
	}
	system := req.Messages[0].Content
	switch {
	case strings.Contains(system, "quick-reply buttons"):
		return model.TaskButtons
	case strings.Contains(system, "escalation to staff"):
		return model.TaskEmail
	case strings.Contains(system, "filter a hotel knowledge base"):
		return model.TaskSheetMatching
	default:
		return model.TaskGuestService
	}
}

// ---- email ----

type fakeEmailSender struct {
	mu    sync.Mutex
	sent  []adapter.Email
	err   error
	ready chan struct{} // closed on first send, for async assertions
}

func newFakeEmailSender() *fakeEmailSender {
	return &fakeEmailSender{ready: make(chan struct{})}
}

func (f *fakeEmailSender) Send(ctx context.Context, e adapter.Email) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, e)
	if len(f.sent) == 1 {
		close(f.ready)
	}
	return "msg-1", nil
}

// ---- locker ----

type fakeLocker struct {
	err     error
	locks   int
	unlocks int
}

func (f *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.locks++
	return "token", nil
}

func (f *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	f.unlocks++
	return nil
}
