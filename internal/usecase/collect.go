package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"hotel-guest-concierge/internal/domain"
	"hotel-guest-concierge/internal/domain/model"
	"hotel-guest-concierge/internal/domain/ports/repository"
	"hotel-guest-concierge/internal/infra/metrics"
)

// CollectedData is everything the pipeline stages need, gathered up front.
// Every field is populated; failed fetches are replaced by defaults.
type CollectedData struct {
	Prompts   map[string]string
	Configs   map[string]model.TaskLLMConfig
	Tenant    *model.TenantConfig // nil for unknown tenants
	History   *model.SessionMemory
	Knowledge string
}

// DataCollector runs the fan-out fetch phase. All sub-fetches run
// concurrently and every failure is absorbed: the collector always returns a
// usable CollectedData, logging what it had to substitute.
type DataCollector struct {
	prompts      repository.PromptProvider
	tenants      repository.TenantConfigRepository
	sessions     repository.SessionStore
	knowledge    *KnowledgeLoader
	defaultSheet string
	log          *zerolog.Logger
}

func NewDataCollector(
	prompts repository.PromptProvider,
	tenants repository.TenantConfigRepository,
	sessions repository.SessionStore,
	knowledge *KnowledgeLoader,
	defaultSheet string,
	logger *zerolog.Logger,
) *DataCollector {
	compLog := logger.With().Str("component", "DataCollector").Logger()
	return &DataCollector{
		prompts:      prompts,
		tenants:      tenants,
		sessions:     sessions,
		knowledge:    knowledge,
		defaultSheet: defaultSheet,
		log:          &compLog,
	}
}

func (d *DataCollector) Collect(ctx context.Context, tenantID, sessionID string) *CollectedData {
	data := &CollectedData{
		Prompts: make(map[string]string, len(model.TaskNames)),
		Configs: make(map[string]model.TaskLLMConfig, len(model.TaskNames)),
	}

	templates := make(map[string]*model.PromptTemplate, len(model.TaskNames))
	var mu sync.Mutex
	var wg sync.WaitGroup

	// The knowledge fetch needs the tenant's spreadsheet id, so the tenant
	// goroutine hands it over through a channel instead of serializing the
	// two fetches.
	sheetCh := make(chan string, 1)

	for _, task := range model.TaskNames {
		wg.Add(1)
		go func(task string) {
			defer wg.Done()
			tmpl, err := d.prompts.GetPrompt(ctx, task)
			if err != nil {
				d.log.Warn().Err(err).Str("task", task).Msg("prompt fetch failed, using default")
				metrics.IncStageFailure("collect", "prompt_fetch")
				return
			}
			mu.Lock()
			templates[task] = tmpl
			mu.Unlock()
		}(task)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		sheet := d.defaultSheet
		tenant, err := d.tenants.FindByID(ctx, tenantID)
		switch {
		case err == nil:
			data.Tenant = tenant
			if tenant.SpreadsheetID != "" {
				sheet = tenant.SpreadsheetID
			}
		case errors.Is(err, domain.ErrNotFound):
			d.log.Debug().Str("tenant_id", tenantID).Msg("tenant not configured, using defaults")
		default:
			d.log.Warn().Err(err).Str("tenant_id", tenantID).Msg("tenant fetch failed, using defaults")
			metrics.IncStageFailure("collect", "tenant_fetch")
		}
		sheetCh <- sheet
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		mem, err := d.sessions.Get(ctx, tenantID, sessionID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				d.log.Warn().Err(err).Str("session_id", sessionID).Msg("history fetch failed, starting empty")
				metrics.IncStageFailure("collect", "history_fetch")
			}
			mem = model.NewSessionMemory()
		}
		data.History = mem
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case sheet := <-sheetCh:
			data.Knowledge = d.knowledge.Load(ctx, tenantID, sheet)
		case <-ctx.Done():
			data.Knowledge = knowledgeErrorSentinel
		}
	}()

	wg.Wait()

	for _, task := range model.TaskNames {
		tmpl := templates[task]
		prompt := defaultPrompt(task)
		if tmpl != nil && tmpl.Prompt != "" {
			prompt = tmpl.Prompt
		}
		data.Prompts[task] = prompt

		cfg := defaultTaskConfig(task).Overlay(tmpl.LLMConfig())
		if data.Tenant != nil {
			if override, ok := data.Tenant.TaskOverrides[task]; ok {
				cfg = cfg.Overlay(&override)
			}
		}
		data.Configs[task] = cfg
	}
	return data
}
