package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"hotel-guest-concierge/internal/domain/ports/adapter"
	"hotel-guest-concierge/internal/domain/ports/repository"
	"hotel-guest-concierge/internal/infra/metrics"
)

// knowledgeErrorSentinel is injected into prompts when no knowledge data can
// be obtained at all. The models are told via prompt defaults to admit the
// gap rather than invent hotel facts.
const knowledgeErrorSentinel = "error loading data"

// KnowledgeLoader is a read-through cache over the knowledge source. Fresh
// cache entries are served directly; on upstream failure a stale entry is
// better than nothing, so expired data is used as a fallback before the
// sentinel.
type KnowledgeLoader struct {
	source   adapter.KnowledgeSource
	cache    repository.KnowledgeCache
	freshFor time.Duration
	log      *zerolog.Logger
}

func NewKnowledgeLoader(source adapter.KnowledgeSource, cache repository.KnowledgeCache, freshFor time.Duration, logger *zerolog.Logger) *KnowledgeLoader {
	compLog := logger.With().Str("component", "KnowledgeLoader").Logger()
	return &KnowledgeLoader{source: source, cache: cache, freshFor: freshFor, log: &compLog}
}

// Load never returns an error; every failure path degrades to stale data or
// the sentinel so the chat pipeline keeps going.
func (l *KnowledgeLoader) Load(ctx context.Context, tenantID, spreadsheetID string) string {
	if spreadsheetID == "" {
		metrics.IncKnowledgeRequest("error")
		return knowledgeErrorSentinel
	}

	key := tenantID + ":" + spreadsheetID
	entry, err := l.cache.Get(ctx, key)
	if err != nil {
		l.log.Warn().Err(err).Str("tenant_id", tenantID).Msg("knowledge cache read failed")
	}
	if entry != nil && time.Since(entry.Timestamp) < l.freshFor {
		metrics.IncKnowledgeRequest("cached")
		return entry.Data
	}

	data, fetchErr := l.source.Fetch(ctx, spreadsheetID)
	if fetchErr == nil {
		if err := l.cache.Put(ctx, key, data); err != nil {
			l.log.Warn().Err(err).Str("tenant_id", tenantID).Msg("knowledge cache write failed")
		}
		metrics.IncKnowledgeRequest("fresh")
		return data
	}

	l.log.Warn().Err(fetchErr).
		Str("tenant_id", tenantID).
		Str("spreadsheet_id", spreadsheetID).
		Msg("knowledge fetch failed")

	if entry != nil {
		metrics.IncKnowledgeRequest("stale_fallback")
		return entry.Data
	}
	metrics.IncKnowledgeRequest("error")
	return knowledgeErrorSentinel
}
