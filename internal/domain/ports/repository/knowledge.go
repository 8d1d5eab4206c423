package repository

import (
	"context"
	"time"
)

// KnowledgeEntry is one cached knowledge-base export. Timestamp is when the
// data was fetched; staleness is judged by the caller against its own TTL so
// an expired-but-present entry can still serve as a fallback.
type KnowledgeEntry struct {
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// KnowledgeCache stores knowledge-base text per cache key. Get returns
// (nil, nil) on a miss.
type KnowledgeCache interface {
	Get(ctx context.Context, key string) (*KnowledgeEntry, error)
	Put(ctx context.Context, key, data string) error
}
