package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"hotel-guest-concierge/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.KnowledgeCache = (*KnowledgeCache)(nil)

// KnowledgeCache stores knowledge-base exports with their fetch timestamp.
// Entries survive in Redis for keepFor so an expired-but-present entry can
// back a stale fallback; freshness itself is judged by the caller against
// the entry timestamp.
type KnowledgeCache struct {
	client  *Client
	keepFor time.Duration
}

func NewKnowledgeCache(client *Client, keepFor time.Duration) *KnowledgeCache {
	return &KnowledgeCache{client: client, keepFor: keepFor}
}

func (c *KnowledgeCache) Get(ctx context.Context, key string) (*repository.KnowledgeEntry, error) {
	data, err := c.client.Get(ctx, "kb:"+key)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entry repository.KnowledgeEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *KnowledgeCache) Put(ctx context.Context, key, data string) error {
	b, err := json.Marshal(repository.KnowledgeEntry{Data: data, Timestamp: time.Now()})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "kb:"+key, b, c.keepFor)
}
