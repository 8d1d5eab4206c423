package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hotel-guest-concierge/internal/domain"
	"hotel-guest-concierge/internal/domain/model"
	"hotel-guest-concierge/internal/domain/ports/repository"
	"hotel-guest-concierge/internal/infra/security"

	"github.com/go-redis/redis/v8"
)

var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore keeps SessionMemory in Redis under chat:{tenant}:{session}
// with a fixed TTL. When an encryption service is supplied the serialized
// memory is encrypted at rest. A retention horizon > 0 drops messages older
// than the horizon on read.
type SessionStore struct {
	client    *Client
	ttl       time.Duration
	retention time.Duration
	enc       *security.EncryptionService // nil disables encryption
}

func NewSessionStore(client *Client, ttl, retention time.Duration, enc *security.EncryptionService) *SessionStore {
	return &SessionStore{client: client, ttl: ttl, retention: retention, enc: enc}
}

func (s *SessionStore) Get(ctx context.Context, tenantID, sessionID string) (*model.SessionMemory, error) {
	data, err := s.client.Get(ctx, sessionKey(tenantID, sessionID))
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if s.enc != nil {
		if data, err = s.enc.Decrypt(data); err != nil {
			return nil, fmt.Errorf("decrypt session: %w", err)
		}
	}

	var mem model.SessionMemory
	if err := json.Unmarshal([]byte(data), &mem); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	mem.Since(s.retention, time.Now())
	return &mem, nil
}

func (s *SessionStore) Save(ctx context.Context, tenantID, sessionID string, mem *model.SessionMemory) error {
	b, err := json.Marshal(mem)
	if err != nil {
		return err
	}
	payload := string(b)
	if s.enc != nil {
		if payload, err = s.enc.Encrypt(payload); err != nil {
			return fmt.Errorf("encrypt session: %w", err)
		}
	}
	return s.client.Set(ctx, sessionKey(tenantID, sessionID), payload, s.ttl)
}

func (s *SessionStore) Delete(ctx context.Context, tenantID, sessionID string) error {
	return s.client.Del(ctx, sessionKey(tenantID, sessionID))
}

func sessionKey(tenantID, sessionID string) string {
	return "chat:" + tenantID + ":" + sessionID
}
