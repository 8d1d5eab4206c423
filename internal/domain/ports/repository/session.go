package repository

import (
	"context"

	"hotel-guest-concierge/internal/domain/model"
)

// SessionStore persists SessionMemory per (tenant, session) key with a TTL
// owned by the implementation. Get returns domain.ErrNotFound for keys that
// were never written or have expired.
type SessionStore interface {
	Get(ctx context.Context, tenantID, sessionID string) (*model.SessionMemory, error)
	Save(ctx context.Context, tenantID, sessionID string, mem *model.SessionMemory) error
	Delete(ctx context.Context, tenantID, sessionID string) error
}
