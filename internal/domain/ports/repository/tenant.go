package repository

import (
	"context"

	"hotel-guest-concierge/internal/domain/model"
)

// TenantConfigRepository looks up per-tenant configuration. FindByID returns
// domain.ErrNotFound for unknown tenants.
type TenantConfigRepository interface {
	FindByID(ctx context.Context, id string) (*model.TenantConfig, error)
	Save(ctx context.Context, cfg *model.TenantConfig) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*model.TenantConfig, error)
}
