package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"hotel-guest-concierge/internal/domain"
	"hotel-guest-concierge/internal/domain/model"
	"hotel-guest-concierge/internal/domain/ports/repository"
)

var _ repository.TenantConfigRepository = (*PostgresTenantRepo)(nil)

// PostgresTenantRepo stores per-tenant configuration. Prompt overrides and
// provider keys live in JSONB columns; malformed JSON there is logged and
// treated as absent rather than failing the lookup, so one bad tenant row
// cannot take down request handling.
type PostgresTenantRepo struct {
	pool *pgxpool.Pool
	log  *zerolog.Logger
}

func NewPostgresTenantRepo(pool *pgxpool.Pool, logger *zerolog.Logger) *PostgresTenantRepo {
	compLog := logger.With().Str("component", "PostgresTenantRepo").Logger()
	return &PostgresTenantRepo{pool: pool, log: &compLog}
}

func (r *PostgresTenantRepo) FindByID(ctx context.Context, id string) (*model.TenantConfig, error) {
	const q = `
SELECT id, spreadsheet_id, system_addendum, email_to, task_overrides, provider_keys
  FROM tenants WHERE id=$1;`
	var (
		cfg       model.TenantConfig
		overrides []byte
		keys      []byte
	)
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&cfg.ID, &cfg.SpreadsheetID, &cfg.SystemAddendum, &cfg.EmailTo, &overrides, &keys)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &cfg.TaskOverrides); err != nil {
			r.log.Warn().Err(err).Str("tenant_id", id).Msg("malformed task_overrides, ignoring")
			cfg.TaskOverrides = nil
		}
	}
	if len(keys) > 0 {
		if err := json.Unmarshal(keys, &cfg.ProviderKeys); err != nil {
			r.log.Warn().Err(err).Str("tenant_id", id).Msg("malformed provider_keys, ignoring")
			cfg.ProviderKeys = nil
		}
	}
	return &cfg, nil
}

func (r *PostgresTenantRepo) Save(ctx context.Context, cfg *model.TenantConfig) error {
	const q = `
INSERT INTO tenants (id, spreadsheet_id, system_addendum, email_to, task_overrides, provider_keys)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  spreadsheet_id=$2, system_addendum=$3, email_to=$4, task_overrides=$5, provider_keys=$6;`
	overrides, err := json.Marshal(cfg.TaskOverrides)
	if err != nil {
		return err
	}
	keys, err := json.Marshal(cfg.ProviderKeys)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, q, cfg.ID, cfg.SpreadsheetID, cfg.SystemAddendum, cfg.EmailTo, overrides, keys)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *PostgresTenantRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tenants WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresTenantRepo) List(ctx context.Context, offset, limit int) ([]*model.TenantConfig, error) {
	const q = `
SELECT id, spreadsheet_id, system_addendum, email_to, task_overrides, provider_keys
  FROM tenants ORDER BY id OFFSET $1 LIMIT $2;`
	rows, err := r.pool.Query(ctx, q, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.TenantConfig
	for rows.Next() {
		var (
			cfg       model.TenantConfig
			overrides []byte
			keys      []byte
		)
		if err := rows.Scan(&cfg.ID, &cfg.SpreadsheetID, &cfg.SystemAddendum, &cfg.EmailTo, &overrides, &keys); err != nil {
			return nil, err
		}
		if len(overrides) > 0 {
			if err := json.Unmarshal(overrides, &cfg.TaskOverrides); err != nil {
				r.log.Warn().Err(err).Str("tenant_id", cfg.ID).Msg("malformed task_overrides, ignoring")
			}
		}
		if len(keys) > 0 {
			if err := json.Unmarshal(keys, &cfg.ProviderKeys); err != nil {
				r.log.Warn().Err(err).Str("tenant_id", cfg.ID).Msg("malformed provider_keys, ignoring")
			}
		}
		out = append(out, &cfg)
	}
	return out, rows.Err()
}
