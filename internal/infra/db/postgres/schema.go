package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
)

// EnsureSchema creates the tables the service needs. Idempotent, run at
// startup; a dedicated migration tool would replace this once the schema
// starts evolving.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tenants (
  id              TEXT PRIMARY KEY,
  spreadsheet_id  TEXT NOT NULL DEFAULT '',
  system_addendum TEXT NOT NULL DEFAULT '',
  email_to        TEXT NOT NULL DEFAULT '',
  task_overrides  JSONB,
  provider_keys   JSONB
);`
	_, err := pool.Exec(ctx, ddl)
	return err
}
