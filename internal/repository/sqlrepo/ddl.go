package sqlrepo

import (
	"context"
	"fmt"
)

// CreateTable creates the table if it does not exist yet.
// Existing tables are left untouched; no columns are added or altered.
func (r *Repository) CreateTable(ctx context.Context) error {
	stmt := r.db.Dialect.CreateTableSQL(r.schema)
	r.log.Debug().Str("sql", stmt).Msg("create table")

	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", r.schema.Table, err)
	}
	return nil
}
