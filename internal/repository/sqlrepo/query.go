package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"zmodels/internal/domain"
)

// selectQuery builds the named SELECT for terms.
// Conditions follow schema field order; nil terms are skipped.
func (r *Repository) selectQuery(terms domain.Attributes) (string, map[string]any) {
	conds := make([]string, 0, len(terms))
	params := make(map[string]any, len(terms))

	for _, f := range r.schema.Fields {
		value, ok := terms[f.Name]
		if !ok || isNull(value) {
			continue
		}
		conds = append(conds, fmt.Sprintf("%s = :%s", r.quote(f.Name), f.Name))
		params[f.Name] = value
	}

	query := "SELECT * FROM " + r.quote(r.schema.Table)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	return query, params
}

// insert writes m as a new row, leaving out the skip column
func (r *Repository) insert(ctx context.Context, conn *sqlx.Conn, m *domain.Model, skip string) error {
	var (
		query string
		args  []any
		err   error
	)

	cols, values := r.columns(m, skip)
	if len(cols) == 0 {
		query = r.db.Dialect.EmptyInsertSQL(r.schema.Table)
	} else {
		query, args, err = r.sq.Insert(r.quote(r.schema.Table)).Columns(cols...).Values(values...).ToSql()
		if err != nil {
			return fmt.Errorf("build insert %s: %w", r.schema.Table, err)
		}
	}

	r.log.Debug().Str("sql", query).Interface("args", args).Msg("insert")
	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.schema.Table, err)
	}
	return nil
}

// update writes m over the row holding key and reports whether that row exists
func (r *Repository) update(ctx context.Context, conn *sqlx.Conn, m *domain.Model, pk domain.Field, key any) (bool, error) {
	cols, values := r.columns(m, pk.Name)
	if len(cols) == 0 {
		return r.exists(ctx, conn, pk, key)
	}

	builder := r.sq.Update(r.quote(r.schema.Table)).Where(sq.Eq{r.quote(pk.Name): key})
	for i, col := range cols {
		builder = builder.Set(col, values[i])
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return false, fmt.Errorf("build update %s: %w", r.schema.Table, err)
	}

	r.log.Debug().Str("sql", query).Interface("args", args).Msg("update")
	result, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", r.schema.Table, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update %s: %w", r.schema.Table, err)
	}
	return affected > 0, nil
}

func (r *Repository) exists(ctx context.Context, conn *sqlx.Conn, pk domain.Field, key any) (bool, error) {
	query, args, err := r.sq.Select("1").
		From(r.quote(r.schema.Table)).
		Where(sq.Eq{r.quote(pk.Name): key}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists %s: %w", r.schema.Table, err)
	}

	var one int
	err = conn.QueryRowxContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", r.schema.Table, err)
	}
	return true, nil
}

// columns returns the quoted columns and values of m in storage order
func (r *Repository) columns(m *domain.Model, skip string) ([]string, []any) {
	fields := m.Fields()
	cols := make([]string, 0, len(fields))
	values := make([]any, 0, len(fields))

	for _, name := range fields {
		if name == skip {
			continue
		}
		cols = append(cols, r.quote(name))
		values = append(values, m.Value(name))
	}
	return cols, values
}

func (r *Repository) quote(ident string) string {
	return r.db.Dialect.Quote(ident)
}
