package sqlrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"zmodels/internal/database"
	"zmodels/internal/domain"
	"zmodels/internal/repository"
)

var _ repository.Repository = (*Repository)(nil)

// Repository implements repository.Repository for one schema over SQL
type Repository struct {
	db     *database.DB
	schema *domain.Schema
	sq     sq.StatementBuilderType
	log    zerolog.Logger
}

// Option configures a Repository
type Option func(*Repository)

// WithLogger sets the logger used for statement tracing
func WithLogger(log zerolog.Logger) Option {
	return func(r *Repository) {
		r.log = log
	}
}

// New creates a repository for schema and ensures its table exists
func New(ctx context.Context, db *database.DB, schema *domain.Schema, opts ...Option) (*Repository, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: nil schema", domain.ErrInvalidSchema)
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	r := &Repository{
		db:     db,
		schema: schema,
		sq:     sq.StatementBuilder.PlaceholderFormat(db.Dialect.Placeholder),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With().Str("model", schema.Model).Str("table", schema.Table).Logger()

	if err := r.CreateTable(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

// Schema returns the schema descriptor the repository is bound to
func (r *Repository) Schema() *domain.Schema {
	return r.schema
}

// Table returns the table name
func (r *Repository) Table() string {
	return r.schema.Table
}

// Filter returns the rows whose fields equal every non-nil term
func (r *Repository) Filter(ctx context.Context, terms domain.Attributes) ([]*domain.Model, error) {
	if err := r.schema.CheckAttributes(terms); err != nil {
		return nil, err
	}

	query, params := r.selectQuery(terms)
	r.log.Debug().Str("sql", query).Interface("params", params).Msg("filter")

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", r.schema.Table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", r.schema.Table, err)
	}

	models := make([]*domain.Model, 0)
	for rows.Next() {
		row := make(map[string]any, len(columns))
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.schema.Table, err)
		}
		models = append(models, r.hydrate(columns, row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("filter %s: %w", r.schema.Table, err)
	}

	return models, nil
}

// Get returns the single row matching terms
func (r *Repository) Get(ctx context.Context, terms domain.Attributes) (*domain.Model, error) {
	models, err := r.Filter(ctx, terms)
	if err != nil {
		return nil, err
	}

	switch len(models) {
	case 0:
		return nil, domain.NewNotFoundError(r.schema.Model, terms)
	case 1:
		return models[0], nil
	default:
		return nil, domain.NewNotUniqueError(r.schema.Model, terms, len(models))
	}
}

// GetOrCreate returns the row matching terms, creating it from terms when
// none exists. The boolean reports whether a row was created.
func (r *Repository) GetOrCreate(ctx context.Context, terms domain.Attributes) (*domain.Model, bool, error) {
	m, err := r.Get(ctx, terms)
	if err == nil {
		return m, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	m, err = r.Create(ctx, terms)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// All returns every row of the table
func (r *Repository) All(ctx context.Context) ([]*domain.Model, error) {
	return r.Filter(ctx, nil)
}

// Create builds a model from attrs and saves it
func (r *Repository) Create(ctx context.Context, attrs domain.Attributes) (*domain.Model, error) {
	if err := r.schema.CheckAttributes(attrs); err != nil {
		return nil, err
	}

	// Reserve the generated key's slot so it lands in schema order
	if pk, ok := r.schema.PrimaryKey(); ok && pk.Generated != domain.GeneratedNone {
		if _, present := attrs[pk.Name]; !present {
			withKey := make(domain.Attributes, len(attrs)+1)
			for k, v := range attrs {
				withKey[k] = v
			}
			withKey[pk.Name] = nil
			attrs = withKey
		}
	}

	return r.Save(ctx, domain.NewModel(r.schema.Model, attrs, r.schema.FieldNames()...))
}

// Save persists m and returns it with generated fields filled in.
//
// A model carrying a primary key value is updated in place; when no row
// has that key it is inserted. Without a key value, a uuid key is
// generated before the insert and an auto key is read back afterwards
// on the same connection.
func (r *Repository) Save(ctx context.Context, m *domain.Model) (*domain.Model, error) {
	if r == nil {
		return nil, fmt.Errorf("save: %w", domain.ErrNoRepository)
	}
	if m == nil {
		return nil, fmt.Errorf("save %s: nil model", r.schema.Model)
	}
	if m.Name() != r.schema.Model {
		return nil, fmt.Errorf("save %s with %s repository: %w", m.Name(), r.schema.Model, domain.ErrModelMismatch)
	}
	if err := r.schema.CheckAttributes(m.Attributes()); err != nil {
		return nil, err
	}

	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", r.schema.Model, err)
	}
	defer conn.Close()

	pk, hasPK := r.schema.PrimaryKey()
	if !hasPK {
		if err := r.insert(ctx, conn, m, ""); err != nil {
			return nil, err
		}
		return m, nil
	}

	if key, ok := m.Get(pk.Name); ok && !isNull(key) {
		found, err := r.update(ctx, conn, m, pk, key)
		if err != nil {
			return nil, err
		}
		if !found {
			if err := r.insert(ctx, conn, m, ""); err != nil {
				return nil, err
			}
		}
		return m, nil
	}

	switch pk.Generated {
	case domain.GeneratedUUID:
		m.Set(pk.Name, uuid.NewString())
		if err := r.insert(ctx, conn, m, ""); err != nil {
			return nil, err
		}
	case domain.GeneratedAuto:
		if err := r.insert(ctx, conn, m, pk.Name); err != nil {
			return nil, err
		}
		id, err := r.lastID(ctx, conn)
		if err != nil {
			return nil, err
		}
		m.Set(pk.Name, id)
	default:
		if err := r.insert(ctx, conn, m, ""); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// LastID returns the last auto-generated key of the current session.
// On a pooled handle the session is whichever connection serves the
// query, so the value is only meaningful right after an insert when the
// pool holds a single connection. Save reads it on its own connection.
func (r *Repository) LastID(ctx context.Context) (int64, error) {
	var id int64
	if err := r.db.QueryRowxContext(ctx, r.db.Dialect.LastInsertIDQuery()).Scan(&id); err != nil {
		return 0, fmt.Errorf("last id: %w", err)
	}
	return id, nil
}

func (r *Repository) lastID(ctx context.Context, conn *sqlx.Conn) (int64, error) {
	var id int64
	if err := conn.QueryRowxContext(ctx, r.db.Dialect.LastInsertIDQuery()).Scan(&id); err != nil {
		return 0, fmt.Errorf("last id: %w", err)
	}
	return id, nil
}
