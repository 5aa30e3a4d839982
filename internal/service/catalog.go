package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"zmodels/internal/database"
	"zmodels/internal/domain"
	"zmodels/internal/loader"
	"zmodels/internal/repository"
	"zmodels/internal/repository/sqlrepo"
)

// Catalog indexes one repository per model name and runs operations
// on behalf of the CLI and HTTP surfaces, taking raw input values
type Catalog struct {
	db       *database.DB
	eventBus *EventBus
	log      zerolog.Logger

	mu    sync.RWMutex
	repos map[string]repository.Repository
}

// NewCatalog creates an empty catalog over db. eventBus may be nil.
func NewCatalog(db *database.DB, eventBus *EventBus, log zerolog.Logger) *Catalog {
	return &Catalog{
		db:       db,
		eventBus: eventBus,
		log:      log.With().Str("component", "catalog").Logger(),
		repos:    make(map[string]repository.Repository),
	}
}

// Load builds a repository for every schema, creating missing tables,
// and replaces the catalog contents. On error the catalog is unchanged.
func (c *Catalog) Load(ctx context.Context, schemas []*domain.Schema) error {
	repos := make(map[string]repository.Repository, len(schemas))
	for _, schema := range schemas {
		if _, dup := repos[schema.Model]; dup {
			return fmt.Errorf("%w: model %s declared twice", domain.ErrInvalidSchema, schema.Model)
		}
		repo, err := sqlrepo.New(ctx, c.db, schema, sqlrepo.WithLogger(c.log))
		if err != nil {
			return fmt.Errorf("load %s: %w", schema.Model, err)
		}
		repos[schema.Model] = repo
	}

	c.mu.Lock()
	c.repos = repos
	c.mu.Unlock()

	models := c.Models()
	c.log.Info().Strs("models", models).Msg("schemas loaded")
	c.eventBus.Publish(Event{Type: EventSchemaReloaded, Payload: models})
	return nil
}

// LoadFile loads schemas from a YAML schema file
func (c *Catalog) LoadFile(ctx context.Context, path string) error {
	schemas, err := loader.LoadYAML(path)
	if err != nil {
		return fmt.Errorf("load schema file %s: %w", path, err)
	}
	return c.Load(ctx, schemas)
}

// Repository returns the repository of a model
func (c *Catalog) Repository(model string) (repository.Repository, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	repo, ok := c.repos[model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownModel, model)
	}
	return repo, nil
}

// Models returns the registered model names, sorted
func (c *Catalog) Models() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.repos))
	for name := range c.repos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns the registered schemas sorted by model name
func (c *Catalog) Schemas() []*domain.Schema {
	names := c.Models()

	c.mu.RLock()
	defer c.mu.RUnlock()

	schemas := make([]*domain.Schema, 0, len(names))
	for _, name := range names {
		if repo, ok := c.repos[name]; ok {
			schemas = append(schemas, repo.Schema())
		}
	}
	return schemas
}

// Filter coerces raw terms and filters model rows
func (c *Catalog) Filter(ctx context.Context, model string, raw map[string]any) ([]*domain.Model, error) {
	repo, terms, err := c.prepare(model, raw)
	if err != nil {
		return nil, err
	}
	return repo.Filter(ctx, terms)
}

// All returns every row of model
func (c *Catalog) All(ctx context.Context, model string) ([]*domain.Model, error) {
	repo, err := c.Repository(model)
	if err != nil {
		return nil, err
	}
	return repo.All(ctx)
}

// Get coerces raw terms and returns the single matching row
func (c *Catalog) Get(ctx context.Context, model string, raw map[string]any) (*domain.Model, error) {
	repo, terms, err := c.prepare(model, raw)
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, terms)
}

// GetOrCreate coerces raw terms and returns the matching row, creating it if needed
func (c *Catalog) GetOrCreate(ctx context.Context, model string, raw map[string]any) (*domain.Model, bool, error) {
	repo, terms, err := c.prepare(model, raw)
	if err != nil {
		return nil, false, err
	}

	m, created, err := repo.GetOrCreate(ctx, terms)
	if err != nil {
		return nil, false, err
	}
	if created {
		c.publishCreated(m)
	}
	return m, created, nil
}

// Create coerces raw attributes and creates a row
func (c *Catalog) Create(ctx context.Context, model string, raw map[string]any) (*domain.Model, error) {
	repo, attrs, err := c.prepare(model, raw)
	if err != nil {
		return nil, err
	}

	m, err := repo.Create(ctx, attrs)
	if err != nil {
		return nil, err
	}
	c.publishCreated(m)
	return m, nil
}

// Import creates one row per attribute set. Sets are coerced up front, so
// a bad value rejects the batch before anything is written; a database
// error stops the import and returns the rows created so far.
func (c *Catalog) Import(ctx context.Context, model string, sets []domain.Attributes) ([]*domain.Model, error) {
	repo, err := c.Repository(model)
	if err != nil {
		return nil, err
	}

	coerced := make([]domain.Attributes, 0, len(sets))
	for i, raw := range sets {
		attrs, err := Coerce(repo.Schema(), raw)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		coerced = append(coerced, attrs)
	}

	created := make([]*domain.Model, 0, len(coerced))
	for i, attrs := range coerced {
		m, err := repo.Create(ctx, attrs)
		if err != nil {
			return created, fmt.Errorf("item %d: %w", i, err)
		}
		created = append(created, m)
	}

	c.log.Info().Str("model", model).Int("count", len(created)).Msg("import complete")
	c.eventBus.Publish(Event{Type: EventModelsImported, Model: model, Payload: map[string]int{"count": len(created)}})
	return created, nil
}

// LastID returns the last generated key of model's session
func (c *Catalog) LastID(ctx context.Context, model string) (int64, error) {
	repo, err := c.Repository(model)
	if err != nil {
		return 0, err
	}
	return repo.LastID(ctx)
}

func (c *Catalog) prepare(model string, raw map[string]any) (repository.Repository, domain.Attributes, error) {
	repo, err := c.Repository(model)
	if err != nil {
		return nil, nil, err
	}
	attrs, err := Coerce(repo.Schema(), raw)
	if err != nil {
		return nil, nil, err
	}
	return repo, attrs, nil
}

func (c *Catalog) publishCreated(m *domain.Model) {
	c.eventBus.Publish(Event{Type: EventModelCreated, Model: m.Name(), Payload: m.Attributes()})
}
