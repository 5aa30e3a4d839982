package repository

import (
	"context"

	"zmodels/internal/domain"
)

// Repository maps one model type onto one table.
// Every operation blocks on the database and honours ctx.
type Repository interface {
	domain.Saver

	// Read operations
	Filter(ctx context.Context, terms domain.Attributes) ([]*domain.Model, error)
	Get(ctx context.Context, terms domain.Attributes) (*domain.Model, error)
	All(ctx context.Context) ([]*domain.Model, error)

	// Write operations
	Create(ctx context.Context, attrs domain.Attributes) (*domain.Model, error)
	GetOrCreate(ctx context.Context, terms domain.Attributes) (*domain.Model, bool, error)

	// Table management
	CreateTable(ctx context.Context) error
	LastID(ctx context.Context) (int64, error)

	Schema() *domain.Schema
	Table() string
}
