// Package database opens the shared SQL handle used by every repository.
//
// The handle is a *sqlx.DB plus the Dialect of the configured driver:
//   - sqlite   (modernc.org/sqlite, pure Go)
//   - mysql    (github.com/go-sql-driver/mysql)
//   - postgres (github.com/jackc/pgx/v5/stdlib)
package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"zmodels/internal/config"
)

// DB wraps the sqlx connection pool with its dialect and a logger
type DB struct {
	*sqlx.DB
	Dialect Dialect

	log zerolog.Logger
}

// Open creates the connection pool described by cfg and pings it.
func Open(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*DB, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn, err := dialect.PrepareDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect.Name == "sqlite" && IsMemoryDSN(cfg.DSN) {
		// Every new connection to :memory: is a fresh empty database
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Duration())
		}
	}

	handle := &DB{
		DB:      db,
		Dialect: dialect,
		log:     log.With().Str("component", "database").Str("driver", dialect.Name).Logger(),
	}

	pingCtx := ctx
	if timeout := cfg.PingTimeout.Duration(); timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	handle.log.Info().Msg("connected to the database")
	return handle, nil
}

// Health checks that the database is reachable
func (db *DB) Health(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (db *DB) Close() error {
	db.log.Info().Msg("closing database connection pool")
	return db.DB.Close()
}
