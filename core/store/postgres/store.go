// Package postgres implements core/store's RoomRepository and TokenStore
// against pgx: explicit SQL, $N params, pgx.ErrNoRows handling, RowsAffected
// checks.
package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Store owns the connection pool and implements both core/store
// interfaces directly: this domain's tables are few enough, and its
// operations cross-reference each other heavily enough, that one receiver
// type with two interface implementations reads clearer than splitting
// into per-concern sub-stores.
type Store struct {
	pool *pgxpool.Pool
}

// Config holds the PostgreSQL connection parameters.
type Config struct {
	DatabaseURL string
	MaxConns    int32
}

// NewStore opens a connection pool and pings it.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Migrate applies the embedded schema. Idempotent: every statement is
// CREATE ... IF NOT EXISTS.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
