// Package db provides PostgreSQL access for the item catalog, daily plans and
// subscriptions. Per-item state lives in item_profiles rows keyed by the fixed
// sub-keys "latestPrice", "searchable" and "scrapedDatetime"; plans are jsonb
// documents keyed by the local calendar date.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Profile sub-keys under which per-item state is stored.
const (
	KeyLatestPrice     = "latestPrice"
	KeySearchable      = "searchable"
	KeyScrapedDatetime = "scrapedDatetime"
)

// Store wraps a PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
