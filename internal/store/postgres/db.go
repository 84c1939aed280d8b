// Package postgres implements store.Store against PostgreSQL, using pgx
// directly (no database/sql layer) — grounded on the pgx/zap wiring shown
// in the pack's storj metabase reference
// (other_examples/78f87779_storj-storj__satellite-metabase-db.go.go) and
// on the teacher's own wrapDBError pattern
// (internal/storage/sqlite/errors.go).
//
// Hierarchical paths are stored as plain text columns rather than
// Postgres's ltree extension: pgx has no ltree codec in its standard type
// registry, and the pack carries no ltree-aware driver, so prefix queries
// below use `LIKE` against the decoded, "/"-joined path. The Base32 label
// codec in internal/catalogpath is not applied to the stored columns.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hdc-platform/metadata-catalog/internal/store"
)

var _ store.Store = (*DB)(nil)

// DB wraps a pgx connection pool plus the fixed capacity caps it enforces
// at write time.
type DB struct {
	pool   *pgxpool.Pool
	log    *zap.Logger
	limits Limits
}

// Limits bounds the fixed capacity caps the catalog enforces at write time.
type Limits struct {
	MaxTags                int
	MaxSystemTags          int
	MaxAttributeLength     int
	MaxCollectionsPerOwner int
}

// DefaultLimits mirrors the original service's built-in constants.
func DefaultLimits() Limits {
	return Limits{MaxTags: 10, MaxSystemTags: 10, MaxAttributeLength: 100, MaxCollectionsPerOwner: 5}
}

// Open establishes the pool against dsn and verifies connectivity.
func Open(ctx context.Context, dsn string, maxConns int32, log *zap.Logger, limits Limits) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &DB{pool: pool, log: log, limits: limits}, nil
}

// Close releases the pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Ping verifies the connection is still live.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Migrate applies Schema. It's idempotent (every statement is IF NOT
// EXISTS) so it's safe to run on every catalogd startup, not just once.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
