// Package postgres implements the booking store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"camrent/internal/booking"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a PostgreSQL backed booking.Store.
type DB struct {
	Pool   *pgxpool.Pool
	q      querier
	inTx   bool
	logger *zerolog.Logger
}

var _ booking.Store = (*DB)(nil)

func New(ctx context.Context, dsn string, logger *zerolog.Logger) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	db := &DB{Pool: pool, q: pool, logger: logger}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("host", cfg.ConnConfig.Host).Str("database", cfg.ConnConfig.Database).Msg("Postgres initialized")
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'available',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id BIGSERIAL PRIMARY KEY,
			item_id BIGINT,
			customer_name TEXT NOT NULL,
			start_at TIMESTAMPTZ NOT NULL,
			end_at TIMESTAMPTZ NOT NULL,
			start_offset INTEGER NOT NULL DEFAULT 0,
			end_offset INTEGER NOT NULL DEFAULT 0,
			total_price BIGINT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'booked',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`ALTER TABLE bookings ADD COLUMN IF NOT EXISTS start_offset INTEGER NOT NULL DEFAULT 0`,
		`ALTER TABLE bookings ADD COLUMN IF NOT EXISTS end_offset INTEGER NOT NULL DEFAULT 0`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_item_start ON bookings(item_id, start_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_start ON bookings(start_at)`,
	}
	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	// The exclusion constraint needs btree_gist, which may require privileges
	// the application role lacks. The advisory lock still guards writes without it.
	optional := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`DO $$ BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_no_overlap') THEN
				ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
					EXCLUDE USING gist (item_id WITH =, tstzrange(start_at, end_at) WITH &&);
			END IF;
		END $$`,
	}
	for _, query := range optional {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			db.logger.Warn().Err(err).Msg("Overlap exclusion constraint not installed")
			break
		}
	}
	return nil
}

// WithItemLock runs fn in a transaction holding a transaction-scoped advisory
// lock on the item id, so writers to different items proceed in parallel.
func (db *DB) WithItemLock(ctx context.Context, itemID *int64, fn func(ctx context.Context, tx booking.Store) error) error {
	if db.inTx {
		return fn(ctx, db)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if itemID != nil {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, *itemID); err != nil {
			return fmt.Errorf("lock item %d: %w", *itemID, err)
		}
	}

	scoped := &DB{Pool: db.Pool, q: tx, inTx: true, logger: db.logger}
	if err := fn(ctx, scoped); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", translate(err, itemID))
	}
	return nil
}

// PingContext checks the pool.
func (db *DB) PingContext(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

func (db *DB) Close() {
	db.Pool.Close()
}

// translate maps constraint violations onto booking errors.
func translate(err error, itemID *int64) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.ExclusionViolation:
		var id int64
		if itemID != nil {
			id = *itemID
		}
		return &booking.ConflictError{ItemID: id}
	case pgerrcode.InvalidParameterValue, pgerrcode.DataException:
		return fmt.Errorf("%w: %s", booking.ErrInvalidInput, pgErr.Message)
	}
	return err
}
