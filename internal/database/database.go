// Package database implements the booking store on SQLite.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"camrent/internal/booking"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// timeLayout is fixed-width UTC so that TEXT columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// schema is applied in order on every open; each statement is idempotent.
// bookings.item_id is a soft reference so a booking may outlive its item.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'available',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id INTEGER,
		customer_name TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		start_offset INTEGER NOT NULL DEFAULT 0,
		end_offset INTEGER NOT NULL DEFAULT 0,
		total_price INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'booked',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_item_start ON bookings(item_id, start_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_start ON bookings(start_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
}

// pragmas are passed through the DSN. _txlock=immediate makes BeginTx take
// the write lock up front so check-then-insert cannot interleave.
var pragmas = []string{
	"_journal_mode=WAL",
	"_synchronous=NORMAL",
	"_busy_timeout=5000",
	"_txlock=immediate",
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB is a SQLite backed booking.Store.
type DB struct {
	*sql.DB
	q      querier
	inTx   bool
	path   string
	logger *zerolog.Logger
}

var _ booking.Store = (*DB)(nil)

// NewDB opens the database at path and creates tables if they don't exist.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+"?"+strings.Join(pragmas, "&"))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DB{DB: conn, q: conn, path: path, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Int("schema_statements", len(schema)).Msg("sqlite store ready")
	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}

// WithItemLock runs fn inside an immediate transaction. SQLite has a single
// writer, so this serializes fn against all other writers, not just the item.
func (db *DB) WithItemLock(ctx context.Context, _ *int64, fn func(ctx context.Context, tx booking.Store) error) error {
	if db.inTx {
		return fn(ctx, db)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	scoped := &DB{DB: db.DB, q: tx, inTx: true, path: db.path, logger: db.logger}
	if err := fn(ctx, scoped); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Backup writes a consistent snapshot of the database to dest.
func (db *DB) Backup(ctx context.Context, dest string) error {
	escaped := strings.ReplaceAll(dest, "'", "''")
	if _, err := db.DB.ExecContext(ctx, "VACUUM INTO '"+escaped+"'"); err != nil {
		return fmt.Errorf("vacuum into %s: %w", dest, err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
