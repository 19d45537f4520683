// Package sqlite implements the repository interfaces on top of SQLite.
//
// The driver is modernc.org/sqlite (pure Go, no CGo). Queries go through
// sqlx so rows scan straight into the db-tagged model structs, and the schema
// is owned by goose migrations embedded from the migrations directory.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/wapidou/app/internal/repository/sqlite/migrations"

	// registers the "sqlite" driver with database/sql
	_ "modernc.org/sqlite"
)

// connection pragmas applied by the driver to every pooled connection
var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(FULL)",
	"foreign_keys(ON)",
	"busy_timeout(5000)",
}

// DB is the single long-lived store handle. It implements
// repository.UserRepository and repository.DiagnosticsRepository.
type DB struct {
	conn *sqlx.DB
}

// New opens the database at dbPath and brings the schema up to date.
//
// dbPath examples:
//   - "data/wapidou.db" → file-based database
//   - ":memory:"        → in-memory database, pinned to one connection so
//     every query sees the same data
func New(ctx context.Context, dbPath string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// NewFromConn wraps an existing handle without migrating. Tests use it with
// go-sqlmock to drive failure paths.
func NewFromConn(conn *sqlx.DB) *DB {
	return &DB{conn: conn}
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate applies pending migrations through a goose Provider bound to this
// handle, so nothing is registered in goose's package-level state.
func (db *DB) migrate(ctx context.Context) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn.DB, migrations.FS,
		goose.WithDisableGlobalRegistry(true),
	)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func dsn(dbPath string) string {
	params := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}
	return dbPath + "?" + strings.Join(params, "&")
}
