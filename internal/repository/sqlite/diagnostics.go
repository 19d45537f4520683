package sqlite

import (
	"context"
	"fmt"

	"github.com/wapidou/app/internal/model"
	"github.com/wapidou/app/internal/repository"
)

var _ repository.DiagnosticsRepository = (*DB)(nil)

// SQLiteVersion returns the engine version, e.g. "3.51.2".
func (db *DB) SQLiteVersion(ctx context.Context) (string, error) {
	var version string
	if err := db.conn.GetContext(ctx, &version, `SELECT sqlite_version()`); err != nil {
		return "", fmt.Errorf("sqlite: reading version: %w", err)
	}
	return version, nil
}

// ListTables returns PRAGMA table_list, which includes the sqlite_schema and
// temp schema tables alongside the application's own.
func (db *DB) ListTables(ctx context.Context) ([]model.TableInfo, error) {
	tables := []model.TableInfo{}
	if err := db.conn.SelectContext(ctx, &tables, `PRAGMA table_list`); err != nil {
		return nil, fmt.Errorf("sqlite: listing tables: %w", err)
	}
	return tables, nil
}
