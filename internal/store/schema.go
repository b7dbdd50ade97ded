package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Tables SQLite manages internally plus our own bookkeeping, excluded from
// enumeration and therefore from resets and destructive drops.
var excludedTables = map[string]bool{
	"schema_migrations": true,
}

// UserTables enumerates user-defined table names in deterministic order.
// SQLite-internal tables (sqlite_sequence etc.) and migration bookkeeping
// are excluded.
func (s *Store) UserTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		if excludedTables[name] {
			continue
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table names: %w", err)
	}
	return tables, nil
}

// HasTable reports whether a table with the given name exists, including
// SQLite-internal tables.
func (s *Store) HasTable(ctx context.Context, name string) (bool, error) {
	var found string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		name,
	).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check for table %q: %w", name, err)
	}
	return true, nil
}

// ApplySchema applies the given DDL in destructive-reset mode: every
// existing user table is dropped first, then the DDL executes against the
// clean instance. Idempotent - applying the same schema twice yields the
// same state.
//
// Foreign keys are disabled for the drop phase so drop order does not
// matter, and re-enabled before the DDL runs.
func (s *Store) ApplySchema(ctx context.Context, ddl string) error {
	tables, err := s.UserTables(ctx)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("failed to disable foreign keys: %w", err)
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q", table)); err != nil {
			return fmt.Errorf("failed to drop table %q: %w", table, err)
		}
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to re-enable foreign keys: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}
