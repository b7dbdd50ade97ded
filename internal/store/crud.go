package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Insert inserts one row and returns its rowid. Column order is
// deterministic (sorted keys) so generated SQL is stable across runs.
func (s *Store) Insert(ctx context.Context, table string, row map[string]any) (int64, error) {
	if len(row) == 0 {
		return 0, fmt.Errorf("insert into %q: empty row", table)
	}

	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	quoted := make([]string, len(cols))
	for i, col := range cols {
		placeholders[i] = "?"
		args[i] = row[col]
		quoted[i] = fmt.Sprintf("%q", col)
	}

	stmt := fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)",
		table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %q: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert into %q: %w", table, err)
	}
	return id, nil
}

// CountWhere counts rows in table where column equals value.
func (s *Store) CountWhere(ctx context.Context, table, column string, value any) (int, error) {
	stmt := fmt.Sprintf("SELECT COUNT(*) FROM %q WHERE %q = ?", table, column)
	var count int
	if err := s.db.QueryRowContext(ctx, stmt, value).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %q where %q: %w", table, column, err)
	}
	return count, nil
}

// Count counts all rows in table.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	var count int
	stmt := fmt.Sprintf("SELECT COUNT(*) FROM %q", table)
	if err := s.db.QueryRowContext(ctx, stmt).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %q: %w", table, err)
	}
	return count, nil
}

// QueryRows runs a query and materializes every row as a column-name map.
// Intended for small result sets in tests and health checks, not bulk reads.
func (s *Store) QueryRows(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return out, nil
}
