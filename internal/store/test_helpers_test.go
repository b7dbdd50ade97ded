package store

import (
	"context"
	"path/filepath"
	"testing"
)

// testSchema is a small slice of the application schema: enough tables to
// exercise auto-increment counters, unique constraints and foreign keys.
const testSchema = `
CREATE TABLE lesson_plans (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	subject TEXT NOT NULL DEFAULT 'general'
);
CREATE TABLE outcomes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	lesson_plan_id INTEGER NOT NULL REFERENCES lesson_plans(id),
	description TEXT NOT NULL UNIQUE
);
CREATE TABLE reflections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	lesson_plan_id INTEGER NOT NULL REFERENCES lesson_plans(id),
	body TEXT
);
`

// createTestStore creates a file-backed store in a temp dir with the test
// schema applied.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.ApplySchema(context.Background(), testSchema); err != nil {
		t.Fatalf("ApplySchema() failed: %v", err)
	}
	return s
}
