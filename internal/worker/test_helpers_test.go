package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

// testSchema mirrors a slice of the application schema with auto-increment
// counters and foreign keys, enough to exercise provisioning and reset.
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
`

// discardLogger suppresses logs in tests.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRegistry creates a registry over a temp dir with a provisioned
// worker database for each given id.
func newTestRegistry(t *testing.T, workerIDs ...string) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()
	p := NewProvisioner(dir, testSchema, discardLogger())
	for _, id := range workerIDs {
		if err := p.CreateDatabase(context.Background(), id); err != nil {
			t.Fatalf("CreateDatabase(%q) failed: %v", id, err)
		}
	}
	r := NewRegistry(dir, discardLogger())
	t.Cleanup(r.DisconnectAll)
	return r, dir
}
