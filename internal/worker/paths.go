package worker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WorkerIDEnv is the single environment value coupling this subsystem to
// the host test runner. Workers are numbered by the runner; "0" is the
// in-process default when no runner is driving.
const WorkerIDEnv = "ISOPOD_WORKER_ID"

// WorkerIDFromEnv resolves the current worker identifier from the
// environment, defaulting to "0".
func WorkerIDFromEnv() string {
	if id := os.Getenv(WorkerIDEnv); id != "" {
		return id
	}
	return "0"
}

// DatabasePath derives the storage instance path for a worker. The mapping
// is deterministic and owned exclusively by this package: the same worker
// identifier always maps to the same file, and distinct identifiers map to
// distinct files.
func DatabasePath(dir, workerID string) string {
	return filepath.Join(dir, fmt.Sprintf("worker_%s.db", sanitizeID(workerID)))
}

// sanitizeID keeps worker identifiers filesystem-safe. Anything outside
// [A-Za-z0-9_-] is replaced so a hostile or malformed identifier cannot
// escape the data directory.
func sanitizeID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "0"
	}
	return b.String()
}
