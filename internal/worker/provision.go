package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/isopod/internal/store"
)

// Provisioner creates isolated per-worker storage instances and applies
// the current application schema to them.
type Provisioner struct {
	dir    string
	schema string
	logger *slog.Logger
}

// NewProvisioner creates a provisioner writing instances under dir.
// schema is the full application DDL, applied destructively to each worker.
func NewProvisioner(dir, schema string, logger *slog.Logger) *Provisioner {
	return &Provisioner{dir: dir, schema: schema, logger: logger}
}

// CreateDatabase provisions the storage instance for a worker: creates the
// file at the worker's deterministic path and applies the schema in
// destructive-reset mode. Safe to call once per worker at suite boot;
// calling it again re-provisions from scratch.
//
// All failures are reported as provisioning errors, which abort the
// worker's remaining tests.
func (p *Provisioner) CreateDatabase(ctx context.Context, workerID string) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return NewProvisioningError(workerID, err)
	}

	path := DatabasePath(p.dir, workerID)
	s, err := store.Open(path)
	if err != nil {
		return NewProvisioningError(workerID, err)
	}
	defer s.Close()

	if err := s.ApplySchema(ctx, p.schema); err != nil {
		return NewProvisioningError(workerID, err)
	}

	p.logger.Info("worker database provisioned",
		"worker_id", workerID,
		"path", path,
	)
	return nil
}

// IsHealthy confirms the worker's instance is reachable and carries a
// schema. Used to fail a worker fast when provisioning silently produced a
// broken instance.
func (p *Provisioner) IsHealthy(ctx context.Context, workerID string) error {
	s, err := store.Open(DatabasePath(p.dir, workerID))
	if err != nil {
		return NewProvisioningError(workerID, err)
	}
	defer s.Close()

	if err := s.Ping(ctx); err != nil {
		return NewProvisioningError(workerID, err)
	}
	tables, err := s.UserTables(ctx)
	if err != nil {
		return NewProvisioningError(workerID, err)
	}
	if len(tables) == 0 {
		return NewProvisioningError(workerID, fmt.Errorf("instance has no user tables"))
	}
	return nil
}
