package worker

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/isopod/internal/store"
)

// UsageStats tracks a worker's client usage since it was bound.
type UsageStats struct {
	// QueryCount counts operations issued through this client.
	// Accessed atomically.
	QueryCount atomic.Int64

	// StartedAt is when the client was created.
	StartedAt time.Time
}

// Worker binds a worker identifier to its live storage client.
// Exactly one live client exists per worker identifier at any time.
type Worker struct {
	ID     string
	Path   string
	Client *store.Store
	Stats  UsageStats
}

// RecordQuery bumps the worker's query counter.
func (w *Worker) RecordQuery() {
	w.Stats.QueryCount.Add(1)
}

// Registry maps worker identifiers to their live clients, creating them on
// demand so workers that spin up after suite boot still get a binding.
//
// Each worker owns its entry exclusively; the mutex only protects the map
// itself for lookups from the orchestration goroutine.
type Registry struct {
	mu      sync.Mutex
	dir     string
	workers map[string]*Worker
	logger  *slog.Logger
	now     func() time.Time
}

// NewRegistry creates an empty registry for instances under dir.
func NewRegistry(dir string, logger *slog.Logger) *Registry {
	return &Registry{
		dir:     dir,
		workers: make(map[string]*Worker),
		logger:  logger,
		now:     time.Now,
	}
}

// GetOrCreateClient returns the existing binding for a worker or lazily
// creates one, initializing its usage stats.
func (r *Registry) GetOrCreateClient(workerID string) (*Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.workers[workerID]; ok {
		return w, nil
	}

	path := DatabasePath(r.dir, workerID)
	client, err := store.Open(path)
	if err != nil {
		return nil, NewProvisioningError(workerID, err)
	}

	w := &Worker{
		ID:     workerID,
		Path:   path,
		Client: client,
	}
	w.Stats.StartedAt = r.now()
	r.workers[workerID] = w

	r.logger.Info("worker client created",
		"worker_id", workerID,
		"path", path,
	)
	return w, nil
}

// Get returns the binding for a worker if one exists.
func (r *Registry) Get(workerID string) (*Worker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[workerID]
	return w, ok
}

// Size returns the number of live bindings.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workers)
}

// DisconnectAll closes every worker's client. Disconnect failures are
// logged as warnings only: cleanup runs after results are captured, so a
// failed close does not affect test validity.
func (r *Registry) DisconnectAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, w := range r.workers {
		if err := w.Client.Close(); err != nil {
			derr := NewDisconnectError(id, err)
			r.logger.Warn("worker disconnect failed",
				"worker_id", id,
				"error", derr,
			)
			continue
		}
		r.logger.Info("worker disconnected",
			"worker_id", id,
			"queries", w.Stats.QueryCount.Load(),
		)
	}
	r.workers = make(map[string]*Worker)
}
