package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/isopod/internal/store"
)

// TxnHandle binds one running test to its worker's storage client.
//
// A handle's lifetime is strictly nested inside one test's setup/teardown:
// created in setup, closed (with a database reset) in teardown, before the
// next test's setup begins. At most one handle is open per test identifier.
type TxnHandle struct {
	TestID   string
	WorkerID string

	sim    *TxnSimulator
	worker *Worker
	closed bool
}

// Client returns the worker's storage client for the duration of the test.
func (h *TxnHandle) Client() *store.Store {
	h.worker.RecordQuery()
	return h.worker.Client
}

// Rollback is a no-op and exists only to keep the setup/teardown hooks
// shaped like a transaction.
//
// The embedded engine cannot hold a nested transaction open across an
// asynchronous test body that issues its own transactions, so nothing is
// rolled back here; actual isolation comes from the full reset that the
// teardown runs before the next test starts. Tests on the same worker
// would observe each other's writes if that reset were ever skipped.
func (h *TxnHandle) Rollback() error {
	return nil
}

// Close ends the logical transaction. The caller is responsible for
// running ResetDatabase before the next test's setup; Close itself only
// releases the test binding.
func (h *TxnHandle) Close() {
	h.sim.release(h)
}

// TxnSimulator manages the per-test lifecycle against per-worker storage:
// binding tests to clients and restoring each worker's instance to a clean
// state between tests.
type TxnSimulator struct {
	mu     sync.Mutex
	reg    *Registry
	exec   *Executor
	logger *slog.Logger
	open   map[string]*TxnHandle
}

// NewTxnSimulator creates a simulator over the given registry.
func NewTxnSimulator(reg *Registry, exec *Executor, logger *slog.Logger) *TxnSimulator {
	return &TxnSimulator{
		reg:    reg,
		exec:   exec,
		logger: logger,
		open:   make(map[string]*TxnHandle),
	}
}

// StartTransaction binds a test to its worker's single client and returns
// the handle. Starting a second transaction for the same test identifier
// while one is open is an error.
func (s *TxnSimulator) StartTransaction(testID, workerID string) (*TxnHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.open[testID]; ok {
		return nil, fmt.Errorf("test %q already has an open transaction", testID)
	}

	w, err := s.reg.GetOrCreateClient(workerID)
	if err != nil {
		return nil, err
	}

	h := &TxnHandle{
		TestID:   testID,
		WorkerID: workerID,
		sim:      s,
		worker:   w,
	}
	s.open[testID] = h

	s.logger.Debug("transaction started",
		"test_id", testID,
		"worker_id", workerID,
	)
	return h, nil
}

func (s *TxnSimulator) release(h *TxnHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	delete(s.open, h.TestID)
}

// OpenCount returns the number of currently open transactions.
func (s *TxnSimulator) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}

// ResetDatabase restores a worker's instance to a clean state: every user
// table emptied and every auto-increment counter back at its initial
// value. Must complete before the next test on that worker executes, and
// must never run concurrently with a test using the same worker; the suite
// enforces this by calling it from the synchronous teardown phase.
//
// The reset runs through the retry executor, since between-test teardown
// is exactly where lingering readers make the engine report busy.
func (s *TxnSimulator) ResetDatabase(ctx context.Context, workerID string) error {
	w, err := s.reg.GetOrCreateClient(workerID)
	if err != nil {
		return err
	}

	err = s.exec.WithRetry(ctx, func() error {
		return resetTables(ctx, w.Client)
	})
	if err != nil {
		return Classify(workerID, err)
	}

	s.logger.Debug("worker database reset", "worker_id", workerID)
	return nil
}

// resetTables empties every user table and resets auto-increment counters.
// Foreign key enforcement is disabled for the deletes so table order does
// not matter, and re-enabled before returning.
func resetTables(ctx context.Context, st *store.Store) error {
	tables, err := st.UserTables(ctx)
	if err != nil {
		return err
	}

	if _, err := st.Exec(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("failed to disable foreign keys: %w", err)
	}
	// Constraint enforcement must come back on even if a delete fails.
	defer st.Exec(ctx, "PRAGMA foreign_keys = ON")

	for _, table := range tables {
		if _, err := st.Exec(ctx, fmt.Sprintf("DELETE FROM %q", table)); err != nil {
			return fmt.Errorf("failed to clear table %q: %w", table, err)
		}
	}

	// sqlite_sequence only exists once an AUTOINCREMENT table has rows.
	hasSeq, err := st.HasTable(ctx, "sqlite_sequence")
	if err != nil {
		return err
	}
	if hasSeq {
		if _, err := st.Exec(ctx, "DELETE FROM sqlite_sequence"); err != nil {
			return fmt.Errorf("failed to reset auto-increment counters: %w", err)
		}
	}
	return nil
}
