package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/isopod/internal/sched"
	"github.com/roach88/isopod/internal/worker"
)

// Config assembles a Suite. Zero values get sensible defaults; only Dir
// and Schema are required.
type Config struct {
	// Dir is where per-worker database files live.
	Dir string

	// Schema is the application DDL applied to each worker instance.
	Schema string

	// WorkerID identifies this worker. Defaults to the runner-supplied
	// environment value.
	WorkerID string

	// ShardIndex/ShardCount partition the full test list. Defaults to a
	// single shard holding everything.
	ShardIndex int
	ShardCount int

	// HistoryPath persists scheduling metadata across invocations.
	// Empty disables persistence.
	HistoryPath string

	// Classify overrides priority classification. nil uses the default
	// path heuristic.
	Classify sched.Classifier

	Logger *slog.Logger

	// Now is the time source for duration measurement. Defaults to
	// time.Now; tests inject a manual clock.
	Now func() time.Time
}

// Suite runs one worker's slice of a test suite with per-test storage
// isolation. The handle is passed explicitly through the lifecycle rather
// than held in package state, so suites stay reentrant and independently
// testable.
type Suite struct {
	cfg  Config
	prov *worker.Provisioner
	reg  *worker.Registry
	sim  *worker.TxnSimulator
	meta *sched.MetadataStore
	seq  *sched.Sequencer
	log  *slog.Logger
	now  func() time.Time
}

// New assembles a suite from config and loads scheduling history if a
// path is configured.
func New(cfg Config) (*Suite, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("suite config: Dir is required")
	}
	if cfg.Schema == "" {
		return nil, fmt.Errorf("suite config: Schema is required")
	}
	if cfg.WorkerID == "" {
		cfg.WorkerID = worker.WorkerIDFromEnv()
	}
	if cfg.ShardCount <= 0 {
		cfg.ShardCount = 1
		cfg.ShardIndex = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	log := cfg.Logger
	reg := worker.NewRegistry(cfg.Dir, log)
	exec := worker.NewExecutor(log)
	meta := sched.NewMetadataStore(cfg.Classify)
	if cfg.HistoryPath != "" {
		if err := meta.LoadHistory(cfg.HistoryPath); err != nil {
			return nil, fmt.Errorf("failed to load scheduling history: %w", err)
		}
	}

	return &Suite{
		cfg:  cfg,
		prov: worker.NewProvisioner(cfg.Dir, cfg.Schema, log),
		reg:  reg,
		sim:  worker.NewTxnSimulator(reg, exec, log),
		meta: meta,
		seq:  sched.NewSequencer(meta),
		log:  log,
		now:  cfg.Now,
	}, nil
}

// Metadata exposes the suite's metadata store, primarily for inspection
// after a run.
func (s *Suite) Metadata() *sched.MetadataStore {
	return s.meta
}

// Plan computes the full scheduling decision for the given tests without
// running anything.
func (s *Suite) Plan(paths []string) (*sched.Plan, error) {
	return s.seq.BuildPlan(paths, s.cfg.ShardCount)
}

// Run executes this worker's shard of the given tests and returns the
// report. Scheduling happens once, up front; each test then runs inside
// the transaction/reset lifecycle.
//
// Run does not return an error for failing tests - those are in the
// report. The error return covers unusable configuration only.
func (s *Suite) Run(ctx context.Context, tests []TestCase) (*Report, error) {
	report := &Report{
		RunID:      uuid.NewString(),
		WorkerID:   s.cfg.WorkerID,
		ShardIndex: s.cfg.ShardIndex,
		ShardCount: s.cfg.ShardCount,
	}

	byPath := make(map[string]TestCase, len(tests))
	paths := make([]string, 0, len(tests))
	for _, tc := range tests {
		if _, dup := byPath[tc.Path]; dup {
			return nil, fmt.Errorf("duplicate test path %q", tc.Path)
		}
		byPath[tc.Path] = tc
		paths = append(paths, tc.Path)
		s.meta.SetDeps(tc.Path, tc.Deps)
	}

	order := s.seq.Sort(paths)
	assigned, err := s.seq.Shard(order, s.cfg.ShardIndex, s.cfg.ShardCount)
	if err != nil {
		return nil, err
	}
	report.Scheduled = len(assigned)

	// Cleanup runs even when the suite is aborted mid-flight. Each reset
	// is atomic with respect to the test lifecycle, so no partially-reset
	// state can be left behind.
	defer s.reg.DisconnectAll()
	defer s.saveHistory()

	if err := s.provision(ctx); err != nil {
		// Fatal to this worker: none of its tests can run.
		report.addInfraFailure("", err)
		report.Aborted = len(assigned)
		return report, nil
	}

	s.log.Info("suite started",
		"run_id", report.RunID,
		"worker_id", s.cfg.WorkerID,
		"shard", s.cfg.ShardIndex,
		"scheduled", len(assigned),
	)

	for i, path := range assigned {
		if ctx.Err() != nil {
			report.Aborted = len(assigned) - i
			s.log.Warn("suite aborted", "remaining", report.Aborted)
			break
		}
		if abort := s.runOne(ctx, byPath[path], report); abort {
			report.Aborted = len(assigned) - i - 1
			break
		}
	}

	s.log.Info("suite finished",
		"run_id", report.RunID,
		"passed", report.Passed,
		"failed", report.Failed,
		"aborted", report.Aborted,
	)
	return report, nil
}

func (s *Suite) provision(ctx context.Context) error {
	if err := s.prov.CreateDatabase(ctx, s.cfg.WorkerID); err != nil {
		return err
	}
	return s.prov.IsHealthy(ctx, s.cfg.WorkerID)
}

// runOne executes a single test inside the isolation lifecycle. Returns
// true when the worker can no longer guarantee a clean state and its
// remaining tests must be aborted.
func (s *Suite) runOne(ctx context.Context, tc TestCase, report *Report) (abort bool) {
	h, err := s.sim.StartTransaction(tc.Path, s.cfg.WorkerID)
	if err != nil {
		report.addInfraFailure(tc.Path, err)
		return true
	}

	start := s.now()
	runErr := tc.Run(ctx, h.Client())
	elapsed := s.now().Sub(start)

	// Rollback is a no-op; the reset below is the real isolation.
	_ = h.Rollback()
	h.Close()

	// Teardown reset runs synchronously before the next test's setup,
	// regardless of the test's outcome.
	resetErr := s.sim.ResetDatabase(ctx, s.cfg.WorkerID)

	failed := runErr != nil
	s.meta.Record(tc.Path, float64(elapsed)/float64(time.Millisecond), failed)

	switch {
	case runErr == nil:
		report.Passed++
	case worker.IsTransientLock(runErr):
		// Retry budget exhausted inside the test: infrastructure, not a
		// defect in the code under test.
		report.Failed++
		report.addInfraFailure(tc.Path, runErr)
	default:
		report.Failed++
		report.addTestFailure(tc.Path, runErr)
	}

	if resetErr != nil {
		// Without a completed reset the next test would start dirty.
		report.addInfraFailure(tc.Path, fmt.Errorf("teardown reset failed: %w", resetErr))
		return true
	}
	return false
}

func (s *Suite) saveHistory() {
	if s.cfg.HistoryPath == "" {
		return
	}
	if err := s.meta.SaveHistory(s.cfg.HistoryPath); err != nil {
		s.log.Warn("failed to save scheduling history", "error", err)
	}
}
