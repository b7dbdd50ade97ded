package harness

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/isopod/internal/sched"
	"github.com/roach88/isopod/internal/store"
	"github.com/roach88/isopod/internal/testutil"
)

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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSuite(t *testing.T, mutate func(*Config)) *Suite {
	t.Helper()
	cfg := Config{
		Dir:      t.TempDir(),
		Schema:   testSchema,
		WorkerID: "w1",
		Logger:   discardLogger(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

// End-to-end: a record created by one test is invisible to the next test
// on the same worker, and a fresh metadata store schedules unseen tests
// with the neutral defaults.
func TestSuite_EndToEndIsolation(t *testing.T) {
	s := newTestSuite(t, nil)

	var queryCount int
	tests := []TestCase{
		{
			Path: "tests/plans/alpha_create_test",
			Run: func(ctx context.Context, db *store.Store) error {
				_, err := db.Insert(ctx, "lesson_plans", map[string]any{"title": "Alpha"})
				return err
			},
		},
		{
			Path: "tests/plans/alpha_query_test",
			Run: func(ctx context.Context, db *store.Store) error {
				var err error
				queryCount, err = db.CountWhere(ctx, "lesson_plans", "title", "Alpha")
				return err
			},
		},
	}

	// Lexical tie-break runs create before query.
	report, err := s.Run(context.Background(), tests)
	require.NoError(t, err)
	assert.True(t, report.Pass(), "report: %+v", report)
	assert.Equal(t, 2, report.Passed)
	assert.Equal(t, 0, queryCount, "query test observed a sibling's record")

	// A fresh metadata store knows nothing about the create test.
	fresh := sched.NewMetadataStore(nil)
	meta := fresh.Get("tests/plans/alpha_create_test")
	assert.Equal(t, sched.PriorityMedium, meta.Priority)
	assert.Equal(t, float64(sched.DefaultDurationMS), meta.DurationMS)
}

func TestSuite_RecordsDurationsAndOutcomes(t *testing.T) {
	clock := testutil.NewManualClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s := newTestSuite(t, func(cfg *Config) {
		cfg.Now = clock.Now
	})

	tests := []TestCase{{
		Path: "tests/plans/timed_test",
		Run: func(ctx context.Context, db *store.Store) error {
			clock.Advance(200 * time.Millisecond)
			return nil
		},
	}}

	report, err := s.Run(context.Background(), tests)
	require.NoError(t, err)
	require.True(t, report.Pass())

	meta := s.Metadata().Get("tests/plans/timed_test")
	assert.Equal(t, int64(1), meta.Attempts)
	// EMA from the 1000ms default toward the observed 200ms.
	assert.InDelta(t, 0.3*200+0.7*1000, meta.DurationMS, 0.001)
}

func TestSuite_SeparatesAssertionFromInfraFailures(t *testing.T) {
	s := newTestSuite(t, nil)

	tests := []TestCase{
		{
			Path: "tests/plans/failing_test",
			Run: func(ctx context.Context, db *store.Store) error {
				return errors.New("expected 3 outcomes, got 2")
			},
		},
		{
			Path: "tests/plans/passing_test",
			Run:  func(ctx context.Context, db *store.Store) error { return nil },
		},
	}

	report, err := s.Run(context.Background(), tests)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.TestFailures, 1)
	assert.Empty(t, report.InfraFailures)
	assert.Equal(t, FailureAssertion, report.TestFailures[0].Kind)
	assert.Equal(t, "tests/plans/failing_test", report.TestFailures[0].Path)
}

func TestSuite_FailureDoesNotContaminateSiblings(t *testing.T) {
	s := newTestSuite(t, nil)

	tests := []TestCase{
		{
			Path: "tests/plans/a_dirty_test",
			Run: func(ctx context.Context, db *store.Store) error {
				if _, err := db.Insert(ctx, "lesson_plans", map[string]any{"title": "Leftover"}); err != nil {
					return err
				}
				return errors.New("failed after writing")
			},
		},
		{
			Path: "tests/plans/b_clean_test",
			Run: func(ctx context.Context, db *store.Store) error {
				count, err := db.Count(ctx, "lesson_plans")
				if err != nil {
					return err
				}
				if count != 0 {
					return errors.New("started from contaminated state")
				}
				return nil
			},
		},
	}

	report, err := s.Run(context.Background(), tests)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Passed, "clean test must pass: %+v", report)
	assert.Equal(t, 1, report.Failed)
}

func TestSuite_ProvisioningFailureAbortsWorker(t *testing.T) {
	s := newTestSuite(t, func(cfg *Config) {
		cfg.Schema = "CREATE GIBBERISH"
	})

	ran := false
	tests := []TestCase{{
		Path: "tests/plans/never_runs_test",
		Run: func(ctx context.Context, db *store.Store) error {
			ran = true
			return nil
		},
	}}

	report, err := s.Run(context.Background(), tests)
	require.NoError(t, err)

	assert.False(t, ran, "no test may run on an unprovisioned worker")
	assert.Equal(t, 1, report.Aborted)
	assert.Zero(t, report.Passed)
	require.Len(t, report.InfraFailures, 1)
	assert.Equal(t, FailureInfra, report.InfraFailures[0].Kind)
	assert.Empty(t, report.TestFailures)
}

func TestSuite_CancellationAbortsRemaining(t *testing.T) {
	s := newTestSuite(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	tests := []TestCase{
		{
			Path: "tests/plans/a_cancelling_test",
			Run: func(ctx context.Context, db *store.Store) error {
				cancel()
				return nil
			},
		},
		{
			Path: "tests/plans/b_pending_test",
			Run:  func(ctx context.Context, db *store.Store) error { return nil },
		},
	}

	report, err := s.Run(ctx, tests)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, report.Aborted, 1, "pending test must be aborted")
	assert.Equal(t, report.Scheduled, report.Passed+report.Failed+report.Aborted)
}

func TestSuite_PersistsHistory(t *testing.T) {
	historyPath := filepath.Join(t.TempDir(), "history.yaml")
	s := newTestSuite(t, func(cfg *Config) {
		cfg.HistoryPath = historyPath
	})

	tests := []TestCase{{
		Path: "tests/plans/tracked_test",
		Run:  func(ctx context.Context, db *store.Store) error { return nil },
	}}
	_, err := s.Run(context.Background(), tests)
	require.NoError(t, err)

	loaded := sched.NewMetadataStore(nil)
	require.NoError(t, loaded.LoadHistory(historyPath))
	assert.Equal(t, int64(1), loaded.Get("tests/plans/tracked_test").Attempts)
}

func TestSuite_ShardsPartitionTests(t *testing.T) {
	dir := t.TempDir()
	tests := []TestCase{
		{Path: "tests/auth/login_test", Run: func(ctx context.Context, db *store.Store) error { return nil }},
		{Path: "tests/util/format_test", Run: func(ctx context.Context, db *store.Store) error { return nil }},
	}

	total := 0
	for i := 0; i < 2; i++ {
		s := newTestSuite(t, func(cfg *Config) {
			cfg.Dir = dir
			cfg.WorkerID = []string{"w0", "w1"}[i]
			cfg.ShardIndex = i
			cfg.ShardCount = 2
		})
		report, err := s.Run(context.Background(), tests)
		require.NoError(t, err)
		assert.True(t, report.Pass(), "shard %d report: %+v", i, report)
		assert.Equal(t, 1, report.Scheduled, "each cluster lands on its own shard")
		total += report.Scheduled
	}
	assert.Equal(t, len(tests), total)
}

func TestSuite_DuplicatePathRejected(t *testing.T) {
	s := newTestSuite(t, nil)
	tests := []TestCase{
		{Path: "tests/plans/dup_test", Run: func(ctx context.Context, db *store.Store) error { return nil }},
		{Path: "tests/plans/dup_test", Run: func(ctx context.Context, db *store.Store) error { return nil }},
	}
	_, err := s.Run(context.Background(), tests)
	assert.Error(t, err)
}

func TestNew_ValidatesConfig(t *testing.T) {
	_, err := New(Config{Schema: testSchema})
	assert.Error(t, err, "Dir is required")

	_, err = New(Config{Dir: t.TempDir()})
	assert.Error(t, err, "Schema is required")
}
