package harness

import (
	"context"

	"github.com/roach88/isopod/internal/store"
)

// TestCase is one schedulable test: a unique path, its declared
// dependencies, and the body the host runner executes.
type TestCase struct {
	// Path uniquely identifies the test and drives classification.
	Path string

	// Deps lists prerequisite test paths, declared not enforced; the
	// sequencer only uses the count as a scheduling key.
	Deps []string

	// Run is the test body. It receives the worker's storage client and
	// returns nil on pass or an error describing the assertion failure.
	Run func(ctx context.Context, db *store.Store) error
}

// FailureKind distinguishes why a test did not pass.
type FailureKind string

const (
	// FailureInfra marks provisioning, contention or teardown failures in
	// the isolation layer itself.
	FailureInfra FailureKind = "infrastructure"

	// FailureAssertion marks a failure raised by the code under test.
	FailureAssertion FailureKind = "assertion"
)

// Failure records one test that did not pass.
type Failure struct {
	Path    string      `json:"path"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Report is the outcome of one worker's slice of a suite run.
// Infrastructure failures are kept apart from assertion failures so
// engineers do not misdiagnose storage contention as a logic defect.
type Report struct {
	RunID      string `json:"run_id"`
	WorkerID   string `json:"worker_id"`
	ShardIndex int    `json:"shard_index"`
	ShardCount int    `json:"shard_count"`

	// Scheduled is this worker's assigned test count.
	Scheduled int `json:"scheduled"`

	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Aborted int `json:"aborted"`

	InfraFailures []Failure `json:"infra_failures,omitempty"`
	TestFailures  []Failure `json:"test_failures,omitempty"`
}

// Pass reports whether every scheduled test ran and passed.
func (r *Report) Pass() bool {
	return r.Failed == 0 && r.Aborted == 0 && len(r.InfraFailures) == 0 && len(r.TestFailures) == 0
}

func (r *Report) addInfraFailure(path string, err error) {
	r.InfraFailures = append(r.InfraFailures, Failure{
		Path:    path,
		Kind:    FailureInfra,
		Message: err.Error(),
	})
}

func (r *Report) addTestFailure(path string, err error) {
	r.TestFailures = append(r.TestFailures, Failure{
		Path:    path,
		Kind:    FailureAssertion,
		Message: err.Error(),
	})
}
