// Package harness orchestrates the per-suite and per-test lifecycle over
// the isolation and scheduling layers.
//
// A Suite represents one worker's slice of a run:
//
//	suite boot:   provision this worker's database, load history
//	scheduling:   sort the full test list, take this worker's shard
//	per test:     start transaction -> test body -> rollback (no-op) ->
//	              reset database -> record duration and outcome
//	suite end:    save history, disconnect clients
//
// The reset runs in the synchronous teardown path, so the next test's
// setup never observes a sibling's writes. If teardown cannot restore a
// clean state, the worker's remaining tests are aborted rather than run
// against contaminated storage.
//
// The Report separates infrastructure failures (provisioning, retry
// exhaustion) from test assertion failures, so storage contention is never
// misdiagnosed as a business-logic defect.
package harness
