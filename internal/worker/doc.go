// Package worker provides per-worker storage isolation for parallel test
// execution.
//
// Every test-runner worker gets its own SQLite instance at a path derived
// from its worker identifier, so concurrently running tests never share
// mutable state. Within one worker the lifecycle is strictly sequential:
//
//	StartTransaction -> test body -> ResetDatabase -> next test
//
// The "transaction" is simulated: SQLite on a single connection cannot hold
// a nested transaction open across an asynchronous test body that issues
// its own transactions, so Rollback is a no-op and isolation is provided by
// the full-table reset that is guaranteed to run, synchronously, before the
// next test's setup. See TxnHandle.Rollback.
//
// Transient lock contention from SQLite's file-level locking is absorbed by
// Executor's bounded linear backoff; constraint violations are never
// retried, because retrying a logic error would mask a genuine defect.
package worker
