// Package sched decides the order and grouping of tests across workers.
//
// Ordering and sharding are driven by historical per-test statistics: a
// smoothed duration estimate and an exact failure ratio, persisted across
// suite invocations. Sort produces a deterministic global order that
// surfaces likely failures early; Shard groups related tests into cohesive
// clusters and balances cluster durations across workers with a
// longest-processing-time-first heuristic.
//
// Both computations are pure and single-threaded, run once before any
// worker starts. A bad grouping only degrades load balance, never
// correctness, so the heuristics here favor simplicity and determinism
// over optimality.
package sched
