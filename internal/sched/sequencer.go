package sched

import (
	"sort"
)

// durationBandMS is the tolerance band on the duration sort key: estimates
// within the same 100ms bucket are not reordered on duration, favoring
// quick feedback without thrashing on noise. Buckets rather than pairwise
// |a-b| comparison keep the ordering a strict weak order, which stable
// sort requires.
const durationBandMS = 100

// Sequencer consumes test metadata to produce a deterministic run order
// and a balanced shard assignment.
type Sequencer struct {
	meta *MetadataStore
}

// NewSequencer creates a sequencer over the given metadata store.
func NewSequencer(meta *MetadataStore) *Sequencer {
	return &Sequencer{meta: meta}
}

// Sort returns the tests in deterministic multi-key order:
//
//  1. priority tier, descending: critical tests run first
//  2. failure rate, descending: historically flaky tests fail fast
//  3. declared dependency count, ascending
//  4. duration estimate, ascending, in 100ms bands
//  5. lexical path, ascending, as the final tie-break
//
// The input slice is not modified.
func (s *Sequencer) Sort(tests []string) []string {
	out := make([]string, len(tests))
	copy(out, tests)

	metas := make(map[string]TestMeta, len(out))
	for _, path := range out {
		metas[path] = s.meta.Get(path)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return scheduleBefore(metas[out[i]], metas[out[j]])
	})
	return out
}

func scheduleBefore(a, b TestMeta) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.FailureRate != b.FailureRate {
		return a.FailureRate > b.FailureRate
	}
	if len(a.Deps) != len(b.Deps) {
		return len(a.Deps) < len(b.Deps)
	}
	ba, bb := int(a.DurationMS)/durationBandMS, int(b.DurationMS)/durationBandMS
	if ba != bb {
		return ba < bb
	}
	return a.Path < b.Path
}
