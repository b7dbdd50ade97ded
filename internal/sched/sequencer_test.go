package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSort_PriorityDominates(t *testing.T) {
	// Static classifier: any deterministic mapping satisfies the contract.
	classify := func(path string) Priority {
		if path == "b" {
			return PriorityCritical
		}
		return PriorityLow
	}
	m := NewMetadataStore(classify)
	// Give the low-priority test every other advantage.
	seedMeta(m, "a", 10)
	m.Record("a", 10, true) // high failure rate
	seedMeta(m, "b", 5000)

	got := NewSequencer(m).Sort([]string{"a", "b"})
	assert.Equal(t, []string{"b", "a"}, got, "critical must run before low regardless of other keys")
}

func TestSort_FailureRateBreaksPriorityTie(t *testing.T) {
	m := NewMetadataStore(nil)
	// Both paths classify medium.
	m.Record("tests/plans/flaky_test", 100, true)
	m.Record("tests/plans/steady_test", 100, false)

	got := NewSequencer(m).Sort([]string{"tests/plans/steady_test", "tests/plans/flaky_test"})
	assert.Equal(t, []string{"tests/plans/flaky_test", "tests/plans/steady_test"}, got)
}

func TestSort_FewerDepsFirst(t *testing.T) {
	m := NewMetadataStore(nil)
	m.SetDeps("tests/plans/chained_test", []string{"tests/plans/base_test", "tests/plans/other_test"})
	m.SetDeps("tests/plans/light_test", []string{"tests/plans/base_test"})

	got := NewSequencer(m).Sort([]string{"tests/plans/chained_test", "tests/plans/light_test"})
	assert.Equal(t, []string{"tests/plans/light_test", "tests/plans/chained_test"}, got)
}

func TestSort_ShorterDurationFirst(t *testing.T) {
	m := NewMetadataStore(nil)
	seedMeta(m, "tests/plans/slow_test", 900)
	seedMeta(m, "tests/plans/fast_test", 200)

	got := NewSequencer(m).Sort([]string{"tests/plans/slow_test", "tests/plans/fast_test"})
	assert.Equal(t, []string{"tests/plans/fast_test", "tests/plans/slow_test"}, got)
}

func TestSort_DurationToleranceBand(t *testing.T) {
	m := NewMetadataStore(nil)
	// Estimates in the same 100ms band are not reordered on duration;
	// the lexical key decides instead.
	seedMeta(m, "tests/plans/y_test", 410)
	seedMeta(m, "tests/plans/x_test", 480)

	got := NewSequencer(m).Sort([]string{"tests/plans/y_test", "tests/plans/x_test"})
	assert.Equal(t, []string{"tests/plans/x_test", "tests/plans/y_test"}, got)
}

func TestSort_LexicalTieBreak(t *testing.T) {
	m := NewMetadataStore(nil)
	got := NewSequencer(m).Sort([]string{"tests/plans/b_test", "tests/plans/a_test", "tests/plans/c_test"})
	assert.Equal(t, []string{"tests/plans/a_test", "tests/plans/b_test", "tests/plans/c_test"}, got)
}

func TestSort_Deterministic(t *testing.T) {
	m := NewMetadataStore(nil)
	m.Record("tests/auth/login_test", 300, true)
	m.Record("tests/api/routes_test", 700, false)
	seedMeta(m, "tests/util/format_test", 50)

	seq := NewSequencer(m)
	tests := []string{
		"tests/util/format_test",
		"tests/plans/create_test",
		"tests/auth/login_test",
		"tests/api/routes_test",
	}

	first := seq.Sort(tests)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, seq.Sort(tests))
	}
	// Highest tier leads.
	assert.Equal(t, "tests/auth/login_test", first[0])
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	m := NewMetadataStore(nil)
	tests := []string{"tests/plans/b_test", "tests/plans/a_test"}
	_ = NewSequencer(m).Sort(tests)
	assert.Equal(t, []string{"tests/plans/b_test", "tests/plans/a_test"}, tests)
}
