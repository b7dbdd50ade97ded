package sched

import (
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultDurationMS is the neutral estimate for first-seen tests, so
	// unseen tests still schedule sensibly.
	DefaultDurationMS = 1000

	// emaAlpha weights a new observation against the running estimate.
	// At 0.3, a single slow outlier moves the estimate by at most 30% of
	// the gap.
	emaAlpha = 0.3
)

// Priority is a test's scheduling tier.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// String implements fmt.Stringer.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return "medium"
	}
}

// ParsePriority parses a priority tier name.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "critical":
		return PriorityCritical, nil
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return PriorityMedium, fmt.Errorf("unknown priority %q", s)
	}
}

// MarshalYAML serializes the tier by name.
func (p Priority) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// UnmarshalYAML parses the tier by name.
func (p *Priority) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// TestMeta is the scheduling metadata tracked per test path.
// Updated monotonically during a run, never reset mid-run.
type TestMeta struct {
	// Path is the unique test identifier.
	Path string `yaml:"path"`

	// DurationMS is the smoothed duration estimate in milliseconds.
	DurationMS float64 `yaml:"duration_ms"`

	// FailureRate is exactly Failures/Attempts, recomputed on every
	// observation. Not smoothed: a rare flake should be visible
	// immediately as a precise ratio.
	FailureRate float64 `yaml:"failure_rate"`

	// Attempts and Failures are cumulative across suite invocations.
	Attempts int64 `yaml:"attempts"`
	Failures int64 `yaml:"failures"`

	// Deps lists declared prerequisite tests.
	Deps []string `yaml:"deps,omitempty"`

	// Priority is the scheduling tier, derived from the test's identity.
	Priority Priority `yaml:"priority"`
}

// MetadataStore tracks per-test historical duration and failure rate,
// keyed by test path. Safe for concurrent use.
type MetadataStore struct {
	mu       sync.Mutex
	entries  map[string]*TestMeta
	classify Classifier
}

// NewMetadataStore creates an empty store. A nil classifier falls back to
// DefaultClassifier.
func NewMetadataStore(classify Classifier) *MetadataStore {
	if classify == nil {
		classify = DefaultClassifier
	}
	return &MetadataStore{
		entries:  make(map[string]*TestMeta),
		classify: classify,
	}
}

// ensure returns the live entry for a path, creating it with defaults.
// Caller must hold the mutex.
func (m *MetadataStore) ensure(path string) *TestMeta {
	if e, ok := m.entries[path]; ok {
		return e
	}
	e := &TestMeta{
		Path:       path,
		DurationMS: DefaultDurationMS,
		Priority:   m.classify(path),
	}
	m.entries[path] = e
	return e
}

// Get returns a copy of the metadata for a path. First-seen paths get the
// medium-tier default with a neutral duration estimate.
func (m *MetadataStore) Get(path string) TestMeta {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.ensure(path)
	out := *e
	out.Deps = append([]string(nil), e.Deps...)
	return out
}

// SetDeps records a test's declared dependency set.
func (m *MetadataStore) SetDeps(path string, deps []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.ensure(path)
	e.Deps = append([]string(nil), deps...)
}

// Record observes one test completion: the duration estimate moves by the
// exponential moving average and the failure rate is recomputed exactly.
func (m *MetadataStore) Record(path string, durationMS float64, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.ensure(path)
	e.DurationMS = emaAlpha*durationMS + (1-emaAlpha)*e.DurationMS
	e.Attempts++
	if failed {
		e.Failures++
	}
	e.FailureRate = float64(e.Failures) / float64(e.Attempts)
}

// Len returns the number of tracked paths.
func (m *MetadataStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// All returns copies of every entry, sorted by path for determinism.
func (m *MetadataStore) All() []TestMeta {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]TestMeta, 0, len(m.entries))
	for _, e := range m.entries {
		cp := *e
		cp.Deps = append([]string(nil), e.Deps...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
