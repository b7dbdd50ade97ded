package sched

import (
	"fmt"
	"hash/fnv"
	"path"
	"strings"
)

// Classifier maps a test's identity to its priority tier. Any
// deterministic mapping satisfies the scheduling contract; the default is
// a path-substring heuristic.
type Classifier func(testPath string) Priority

// DefaultClassifier derives a priority tier from the test path:
// authentication and security tests are critical, integration and
// API-facing tests high, pure unit/utility tests low, everything else
// medium.
func DefaultClassifier(testPath string) Priority {
	p := strings.ToLower(testPath)
	switch {
	case containsAny(p, "auth", "security", "login", "permission", "session"):
		return PriorityCritical
	case containsAny(p, "api", "integration", "route", "endpoint"):
		return PriorityHigh
	case containsAny(p, "unit", "util", "helper", "format"):
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// topicOf clusters tests into cohesive groups by path structure. Related
// tests often share expensive fixtures, so they should land in the same
// shard. Unclassified paths fall back to a stable hash of the containing
// directory, keeping sibling tests together.
func topicOf(testPath string) string {
	p := strings.ToLower(testPath)
	switch {
	case containsAny(p, "auth", "security", "login", "session"):
		return "auth"
	case containsAny(p, "e2e", "acceptance"):
		return "e2e"
	case containsAny(p, "api", "route", "endpoint"):
		return "api"
	case containsAny(p, "service"):
		return "service"
	case containsAny(p, "unit", "util", "helper"):
		return "util"
	default:
		h := fnv.New32a()
		h.Write([]byte(path.Dir(p)))
		return fmt.Sprintf("dir-%08x", h.Sum32())
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
