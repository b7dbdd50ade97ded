package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TestEntry is one test in a suite manifest.
type TestEntry struct {
	// Path uniquely identifies the test.
	Path string `yaml:"path"`

	// Deps lists declared prerequisite test paths.
	Deps []string `yaml:"deps,omitempty"`
}

// TestList is the suite manifest format: the full list of tests the host
// runner wants scheduled.
//
//	tests:
//	  - path: tests/auth/login_test
//	  - path: tests/plans/create_test
//	    deps:
//	      - tests/auth/login_test
type TestList struct {
	Tests []TestEntry `yaml:"tests"`
}

// LoadTestList reads and validates a suite manifest.
func LoadTestList(path string) (*TestList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test list: %w", err)
	}

	var list TestList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse test list %s: %w", path, err)
	}
	if len(list.Tests) == 0 {
		return nil, fmt.Errorf("test list %s contains no tests", path)
	}

	seen := make(map[string]bool, len(list.Tests))
	for i, entry := range list.Tests {
		if entry.Path == "" {
			return nil, fmt.Errorf("test list %s: entry %d has no path", path, i)
		}
		if seen[entry.Path] {
			return nil, fmt.Errorf("test list %s: duplicate path %q", path, entry.Path)
		}
		seen[entry.Path] = true
	}
	return &list, nil
}
