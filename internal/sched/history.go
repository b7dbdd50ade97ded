package sched

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// historyFile is the on-disk format for persisted test metadata.
type historyFile struct {
	Tests []TestMeta `yaml:"tests"`
}

// LoadHistory merges persisted metadata into the store. A missing file is
// not an error: the store simply starts from defaults.
func (m *MetadataStore) LoadHistory(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read history file: %w", err)
	}

	var hf historyFile
	if err := yaml.Unmarshal(data, &hf); err != nil {
		return fmt.Errorf("failed to parse history file %s: %w", path, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range hf.Tests {
		e := hf.Tests[i]
		if e.Path == "" {
			continue
		}
		cp := e
		m.entries[e.Path] = &cp
	}
	return nil
}

// SaveHistory writes every tracked entry to the history file, sorted by
// path so the output is byte-stable across runs.
func (m *MetadataStore) SaveHistory(path string) error {
	hf := historyFile{Tests: m.All()}

	data, err := yaml.Marshal(&hf)
	if err != nil {
		return fmt.Errorf("failed to serialize history: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create history dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}
