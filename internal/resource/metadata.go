package resource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// MetadataStore persists the id/path table between runs.
type MetadataStore interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
}

const metadataVersion = 1

type metadataFile struct {
	Version   int     `yaml:"version"`
	Resources []Entry `yaml:"resources"`
}

// YAMLStore keeps the table in a YAML file. A missing file is an empty table.
type YAMLStore struct {
	path string
}

func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

func (s *YAMLStore) Path() string { return s.path }

func (s *YAMLStore) Load(_ context.Context) ([]Entry, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read metadata %s: %w", s.path, err)
	}
	var f metadataFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", s.path, err)
	}
	if f.Version > metadataVersion {
		return nil, fmt.Errorf("metadata %s: unsupported version %d", s.path, f.Version)
	}
	return f.Resources, nil
}

// Save writes the table to a temporary file and renames it into place so a
// crash never leaves a truncated table behind.
func (s *YAMLStore) Save(_ context.Context, entries []Entry) error {
	raw, err := yaml.Marshal(metadataFile{Version: metadataVersion, Resources: entries})
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create metadata dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp metadata: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write metadata %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close metadata %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace metadata %s: %w", s.path, err)
	}
	return nil
}

// MemoryStore is an in-process store for tests and tools.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
	saves   int
}

func NewMemoryStore(entries ...Entry) *MemoryStore {
	return &MemoryStore{entries: append([]Entry(nil), entries...)}
}

func (s *MemoryStore) Load(_ context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...), nil
}

func (s *MemoryStore) Save(_ context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]Entry(nil), entries...)
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
