package resource

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/enginert/runtime/internal/core/ecs"
)

// WriteBytes replaces the file content through a temporary file in the same
// directory, creating parent directories as needed.
func WriteBytes(r *Resource, data []byte) error {
	dir := filepath.Dir(r.fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIO, filepath.Dir(r.path), err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(r.fullPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, r.path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", ErrIO, r.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, r.path, err)
	}
	if err := os.Rename(tmp.Name(), r.fullPath); err != nil {
		return fmt.Errorf("%w: replace %s: %w", ErrIO, r.path, err)
	}
	return nil
}

// WriteNode writes n as indented XML so saved scenes stay hand-editable.
func WriteNode(r *Resource, n *ecs.Node) error {
	data, err := n.MarshalIndent()
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.path, err)
	}
	return WriteBytes(r, append(data, '\n'))
}
