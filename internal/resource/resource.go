// Package resource maps on-disk assets to short, durable ids.
//
// A Resource is created the first time its path is requested or when its
// entry is loaded from the metadata store, and is never mutated afterwards.
// Ids survive restarts through the store; the Manager only ever allocates ids
// above every id it has seen.
package resource

import (
	"errors"
	"fmt"
	"math"
)

// ID is a process-unique resource identifier.
type ID uint16

// MaxID is the last allocatable id.
const MaxID = math.MaxUint16

var (
	// ErrNotFound is returned for ids that were never allocated or were evicted.
	ErrNotFound = errors.New("resource not found")
	// ErrIDCollision is returned when persisted metadata disagrees with the
	// ids already known to the manager.
	ErrIDCollision = errors.New("resource id collision")
	// ErrIDExhausted is returned when no id is left to allocate.
	ErrIDExhausted = errors.New("resource ids exhausted")
	// ErrOutsideRoot is returned for paths that escape the asset root.
	ErrOutsideRoot = errors.New("path outside asset root")
	// ErrIO marks read helper failures caused by the file system.
	ErrIO = errors.New("resource i/o error")
	// ErrParse marks read helper failures caused by malformed content.
	ErrParse = errors.New("resource parse error")
)

// Resource is an immutable pairing of an id with a file.
type Resource struct {
	id       ID
	path     string
	fullPath string
}

func (r *Resource) ID() ID { return r.id }

// Path is the slash-separated path relative to the asset root. It is the key
// resources are deduplicated by.
func (r *Resource) Path() string { return r.path }

// FullPath is the resolved file-system path.
func (r *Resource) FullPath() string { return r.fullPath }

func (r *Resource) String() string {
	return fmt.Sprintf("#%d %s", r.id, r.path)
}

// Entry is one row of the persisted metadata table. A retired entry is the
// tombstone of an evicted resource: its id stays reserved for its path across
// restarts.
type Entry struct {
	ID      ID     `yaml:"id"`
	Path    string `yaml:"path"`
	Digest  string `yaml:"digest,omitempty"`
	Retired bool   `yaml:"retired,omitempty"`
}
