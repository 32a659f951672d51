package resource

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Options configures a Manager.
type Options struct {
	// Root is the asset directory every path is resolved against.
	Root string
	// FirstID is the id handed out to the first new resource.
	FirstID ID
	// Extensions limits RefreshMetadata to files with these extensions
	// (".png", ".xml", ...). Empty means every file.
	Extensions []string
	// Exclude lists root-relative paths RefreshMetadata ignores, such as a
	// metadata file kept inside the asset tree.
	Exclude []string
	// Fingerprint records a content digest for every file during refresh so
	// that modified assets can be reported.
	Fingerprint bool
}

// Manager is the process-wide registry from ids and paths to resources.
// It is safe for concurrent use; allocation and insertion happen under one lock
// so two callers requesting the same new path get the same Resource.
type Manager struct {
	mu     sync.Mutex
	saveMu sync.Mutex

	root    string
	opts    Options
	exclude map[string]bool
	store   MetadataStore
	log     *zap.Logger

	nextID  uint32
	byID    map[ID]*Resource
	byPath  map[string]*Resource
	evicted map[string]*Resource
	digests map[ID]string
	dirty   bool
}

// NewManager creates a manager and restores the ids persisted in store.
func NewManager(ctx context.Context, opts Options, store MetadataStore, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve asset root %s: %w", opts.Root, err)
	}
	m := &Manager{
		root:    root,
		opts:    opts,
		exclude: make(map[string]bool, len(opts.Exclude)),
		store:   store,
		log:     log,
		nextID:  uint32(opts.FirstID),
		byID:    make(map[ID]*Resource, 256),
		byPath:  make(map[string]*Resource, 256),
		evicted: make(map[string]*Resource),
		digests: make(map[ID]string, 256),
	}
	for _, p := range opts.Exclude {
		key, _, err := m.resolve(p)
		if err != nil {
			return nil, fmt.Errorf("exclude %s: %w", p, err)
		}
		m.exclude[key] = true
	}

	entries, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load resource metadata: %w", err)
	}
	if err := m.Import(entries); err != nil {
		return nil, err
	}
	m.dirty = false
	m.log.Debug("resource metadata loaded",
		zap.Int("resources", len(m.byID)),
		zap.Int("retired", len(m.evicted)),
		zap.Uint32("next_id", m.nextID),
	)
	return m, nil
}

// Root returns the absolute asset root.
func (m *Manager) Root() string { return m.root }

// Get returns the resource for path, allocating a fresh id the first time the
// path is seen. The same path always yields the same *Resource.
func (m *Manager) Get(path string) (*Resource, error) {
	key, full, err := m.resolve(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.byPath[key]; ok {
		return r, nil
	}
	if r, ok := m.evicted[key]; ok {
		m.restoreLocked(r)
		return r, nil
	}
	r, err := m.allocateLocked(key, full)
	if err != nil {
		return nil, err
	}
	m.log.Debug("resource registered", zap.Uint16("id", uint16(r.id)), zap.String("path", key))
	return r, nil
}

// ByID returns the resource registered under id.
func (m *Manager) ByID(id ID) (*Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("resource #%d: %w", id, ErrNotFound)
	}
	return r, nil
}

// Import merges persisted entries. An entry whose id or path is already bound
// differently is a configuration error and nothing from the batch is applied.
// Retired entries reserve their id without registering the resource.
func (m *Manager) Import(entries []Entry) error {
	type pending struct {
		entry Entry
		key   string
		full  string
	}
	batch := make([]pending, 0, len(entries))
	seenID := make(map[ID]string, len(entries))
	seenPath := make(map[string]ID, len(entries))
	for _, e := range entries {
		key, full, err := m.resolve(e.Path)
		if err != nil {
			return fmt.Errorf("import resource #%d: %w", e.ID, err)
		}
		if p, ok := seenID[e.ID]; ok && p != key {
			return fmt.Errorf("import resource #%d: %s and %s: %w", e.ID, p, key, ErrIDCollision)
		}
		if id, ok := seenPath[key]; ok && id != e.ID {
			return fmt.Errorf("import %s: ids %d and %d: %w", key, id, e.ID, ErrIDCollision)
		}
		seenID[e.ID] = key
		seenPath[key] = e.ID
		batch = append(batch, pending{entry: e, key: key, full: full})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range batch {
		if r, ok := m.byID[p.entry.ID]; ok && r.path != p.key {
			return fmt.Errorf("import resource #%d: %s already holds it: %w", p.entry.ID, r.path, ErrIDCollision)
		}
		if r, ok := m.byPath[p.key]; ok && r.id != p.entry.ID {
			return fmt.Errorf("import %s: already registered as #%d: %w", p.key, r.id, ErrIDCollision)
		}
		if r, ok := m.evicted[p.key]; ok && r.id != p.entry.ID {
			return fmt.Errorf("import %s: previously registered as #%d: %w", p.key, r.id, ErrIDCollision)
		}
		if uint32(p.entry.ID) < m.nextID && m.idRetiredLocked(p.entry.ID, p.key) {
			return fmt.Errorf("import resource #%d: id was retired: %w", p.entry.ID, ErrIDCollision)
		}
	}

	for _, p := range batch {
		if next := uint32(p.entry.ID) + 1; next > m.nextID {
			m.nextID = next
		}
		if _, ok := m.byID[p.entry.ID]; ok {
			continue
		}
		r, ok := m.evicted[p.key]
		if p.entry.Retired {
			if !ok {
				m.evicted[p.key] = &Resource{id: p.entry.ID, path: p.key, fullPath: p.full}
			}
			continue
		}
		if !ok {
			r = &Resource{id: p.entry.ID, path: p.key, fullPath: p.full}
		}
		m.restoreLocked(r)
		if p.entry.Digest != "" {
			m.digests[r.id] = p.entry.Digest
		}
	}
	return nil
}

// Resources returns every registered resource ordered by id.
func (m *Manager) Resources() []*Resource {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Resource, 0, len(m.byID))
	for _, r := range m.byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Entries returns the metadata table ordered by id.
func (m *Manager) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entriesLocked()
}

// Len returns the number of registered resources.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// Dirty reports whether ids were allocated since the last save.
func (m *Manager) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// Flush persists the table if anything changed since the last save.
func (m *Manager) Flush(ctx context.Context) error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.mu.Lock()
	if !m.dirty {
		m.mu.Unlock()
		return nil
	}
	entries := m.entriesLocked()
	m.dirty = false
	m.mu.Unlock()

	return m.save(ctx, entries)
}

// save must be called with saveMu held.
func (m *Manager) save(ctx context.Context, entries []Entry) error {
	if err := m.store.Save(ctx, entries); err != nil {
		m.mu.Lock()
		m.dirty = true
		m.mu.Unlock()
		return fmt.Errorf("save resource metadata: %w", err)
	}
	m.log.Debug("resource metadata saved", zap.Int("resources", len(entries)))
	return nil
}

// entriesLocked returns live entries plus tombstones for evicted ids.
func (m *Manager) entriesLocked() []Entry {
	out := make([]Entry, 0, len(m.byID)+len(m.evicted))
	for id, r := range m.byID {
		out = append(out, Entry{ID: id, Path: r.path, Digest: m.digests[id]})
	}
	for _, r := range m.evicted {
		out = append(out, Entry{ID: r.id, Path: r.path, Retired: true})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Manager) allocateLocked(key, full string) (*Resource, error) {
	for m.nextID <= MaxID {
		id := ID(m.nextID)
		m.nextID++
		if _, taken := m.byID[id]; taken || m.idRetiredLocked(id, "") {
			continue
		}
		r := &Resource{id: id, path: key, fullPath: full}
		m.byID[id] = r
		m.byPath[key] = r
		m.dirty = true
		return r, nil
	}
	return nil, fmt.Errorf("register %s: %w", key, ErrIDExhausted)
}

func (m *Manager) restoreLocked(r *Resource) {
	delete(m.evicted, r.path)
	m.byID[r.id] = r
	m.byPath[r.path] = r
	m.dirty = true
}

func (m *Manager) evictLocked(r *Resource) {
	delete(m.byID, r.id)
	delete(m.byPath, r.path)
	delete(m.digests, r.id)
	m.evicted[r.path] = r
	m.dirty = true
}

// idRetiredLocked reports whether id belongs to an evicted resource other
// than the one at path.
func (m *Manager) idRetiredLocked(id ID, path string) bool {
	for p, r := range m.evicted {
		if r.id == id && p != path {
			return true
		}
	}
	return false
}

// resolve returns the dedup key and the file-system path for p.
func (m *Manager) resolve(p string) (key, full string, err error) {
	if p == "" {
		return "", "", fmt.Errorf("resolve empty path: %w", ErrOutsideRoot)
	}
	rel := filepath.FromSlash(p)
	if filepath.IsAbs(rel) {
		rel, err = filepath.Rel(m.root, rel)
		if err != nil {
			return "", "", fmt.Errorf("resolve %s: %w", p, ErrOutsideRoot)
		}
	}
	rel = filepath.Clean(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("resolve %s: %w", p, ErrOutsideRoot)
	}
	return filepath.ToSlash(rel), filepath.Join(m.root, rel), nil
}
