package resource

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// Report describes what a RefreshMetadata pass changed.
type Report struct {
	Added    []ID
	Restored []ID
	Evicted  []ID
	Modified []ID
}

// Changed reports whether the pass altered the id table.
func (r Report) Changed() bool {
	return len(r.Added)+len(r.Restored)+len(r.Evicted) > 0
}

// RefreshMetadata reconciles the table with the asset directory: entries whose
// file is gone are evicted, files without an entry get fresh ids in path
// order, and existing entries keep their ids. The result is persisted.
// Running it twice without file changes leaves the table untouched.
func (m *Manager) RefreshMetadata(ctx context.Context) (Report, error) {
	files, err := m.scan(ctx)
	if err != nil {
		return Report{}, err
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	var rep Report
	m.mu.Lock()
	for key, r := range m.byPath {
		if _, ok := files[key]; !ok {
			m.evictLocked(r)
			rep.Evicted = append(rep.Evicted, r.id)
		}
	}

	keys := make([]string, 0, len(files))
	for key := range files {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var allocErr error
	for _, key := range keys {
		digest := files[key]
		r, ok := m.byPath[key]
		switch {
		case ok:
			if old := m.digests[r.id]; digest != "" && old != "" && old != digest {
				rep.Modified = append(rep.Modified, r.id)
			}
		case m.evicted[key] != nil:
			r = m.evicted[key]
			m.restoreLocked(r)
			rep.Restored = append(rep.Restored, r.id)
		default:
			r, err = m.allocateLocked(key, filepath.Join(m.root, filepath.FromSlash(key)))
			if err != nil {
				allocErr = err
			} else {
				rep.Added = append(rep.Added, r.id)
			}
		}
		if r != nil && digest != "" && m.digests[r.id] != digest {
			m.digests[r.id] = digest
			m.dirty = true
		}
		if allocErr != nil {
			break
		}
	}

	entries := m.entriesLocked()
	dirty := m.dirty
	m.dirty = false
	m.mu.Unlock()

	sortIDs(rep.Evicted)
	sortIDs(rep.Modified)

	if dirty {
		if err := m.save(ctx, entries); err != nil {
			return rep, err
		}
	}
	if allocErr != nil {
		return rep, allocErr
	}
	if rep.Changed() || len(rep.Modified) > 0 {
		m.log.Info("resource metadata refreshed",
			zap.Int("added", len(rep.Added)),
			zap.Int("restored", len(rep.Restored)),
			zap.Int("evicted", len(rep.Evicted)),
			zap.Int("modified", len(rep.Modified)),
		)
	}
	return rep, nil
}

// scan walks the asset root and returns root-relative keys mapped to their
// digest ("" when fingerprinting is off).
func (m *Manager) scan(ctx context.Context) (map[string]string, error) {
	files := make(map[string]string, 256)
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != m.root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !d.Type().IsRegular() || !m.wantExt(name) {
			return nil
		}
		rel, err := filepath.Rel(m.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if m.exclude[key] {
			return nil
		}
		digest := ""
		if m.opts.Fingerprint {
			if digest, err = fileDigest(path); err != nil {
				return err
			}
		}
		files[key] = digest
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan asset root %s: %w", m.root, err)
	}
	return files, nil
}

func (m *Manager) wantExt(name string) bool {
	if len(m.opts.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range m.opts.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sortIDs(ids []ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
