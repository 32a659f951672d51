package resource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestRefreshMetadataIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "textures/b.png", "b")
	writeFile(t, root, "textures/a.png", "a")
	writeFile(t, root, "scenes/main.xml", "<Scene/>")
	writeFile(t, root, "notes.txt", "skip me")
	writeFile(t, root, ".cache/x.png", "hidden")

	store := NewMemoryStore()
	m := newTestManager(t, store, Options{Root: root, Extensions: []string{".png", ".XML"}, Fingerprint: true})

	rep, err := m.RefreshMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ID{0, 1, 2}, rep.Added)
	first := m.Entries()
	require.Len(t, first, 3)
	assert.Equal(t, "scenes/main.xml", first[0].Path)
	assert.Equal(t, "textures/a.png", first[1].Path)
	assert.NotEmpty(t, first[1].Digest)

	rep, err = m.RefreshMetadata(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.Changed())
	assert.Empty(t, rep.Modified)
	assert.Equal(t, first, m.Entries())
	assert.Equal(t, 1, store.Saves())
}

func TestRefreshMetadataReconcilesPersistedIDs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "kept.png", "k")
	writeFile(t, root, "new.png", "n")

	store := NewMemoryStore(
		Entry{ID: 7, Path: "kept.png"},
		Entry{ID: 3, Path: "gone.png"},
	)
	m := newTestManager(t, store, Options{Root: root})

	rep, err := m.RefreshMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ID{3}, rep.Evicted)
	assert.Equal(t, []ID{8}, rep.Added, "new ids start above every persisted id")

	kept, err := m.Get("kept.png")
	require.NoError(t, err)
	assert.Equal(t, ID(7), kept.ID())

	_, err = m.ByID(3)
	assert.ErrorIs(t, err, ErrNotFound)

	persisted, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{ID: 3, Path: "gone.png", Retired: true},
		{ID: 7, Path: "kept.png"},
		{ID: 8, Path: "new.png"},
	}, persisted)
}

func TestRefreshRestoresEvictedInstance(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "flicker.png", "1")
	m := newTestManager(t, NewMemoryStore(), Options{Root: root})

	r, err := m.Get("flicker.png")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "flicker.png")))
	rep, err := m.RefreshMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ID{r.ID()}, rep.Evicted)

	other, err := m.Get("other.png")
	require.NoError(t, err)
	assert.NotEqual(t, r.ID(), other.ID(), "evicted ids are never reused")

	writeFile(t, root, "flicker.png", "2")
	rep, err = m.RefreshMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ID{r.ID()}, rep.Restored)

	again, err := m.Get("flicker.png")
	require.NoError(t, err)
	assert.Same(t, r, again)
}

func TestRefreshReportsModifiedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.png", "v1")
	m := newTestManager(t, NewMemoryStore(), Options{Root: root, Fingerprint: true})

	_, err := m.RefreshMetadata(context.Background())
	require.NoError(t, err)

	writeFile(t, root, "a.png", "v2")
	rep, err := m.RefreshMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ID{0}, rep.Modified)
	assert.False(t, rep.Changed())
}

func TestRefreshSkipsExcludedMetadataFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.yaml", "x: 1")
	store := NewYAMLStore(filepath.Join(root, "resources.yaml"))
	m := newTestManager(t, store, Options{Root: root, Exclude: []string{"resources.yaml"}})

	_, err := m.RefreshMetadata(context.Background())
	require.NoError(t, err)
	_, err = m.RefreshMetadata(context.Background())
	require.NoError(t, err)

	entries := m.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "a.yaml", entries[0].Path)
}

func TestEvictedIDsStayRetiredAcrossRestarts(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"a.png", "b.png", "c.png"} {
		writeFile(t, root, p, p)
	}
	store := NewYAMLStore(filepath.Join(t.TempDir(), "resources.yaml"))
	m := newTestManager(t, store, Options{Root: root})
	_, err := m.RefreshMetadata(context.Background())
	require.NoError(t, err)
	c, err := m.Get("c.png")
	require.NoError(t, err)
	assert.Equal(t, ID(2), c.ID())

	require.NoError(t, os.Remove(filepath.Join(root, "c.png")))
	rep, err := m.RefreshMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ID{2}, rep.Evicted)

	restarted := newTestManager(t, store, Options{Root: root})
	assert.Equal(t, 2, restarted.Len())
	_, err = restarted.ByID(2)
	assert.ErrorIs(t, err, ErrNotFound)

	d, err := restarted.Get("d.png")
	require.NoError(t, err)
	assert.Equal(t, ID(3), d.ID())

	back, err := restarted.Get("c.png")
	require.NoError(t, err)
	assert.Equal(t, ID(2), back.ID(), "a retired path gets its old id back")
}
