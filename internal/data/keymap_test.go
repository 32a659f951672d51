package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "keymap.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadKeyMapTable(t *testing.T) {
	table, err := LoadKeyMapTable(writeYAML(t, `
- input: w
  key: up
- input: SPACE
  key: jump
`))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Count())

	k, ok := table.Get("space")
	assert.True(t, ok)
	assert.Equal(t, "jump", k)
	assert.Equal(t, "up", table.Translate("W"))
	assert.Equal(t, "q", table.Translate("q"))

	var none *KeyMapTable
	assert.Equal(t, "q", none.Translate("q"))
}

func TestLoadKeyMapTableErrors(t *testing.T) {
	for name, body := range map[string]string{
		"duplicate": "- {input: w, key: up}\n- {input: W, key: jump}\n",
		"empty key": "- {input: w}\n",
		"syntax":    "- input: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadKeyMapTable(writeYAML(t, body))
			assert.Error(t, err)
		})
	}
	_, err := LoadKeyMapTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
