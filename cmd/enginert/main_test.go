package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/enginert/runtime/internal/components"
	"github.com/enginert/runtime/internal/core/ecs"
	"github.com/enginert/runtime/internal/core/event"
	"github.com/enginert/runtime/internal/data"
	"github.com/enginert/runtime/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEveryTicks(t *testing.T) {
	tick := 100 * time.Millisecond
	assert.Equal(t, 0, everyTicks(0, tick))
	assert.Equal(t, 1, everyTicks(time.Millisecond, tick))
	assert.Equal(t, 50, everyTicks(5*time.Second, tick))
}

func TestReadInput(t *testing.T) {
	keys := make(chan event.KeyEvent, 8)
	mouse := make(chan event.MouseEvent, 2)
	keyMap, err := data.LoadKeyMapTable(writeKeyMap(t, "- {input: w, key: up}\n"))
	require.NoError(t, err)
	readInput(strings.NewReader("w a\n\nmouse 3 4 1\nkey nope sideways\nspace\n"), keyMap, keys, mouse, zap.NewNop())
	close(keys)
	close(mouse)

	var got []event.KeyEvent
	for ev := range keys {
		got = append(got, ev)
	}
	require.Len(t, got, 6)
	assert.Equal(t, event.KeyEvent{Key: "up", Pressed: true}, got[0])
	assert.Equal(t, event.KeyEvent{Key: "up", Pressed: false}, got[1])
	assert.Equal(t, "a", got[2].Key)
	assert.Equal(t, "space", got[4].Key)
	assert.Equal(t, event.MouseEvent{X: 3, Y: 4, Button: 1, Pressed: true}, <-mouse)
}

func writeKeyMap(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "keymap.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadSceneSkipsBadNodes(t *testing.T) {
	root := t.TempDir()
	scene := `<Scene name="main">
  <Object name="ok"><Component type="Rotator" speed="1"/></Object>
  <Object name="bad"><Component type="Nope"/></Object>
</Scene>`
	require.NoError(t, os.MkdirAll(filepath.Join(root, "scenes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "scenes", "main.xml"), []byte(scene), 0o644))

	res, err := resource.NewManager(context.Background(), resource.Options{Root: root}, resource.NewMemoryStore(), nil)
	require.NoError(t, err)
	world := ecs.NewWorld()
	reg := ecs.NewFactoryRegistry()
	require.NoError(t, components.RegisterAll(reg, components.Deps{Objects: world}))
	loader := resource.NewLoader(context.Background(), 1, 1)
	defer loader.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	sc, err := loadScene(context.Background(), loader, res, world, reg, "scenes/main.xml", zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, "main", sc.Name())
	assert.NotNil(t, sc.FindByName("ok"))
	assert.Equal(t, 1, logs.FilterMessage("scene node skipped").Len())

	_, err = loadScene(context.Background(), loader, res, world, reg, "scenes/missing.xml", zap.NewNop())
	assert.ErrorIs(t, err, resource.ErrIO)
}
