package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/enginert/runtime/internal/core/ecs"
	"github.com/enginert/runtime/internal/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spin = `
local b = { ticks = 0, keys = "" }

function b:update(dt)
  self.ticks = self.ticks + 1
  rotate(self.object, 0, tonumber(self.params.speed) * dt, 0)
end

function b:on_key(key, pressed)
  if pressed then self.keys = self.keys .. key end
end

return b
`

func newWorldObject(t *testing.T) (*ecs.World, *ecs.GameObject) {
	t.Helper()
	w := ecs.NewWorld()
	s, err := w.NewScene("main")
	require.NoError(t, err)
	return w, s.Spawn("spinner")
}

func TestBehaviorHooks(t *testing.T) {
	w, obj := newWorldObject(t)
	e, err := NewEngine("", w, nil)
	require.NoError(t, err)
	defer e.Close()

	b, err := e.LoadBehaviorString("spin", spin, obj.ID(), map[string]string{"speed": "90"})
	require.NoError(t, err)
	assert.True(t, b.Has("update"))
	assert.False(t, b.Has("draw"))

	require.NoError(t, b.Call("update", 0.5))
	require.NoError(t, b.Call("update", 0.5))
	require.NoError(t, b.Call("draw"), "missing hooks are no-ops")
	assert.Equal(t, 2.0, b.Field("ticks"))
	assert.InDelta(t, 90.0, obj.Transform().Rotation.Y, 1e-9)

	require.NoError(t, b.Call("on_key", "a", true))
	require.NoError(t, b.Call("on_key", "b", false))
	assert.Equal(t, "a", b.Field("keys"))
}

func TestBehaviorInstancesAreIndependent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spin.lua"), []byte(spin), 0o644))
	w, obj := newWorldObject(t)
	e, err := NewEngine(dir, w, nil)
	require.NoError(t, err)
	defer e.Close()

	params := map[string]string{"speed": "1"}
	a, err := e.LoadBehavior("spin.lua", obj.ID(), params)
	require.NoError(t, err)
	b, err := e.LoadBehavior("spin.lua", obj.ID(), params)
	require.NoError(t, err)

	require.NoError(t, a.Call("update", 1.0))
	assert.Equal(t, 1.0, a.Field("ticks"))
	assert.Equal(t, 0.0, b.Field("ticks"))
}

func TestScriptErrors(t *testing.T) {
	e, err := NewEngine("", nil, nil)
	require.NoError(t, err)
	defer e.Close()

	_, err = e.LoadBehaviorString("syntax", "return {", 0, nil)
	assert.Error(t, err)

	_, err = e.LoadBehaviorString("number", "return 42", 0, nil)
	assert.ErrorIs(t, err, ErrNoBehavior)

	b, err := e.LoadBehaviorString("boom", `return { update = function(self) error("boom") end }`, 0, nil)
	require.NoError(t, err)
	err = b.Call("update")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	assert.Error(t, b.Call("update", struct{}{}))

	_, err = e.LoadBehavior(filepath.Join(t.TempDir(), "missing.lua"), 0, nil)
	assert.Error(t, err)
}

func TestLibScriptsAndUnknownObjects(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "util.lua"), []byte(`function double(x) return x * 2 end`), 0o644))

	w, _ := newWorldObject(t)
	e, err := NewEngine(dir, w, nil)
	require.NoError(t, err)
	defer e.Close()

	b, err := e.LoadBehaviorString("uses-lib", `
return {
  start = function(self)
    self.doubled = double(21)
    self.moved = translate(9999, 1, 0, 0)
  end
}`, 0, nil)
	require.NoError(t, err)
	require.NoError(t, b.Call("start"))
	assert.Equal(t, 42.0, b.Field("doubled"))
	assert.Equal(t, false, b.Field("moved"))
}

func TestNearby(t *testing.T) {
	w, obj := newWorldObject(t)
	sc, _ := w.Scene("main")
	neighbor := sc.Spawn("neighbor")
	neighbor.SetPosition(ecs.Vec3{X: 2})
	far := sc.Spawn("far")
	far.SetPosition(ecs.Vec3{X: 50})

	e, err := NewEngine("", w, nil)
	require.NoError(t, err)
	defer e.Close()

	src := `return { start = function(self) self.count = #nearby(self.object, 5) end }`
	b, err := e.LoadBehaviorString("near", src, obj.ID(), nil)
	require.NoError(t, err)
	require.NoError(t, b.Call("start"))
	assert.Equal(t, 0.0, b.Field("count"), "no index installed")

	g := spatial.NewGrid(4)
	for _, o := range sc.Objects() {
		g.Set(o.ID(), o.Scene(), o.Transform().Position)
	}
	e.SetNeighbors(g)
	require.NoError(t, b.Call("start"))
	assert.Equal(t, 1.0, b.Field("count"))
}
