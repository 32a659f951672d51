package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/enginert/runtime/internal/core/ecs"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrNoBehavior is returned when a script chunk does not evaluate to a table.
var ErrNoBehavior = errors.New("script did not return a behavior table")

// Engine wraps a single gopher-lua VM for component behaviors.
// Single-goroutine access only (update loop).
type Engine struct {
	vm      *lua.LState
	log     *zap.Logger
	dir     string
	objects ecs.ObjectResolver
	near    Neighbors
	chunks  map[string]*lua.LFunction
}

// Neighbors answers proximity queries for the nearby() script function.
type Neighbors interface {
	Near(scene string, pos ecs.Vec3, radius float64) []ecs.ObjectID
}

// NewEngine creates a Lua engine rooted at scriptsDir. Every .lua file under
// scriptsDir/lib is run once up front so behaviors can share helpers.
// objects lets scripts move the objects they are attached to; it may be nil.
func NewEngine(scriptsDir string, objects ecs.ObjectResolver, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:      vm,
		log:     log,
		dir:     scriptsDir,
		objects: objects,
		chunks:  make(map[string]*lua.LFunction),
	}
	e.registerAPI()

	if scriptsDir != "" {
		if err := e.loadDir(filepath.Join(scriptsDir, "lib")); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load lib scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir runs all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// SetObjects replaces the resolver used by translate/rotate/position.
func (e *Engine) SetObjects(objects ecs.ObjectResolver) { e.objects = objects }

// SetNeighbors installs the index behind nearby(). Without one, nearby
// returns an empty table.
func (e *Engine) SetNeighbors(n Neighbors) { e.near = n }

// LoadBehavior compiles the script at path (relative to the scripts
// directory unless absolute) and evaluates it into a fresh behavior table.
// Compiled chunks are cached; each call still returns an independent table.
func (e *Engine) LoadBehavior(path string, owner ecs.ObjectID, params map[string]string) (*Behavior, error) {
	full := path
	if !filepath.IsAbs(full) && e.dir != "" {
		full = filepath.Join(e.dir, path)
	}
	fn, ok := e.chunks[full]
	if !ok {
		var err error
		fn, err = e.vm.LoadFile(full)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", path, err)
		}
		e.chunks[full] = fn
	}
	return e.instantiate(path, fn, owner, params)
}

// LoadBehaviorString is LoadBehavior for inline source.
func (e *Engine) LoadBehaviorString(name, src string, owner ecs.ObjectID, params map[string]string) (*Behavior, error) {
	fn, err := e.vm.LoadString(src)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return e.instantiate(name, fn, owner, params)
}

// Forget drops the cached chunk for path so the next load recompiles it.
func (e *Engine) Forget(path string) {
	if !filepath.IsAbs(path) && e.dir != "" {
		path = filepath.Join(e.dir, path)
	}
	delete(e.chunks, path)
}

func (e *Engine) instantiate(name string, fn *lua.LFunction, owner ecs.ObjectID, params map[string]string) (*Behavior, error) {
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}); err != nil {
		return nil, fmt.Errorf("run %s: %w", name, err)
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)

	t, ok := result.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%s: %w (got %s)", name, ErrNoBehavior, result.Type())
	}
	t.RawSetString("object", lua.LNumber(owner))
	pt := e.vm.NewTable()
	for k, v := range params {
		pt.RawSetString(k, lua.LString(v))
	}
	t.RawSetString("params", pt)
	return &Behavior{engine: e, name: name, table: t}, nil
}

func (e *Engine) Close() {
	e.vm.Close()
}
