package scripting

import (
	"fmt"

	"github.com/enginert/runtime/internal/core/ecs"
	lua "github.com/yuin/gopher-lua"
)

// Behavior is one instance of a script: the table its chunk returned. Hooks
// are table fields holding functions and receive the table as self.
type Behavior struct {
	engine *Engine
	name   string
	table  *lua.LTable
}

func (b *Behavior) Name() string { return b.name }

// Has reports whether the behavior defines hook.
func (b *Behavior) Has(hook string) bool {
	_, ok := b.table.RawGetString(hook).(*lua.LFunction)
	return ok
}

// Call invokes hook with self plus args. A missing hook is a no-op. Supported
// argument types are bool, string, float64, int and ecs.ObjectID.
func (b *Behavior) Call(hook string, args ...any) error {
	fn, ok := b.table.RawGetString(hook).(*lua.LFunction)
	if !ok {
		return nil
	}
	vm := b.engine.vm
	largs := make([]lua.LValue, 0, len(args)+1)
	largs = append(largs, b.table)
	for _, a := range args {
		v, err := toLua(a)
		if err != nil {
			return fmt.Errorf("lua %s.%s: %w", b.name, hook, err)
		}
		largs = append(largs, v)
	}
	if err := vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, largs...); err != nil {
		return fmt.Errorf("lua %s.%s: %w", b.name, hook, err)
	}
	return nil
}

// Field returns a top-level field of the behavior table as a Go value:
// string, float64, bool or nil.
func (b *Behavior) Field(name string) any {
	switch v := b.table.RawGetString(name).(type) {
	case lua.LString:
		return string(v)
	case lua.LNumber:
		return float64(v)
	case lua.LBool:
		return bool(v)
	default:
		return nil
	}
}

func toLua(v any) (lua.LValue, error) {
	switch x := v.(type) {
	case nil:
		return lua.LNil, nil
	case bool:
		return lua.LBool(x), nil
	case string:
		return lua.LString(x), nil
	case float64:
		return lua.LNumber(x), nil
	case int:
		return lua.LNumber(x), nil
	case ecs.ObjectID:
		return lua.LNumber(x), nil
	default:
		return nil, fmt.Errorf("unsupported argument type %T", v)
	}
}
