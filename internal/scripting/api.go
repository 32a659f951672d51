package scripting

import (
	"github.com/enginert/runtime/internal/core/ecs"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// registerAPI installs the Go functions scripts may call.
//
//	log(msg)
//	translate(id, dx, dy, dz) -> bool
//	rotate(id, dx, dy, dz)    -> bool
//	position(id)              -> x, y, z | nil
//	set_active(id, bool)      -> bool
//	nearby(id, radius)        -> {id...}, excluding id itself
func (e *Engine) registerAPI() {
	e.vm.SetGlobal("log", e.vm.NewFunction(e.luaLog))
	e.vm.SetGlobal("translate", e.vm.NewFunction(e.luaMove(func(o *ecs.GameObject, d ecs.Vec3) { o.Translate(d) })))
	e.vm.SetGlobal("rotate", e.vm.NewFunction(e.luaMove(func(o *ecs.GameObject, d ecs.Vec3) { o.Rotate(d) })))
	e.vm.SetGlobal("position", e.vm.NewFunction(e.luaPosition))
	e.vm.SetGlobal("set_active", e.vm.NewFunction(e.luaSetActive))
	e.vm.SetGlobal("nearby", e.vm.NewFunction(e.luaNearby))
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

func (e *Engine) object(L *lua.LState) (*ecs.GameObject, bool) {
	id := ecs.ObjectID(L.CheckNumber(1))
	if e.objects == nil {
		return nil, false
	}
	o, ok := e.objects.Object(id)
	if !ok || o.Destroyed() {
		return nil, false
	}
	return o, true
}

func (e *Engine) luaMove(apply func(*ecs.GameObject, ecs.Vec3)) lua.LGFunction {
	return func(L *lua.LState) int {
		o, ok := e.object(L)
		d := ecs.Vec3{
			X: float64(L.OptNumber(2, 0)),
			Y: float64(L.OptNumber(3, 0)),
			Z: float64(L.OptNumber(4, 0)),
		}
		if ok {
			apply(o, d)
		}
		L.Push(lua.LBool(ok))
		return 1
	}
}

func (e *Engine) luaPosition(L *lua.LState) int {
	o, ok := e.object(L)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	p := o.Transform().Position
	L.Push(lua.LNumber(p.X))
	L.Push(lua.LNumber(p.Y))
	L.Push(lua.LNumber(p.Z))
	return 3
}

func (e *Engine) luaSetActive(L *lua.LState) int {
	o, ok := e.object(L)
	active := L.ToBool(2)
	if ok && active {
		o.Activate()
	} else if ok {
		if err := o.Deactivate(); err != nil {
			e.log.Warn("lua set_active: deactivate failed", zap.Stringer("object", o.ID()), zap.Error(err))
		}
	}
	L.Push(lua.LBool(ok))
	return 1
}

func (e *Engine) luaNearby(L *lua.LState) int {
	o, ok := e.object(L)
	radius := float64(L.CheckNumber(2))
	out := L.NewTable()
	if ok && e.near != nil {
		for _, id := range e.near.Near(o.Scene(), o.Transform().Position, radius) {
			if id != o.ID() {
				out.Append(lua.LNumber(id))
			}
		}
	}
	L.Push(out)
	return 1
}
