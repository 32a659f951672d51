// Package components holds the concrete component subtypes the runtime ships
// with. Each subtype reaches its collaborators through Deps, injected once at
// registration; nothing here is a package-level singleton.
package components

import (
	"github.com/enginert/runtime/internal/core/ecs"
	"github.com/enginert/runtime/internal/core/event"
	"github.com/enginert/runtime/internal/render"
	"github.com/enginert/runtime/internal/resource"
	"github.com/enginert/runtime/internal/scripting"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Deps are the collaborators handed to every factory. Any field may be nil;
// subtypes that need a missing collaborator fail in Start.
type Deps struct {
	Objects   ecs.ObjectResolver
	Renderer  render.Renderer
	Projector render.Projector
	Resources *resource.Manager
	Scripts   *scripting.Engine
	Bus       *event.Bus
	Log       *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

// owner resolves the object a component is bound to.
func (d Deps) owner(c ecs.Component) (*ecs.GameObject, bool) {
	b := c.Binding()
	if d.Objects == nil || b == nil {
		return nil, false
	}
	return d.Objects.Object(b.Object())
}

// RegisterAll registers every built-in subtype. It reports every tag that
// could not be registered, not just the first.
func RegisterAll(reg *ecs.FactoryRegistry, d Deps) error {
	var err error
	err = multierr.Append(err, reg.Register(RotatorType, ecs.FactoryFor(func(n *ecs.Node) (*Rotator, error) {
		return NewRotatorFromNode(n, d)
	})))
	err = multierr.Append(err, reg.Register(CameraType, ecs.FactoryFor(func(n *ecs.Node) (*Camera, error) {
		return NewCameraFromNode(n, d)
	})))
	err = multierr.Append(err, reg.Register(SpriteType, ecs.FactoryFor(func(n *ecs.Node) (*Sprite, error) {
		return NewSpriteFromNode(n, d)
	})))
	err = multierr.Append(err, reg.Register(ScriptType, ecs.FactoryFor(func(n *ecs.Node) (*Script, error) {
		return NewScriptFromNode(n, d)
	})))
	return err
}
