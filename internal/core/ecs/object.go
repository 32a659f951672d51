package ecs

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

type attachment struct {
	c       Component
	started bool
	removed bool
}

// GameObject exclusively owns its components and drives their lifecycle in
// attachment order. All methods must be called from the update goroutine;
// adding or removing components from inside a hook is deferred to the end of
// the running pass.
type GameObject struct {
	binding   *Binding
	name      string
	active    bool
	destroyed bool
	transform Transform

	attached    []*attachment
	pending     []*attachment
	dispatching int
}

// NewGameObject returns an active object with an identity transform. Objects
// living in a scene should be created with Scene.Spawn instead.
func NewGameObject(id ObjectID, name string) *GameObject {
	return &GameObject{
		binding:   &Binding{object: id},
		name:      name,
		active:    true,
		transform: IdentityTransform(),
		attached:  make([]*attachment, 0, 4),
	}
}

func (o *GameObject) ID() ObjectID        { return o.binding.object }
func (o *GameObject) Name() string        { return o.name }
func (o *GameObject) Scene() string       { return o.binding.scene }
func (o *GameObject) Active() bool        { return o.active && !o.destroyed }
func (o *GameObject) Destroyed() bool     { return o.destroyed }
func (o *GameObject) Transform() Transform { return o.transform }

// AddComponent binds c to this object. A second instance of a unique subtype
// is rejected and the component set is left unchanged.
func (o *GameObject) AddComponent(c Component) error {
	if c == nil {
		return errors.New("add component: nil component")
	}
	if o.destroyed {
		return fmt.Errorf("add %s to %s: %w", c.Type(), o.binding.object, ErrUnknownObject)
	}
	if c.Binding() != nil {
		return fmt.Errorf("add %s to %s: %w", c.Type(), o.binding.object, ErrAlreadyBound)
	}
	if isUnique(c) && o.hasLive(c.Type()) {
		return fmt.Errorf("add %s to %s: %w", c.Type(), o.binding.object, ErrNotUnique)
	}
	if err := c.Bind(o.binding); err != nil {
		return fmt.Errorf("add %s to %s: %w", c.Type(), o.binding.object, err)
	}
	a := &attachment{c: c}
	if o.dispatching > 0 {
		o.pending = append(o.pending, a)
		return nil
	}
	o.attached = append(o.attached, a)
	return nil
}

// RemoveComponent detaches and destroys c. It is not invoked again, including
// later in a pass that is currently running.
func (o *GameObject) RemoveComponent(c Component) error {
	for i, a := range o.pending {
		if a.c == c {
			o.pending = append(o.pending[:i], o.pending[i+1:]...)
			destroyComponent(c)
			return nil
		}
	}
	for _, a := range o.attached {
		if a.c == c && !a.removed {
			a.removed = true
			destroyComponent(c)
			if o.dispatching == 0 {
				o.compact()
			}
			return nil
		}
	}
	return fmt.Errorf("remove component from %s: %w", o.binding.object, ErrNotAttached)
}

// Components returns the live components in attachment order, including those
// waiting for the running pass to finish.
func (o *GameObject) Components() []Component {
	out := make([]Component, 0, len(o.attached)+len(o.pending))
	for _, a := range o.attached {
		if !a.removed {
			out = append(out, a.c)
		}
	}
	for _, a := range o.pending {
		out = append(out, a.c)
	}
	return out
}

// Component returns the first live component tagged tag.
func (o *GameObject) Component(tag string) (Component, bool) {
	for _, c := range o.Components() {
		if c.Type() == tag {
			return c, true
		}
	}
	return nil, false
}

// ComponentOf returns the first live component of concrete type T.
func ComponentOf[T Component](o *GameObject) (T, bool) {
	for _, c := range o.Components() {
		if t, ok := c.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// Start runs Start on every component that has not been started yet.
func (o *GameObject) Start() error {
	if o.destroyed {
		return nil
	}
	return o.dispatch(HookStart, func(a *attachment) bool { return !a.started }, func(a *attachment) error {
		a.started = true
		return a.c.Start()
	})
}

// Update starts any component attached since the last pass, then runs Update
// on every started component exactly once.
func (o *GameObject) Update(dt float64) error {
	if !o.Active() {
		return nil
	}
	errs := o.Start()
	if errors.Is(errs, ErrFatal) {
		return errs
	}
	return multierr.Append(errs, o.dispatch(HookUpdate, isStarted, func(a *attachment) error {
		return a.c.Update(dt)
	}))
}

func (o *GameObject) Draw() error {
	if !o.Active() {
		return nil
	}
	return o.dispatch(HookDraw, isStarted, func(a *attachment) error {
		return a.c.Draw()
	})
}

// Deactivate runs Deactivate on started components and stops Update/Draw
// until Activate is called.
func (o *GameObject) Deactivate() error {
	if !o.Active() {
		return nil
	}
	o.active = false
	return o.dispatch(HookDeactivate, isStarted, func(a *attachment) error {
		return a.c.Deactivate()
	})
}

// Activate resumes Update/Draw. Components are not started again.
func (o *GameObject) Activate() {
	if !o.destroyed {
		o.active = true
	}
}

// SetActive is used when restoring an object's persisted state.
func (o *GameObject) SetActive(active bool) {
	if !o.destroyed {
		o.active = active
	}
}

// Destroy releases every component. The object rejects further mutation.
func (o *GameObject) Destroy() {
	if o.destroyed {
		return
	}
	o.destroyed = true
	for _, a := range o.attached {
		if !a.removed {
			a.removed = true
			destroyComponent(a.c)
		}
	}
	for _, a := range o.pending {
		destroyComponent(a.c)
	}
	o.pending = nil
	if o.dispatching == 0 {
		o.attached = o.attached[:0]
	}
}

func (o *GameObject) SetTransform(t Transform) {
	old := o.transform
	o.transform = t
	o.NotifyTransformChanged(old.Position != t.Position, old.Rotation != t.Rotation, old.Scale != t.Scale)
}

func (o *GameObject) SetPosition(p Vec3) {
	if p == o.transform.Position {
		return
	}
	o.transform.Position = p
	o.NotifyTransformChanged(true, false, false)
}

func (o *GameObject) Translate(d Vec3) { o.SetPosition(o.transform.Position.Add(d)) }

func (o *GameObject) SetRotation(r Vec3) {
	if r == o.transform.Rotation {
		return
	}
	o.transform.Rotation = r
	o.NotifyTransformChanged(false, true, false)
}

func (o *GameObject) Rotate(d Vec3) { o.SetRotation(o.transform.Rotation.Add(d)) }

func (o *GameObject) SetScale(s Vec3) {
	if s == o.transform.Scale {
		return
	}
	o.transform.Scale = s
	o.NotifyTransformChanged(false, false, true)
}

// NotifyTransformChanged forwards a transform change to every attached
// TransformListener.
func (o *GameObject) NotifyTransformChanged(position, rotation, scale bool) {
	if !position && !rotation && !scale {
		return
	}
	for _, c := range o.Components() {
		if l, ok := c.(TransformListener); ok {
			l.TransformUpdate(position, rotation, scale)
		}
	}
}

// Export writes the object's identity, transform and every component into n.
func (o *GameObject) Export(n *Node) error {
	n.SetAttr("name", o.name)
	n.SetBool("active", o.active)
	n.AddChild(o.transform.export())
	var errs error
	for _, c := range o.Components() {
		cn, err := ExportNode(c)
		if err != nil {
			errs = multierr.Append(errs, o.hookError(c, HookExport, err))
			continue
		}
		n.AddChild(cn)
	}
	return errs
}

// ExportNode returns the object as a new <Object> node.
func (o *GameObject) ExportNode() (*Node, error) {
	n := NewNode("Object")
	if err := o.Export(n); err != nil {
		return nil, err
	}
	return n, nil
}

func (o *GameObject) setScene(name string) {
	o.binding.scene = name
}

func (o *GameObject) hasLive(tag string) bool {
	_, ok := o.Component(tag)
	return ok
}

func isStarted(a *attachment) bool { return a.started }

// dispatch invokes fn on every live attachment accepted by filter. Failures are
// collected and the pass continues unless a failure wraps ErrFatal.
func (o *GameObject) dispatch(hook Hook, filter func(*attachment) bool, fn func(*attachment) error) error {
	o.dispatching++
	defer func() {
		o.dispatching--
		if o.dispatching == 0 {
			o.flushPending()
		}
	}()

	var errs error
	for _, a := range o.attached {
		if a.removed || !filter(a) {
			continue
		}
		if err := o.invoke(a, hook, fn); err != nil {
			errs = multierr.Append(errs, err)
			if errors.Is(err, ErrFatal) {
				break
			}
		}
	}
	return errs
}

func (o *GameObject) invoke(a *attachment, hook Hook, fn func(*attachment) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = o.hookError(a.c, hook, fmt.Errorf("panic: %v", rec))
		}
	}()
	if herr := fn(a); herr != nil {
		return o.hookError(a.c, hook, herr)
	}
	return nil
}

func (o *GameObject) hookError(c Component, hook Hook, err error) error {
	return &HookError{
		Object:    o.binding.object,
		Name:      o.name,
		Component: c.Type(),
		Hook:      hook,
		Err:       err,
	}
}

func (o *GameObject) flushPending() {
	if o.destroyed {
		o.attached = o.attached[:0]
		return
	}
	o.compact()
	o.attached = append(o.attached, o.pending...)
	o.pending = o.pending[:0]
}

func (o *GameObject) compact() {
	live := o.attached[:0]
	for _, a := range o.attached {
		if !a.removed {
			live = append(live, a)
		}
	}
	for i := len(live); i < len(o.attached); i++ {
		o.attached[i] = nil
	}
	o.attached = live
}

func destroyComponent(c Component) {
	if d, ok := c.(Destroyer); ok {
		d.Destroy()
	}
}
