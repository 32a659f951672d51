package ecs

import (
	"fmt"
)

// Component is a unit of behavior attached to exactly one GameObject. The
// lifecycle hooks are invoked only by the owning object, on the update goroutine.
type Component interface {
	// Type returns the tag the component was constructed with.
	Type() string
	// Bind attaches the component to its owner. It succeeds once per lifetime.
	Bind(b *Binding) error
	// Binding returns the owner back-reference, or nil while detached.
	Binding() *Binding

	Start() error
	Update(dt float64) error
	Draw() error
	Deactivate() error

	// Export writes the subtype's fields into n. The type attribute is
	// written by the caller.
	Export(n *Node) error
}

// UniqueComponent is implemented by subtypes an object may hold at most once.
// The answer must not depend on instance state.
type UniqueComponent interface {
	Unique() bool
}

// TransformListener is implemented by components that react to their owner's
// transform changing.
type TransformListener interface {
	TransformUpdate(positionChanged, rotationChanged, scaleChanged bool)
}

// Destroyer is implemented by components holding external registrations that
// must be released when the component is removed or its object destroyed.
type Destroyer interface {
	Destroy()
}

// Binding is the non-owning back-reference from components to their object.
// One Binding is shared by all components of an object, so moving the object
// to another scene updates every component at once.
type Binding struct {
	object ObjectID
	scene  string
}

func (b *Binding) Object() ObjectID { return b.object }
func (b *Binding) Scene() string    { return b.scene }

// Base carries the state common to every component subtype. Embed it and
// implement the lifecycle hooks.
type Base struct {
	tag     string
	binding *Binding
}

// NewBase returns a detached base tagged with tag.
func NewBase(tag string) Base {
	return Base{tag: tag}
}

// BaseFromNode returns a detached base whose tag is the node's type attribute.
func BaseFromNode(n *Node) (Base, error) {
	if n == nil {
		return Base{}, ErrMissingType
	}
	tag, ok := n.Attr(TypeAttr)
	if !ok || tag == "" {
		return Base{}, fmt.Errorf("<%s>: %w", n.Name(), ErrMissingType)
	}
	return Base{tag: tag}, nil
}

func (b *Base) Type() string { return b.tag }

func (b *Base) Bind(binding *Binding) error {
	if binding == nil {
		return fmt.Errorf("bind %s: nil binding", b.tag)
	}
	if b.binding != nil {
		return fmt.Errorf("bind %s to %s: %w", b.tag, binding.object, ErrAlreadyBound)
	}
	b.binding = binding
	return nil
}

func (b *Base) Binding() *Binding { return b.binding }

// Owner returns the bound object id. It is zero while detached.
func (b *Base) Owner() ObjectID {
	if b.binding == nil {
		return 0
	}
	return b.binding.object
}

// Scene returns the name of the scene owning the bound object, or "" when the
// object is not in a scene.
func (b *Base) Scene() string {
	if b.binding == nil {
		return ""
	}
	return b.binding.scene
}

// ExportNode serializes c into a <Component> node: the type attribute first,
// then whatever the subtype writes.
func ExportNode(c Component) (*Node, error) {
	n := NewNode("Component")
	n.SetAttr(TypeAttr, c.Type())
	if err := c.Export(n); err != nil {
		return nil, fmt.Errorf("export %s: %w", c.Type(), err)
	}
	// Subtypes must not rename themselves.
	n.SetAttr(TypeAttr, c.Type())
	return n, nil
}

// Marshal returns the textual form of ExportNode.
func Marshal(c Component) ([]byte, error) {
	n, err := ExportNode(c)
	if err != nil {
		return nil, err
	}
	return n.Marshal()
}

func isUnique(c Component) bool {
	u, ok := c.(UniqueComponent)
	return ok && u.Unique()
}
