package ecs

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Scene owns an ordered set of objects and fans lifecycle calls out to them.
type Scene struct {
	name    string
	world   *World
	objects []*GameObject
}

func (s *Scene) Name() string { return s.name }

// Spawn creates an object owned by this scene.
func (s *Scene) Spawn(name string) *GameObject {
	o := s.world.spawn(name)
	s.add(o)
	return o
}

// Objects returns a snapshot of the scene's objects in insertion order.
func (s *Scene) Objects() []*GameObject {
	out := make([]*GameObject, len(s.objects))
	copy(out, s.objects)
	return out
}

// FindByName returns the first object named name, or nil.
func (s *Scene) FindByName(name string) *GameObject {
	for _, o := range s.objects {
		if o.Name() == name {
			return o
		}
	}
	return nil
}

func (s *Scene) Start() error {
	return s.each(func(o *GameObject) error { return o.Start() })
}

func (s *Scene) Update(dt float64) error {
	return s.each(func(o *GameObject) error { return o.Update(dt) })
}

func (s *Scene) Draw() error {
	return s.each(func(o *GameObject) error { return o.Draw() })
}

func (s *Scene) Deactivate() error {
	return s.each(func(o *GameObject) error { return o.Deactivate() })
}

// Export serializes the scene as <Scene name="..."> with one <Object> child
// per object.
func (s *Scene) Export() (*Node, error) {
	n := NewNode("Scene")
	n.SetAttr("name", s.name)
	var errs error
	for _, o := range s.objects {
		on, err := o.ExportNode()
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		n.AddChild(on)
	}
	if errs != nil {
		return nil, errs
	}
	return n, nil
}

// Import spawns one object per <Object> child of n. A node that cannot be
// decoded is reported and its siblings are still loaded.
func (s *Scene) Import(n *Node, reg *FactoryRegistry) error {
	var errs error
	for i, on := range n.ChildrenNamed("Object") {
		name := on.AttrOr("name", fmt.Sprintf("object%d", i))
		o := s.Spawn(name)
		errs = multierr.Append(errs, o.Import(on, reg))
	}
	return errs
}

// Import restores the transform, active flag and components stored in n.
// Component nodes that fail are reported as *NodeError.
func (o *GameObject) Import(n *Node, reg *FactoryRegistry) error {
	var errs error
	if tn := n.Child("Transform"); tn != nil {
		t, err := transformFromNode(tn)
		if err != nil {
			errs = multierr.Append(errs, &NodeError{Object: o.name, Index: -1, Tag: "Transform", Err: err})
		} else {
			o.SetTransform(t)
		}
	}
	active, err := n.BoolOr("active", true)
	if err != nil {
		errs = multierr.Append(errs, &NodeError{Object: o.name, Index: -1, Err: err})
	} else {
		o.SetActive(active)
	}
	for i, cn := range n.ChildrenNamed("Component") {
		tag, _ := cn.Attr(TypeAttr)
		c, err := reg.Create(cn)
		if err == nil {
			err = o.AddComponent(c)
		}
		if err != nil {
			errs = multierr.Append(errs, &NodeError{Object: o.name, Index: i, Tag: tag, Err: err})
		}
	}
	return errs
}

// ImportScene creates a scene from a <Scene> node. The scene is returned even
// when some nodes failed; the error lists each failure.
func (w *World) ImportScene(n *Node, reg *FactoryRegistry) (*Scene, error) {
	if n.Name() != "Scene" {
		return nil, fmt.Errorf("import scene: unexpected root <%s>", n.Name())
	}
	name, ok := n.Attr("name")
	if !ok || name == "" {
		return nil, errors.New("import scene: missing name attribute")
	}
	s, err := w.NewScene(name)
	if err != nil {
		return nil, err
	}
	return s, s.Import(n, reg)
}

func (s *Scene) add(o *GameObject) {
	o.setScene(s.name)
	s.objects = append(s.objects, o)
}

func (s *Scene) remove(o *GameObject) {
	for i, cur := range s.objects {
		if cur == o {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			break
		}
	}
	o.setScene("")
}

func (s *Scene) each(fn func(o *GameObject) error) error {
	var errs error
	for _, o := range s.Objects() {
		if o.Destroyed() {
			continue
		}
		if err := fn(o); err != nil {
			errs = multierr.Append(errs, err)
			if errors.Is(err, ErrFatal) {
				break
			}
		}
	}
	return errs
}
