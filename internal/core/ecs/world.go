package ecs

import (
	"fmt"
)

// ObjectResolver turns a component's owner back-reference into its object.
type ObjectResolver interface {
	Object(id ObjectID) (*GameObject, bool)
}

// World is the top-level container. It owns the object id pool, the object
// table every back-reference resolves through, the scenes, and a deferred
// destruction queue flushed by CleanupSystem each tick.
type World struct {
	pool         *ObjectPool
	objects      map[ObjectID]*GameObject
	scenes       map[string]*Scene
	sceneOrder   []string
	destroyQueue []ObjectID
	onDestroy    func(o *GameObject)
}

func NewWorld() *World {
	return &World{
		pool:         NewObjectPool(),
		objects:      make(map[ObjectID]*GameObject, 256),
		scenes:       make(map[string]*Scene, 4),
		destroyQueue: make([]ObjectID, 0, 64),
	}
}

// NewScene creates an empty scene. Names are unique within the world.
func (w *World) NewScene(name string) (*Scene, error) {
	if _, ok := w.scenes[name]; ok {
		return nil, fmt.Errorf("new scene %q: %w", name, ErrDuplicateScene)
	}
	s := &Scene{name: name, world: w}
	w.scenes[name] = s
	w.sceneOrder = append(w.sceneOrder, name)
	return s, nil
}

func (w *World) Scene(name string) (*Scene, bool) {
	s, ok := w.scenes[name]
	return s, ok
}

// Scenes returns the scenes in creation order.
func (w *World) Scenes() []*Scene {
	out := make([]*Scene, 0, len(w.sceneOrder))
	for _, name := range w.sceneOrder {
		out = append(out, w.scenes[name])
	}
	return out
}

// RemoveScene destroys every object of the scene immediately and forgets it.
func (w *World) RemoveScene(name string) error {
	s, ok := w.scenes[name]
	if !ok {
		return fmt.Errorf("remove scene %q: %w", name, ErrUnknownScene)
	}
	for _, o := range s.Objects() {
		w.destroy(o.ID())
	}
	delete(w.scenes, name)
	for i, n := range w.sceneOrder {
		if n == name {
			w.sceneOrder = append(w.sceneOrder[:i], w.sceneOrder[i+1:]...)
			break
		}
	}
	return nil
}

// Object resolves a live object id.
func (w *World) Object(id ObjectID) (*GameObject, bool) {
	if !w.pool.Alive(id) {
		return nil, false
	}
	o, ok := w.objects[id]
	return o, ok
}

// ObjectCount returns the number of live objects across all scenes.
func (w *World) ObjectCount() int {
	return len(w.objects)
}

// MoveObject transfers an object to another scene. Component back-references
// follow because they share the object's binding.
func (w *World) MoveObject(id ObjectID, to string) error {
	o, ok := w.Object(id)
	if !ok {
		return fmt.Errorf("move %s: %w", id, ErrUnknownObject)
	}
	dst, ok := w.scenes[to]
	if !ok {
		return fmt.Errorf("move %s to %q: %w", id, to, ErrUnknownScene)
	}
	if src, ok := w.scenes[o.Scene()]; ok {
		if src == dst {
			return nil
		}
		src.remove(o)
	}
	dst.add(o)
	return nil
}

// MarkForDestruction queues an object for end-of-tick cleanup.
func (w *World) MarkForDestruction(id ObjectID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// OnDestroy installs a callback run for each object released by
// FlushDestroyQueue, before its components are destroyed.
func (w *World) OnDestroy(fn func(o *GameObject)) {
	w.onDestroy = fn
}

// FlushDestroyQueue destroys all queued objects and their components.
// Called by CleanupSystem at the end of each tick.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, id := range w.destroyQueue {
		if w.destroy(id) {
			n++
		}
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}

func (w *World) spawn(name string) *GameObject {
	o := NewGameObject(w.pool.Create(), name)
	w.objects[o.ID()] = o
	return o
}

func (w *World) destroy(id ObjectID) bool {
	o, ok := w.Object(id)
	if !ok {
		return false
	}
	if s, ok := w.scenes[o.Scene()]; ok {
		s.remove(o)
	}
	if w.onDestroy != nil {
		w.onDestroy(o)
	}
	o.Destroy()
	delete(w.objects, id)
	w.pool.Destroy(id)
	return true
}
