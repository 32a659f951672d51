package ecs

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Factory rehydrates one component subtype from a persisted node. The
// returned component must be detached.
type Factory func(n *Node) (Component, error)

// FactoryFor adapts a constructor returning a concrete subtype to a Factory.
func FactoryFor[T Component](newFn func(n *Node) (T, error)) Factory {
	return func(n *Node) (Component, error) {
		c, err := newFn(n)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// FactoryRegistry maps type tags to factories. Subtype packages register
// their factories at startup; deserialization only ever sees tags.
type FactoryRegistry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewFactoryRegistry() *FactoryRegistry {
	return &FactoryRegistry{
		factories: make(map[string]Factory, 16),
	}
}

// Register stores f under tag. Registering a tag twice is a configuration
// error and the first factory stays in place.
func (r *FactoryRegistry) Register(tag string, f Factory) error {
	if tag == "" {
		return errors.New("register factory: empty tag")
	}
	if f == nil {
		return fmt.Errorf("register factory %q: nil factory", tag)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[tag]; ok {
		return fmt.Errorf("register factory %q: %w", tag, ErrDuplicateFactory)
	}
	r.factories[tag] = f
	return nil
}

// MustRegister is Register for init-time wiring where a duplicate is a bug.
func (r *FactoryRegistry) MustRegister(tag string, f Factory) {
	if err := r.Register(tag, f); err != nil {
		panic(err)
	}
}

// Has reports whether a factory is registered under tag.
func (r *FactoryRegistry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[tag]
	return ok
}

// Tags returns the registered tags in sorted order.
func (r *FactoryRegistry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.factories))
	for t := range r.factories {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Create builds a detached component from n using the factory registered for
// its type attribute.
func (r *FactoryRegistry) Create(n *Node) (Component, error) {
	if n == nil {
		return nil, ErrMissingType
	}
	tag, ok := n.Attr(TypeAttr)
	if !ok || tag == "" {
		return nil, fmt.Errorf("create <%s>: %w", n.Name(), ErrMissingType)
	}

	r.mu.RLock()
	f, ok := r.factories[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("create %q: %w", tag, ErrUnknownType)
	}

	c, err := safeCreate(f, n, tag)
	if err != nil {
		if errors.Is(err, ErrMissingType) || errors.Is(err, ErrMalformed) || errors.Is(err, ErrAlreadyBound) {
			return nil, fmt.Errorf("create %q: %w", tag, err)
		}
		return nil, fmt.Errorf("create %q: %w: %w", tag, ErrMalformed, err)
	}
	return c, nil
}

// safeCreate runs the factory and checks what it built. A panic anywhere in
// there, including a method call on a nil component, becomes an error.
func safeCreate(f Factory, n *Node, tag string) (c Component, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			c = nil
			err = fmt.Errorf("factory panic: %v", rec)
		}
	}()
	c, err = f(n)
	switch {
	case err != nil:
		return nil, err
	case isNil(c):
		return nil, fmt.Errorf("%w: factory returned nil", ErrMalformed)
	case c.Type() != tag:
		return nil, fmt.Errorf("%w: factory built %q", ErrMalformed, c.Type())
	case c.Binding() != nil:
		return nil, ErrAlreadyBound
	}
	return c, nil
}

// isNil also catches a nil pointer stored in the interface.
func isNil(c Component) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}
