package ecs

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingType is returned when a component node has no type attribute.
	ErrMissingType = errors.New("component node has no type attribute")
	// ErrMalformed wraps a factory failure on a structurally invalid node.
	ErrMalformed = errors.New("malformed component node")
	// ErrDuplicateFactory is returned when a tag is registered twice.
	ErrDuplicateFactory = errors.New("factory already registered")
	// ErrUnknownType is returned when no factory is registered for a tag.
	ErrUnknownType = errors.New("unknown component type")
	// ErrNotUnique is returned when a second unique component is attached.
	ErrNotUnique = errors.New("unique component already attached")
	// ErrAlreadyBound is returned when a component is bound a second time.
	ErrAlreadyBound = errors.New("component already bound")
	// ErrNotAttached is returned when removing a component the object does not own.
	ErrNotAttached = errors.New("component not attached")
	// ErrUnknownObject is returned when an object id does not resolve.
	ErrUnknownObject = errors.New("unknown object")
	// ErrUnknownScene is returned when a scene name does not resolve.
	ErrUnknownScene = errors.New("unknown scene")
	// ErrDuplicateScene is returned when a scene name is already taken.
	ErrDuplicateScene = errors.New("scene already exists")
	// ErrFatal marks a hook failure that must stop the current dispatch pass.
	ErrFatal = errors.New("fatal component failure")
)

// Hook names a lifecycle entry point for error reporting.
type Hook string

const (
	HookStart      Hook = "Start"
	HookUpdate     Hook = "Update"
	HookDraw       Hook = "Draw"
	HookDeactivate Hook = "Deactivate"
	HookExport     Hook = "Export"
)

// HookError reports a failed lifecycle hook with enough context to find the
// offending component.
type HookError struct {
	Object    ObjectID
	Name      string
	Component string
	Hook      Hook
	Err       error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("object %s (%s): %s.%s: %v", e.Object, e.Name, e.Component, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// NodeError reports a persisted node that could not be turned into a component
// or object. Index is the node's position among its siblings.
type NodeError struct {
	Object string
	Index  int
	Tag    string
	Err    error
}

func (e *NodeError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("object %q node %d: %v", e.Object, e.Index, e.Err)
	}
	return fmt.Sprintf("object %q node %d (%s): %v", e.Object, e.Index, e.Tag, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// Fatal marks err so that the dispatching object stops the current pass.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrFatal, err)
}
