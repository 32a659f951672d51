package event

import (
	"github.com/enginert/runtime/internal/core/ecs"
	"github.com/enginert/runtime/internal/resource"
)

// Key codes are backend-neutral; the platform layer maps its own codes onto
// these names before emitting.
type KeyEvent struct {
	Key     string
	Pressed bool
}

type MouseEvent struct {
	X, Y    float64
	Button  int
	Pressed bool
}

// ResourceModified is emitted after a metadata refresh whose files changed on
// disk since the previous refresh.
type ResourceModified struct {
	IDs []resource.ID
}

// ObjectDestroyed is emitted when the destroy queue releases an object.
type ObjectDestroyed struct {
	Object ecs.ObjectID
	Name   string
}
