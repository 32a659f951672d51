// Package render declares the narrow surface components draw through. The
// runtime never owns a graphics backend; cmd wires in Headless, a platform
// layer wires in its own implementation.
package render

import (
	"github.com/enginert/runtime/internal/core/ecs"
	"github.com/enginert/runtime/internal/resource"
)

// Drawable is what a component hands to the renderer each Draw pass.
type Drawable struct {
	Resource resource.ID
	Layer    int
}

type Renderer interface {
	Submit(t ecs.Transform, d Drawable)
}

// CameraSettings mirrors the persisted Camera attributes.
type CameraSettings struct {
	Ortho bool
	Zoom  float64
	Near  float64
	Far   float64
}

type Projector interface {
	View(t ecs.Transform, c CameraSettings) Matrix
}
