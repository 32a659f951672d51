package render

import (
	"math"
	"sync"

	"github.com/enginert/runtime/internal/core/ecs"
)

// Submission is one recorded Submit call.
type Submission struct {
	Transform ecs.Transform
	Drawable  Drawable
}

// Headless records submissions instead of drawing them and computes camera
// views in the XY plane. Used by the headless runner and tests.
type Headless struct {
	mu     sync.Mutex
	frame  []Submission
	frames int
}

func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) Submit(t ecs.Transform, d Drawable) {
	h.mu.Lock()
	h.frame = append(h.frame, Submission{Transform: t, Drawable: d})
	h.mu.Unlock()
}

// EndFrame returns the submissions of the current frame and starts a new one.
func (h *Headless) EndFrame() []Submission {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.frame
	h.frame = nil
	h.frames++
	return out
}

// Frames returns how many frames have ended.
func (h *Headless) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

// View maps world coordinates into camera space: translate by the camera
// position, rotate by its Z rotation (degrees), then scale by zoom. In
// perspective mode the scale also shrinks with the camera's height above the
// plane, clamped to [Near, Far].
func (h *Headless) View(t ecs.Transform, c CameraSettings) Matrix {
	zoom := c.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	if !c.Ortho && c.Near > 0 {
		depth := math.Max(t.Position.Z, c.Near)
		if c.Far > c.Near {
			depth = math.Min(depth, c.Far)
		}
		zoom *= c.Near / depth
	}
	angle := -t.Rotation.Z * math.Pi / 180
	return Scale(zoom, zoom).
		Multiply(Rotate(angle)).
		Multiply(Translate(-t.Position.X, -t.Position.Y))
}

var (
	_ Renderer  = (*Headless)(nil)
	_ Projector = (*Headless)(nil)
)
