package components

import (
	"errors"
	"fmt"

	"github.com/enginert/runtime/internal/core/ecs"
	"github.com/enginert/runtime/internal/render"
)

const CameraType = "Camera"

var errNoProjector = errors.New("camera: no projector")

// Camera turns its owner's transform into a view matrix. At most one camera
// may be attached to an object. The view is recomputed on transform changes
// rather than every tick.
type Camera struct {
	ecs.Base
	deps     Deps
	settings render.CameraSettings
	view     render.Matrix
	valid    bool
	updates  int
}

func defaultCameraSettings() render.CameraSettings {
	return render.CameraSettings{Ortho: false, Zoom: 1, Near: 0.1, Far: 1000}
}

func NewCamera(s render.CameraSettings, d Deps) (*Camera, error) {
	if err := validateCamera(s); err != nil {
		return nil, err
	}
	return &Camera{Base: ecs.NewBase(CameraType), deps: d, settings: s}, nil
}

func NewCameraFromNode(n *ecs.Node, d Deps) (*Camera, error) {
	base, err := ecs.BaseFromNode(n)
	if err != nil {
		return nil, err
	}
	s := defaultCameraSettings()
	if s.Ortho, err = n.BoolOr("ortho", s.Ortho); err != nil {
		return nil, err
	}
	if s.Zoom, err = n.FloatOr("zoom", s.Zoom); err != nil {
		return nil, err
	}
	if s.Near, err = n.FloatOr("near", s.Near); err != nil {
		return nil, err
	}
	if s.Far, err = n.FloatOr("far", s.Far); err != nil {
		return nil, err
	}
	if err := validateCamera(s); err != nil {
		return nil, err
	}
	return &Camera{Base: base, deps: d, settings: s}, nil
}

func validateCamera(s render.CameraSettings) error {
	if s.Zoom <= 0 {
		return fmt.Errorf("camera zoom %g must be positive", s.Zoom)
	}
	if s.Near < 0 || s.Far <= s.Near {
		return fmt.Errorf("camera clip range [%g, %g] is empty", s.Near, s.Far)
	}
	return nil
}

func (c *Camera) Unique() bool { return true }

func (c *Camera) Settings() render.CameraSettings { return c.settings }

// View returns the last computed view matrix and whether one exists yet.
func (c *Camera) View() (render.Matrix, bool) { return c.view, c.valid }

// Recomputes counts view recomputations.
func (c *Camera) Recomputes() int { return c.updates }

func (c *Camera) Start() error {
	if c.deps.Projector == nil {
		return errNoProjector
	}
	c.recompute()
	return nil
}

func (c *Camera) Update(float64) error { return nil }
func (c *Camera) Draw() error          { return nil }
func (c *Camera) Deactivate() error    { return nil }

func (c *Camera) TransformUpdate(positionChanged, rotationChanged, scaleChanged bool) {
	if positionChanged || rotationChanged {
		c.recompute()
	}
}

func (c *Camera) recompute() {
	if c.deps.Projector == nil {
		return
	}
	o, ok := c.deps.owner(c)
	if !ok {
		return
	}
	c.view = c.deps.Projector.View(o.Transform(), c.settings)
	c.valid = true
	c.updates++
}

func (c *Camera) Export(n *ecs.Node) error {
	n.SetBool("ortho", c.settings.Ortho)
	n.SetFloat("zoom", c.settings.Zoom)
	n.SetFloat("near", c.settings.Near)
	n.SetFloat("far", c.settings.Far)
	return nil
}
