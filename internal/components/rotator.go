package components

import (
	"github.com/enginert/runtime/internal/core/ecs"
)

const RotatorType = "Rotator"

// Rotator spins its owner around the Y axis at speed degrees per second.
type Rotator struct {
	ecs.Base
	deps  Deps
	speed float64
	angle float64
}

func NewRotator(speed float64, d Deps) *Rotator {
	return &Rotator{Base: ecs.NewBase(RotatorType), deps: d, speed: speed}
}

func NewRotatorFromNode(n *ecs.Node, d Deps) (*Rotator, error) {
	base, err := ecs.BaseFromNode(n)
	if err != nil {
		return nil, err
	}
	speed, err := n.Float("speed")
	if err != nil {
		return nil, err
	}
	return &Rotator{Base: base, deps: d, speed: speed}, nil
}

func (r *Rotator) Speed() float64 { return r.speed }

// Angle is the total rotation applied since Start, in degrees.
func (r *Rotator) Angle() float64 { return r.angle }

func (r *Rotator) Start() error {
	r.angle = 0
	return nil
}

func (r *Rotator) Update(dt float64) error {
	step := r.speed * dt
	r.angle += step
	if o, ok := r.deps.owner(r); ok {
		o.Rotate(ecs.Vec3{Y: step})
	}
	return nil
}

func (r *Rotator) Draw() error       { return nil }
func (r *Rotator) Deactivate() error { return nil }

func (r *Rotator) Export(n *ecs.Node) error {
	n.SetFloat("speed", r.speed)
	return nil
}
