package ecs

import (
	"errors"
	"fmt"
)

// probe records every hook it receives into a shared log.
type probe struct {
	Base
	label   string
	log     *[]string
	fail    map[Hook]error
	panicOn Hook
	unique  bool
	moves   int
}

func newProbe(label string, log *[]string) *probe {
	return &probe{Base: NewBase("Probe"), label: label, log: log}
}

func newUniqueProbe(label string, log *[]string) *probe {
	p := &probe{Base: NewBase("UniqueProbe"), label: label, log: log, unique: true}
	return p
}

func (p *probe) record(h Hook) error {
	*p.log = append(*p.log, fmt.Sprintf("%s.%s", p.label, h))
	if p.panicOn == h {
		panic("boom")
	}
	return p.fail[h]
}

func (p *probe) Start() error            { return p.record(HookStart) }
func (p *probe) Update(dt float64) error { return p.record(HookUpdate) }
func (p *probe) Draw() error             { return p.record(HookDraw) }
func (p *probe) Deactivate() error       { return p.record(HookDeactivate) }
func (p *probe) Unique() bool            { return p.unique }

func (p *probe) Export(n *Node) error {
	n.SetAttr("label", p.label)
	return nil
}

func (p *probe) TransformUpdate(pos, rot, scale bool) {
	if pos {
		p.moves++
	}
}

func (p *probe) Destroy() {
	*p.log = append(*p.log, p.label+".Destroy")
}

// rotator is the smallest subtype with a deterministic persisted field.
type rotator struct {
	Base
	speed float64
	angle float64
}

func newRotatorFromNode(n *Node) (*rotator, error) {
	base, err := BaseFromNode(n)
	if err != nil {
		return nil, err
	}
	speed, err := n.Float("speed")
	if err != nil {
		return nil, err
	}
	return &rotator{Base: base, speed: speed}, nil
}

func (r *rotator) Start() error { return nil }

func (r *rotator) Update(dt float64) error {
	r.angle += r.speed * dt
	return nil
}

func (r *rotator) Draw() error       { return nil }
func (r *rotator) Deactivate() error { return nil }

func (r *rotator) Export(n *Node) error {
	n.SetFloat("speed", r.speed)
	return nil
}

var errHook = errors.New("hook failed")
