package components

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/enginert/runtime/internal/core/ecs"
	"github.com/enginert/runtime/internal/core/event"
	"github.com/enginert/runtime/internal/render"
	"github.com/enginert/runtime/internal/resource"
)

const SpriteType = "Sprite"

var errNoResources = errors.New("sprite: no resource manager")

// Sprite draws a texture resource at its owner's transform.
type Sprite struct {
	ecs.Base
	deps     Deps
	texture  string
	layer    int
	resource *resource.Resource
	sub      event.Subscription
	reloads  int
}

func NewSprite(texture string, layer int, d Deps) *Sprite {
	return &Sprite{Base: ecs.NewBase(SpriteType), deps: d, texture: texture, layer: layer}
}

func NewSpriteFromNode(n *ecs.Node, d Deps) (*Sprite, error) {
	base, err := ecs.BaseFromNode(n)
	if err != nil {
		return nil, err
	}
	texture, ok := n.Attr("texture")
	if !ok || texture == "" {
		return nil, fmt.Errorf("missing attribute %q", "texture")
	}
	layer := 0
	if raw, ok := n.Attr("layer"); ok {
		if layer, err = strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("attribute %q: %w", "layer", err)
		}
	}
	return &Sprite{Base: base, deps: d, texture: texture, layer: layer}, nil
}

func (s *Sprite) Texture() string { return s.texture }

// Resource is the resolved texture, nil before Start.
func (s *Sprite) Resource() *resource.Resource { return s.resource }

// Reloads counts refreshes that reported the texture as modified.
func (s *Sprite) Reloads() int { return s.reloads }

func (s *Sprite) Start() error {
	if s.deps.Resources == nil {
		return errNoResources
	}
	r, err := s.deps.Resources.Get(s.texture)
	if err != nil {
		return fmt.Errorf("sprite texture: %w", err)
	}
	s.resource = r
	s.subscribe()
	return nil
}

func (s *Sprite) subscribe() {
	if s.deps.Bus != nil && !s.sub.Valid() {
		s.sub = event.Subscribe(s.deps.Bus, s.onModified)
	}
}

func (s *Sprite) onModified(ev event.ResourceModified) {
	if s.resource != nil && slices.Contains(ev.IDs, s.resource.ID()) {
		s.reloads++
	}
}

// Update resubscribes after a Deactivate/Activate cycle.
func (s *Sprite) Update(float64) error {
	if s.resource != nil {
		s.subscribe()
	}
	return nil
}

func (s *Sprite) Draw() error {
	if s.resource == nil || s.deps.Renderer == nil {
		return nil
	}
	o, ok := s.deps.owner(s)
	if !ok {
		return nil
	}
	s.deps.Renderer.Submit(o.Transform(), render.Drawable{Resource: s.resource.ID(), Layer: s.layer})
	return nil
}

func (s *Sprite) Deactivate() error {
	s.unsubscribe()
	return nil
}

func (s *Sprite) Destroy() { s.unsubscribe() }

func (s *Sprite) unsubscribe() {
	if s.deps.Bus != nil && s.sub.Valid() {
		s.deps.Bus.Unsubscribe(s.sub)
		s.sub = event.Subscription{}
	}
}

func (s *Sprite) Export(n *ecs.Node) error {
	n.SetAttr("texture", s.texture)
	if s.layer != 0 {
		n.SetAttr("layer", strconv.Itoa(s.layer))
	}
	return nil
}
