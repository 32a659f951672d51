package system

import (
	"time"

	"github.com/enginert/runtime/internal/core/ecs"
	coresys "github.com/enginert/runtime/internal/core/system"
	"github.com/enginert/runtime/internal/spatial"
)

// SpatialSystem re-indexes active objects so scripts see this tick's
// positions. Phase 1 (Update); register it before SceneSystem.
type SpatialSystem struct {
	world *ecs.World
	grid  *spatial.Grid
	seen  map[ecs.ObjectID]struct{}
}

func NewSpatialSystem(world *ecs.World, grid *spatial.Grid) *SpatialSystem {
	return &SpatialSystem{world: world, grid: grid, seen: make(map[ecs.ObjectID]struct{})}
}

func (s *SpatialSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SpatialSystem) Update(_ time.Duration) {
	clear(s.seen)
	for _, sc := range s.world.Scenes() {
		for _, o := range sc.Objects() {
			if !o.Active() {
				continue
			}
			s.grid.Set(o.ID(), o.Scene(), o.Transform().Position)
			s.seen[o.ID()] = struct{}{}
		}
	}
	s.grid.Retain(func(id ecs.ObjectID) bool {
		_, ok := s.seen[id]
		return ok
	})
}
