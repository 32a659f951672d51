package system

import (
	"time"

	"github.com/enginert/runtime/internal/core/ecs"
	"github.com/enginert/runtime/internal/core/event"
	coresys "github.com/enginert/runtime/internal/core/system"
	"go.uber.org/zap"
)

// CleanupSystem flushes the deferred object destruction queue at tick end and
// announces each released object on the bus. Phase 5 (Cleanup).
type CleanupSystem struct {
	world *ecs.World
	log   *zap.Logger
}

func NewCleanupSystem(world *ecs.World, bus *event.Bus, log *zap.Logger) *CleanupSystem {
	if bus != nil {
		world.OnDestroy(func(o *ecs.GameObject) {
			event.Emit(bus, event.ObjectDestroyed{Object: o.ID(), Name: o.Name()})
		})
	}
	return &CleanupSystem{world: world, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if n := s.world.FlushDestroyQueue(); n > 0 {
		s.log.Debug("objects destroyed", zap.Int("count", n))
	}
}
