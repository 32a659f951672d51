package system

import (
	"context"
	"time"

	"github.com/enginert/runtime/internal/core/ecs"
	coresys "github.com/enginert/runtime/internal/core/system"
	"github.com/enginert/runtime/internal/resource"
	"go.uber.org/zap"
)

// PersistenceSystem periodically flushes the resource id table and, when a
// save target is configured, writes the scene back to disk. Phase 3 (Persist).
type PersistenceSystem struct {
	resources     *resource.Manager
	scene         *ecs.Scene
	saveTo        *resource.Resource
	log           *zap.Logger
	tickCount     int
	flushInterval int // flush metadata every N ticks
	saveInterval  int // autosave scene every N ticks, 0 = never
}

func NewPersistenceSystem(resources *resource.Manager, log *zap.Logger, flushTicks int) *PersistenceSystem {
	if flushTicks < 1 {
		flushTicks = 1
	}
	return &PersistenceSystem{
		resources:     resources,
		log:           log,
		flushInterval: flushTicks,
	}
}

// AutosaveScene writes sc to target every saveTicks ticks and on shutdown.
func (s *PersistenceSystem) AutosaveScene(sc *ecs.Scene, target *resource.Resource, saveTicks int) {
	s.scene = sc
	s.saveTo = target
	s.saveInterval = saveTicks
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount%s.flushInterval == 0 {
		s.flush()
	}
	if s.saveInterval > 0 && s.tickCount%s.saveInterval == 0 {
		s.saveScene()
	}
}

// SaveAll flushes metadata and saves the scene immediately. Called for
// graceful shutdown so nothing allocated this session is lost.
func (s *PersistenceSystem) SaveAll() {
	if s.saveTo != nil {
		s.saveScene()
	}
	s.flush()
}

// Shutdown saves everything, then deactivates sc. The save comes first so the
// written scene keeps each object's active flag.
func (s *PersistenceSystem) Shutdown(sc *ecs.Scene) {
	s.SaveAll()
	if sc != nil {
		logDispatch(s.log, "deactivate", sc.Name(), sc.Deactivate())
	}
}

func (s *PersistenceSystem) flush() {
	if !s.resources.Dirty() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.resources.Flush(ctx); err != nil {
		s.log.Error("flush resource metadata", zap.Error(err))
		return
	}
	s.log.Debug("resource metadata flushed", zap.Int("resources", s.resources.Len()))
}

func (s *PersistenceSystem) saveScene() {
	if s.scene == nil || s.saveTo == nil {
		return
	}
	n, err := s.scene.Export()
	if err != nil {
		// Keep the previous save rather than writing a partial scene.
		s.log.Error("export scene", zap.String("scene", s.scene.Name()), zap.Error(err))
		return
	}
	if err := resource.WriteNode(s.saveTo, n); err != nil {
		s.log.Error("save scene", zap.String("scene", s.scene.Name()), zap.Error(err))
		return
	}
	s.log.Debug("scene saved", zap.String("scene", s.scene.Name()), zap.String("path", s.saveTo.Path()))
}
