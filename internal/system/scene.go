package system

import (
	"time"

	"github.com/enginert/runtime/internal/core/ecs"
	coresys "github.com/enginert/runtime/internal/core/system"
	"github.com/enginert/runtime/internal/render"
	"go.uber.org/zap"
)

// SceneSystem starts newly attached components and updates every scene.
// Phase 1 (Update).
type SceneSystem struct {
	world *ecs.World
	log   *zap.Logger
}

func NewSceneSystem(world *ecs.World, log *zap.Logger) *SceneSystem {
	return &SceneSystem{world: world, log: log}
}

func (s *SceneSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SceneSystem) Update(dt time.Duration) {
	secs := dt.Seconds()
	for _, sc := range s.world.Scenes() {
		logDispatch(s.log, "update", sc.Name(), sc.Update(secs))
	}
}

// Frame is implemented by renderers that batch a frame's submissions.
type Frame interface {
	EndFrame() []render.Submission
}

// DrawSystem draws every scene and closes the renderer's frame.
// Phase 2 (Draw).
type DrawSystem struct {
	world *ecs.World
	frame Frame
	log   *zap.Logger
}

// NewDrawSystem accepts a nil frame for renderers that present on their own.
func NewDrawSystem(world *ecs.World, frame Frame, log *zap.Logger) *DrawSystem {
	return &DrawSystem{world: world, frame: frame, log: log}
}

func (s *DrawSystem) Phase() coresys.Phase { return coresys.PhaseDraw }

func (s *DrawSystem) Update(_ time.Duration) {
	for _, sc := range s.world.Scenes() {
		logDispatch(s.log, "draw", sc.Name(), sc.Draw())
	}
	if s.frame != nil {
		subs := s.frame.EndFrame()
		s.log.Debug("frame", zap.Int("submissions", len(subs)))
	}
}
