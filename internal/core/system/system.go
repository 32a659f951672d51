package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput     Phase = iota // 0: swap + dispatch input events
	PhaseUpdate                 // 1: start pending components, update scenes
	PhaseDraw                   // 2: draw scenes into the renderer
	PhasePersist                // 3: flush resource metadata, autosave scene
	PhaseResources              // 4: rescan the asset tree
	PhaseCleanup                // 5: destroy queued objects

	phaseCount = int(PhaseCleanup) + 1
)

var phaseNames = [...]string{"input", "update", "draw", "persist", "resources", "cleanup"}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "phase(?)"
}

// System is the interface every runtime system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
