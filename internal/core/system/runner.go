package system

import (
	"fmt"
	"time"
)

// Runner executes systems in phase order each tick. Systems are bucketed by
// phase at registration; within a phase they run in registration order.
type Runner struct {
	phases [phaseCount][]System
}

func NewRunner() *Runner {
	return &Runner{}
}

// Register adds s to its phase's bucket. A phase outside the known range is
// a programming error.
func (r *Runner) Register(s System) {
	p := s.Phase()
	if p < 0 || int(p) >= phaseCount {
		panic(fmt.Sprintf("system %T: unknown %v (%d)", s, p, int(p)))
	}
	r.phases[p] = append(r.phases[p], s)
}

// Len returns the number of registered systems.
func (r *Runner) Len() int {
	n := 0
	for _, b := range r.phases {
		n += len(b)
	}
	return n
}

func (r *Runner) Tick(dt time.Duration) {
	for _, bucket := range r.phases {
		for _, s := range bucket {
			s.Update(dt)
		}
	}
}

// TickPhase runs only the systems of one phase, e.g. input polling between
// full ticks or tools that never draw.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	if phase < 0 || int(phase) >= phaseCount {
		return
	}
	for _, s := range r.phases[phase] {
		s.Update(dt)
	}
}
