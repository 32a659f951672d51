package system

import (
	"time"

	"github.com/enginert/runtime/internal/core/event"
	coresys "github.com/enginert/runtime/internal/core/system"
)

// InputSystem drains the platform input queues into the bus, then swaps and
// dispatches it so listeners see last tick's events plus this tick's input.
// Phase 0 (Input).
type InputSystem struct {
	bus        *event.Bus
	keys       <-chan event.KeyEvent
	mouse      <-chan event.MouseEvent
	maxPerTick int
}

// NewInputSystem accepts nil queues for sources the platform does not have.
func NewInputSystem(bus *event.Bus, keys <-chan event.KeyEvent, mouse <-chan event.MouseEvent, maxPerTick int) *InputSystem {
	if maxPerTick <= 0 {
		maxPerTick = 64
	}
	return &InputSystem{bus: bus, keys: keys, mouse: mouse, maxPerTick: maxPerTick}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	drain(s.bus, s.keys, s.maxPerTick)
	drain(s.bus, s.mouse, s.maxPerTick)
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

// drain moves at most limit queued events onto the bus without blocking.
func drain[T any](bus *event.Bus, ch <-chan T, limit int) {
	if ch == nil {
		return
	}
	for i := 0; i < limit; i++ {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			event.Emit(bus, ev)
		default:
			return
		}
	}
}
