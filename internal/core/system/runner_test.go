package system

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerOrdersByPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"cleanup", PhaseCleanup, &log})
	r.Register(recorder{"draw", PhaseDraw, &log})
	r.Register(recorder{"update-a", PhaseUpdate, &log})
	r.Register(recorder{"input", PhaseInput, &log})
	r.Register(recorder{"update-b", PhaseUpdate, &log})

	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"input", "update-a", "update-b", "draw", "cleanup"}, log)

	log = nil
	r.TickPhase(PhaseUpdate, time.Millisecond)
	assert.Equal(t, []string{"update-a", "update-b"}, log)
	assert.Equal(t, 5, r.Len())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "resources", PhaseResources.String())
	assert.Equal(t, "phase(?)", fmt.Sprint(Phase(42)))
}

func TestRunnerRejectsUnknownPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	assert.Panics(t, func() { r.Register(recorder{"bogus", Phase(9), &log}) })
	assert.Equal(t, 0, r.Len())
	r.TickPhase(Phase(-1), time.Millisecond)
	assert.Empty(t, log)
}
