package system

import (
	"context"
	"time"

	"github.com/enginert/runtime/internal/core/event"
	coresys "github.com/enginert/runtime/internal/core/system"
	"github.com/enginert/runtime/internal/resource"
	"go.uber.org/zap"
)

// ReportSink records refresh outcomes, e.g. persist.ResourceLogRepo.
type ReportSink interface {
	AppendReport(ctx context.Context, rep resource.Report) error
}

type refreshResult struct {
	rep resource.Report
	err error
}

// RefreshSystem rescans the asset tree every N ticks. The scan runs on its
// own goroutine; its result is picked up on a later tick and announced as a
// ResourceModified event. Phase 4 (Resources).
type RefreshSystem struct {
	resources *resource.Manager
	bus       *event.Bus
	sink      ReportSink
	log       *zap.Logger
	tickCount int
	interval  int
	pending   chan refreshResult
}

func NewRefreshSystem(resources *resource.Manager, bus *event.Bus, sink ReportSink, log *zap.Logger, intervalTicks int) *RefreshSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	return &RefreshSystem{
		resources: resources,
		bus:       bus,
		sink:      sink,
		log:       log,
		interval:  intervalTicks,
	}
}

func (s *RefreshSystem) Phase() coresys.Phase { return coresys.PhaseResources }

func (s *RefreshSystem) Update(_ time.Duration) {
	if s.pending != nil {
		select {
		case res := <-s.pending:
			s.pending = nil
			s.handle(res)
		default:
			return
		}
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.start()
}

// Wait blocks until an in-flight scan finishes and handles its result.
func (s *RefreshSystem) Wait() {
	if s.pending == nil {
		return
	}
	res := <-s.pending
	s.pending = nil
	s.handle(res)
}

func (s *RefreshSystem) start() {
	ch := make(chan refreshResult, 1)
	s.pending = ch
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		rep, err := s.resources.RefreshMetadata(ctx)
		ch <- refreshResult{rep: rep, err: err}
	}()
}

func (s *RefreshSystem) handle(res refreshResult) {
	if res.err != nil {
		s.log.Error("refresh resource metadata", zap.Error(res.err))
		return
	}
	rep := res.rep
	if touched := append(append([]resource.ID(nil), rep.Modified...), rep.Restored...); len(touched) > 0 && s.bus != nil {
		event.Emit(s.bus, event.ResourceModified{IDs: touched})
	}
	if s.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.sink.AppendReport(ctx, rep); err != nil {
		s.log.Warn("record refresh report", zap.Error(err))
	}
}
