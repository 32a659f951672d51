package resource

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrLoaderClosed is returned by futures submitted after Close.
var ErrLoaderClosed = errors.New("loader closed")

// Future is the completion handle of a background read. The update goroutine
// polls Ready or selects on Done; it never inspects loader internals.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(v T, err error) {
	f.val, f.err = v, err
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Ready reports completion without blocking.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the result is available or ctx ends.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Loader runs read helpers on a bounded pool of goroutines so the update loop
// never stalls on disk I/O.
type Loader struct {
	ctx     context.Context
	g       errgroup.Group
	queue   chan func()
	mu      sync.RWMutex
	closed  bool
	drained chan struct{}
}

// NewLoader starts a loader with the given number of workers. Jobs still
// queued when ctx ends resolve with ctx's error.
func NewLoader(ctx context.Context, workers, queueSize int) *Loader {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 64
	}
	l := &Loader{
		ctx:     ctx,
		queue:   make(chan func(), queueSize),
		drained: make(chan struct{}),
	}
	l.g.SetLimit(workers)
	go func() {
		defer close(l.drained)
		for job := range l.queue {
			job := job
			l.g.Go(func() error {
				job()
				return nil
			})
		}
	}()
	return l
}

// Submit schedules read(r) and returns its future.
func Submit[T any](l *Loader, r *Resource, read func(*Resource) (T, error)) *Future[T] {
	f := newFuture[T]()
	job := func() {
		if err := l.ctx.Err(); err != nil {
			var zero T
			f.resolve(zero, err)
			return
		}
		f.resolve(read(r))
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		var zero T
		f.resolve(zero, ErrLoaderClosed)
		return f
	}
	l.queue <- job
	return f
}

// Close stops accepting work and waits for every submitted job.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.drained
		_ = l.g.Wait()
		return
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	<-l.drained
	_ = l.g.Wait()
}
