package reactor

import (
	"context"
	"sync"
	"time"
)

type ctxKey struct{}

// WithinReactor returns a copy of ctx marked as running on one of this
// package's worker goroutines.
func WithinReactor(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, true)
}

// IsWithinReactor reports whether ctx was produced by WithinReactor. Callers
// use this to decide whether they may perform blocking work inline or must
// hand off through Reactor.Schedule instead.
func IsWithinReactor(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKey{}).(bool)
	return v
}

// Reactor runs a fixed pool of worker goroutines draining a work queue, plus
// any number of recurring timers. Work submitted through Schedule always
// runs on a worker, never on the submitting goroutine.
type Reactor struct {
	workers int
	workCh  chan func(context.Context)

	mu      sync.Mutex
	cancels []context.CancelFunc
	wg      sync.WaitGroup
	started bool
	stopped bool
}

// New creates a Reactor with the given worker count. A non-positive count
// is treated as 1.
func New(workers int) *Reactor {
	if workers <= 0 {
		workers = 1
	}
	return &Reactor{workers: workers, workCh: make(chan func(context.Context), 256)}
}

// Start launches the worker pool. ctx governs the workers' lifetime in
// addition to Stop; cancelling ctx stops them without draining the queue.
func (r *Reactor) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.workerLoop(ctx)
	}
}

func (r *Reactor) workerLoop(ctx context.Context) {
	defer r.wg.Done()
	wctx := WithinReactor(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case fn, ok := <-r.workCh:
			if !ok {
				return
			}
			fn(wctx)
		}
	}
}

// Schedule enqueues fn to run on a worker goroutine. It never blocks on
// fn's execution, only on a full queue.
func (r *Reactor) Schedule(fn func(context.Context)) {
	r.workCh <- fn
}

// ScheduleTimer starts a recurring timer that invokes fn, inside a
// reactor-marked context, every interval until the returned cancel func
// runs or Stop is called.
func (r *Reactor) ScheduleTimer(interval time.Duration, fn func(context.Context)) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancels = append(r.cancels, cancel)
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		wctx := WithinReactor(context.Background())
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(wctx)
			}
		}
	}()
	return cancel
}

// Stop cancels every outstanding timer and closes the work queue, then
// waits for all worker and timer goroutines to exit.
func (r *Reactor) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	cancels := r.cancels
	r.mu.Unlock()

	for _, c := range cancels {
		c()
	}
	close(r.workCh)
	r.wg.Wait()
}
