// Package reactor provides a small cooperative worker pool and recurring
// timer scheduler, injected into internal/logdev in place of a process-wide
// timer/thread-pool singleton. It re-expresses the "am I already running on
// a reactor thread" check the original C++ source makes against thread-local
// state as a context.Context marker, since Go has no equivalent to
// goroutine-local storage.
//
// Example:
//
//	rx := reactor.New(4)
//	rx.Start(ctx)
//	defer rx.Stop()
//	rx.Schedule(func(wctx context.Context) { /* runs on a worker */ })
//	stop := rx.ScheduleTimer(100*time.Millisecond, func(wctx context.Context) {})
//	defer stop()
package reactor
