package reactor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduleRunsOnWorkerWithinReactor(t *testing.T) {
	rx := New(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rx.Start(ctx)
	defer rx.Stop()

	done := make(chan bool, 1)
	rx.Schedule(func(wctx context.Context) {
		done <- IsWithinReactor(wctx)
	})

	select {
	case within := <-done:
		require.True(t, within)
	case <-time.After(time.Second):
		t.Fatal("scheduled work never ran")
	}
}

func TestIsWithinReactorFalseOutsideReactor(t *testing.T) {
	require.False(t, IsWithinReactor(context.Background()))
	require.True(t, IsWithinReactor(WithinReactor(context.Background())))
}

func TestScheduleTimerFiresRepeatedlyUntilCancelled(t *testing.T) {
	rx := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rx.Start(ctx)
	defer rx.Stop()

	var ticks atomic.Int32
	stop := rx.ScheduleTimer(10*time.Millisecond, func(context.Context) {
		ticks.Add(1)
	})

	time.Sleep(50 * time.Millisecond)
	stop()
	seenAtStop := ticks.Load()
	require.GreaterOrEqual(t, seenAtStop, int32(2))

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, seenAtStop, ticks.Load())
}

func TestStopDrainsWorkersAndIsIdempotent(t *testing.T) {
	rx := New(1)
	ctx := context.Background()
	rx.Start(ctx)

	var ran atomic.Bool
	done := make(chan struct{})
	rx.Schedule(func(context.Context) {
		ran.Store(true)
		close(done)
	})
	<-done

	rx.Stop()
	rx.Stop() // must not panic or block on a second call
	require.True(t, ran.Load())
}
