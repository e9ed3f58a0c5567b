package logdev

import (
	"context"
	"sync"
	"time"

	"github.com/rzbill/logdev/internal/reactor"
	"github.com/rzbill/logdev/pkg/log"
)

// flushPhase is the flush coordinator's state, modeled explicitly
// rather than as a boolean-plus-queue: at most one LogGroup write is ever
// in flight, and at most one more round of admitted records is allowed to
// queue up behind it.
type flushPhase int

const (
	flushIdle flushPhase = iota
	flushRunning
	flushRunningQueued
	flushStopped
)

// flushCoordinator owns the exclusive right to issue the next device write
// and the bookkeeping needed to chain a second flush immediately behind a
// completing one, without ever running two writes concurrently.
type flushCoordinator struct {
	ld *LogDev

	mu           sync.Mutex
	phase        flushPhase
	pendingBytes uint32
	lastFlushAt  time.Time
	lastFlushIdx LogIdx // highest idx durably flushed; starts at firstIdx-1
	prevGrpCRC   uint32
	waiters      []func()

	cancelTimer func()
}

func newFlushCoordinator(ld *LogDev, startIdx LogIdx, prevGrpCRC uint32) *flushCoordinator {
	return &flushCoordinator{
		ld:           ld,
		lastFlushIdx: startIdx - 1,
		prevGrpCRC:   prevGrpCRC,
		lastFlushAt:  time.Now(),
	}
}

// start registers the recurring flush timer with the reactor.
func (fc *flushCoordinator) start(rx *reactor.Reactor, freq time.Duration) {
	fc.cancelTimer = rx.ScheduleTimer(freq, func(ctx context.Context) {
		fc.flushIfNeeded(ctx, 0)
	})
}

// stop cancels the timer, waits for any flush currently in flight to finish
// and invoke onFlushCompletion, then marks the coordinator stopped so no
// further flush can start.
func (fc *flushCoordinator) stop() {
	if fc.cancelTimer != nil {
		fc.cancelTimer()
	}
	for {
		fc.mu.Lock()
		if fc.phase == flushIdle || fc.phase == flushStopped {
			fc.phase = flushStopped
			fc.mu.Unlock()
			return
		}
		settled := make(chan struct{})
		fc.waiters = append(fc.waiters, func() { close(settled) })
		fc.mu.Unlock()
		<-settled
	}
}

// recordAdmitted tracks newly appended bytes for the size trigger and asks
// for a flush check. admitted records have already been placed in the
// stream tracker by the caller.
func (fc *flushCoordinator) recordAdmitted(ctx context.Context, size uint32) {
	fc.mu.Lock()
	fc.pendingBytes += size
	fc.mu.Unlock()
	fc.flushIfNeeded(ctx, size)
}

// flushIfNeeded evaluates the size/time triggers and, if a flush is due,
// either runs it (if already on a reactor worker) or hands it off to one.
// justAdmittedSize is 0 when called from the timer.
func (fc *flushCoordinator) flushIfNeeded(ctx context.Context, justAdmittedSize uint32) {
	cfg := fc.ld.cfg

	fc.mu.Lock()
	due := fc.pendingBytes >= cfg.FlushDataThresholdSize ||
		(fc.pendingBytes > 0 && time.Since(fc.lastFlushAt) >= cfg.MaxTimeBetweenFlush)
	if !due || fc.phase == flushStopped {
		fc.mu.Unlock()
		return
	}

	switch fc.phase {
	case flushIdle:
		fc.phase = flushRunning
		fc.mu.Unlock()
		fc.runFlush(ctx)
	case flushRunning:
		fc.phase = flushRunningQueued
		fc.mu.Unlock()
	default:
		fc.mu.Unlock()
	}
}

// runFlush executes one flush round, dispatching through the reactor if the
// caller is not already on a worker goroutine.
func (fc *flushCoordinator) runFlush(ctx context.Context) {
	if reactor.IsWithinReactor(ctx) {
		fc.doFlush(ctx)
		return
	}
	fc.ld.rx.Schedule(func(rctx context.Context) {
		fc.doFlush(rctx)
	})
}

// doFlush builds a LogGroup from every active record above the last
// flushed idx, writes it, and on completion either chains directly into
// another round (if more work queued while this one was in flight) or
// returns the coordinator to Idle.
func (fc *flushCoordinator) doFlush(ctx context.Context) {
	fc.mu.Lock()
	fromIdx := fc.lastFlushIdx + 1
	prevCRC := fc.prevGrpCRC
	fc.mu.Unlock()

	cfg := fc.ld.cfg
	grp := newLogGroup(fromIdx, cfg.MaxIovCount, cfg.MaxGroupSize, cfg.InlineThreshold, prevCRC)

	var lastIdx LogIdx = fromIdx - 1
	fc.ld.tracker.foreachActive(fromIdx, func(idx LogIdx, _ LogIdx, rec *record) bool {
		if rec.state != stateActive && rec.state != stateCompleted {
			return false
		}
		if !grp.addRecord(idx, rec.storeID, rec.storeSeqNum, rec.payload) {
			return false
		}
		lastIdx = idx
		return true
	})

	if grp.empty() {
		fc.onFlushCompletion(ctx, nil, fromIdx, lastIdx, 0, 0)
		return
	}

	iovecs, meta := grp.finish()
	size := uint64(meta.totalSize)
	aligned := roundUpSize(size, fc.ld.dev.DMABoundary())
	if aligned != size {
		iovecs = append(iovecs, make([]byte, aligned-size))
	}

	offset, err := fc.ld.dev.AllocNextAppendBlk(aligned)
	if err != nil {
		fc.onFlushCompletion(ctx, err, fromIdx, lastIdx, 0, meta.crc)
		return
	}

	fc.ld.dev.PwritevAsync(iovecs, offset, func(werr error) {
		fc.onFlushCompletion(ctx, werr, fromIdx, lastIdx, offset, meta.crc)
	})
}

func roundUpSize(v, boundary uint64) uint64 {
	if boundary == 0 {
		return v
	}
	if rem := v % boundary; rem != 0 {
		return v + (boundary - rem)
	}
	return v
}

// onFlushCompletion runs the group's completion callbacks, advances the
// watermark, and releases or chains the flush slot. A write failure still
// releases the slot — treating it as flush completion for state-machine
// purposes is deliberate, so a single bad write cannot wedge every future
// append behind a coordinator stuck in flushRunning forever.
func (fc *flushCoordinator) onFlushCompletion(ctx context.Context, err error, fromIdx, lastIdx LogIdx, groupOffset uint64, crc uint32) {
	if err != nil {
		fc.ld.log.Error("logdev: flush write failed", log.Err(err))
	} else if lastIdx >= fromIdx {
		fc.ld.tracker.complete(fromIdx, lastIdx)
		groupKey := Key{Idx: fromIdx, DevOffset: groupOffset}
		distance := int(lastIdx - fromIdx)
		for idx := fromIdx; idx <= lastIdx; idx++ {
			rec, ok := fc.ld.tracker.at(idx)
			if !ok {
				continue
			}
			recKey := Key{Idx: idx, DevOffset: groupOffset}
			if fc.ld.appendCompletionCB != nil {
				fc.ld.appendCompletionCB(rec.storeID, recKey, groupKey, distance, rec.context)
			}
			distance--
		}
	}

	fc.mu.Lock()
	if err == nil && lastIdx >= fromIdx {
		fc.lastFlushIdx = lastIdx
		fc.prevGrpCRC = crc
		flushed := fc.pendingBytesConsumed(fromIdx, lastIdx)
		if flushed > fc.pendingBytes {
			flushed = fc.pendingBytes
		}
		fc.pendingBytes -= flushed
	}
	fc.lastFlushAt = time.Now()

	queued := fc.phase == flushRunningQueued
	stopped := fc.phase == flushStopped
	if stopped {
		fc.mu.Unlock()
		fc.drainWaiters()
		return
	}
	if queued {
		fc.phase = flushRunning
		fc.mu.Unlock()
		fc.runFlush(ctx)
		return
	}
	fc.phase = flushIdle
	fc.mu.Unlock()
	fc.drainWaiters()
}

// pendingBytesConsumed returns the pending-counter share of the records in
// [fromIdx, lastIdx], counted the way appendAsync admitted them (payload
// plus one descriptor each). When MaxGroupSize or MaxIovCount splits a
// backlog, the records left behind keep their share of the counter, so a
// chained round or the timer's time trigger still flushes them.
func (fc *flushCoordinator) pendingBytesConsumed(fromIdx, lastIdx LogIdx) uint32 {
	var n uint32
	for idx := fromIdx; idx <= lastIdx; idx++ {
		if rec, ok := fc.ld.tracker.at(idx); ok {
			n += uint32(len(rec.payload)) + descriptorSize
		}
	}
	return n
}

// waitForIdle registers fn to run once the coordinator next settles to
// Idle (or Stopped). Used by Truncate, which must not run concurrently
// with an in-flight flush.
func (fc *flushCoordinator) waitForIdle(fn func()) {
	fc.mu.Lock()
	if fc.phase == flushIdle || fc.phase == flushStopped {
		fc.mu.Unlock()
		fn()
		return
	}
	fc.waiters = append(fc.waiters, fn)
	fc.mu.Unlock()
}

func (fc *flushCoordinator) drainWaiters() {
	fc.mu.Lock()
	waiters := fc.waiters
	fc.waiters = nil
	fc.mu.Unlock()
	for _, w := range waiters {
		w()
	}
}

