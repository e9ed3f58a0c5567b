package logdev

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rzbill/logdev/internal/blockdevice"
	"github.com/rzbill/logdev/internal/metastore"
	"github.com/rzbill/logdev/internal/reactor"
	"github.com/rzbill/logdev/pkg/log"
)

// LogDev is a log-structured write-ahead log device multiplexing many
// logical stores onto one append-only blockdevice.Device. It depends on
// three injected collaborators rather than process-wide singletons: the
// device itself, a metastore.Store for superblock persistence, and a
// reactor.Reactor for the recurring flush timer and worker dispatch.
type LogDev struct {
	cfg   Config
	dev   blockdevice.Device
	store metastore.Store
	rx    *reactor.Reactor
	log   log.Logger

	sb      *superblock
	tracker *streamTracker
	flush   *flushCoordinator

	nextIdx atomic.Int64

	// Callbacks. Register these before calling Start; LogDev does not
	// guard concurrent access to them against a racing Start.
	appendCompletionCB AppendCompletionFunc
	storeFoundCB       StoreFoundFunc
	logFoundCB         LogFoundFunc

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	stopped bool
}

// New constructs a LogDev. Call Start before appending or reading.
func New(cfg Config, dev blockdevice.Device, store metastore.Store, rx *reactor.Reactor, logger log.Logger) *LogDev {
	if logger == nil {
		logger = log.NewLogger()
	}
	return &LogDev{
		cfg:     cfg,
		dev:     dev,
		store:   store,
		rx:      rx,
		log:     logger.WithComponent("logdev"),
		sb:      newSuperblock(store),
		tracker: newStreamTracker(),
	}
}

func (ld *LogDev) SetAppendCompletionCB(cb AppendCompletionFunc) { ld.appendCompletionCB = cb }
func (ld *LogDev) SetStoreFoundCB(cb StoreFoundFunc)             { ld.storeFoundCB = cb }
func (ld *LogDev) SetLogFoundCB(cb LogFoundFunc)                 { ld.logFoundCB = cb }

func (ld *LogDev) isStarted() bool {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	return ld.started && !ld.stopped
}

// Start brings LogDev online. format=true initializes a brand-new,
// metadata-free device, discarding anything already on it; otherwise Start
// loads the persisted superblock (creating an empty one on first-ever
// start) and replays the device sequentially from its recorded start
// offset before accepting appends.
func (ld *LogDev) Start(format bool) error {
	ld.mu.Lock()
	if ld.started {
		ld.mu.Unlock()
		return fmt.Errorf("logdev: already started")
	}
	ld.ctx, ld.cancel = context.WithCancel(context.Background())
	ld.mu.Unlock()

	ld.rx.Start(ld.ctx)

	var nextIdx LogIdx
	var prevCRC uint32

	if format {
		if err := ld.sb.create(0); err != nil {
			return fmt.Errorf("logdev: format: %w", err)
		}
		ld.dev.UpdateDataStartOffset(0)
		ld.dev.UpdateTailOffset(0)
	} else {
		found, err := ld.sb.load()
		if err != nil {
			return fmt.Errorf("logdev: start: %w", err)
		}
		if !found {
			if err := ld.sb.create(0); err != nil {
				return fmt.Errorf("logdev: start: %w", err)
			}
		}
		recoveredNext, recoveredOffset, recoveredCRC, err := ld.recover()
		if err != nil {
			return fmt.Errorf("logdev: recover: %w", err)
		}
		ld.dev.UpdateTailOffset(recoveredOffset)
		nextIdx, prevCRC = recoveredNext, recoveredCRC
	}

	ld.nextIdx.Store(int64(nextIdx))
	ld.tracker.reinit(nextIdx)
	ld.flush = newFlushCoordinator(ld, nextIdx, prevCRC)
	ld.flush.start(ld.rx, ld.cfg.FlushTimerFrequency)

	if ld.storeFoundCB != nil {
		for _, id := range ld.sb.registeredStoreIDs() {
			meta, _ := ld.sb.storeMetaOf(id)
			ld.storeFoundCB(id, meta)
		}
	}

	ld.mu.Lock()
	ld.started = true
	ld.mu.Unlock()
	return nil
}

// Stop lets any in-flight flush finish, then stops the flush timer and the
// reactor's worker pool.
func (ld *LogDev) Stop() {
	ld.mu.Lock()
	if !ld.started || ld.stopped {
		ld.mu.Unlock()
		return
	}
	ld.stopped = true
	cancel := ld.cancel
	ld.mu.Unlock()

	ld.flush.stop()
	cancel()
	ld.rx.Stop()
}

// Truncate drops every record at or below key.Idx and advances the
// device's reclaimable region up to key.DevOffset — the offset of the
// LogGroup that starts the range still needed, as reported by a prior
// AppendCompletionFunc call. It waits for any in-flight flush to settle
// before touching shared bookkeeping, so it never races a LogGroup write.
func (ld *LogDev) Truncate(key Key) error {
	done := make(chan error, 1)
	ld.flush.waitForIdle(func() {
		ld.tracker.truncate(key.Idx)
		if err := ld.sb.onTruncate(key.Idx, false); err != nil {
			done <- err
			return
		}
		if err := ld.sb.updateStartDevOffset(key.DevOffset, false); err != nil {
			done <- err
			return
		}
		if err := ld.sb.persist(); err != nil {
			done <- err
			return
		}
		ld.dev.UpdateDataStartOffset(key.DevOffset)
		done <- ld.dev.Truncate(key.DevOffset)
	})
	return <-done
}

// ReserveStoreID allocates a new store id and records its initial opaque
// metadata, persisting the change before returning.
func (ld *LogDev) ReserveStoreID(meta StoreMeta) (uint32, error) {
	return ld.sb.reserveStore(meta)
}

// UnreserveStoreID retires id. The id is not reused until a subsequent
// Truncate has dropped every record that could still reference it.
func (ld *LogDev) UnreserveStoreID(id uint32) error {
	watermark := LogIdx(ld.nextIdx.Load() - 1)
	return ld.sb.unreserveStore(id, watermark)
}

// UpdateStoreMeta overwrites the opaque metadata associated with a
// currently-reserved store id.
func (ld *LogDev) UpdateStoreMeta(id uint32, meta StoreMeta) error {
	return ld.sb.updateStoreMeta(id, meta)
}

// GetRegisteredStoreIDs returns every store id currently reserved and not
// pending garbage collection.
func (ld *LogDev) GetRegisteredStoreIDs() []uint32 {
	return ld.sb.registeredStoreIDs()
}

// StoreMetaSnapshot returns a copy of every reserved store id's opaque
// metadata, safe for a caller to inspect without racing concurrent
// ReserveStoreID/UnreserveStoreID/UpdateStoreMeta calls.
func (ld *LogDev) StoreMetaSnapshot() map[uint32]StoreMeta {
	return ld.sb.snapshotStoreMeta()
}
