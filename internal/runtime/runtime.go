package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/rzbill/logdev/internal/blockdevice"
	cfgpkg "github.com/rzbill/logdev/internal/config"
	"github.com/rzbill/logdev/internal/logdev"
	"github.com/rzbill/logdev/internal/metastore"
	"github.com/rzbill/logdev/internal/reactor"
	pebblestore "github.com/rzbill/logdev/internal/storage/pebble"
	"github.com/rzbill/logdev/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir string
	Fsync   pebblestore.FsyncMode
	Config  cfgpkg.Config

	// Format wipes any existing device/metadata and starts from empty,
	// the way a fresh "mkfs"-style bring-up would. Leave false to load
	// and recover a previously-formatted device.
	Format bool

	Logger log.Logger
}

// Runtime wires LogDev's collaborators — a blockdevice.Device, a
// metastore.Store, and a reactor.Reactor — into a single running instance,
// the way a host process would.
type Runtime struct {
	db     *pebblestore.DB
	dev    *blockdevice.FileDevice
	store  *metastore.PebbleStore
	rx     *reactor.Reactor
	ld     *logdev.LogDev
	config cfgpkg.Config
}

// Open initializes the metadata store and device, then starts LogDev.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.DataDir, Fsync: opts.Fsync})
	if err != nil {
		return nil, err
	}

	devPath := opts.Config.DevicePath
	if devPath == "" {
		devPath = "logdev.data"
	}
	dev, err := blockdevice.Open(blockdevice.Options{
		Path:        devPath,
		DMABoundary: opts.Config.DMABoundary,
		Capacity:    opts.Config.DeviceSize,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("runtime: open device: %w", err)
	}

	store := metastore.NewPebbleStore(db)

	workers := opts.Config.FlushWorkers
	if workers <= 0 {
		workers = 2
	}
	rx := reactor.New(workers)

	cfg := logdev.DefaultConfig()
	cfg.FlushDataThresholdSize = opts.Config.FlushDataThresholdSize
	cfg.MaxTimeBetweenFlush = opts.Config.MaxTimeBetweenFlush()
	cfg.FlushTimerFrequency = opts.Config.FlushTimerFrequency()
	cfg.MaxGroupSize = opts.Config.MaxGroupSize
	cfg.MaxIovCount = opts.Config.MaxIovCount
	cfg.InlineThreshold = opts.Config.InlineThreshold
	cfg.DMABoundary = opts.Config.DMABoundary
	cfg.InitialReadSize = opts.Config.InitialReadSize
	cfg.FlushWorkers = workers

	ld := logdev.New(cfg, dev, store, rx, opts.Logger)
	if err := ld.Start(opts.Format); err != nil {
		dev.Close()
		db.Close()
		return nil, fmt.Errorf("runtime: start logdev: %w", err)
	}

	return &Runtime{db: db, dev: dev, store: store, rx: rx, ld: ld, config: opts.Config}, nil
}

// Close stops LogDev and closes the device and metadata store, in that
// order so no in-flight flush outlives the device it writes to.
func (r *Runtime) Close() error {
	if r.ld != nil {
		r.ld.Stop()
	}
	var firstErr error
	if r.dev != nil {
		if err := r.dev.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CheckHealth performs a simple health check against the metadata store.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("runtime: db not open")
	}
	if _, err := r.db.Get([]byte("__health__")); err != nil && !errors.Is(err, pebblestore.ErrNotFound) {
		return err
	}
	return nil
}

// LogDev exposes the running LogDev instance for appends, reads, and
// truncation.
func (r *Runtime) LogDev() *logdev.LogDev { return r.ld }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
