package blockdevice

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// FileDevice is a Device backed by a single regular file. Writes go through
// unix.Pwritev/unix.Pread so callers control exact offsets, the way a real
// append-only device would.
type FileDevice struct {
	f           *os.File
	dmaBoundary uint64
	capacity    uint64 // 0 means unbounded

	tailMu sync.Mutex
	tail   uint64

	dataStart  atomic.Uint64
	readCursor atomic.Uint64
}

// Options configures a FileDevice.
type Options struct {
	Path        string
	DMABoundary uint64 // alignment for AllocNextAppendBlk and AlignedAlloc; defaults to 4096
	Capacity    uint64 // optional cap in bytes; 0 disables the check
}

// Open creates or opens the backing file at opts.Path.
func Open(opts Options) (*FileDevice, error) {
	if opts.DMABoundary == 0 {
		opts.DMABoundary = 4096
	}
	f, err := os.OpenFile(opts.Path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("blockdevice: open %s: %w", opts.Path, err)
	}
	d := &FileDevice{f: f, dmaBoundary: opts.DMABoundary, capacity: opts.Capacity}
	return d, nil
}

func roundUp(v, boundary uint64) uint64 {
	if boundary == 0 {
		return v
	}
	rem := v % boundary
	if rem == 0 {
		return v
	}
	return v + (boundary - rem)
}

func (d *FileDevice) AllocNextAppendBlk(size uint64) (uint64, error) {
	aligned := roundUp(size, d.dmaBoundary)

	d.tailMu.Lock()
	defer d.tailMu.Unlock()
	off := d.tail
	if d.capacity != 0 && off+aligned > d.capacity {
		return 0, ErrOutOfSpace
	}
	d.tail = off + aligned
	return off, nil
}

func (d *FileDevice) PwritevAsync(iovecs [][]byte, offset uint64, cb func(error)) {
	go func() {
		_, err := unix.Pwritev(int(d.f.Fd()), iovecs, int64(offset))
		if cb != nil {
			cb(err)
		}
	}()
}

func (d *FileDevice) Pread(buf []byte, offset uint64) (int, error) {
	return unix.Pread(int(d.f.Fd()), buf, int64(offset))
}

func (d *FileDevice) Truncate(offset uint64) error {
	d.dataStart.Store(offset)
	// Best-effort reclaim: punch a hole for the space we no longer need.
	// FALLOC_FL_PUNCH_HOLE is Linux-only and optional; failures are not
	// fatal since truncation here is a hint, not a shrink.
	_ = unix.Fallocate(int(d.f.Fd()), unix.FALLOC_FL_PUNCH_HOLE|unix.FALLOC_FL_KEEP_SIZE, 0, int64(offset))
	return nil
}

func (d *FileDevice) UpdateDataStartOffset(offset uint64) { d.dataStart.Store(offset) }

func (d *FileDevice) UpdateTailOffset(offset uint64) {
	d.tailMu.Lock()
	d.tail = offset
	d.tailMu.Unlock()
}

func (d *FileDevice) SeekedPos() uint64 { return d.readCursor.Load() }

func (d *FileDevice) Seek(offset uint64) error {
	d.readCursor.Store(offset)
	return nil
}

func (d *FileDevice) AlignedAlloc(size int) []byte {
	// A plain make() is adequate for a regular (buffered) file; O_DIRECT
	// alignment would require platform-specific mmap-based allocation,
	// which this device does not use.
	return make([]byte, size)
}

func (d *FileDevice) DMABoundary() uint64 { return d.dmaBoundary }

func (d *FileDevice) Close() error { return d.f.Close() }
