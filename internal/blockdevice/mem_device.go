package blockdevice

import "sync"

// MemDevice is an in-memory Device used by tests that exercise LogDev's
// core logic without needing real file durability.
type MemDevice struct {
	mu          sync.Mutex
	buf         []byte
	dmaBoundary uint64
	tail        uint64
	dataStart   uint64
	readCursor  uint64
}

// NewMemDevice returns an empty MemDevice with the given alignment.
func NewMemDevice(dmaBoundary uint64) *MemDevice {
	if dmaBoundary == 0 {
		dmaBoundary = 4096
	}
	return &MemDevice{dmaBoundary: dmaBoundary}
}

func (d *MemDevice) growLocked(upto uint64) {
	if uint64(len(d.buf)) < upto {
		grown := make([]byte, upto)
		copy(grown, d.buf)
		d.buf = grown
	}
}

func (d *MemDevice) AllocNextAppendBlk(size uint64) (uint64, error) {
	aligned := roundUp(size, d.dmaBoundary)
	d.mu.Lock()
	defer d.mu.Unlock()
	off := d.tail
	d.tail = off + aligned
	d.growLocked(d.tail)
	return off, nil
}

func (d *MemDevice) PwritevAsync(iovecs [][]byte, offset uint64, cb func(error)) {
	go func() {
		d.mu.Lock()
		o := offset
		for _, iov := range iovecs {
			d.growLocked(o + uint64(len(iov)))
			copy(d.buf[o:], iov)
			o += uint64(len(iov))
		}
		d.mu.Unlock()
		if cb != nil {
			cb(nil)
		}
	}()
}

func (d *MemDevice) Pread(buf []byte, offset uint64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if offset >= uint64(len(d.buf)) {
		for i := range buf {
			buf[i] = 0
		}
		return len(buf), nil
	}
	n := copy(buf, d.buf[offset:])
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return len(buf), nil
}

func (d *MemDevice) Truncate(offset uint64) error {
	d.mu.Lock()
	d.dataStart = offset
	d.mu.Unlock()
	return nil
}

func (d *MemDevice) UpdateDataStartOffset(offset uint64) {
	d.mu.Lock()
	d.dataStart = offset
	d.mu.Unlock()
}

func (d *MemDevice) UpdateTailOffset(offset uint64) {
	d.mu.Lock()
	d.tail = offset
	d.mu.Unlock()
}

func (d *MemDevice) SeekedPos() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readCursor
}

func (d *MemDevice) Seek(offset uint64) error {
	d.mu.Lock()
	d.readCursor = offset
	d.mu.Unlock()
	return nil
}

func (d *MemDevice) AlignedAlloc(size int) []byte { return make([]byte, size) }

func (d *MemDevice) DMABoundary() uint64 { return d.dmaBoundary }

func (d *MemDevice) Close() error { return nil }
