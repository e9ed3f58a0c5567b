package blockdevice

import "errors"

// ErrOutOfSpace is returned by AllocNextAppendBlk when a device has a fixed
// capacity and the requested allocation would exceed it.
var ErrOutOfSpace = errors.New("blockdevice: out of space")

// Device is the contract LogDev's core consumes. It intentionally mirrors
// the shape of the original C++ blkstore interface rather than Go's
// io.ReaderAt/WriterAt: append is tail-allocated up front, writes are
// vectored and asynchronous, and truncation is a reclaim hint rather than a
// file-shrinking operation.
type Device interface {
	// AllocNextAppendBlk reserves a contiguous, aligned region of size bytes
	// at the current tail and returns its offset. The caller owns the
	// region and writes it exactly once via PwritevAsync.
	AllocNextAppendBlk(size uint64) (uint64, error)

	// PwritevAsync issues a vectored write of iovecs at offset. cb is
	// invoked exactly once, on a goroutine, when the write completes
	// (successfully or not). The call itself never blocks on I/O.
	PwritevAsync(iovecs [][]byte, offset uint64, cb func(error))

	// Pread performs a synchronous, aligned read of len(buf) bytes at
	// offset.
	Pread(buf []byte, offset uint64) (int, error)

	// Truncate marks space below offset reclaimable. It never shrinks the
	// addressable offset space above it.
	Truncate(offset uint64) error

	// UpdateDataStartOffset records where recovery should resume scanning
	// on restart.
	UpdateDataStartOffset(offset uint64)

	// UpdateTailOffset forces the next-append cursor to offset. Used by
	// recovery once the valid tail of the log has been located.
	UpdateTailOffset(offset uint64)

	// SeekedPos returns the device's current read cursor, used by the
	// recovery scanner's sequential walk.
	SeekedPos() uint64

	// Seek repositions the read cursor, used by the recovery scanner to
	// start its walk and to step from one group to the next.
	Seek(offset uint64) error

	// AlignedAlloc returns a zeroed buffer whose address and length are
	// suitable for this device's DMA boundary.
	AlignedAlloc(size int) []byte

	// DMABoundary returns the device's required alignment, in bytes.
	DMABoundary() uint64

	// Close releases underlying resources.
	Close() error
}
