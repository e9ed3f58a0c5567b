package logdev

import "time"

// Config holds LogDev's tunables. All fields have sane defaults via
// DefaultConfig; callers only need to override what matters for their
// workload.
type Config struct {
	// FlushDataThresholdSize is the accumulated pending-byte watermark
	// that triggers an immediate flush.
	FlushDataThresholdSize uint32

	// MaxTimeBetweenFlush bounds how long pending records can sit
	// unflushed before the recurring timer forces a flush.
	MaxTimeBetweenFlush time.Duration

	// FlushTimerFrequency is how often the recurring flush check runs.
	FlushTimerFrequency time.Duration

	// MaxGroupSize caps a single LogGroup's total serialized size,
	// including header, descriptors, and payloads.
	MaxGroupSize uint32

	// MaxIovCount caps the number of records (and therefore iovecs) a
	// single LogGroup may carry.
	MaxIovCount uint32

	// InlineThreshold is the largest payload size, in bytes, stored in a
	// LogGroup's inline region rather than its out-of-band region.
	InlineThreshold uint32

	// DMABoundary records the intended device alignment. LogDev does not
	// read it: LogGroup writes are padded to the injected device's own
	// DMABoundary().
	DMABoundary uint64

	// InitialReadSize is the configured first-read size. LogDev does not
	// read it: Read and the recovery scanner read the fixed header first
	// and then the whole group as sized by its header.
	InitialReadSize uint32

	// RecoveryMaxBlksReadForAdditionalCheck bounds how many extra blocks
	// past an apparent end-of-log the recovery scanner reads before
	// concluding it found legitimate end-of-log rather than a corrupted
	// group header.
	RecoveryMaxBlksReadForAdditionalCheck uint32

	// FlushWorkers is the number of reactor worker goroutines dedicated
	// to running flushes.
	FlushWorkers int
}

// DefaultConfig returns Config values suitable for a small local device.
func DefaultConfig() Config {
	return Config{
		FlushDataThresholdSize:                 1 << 20, // 1 MiB
		MaxTimeBetweenFlush:                     1 * time.Second,
		FlushTimerFrequency:                     100 * time.Millisecond,
		MaxGroupSize:                            4 << 20, // 4 MiB
		MaxIovCount:                             512,
		InlineThreshold:                         512,
		DMABoundary:                             4096,
		InitialReadSize:                         4096,
		RecoveryMaxBlksReadForAdditionalCheck:   3,
		FlushWorkers:                            2,
	}
}
