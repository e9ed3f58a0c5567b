package logdev

// LogIdx is a 64-bit signed monotonic counter, strictly increasing across
// the life of a LogDev instance. It is allocated atomically on append,
// never reused; truncation only advances a watermark.
type LogIdx int64

// Key pairs a LogIdx with its device offset. It uniquely identifies a
// record's position in device space and is stable across restarts.
type Key struct {
	Idx       LogIdx
	DevOffset uint64
}

// recordState is the lifecycle of a log_record inside the stream tracker.
type recordState int

const (
	stateActive recordState = iota
	stateCompleted
	stateTruncated
)

// record is the in-memory bookkeeping the stream tracker holds for one
// appended entry, from admission through flush completion.
type record struct {
	state       recordState
	storeID     uint32
	storeSeqNum uint64
	payload     []byte
	context     any
}

// StoreMeta is the opaque, fixed-size-capable blob the host associates with
// a reserved store id. LogDev never interprets its contents.
type StoreMeta []byte

// AppendCompletionFunc is invoked once per completed record, in ascending
// idx order within a group, after that group's write lands durably.
type AppendCompletionFunc func(storeID uint32, recordKey Key, groupFlushKey Key, distanceToUpto int, context any)

// StoreFoundFunc is invoked once per reserved store discovered while
// loading the superblock during recovery.
type StoreFoundFunc func(storeID uint32, meta StoreMeta)

// LogFoundFunc is invoked once per record discovered during the recovery
// scan, in ascending idx order.
type LogFoundFunc func(storeID uint32, seqNum uint64, key Key, payload []byte)
