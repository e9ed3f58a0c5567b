// Package logdev implements the core of a log-structured write-ahead log
// device that multiplexes many logical log streams onto a single
// append-only block device.
//
// # Overview
//
// Producers call AppendAsync, which assigns a monotonically increasing LogIdx
// and returns immediately; durability is signalled asynchronously through the
// AppendCompletionFunc registered with SetAppendCompletionCB. Appends are
// accepted only for store ids obtained from ReserveStoreID. Records accumulate in an
// in-memory stream tracker until a flush is admitted (by size or by a
// recurring timer), at which point they are assembled into a single
// LogGroup — one header, one set of per-record descriptors, and inline/
// out-of-band payload regions — and written with a single vectored device
// write. Reads are positional, keyed by {LogIdx, device offset}. Recovery
// replays the device sequentially from the last persisted start offset.
//
// # Collaborators
//
// LogDev depends on three injected collaborators rather than process-wide
// singletons: a blockdevice.Device for storage, a metastore.Store for
// superblock persistence, and a reactor.Reactor for the recurring flush
// timer and for determining which goroutines are allowed to originate a
// flush.
//
// Example:
//
//	dev := blockdevice.NewMemDevice(4096)
//	store := metastore.NewMemStore()
//	rx := reactor.New(2)
//	ld := logdev.New(logdev.DefaultConfig(), dev, store, rx, log.NewLogger())
//	ld.SetAppendCompletionCB(func(storeID uint32, key, flushKey logdev.Key, distance int, ctx any) {})
//	ld.SetStoreFoundCB(func(storeID uint32, meta logdev.StoreMeta) {})
//	ld.SetLogFoundCB(func(storeID uint32, seq uint64, key logdev.Key, payload []byte) {})
//	_ = ld.Start(true)
//	storeID, _ := ld.ReserveStoreID(nil)
//	idx, _ := ld.AppendAsync(storeID, 0, []byte("hello"), nil)
//	_ = idx
package logdev
