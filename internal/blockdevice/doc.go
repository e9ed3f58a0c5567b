// Package blockdevice defines the block-device contract LogDev's core
// depends on: tail allocation, vectored append, positional read, reclaiming
// truncation, and cursor bookkeeping for recovery.
//
// LogDev never opens a device itself; a Device is constructed by the caller
// (typically internal/runtime) and injected. FileDevice is the one concrete,
// production-shaped implementation, backed by a single regular file and
// golang.org/x/sys/unix's Pwritev/Pread. MemDevice is an in-memory
// implementation used by tests that don't need real durability.
package blockdevice
