package logdev

import (
	"testing"

	"github.com/rzbill/logdev/internal/blockdevice"
	"github.com/rzbill/logdev/internal/metastore"
	"github.com/rzbill/logdev/internal/reactor"
	"github.com/stretchr/testify/require"
)

func TestRecoveryFailsOnFutureIdxPostTailHeader(t *testing.T) {
	dev := blockdevice.NewMemDevice(512)
	store := metastore.NewMemStore()
	rx := reactor.New(2)
	ld := New(testConfig(), dev, store, rx, nil)

	rec := newCompletionRecorder()
	ld.SetAppendCompletionCB(rec.cb)
	require.NoError(t, ld.Start(true))

	storeID, err := ld.ReserveStoreID(StoreMeta("store"))
	require.NoError(t, err)
	idx, err := ld.AppendAsync(storeID, 1, []byte("payload"), nil)
	require.NoError(t, err)
	rec.wait(t, idx)
	ld.Stop()

	// Plant a well-formed group header far past the recovered tail, as if
	// the sequential scan had given up on a group it should have replayed.
	fakeGroup := newLogGroup(1000, 10, 1<<20, 64, 0)
	require.True(t, fakeGroup.addRecord(1000, storeID, 99, []byte("future")))
	iovecs, _ := fakeGroup.finish()
	full := flatten(iovecs)

	off, err := dev.AllocNextAppendBlk(uint64(len(full)))
	require.NoError(t, err)
	done := make(chan error, 1)
	dev.PwritevAsync([][]byte{full}, off, func(err error) { done <- err })
	require.NoError(t, <-done)

	rx2 := reactor.New(2)
	ld2 := New(testConfig(), dev, store, rx2, nil)
	err = ld2.Start(false)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestRecoveryTreatsUnparseableGarbageAsBenign(t *testing.T) {
	dev := blockdevice.NewMemDevice(512)
	store := metastore.NewMemStore()
	rx := reactor.New(2)
	ld := New(testConfig(), dev, store, rx, nil)

	rec := newCompletionRecorder()
	ld.SetAppendCompletionCB(rec.cb)
	require.NoError(t, ld.Start(true))

	storeID, err := ld.ReserveStoreID(StoreMeta("store"))
	require.NoError(t, err)
	idx, err := ld.AppendAsync(storeID, 1, []byte("payload"), nil)
	require.NoError(t, err)
	rec.wait(t, idx)
	ld.Stop()

	// Non-zero bytes past the tail that do not parse as a group header
	// (bad magic) must not fail recovery.
	garbage := make([]byte, 64)
	for i := range garbage {
		garbage[i] = 0xAB
	}
	off, err := dev.AllocNextAppendBlk(uint64(len(garbage)))
	require.NoError(t, err)
	done := make(chan error, 1)
	dev.PwritevAsync([][]byte{garbage}, off, func(err error) { done <- err })
	require.NoError(t, <-done)

	rx2 := reactor.New(2)
	ld2 := New(testConfig(), dev, store, rx2, nil)
	require.NoError(t, ld2.Start(false))
	ld2.Stop()
}
