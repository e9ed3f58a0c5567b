package logdev

import (
	"sync"
	"testing"
	"time"

	"github.com/rzbill/logdev/internal/blockdevice"
	"github.com/rzbill/logdev/internal/metastore"
	"github.com/rzbill/logdev/internal/reactor"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.FlushDataThresholdSize = 1
	cfg.MaxTimeBetweenFlush = 10 * time.Millisecond
	cfg.FlushTimerFrequency = 2 * time.Millisecond
	cfg.DMABoundary = 512
	return cfg
}

type completionRecorder struct {
	mu   sync.Mutex
	keys map[int64]Key
}

func newCompletionRecorder() *completionRecorder {
	return &completionRecorder{keys: make(map[int64]Key)}
}

func (c *completionRecorder) cb(_ uint32, key Key, _ Key, _ int, _ any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[int64(key.Idx)] = key
}

func (c *completionRecorder) wait(t *testing.T, idx LogIdx) Key {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		c.mu.Lock()
		k, ok := c.keys[int64(idx)]
		c.mu.Unlock()
		if ok {
			return k
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for completion of idx %d", idx)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestAppendFlushRead(t *testing.T) {
	dev := blockdevice.NewMemDevice(512)
	store := metastore.NewMemStore()
	rx := reactor.New(2)
	ld := New(testConfig(), dev, store, rx, nil)

	rec := newCompletionRecorder()
	ld.SetAppendCompletionCB(rec.cb)
	require.NoError(t, ld.Start(true))
	defer ld.Stop()

	storeID, err := ld.ReserveStoreID(StoreMeta("hello-store"))
	require.NoError(t, err)

	payloads := [][]byte{[]byte("alpha"), []byte("beta"), []byte("gamma")}
	idxs := make([]LogIdx, len(payloads))
	for i, p := range payloads {
		idx, err := ld.AppendAsync(storeID, uint64(i), p, nil)
		require.NoError(t, err)
		idxs[i] = idx
	}

	for i, idx := range idxs {
		key := rec.wait(t, idx)
		got, err := ld.Read(key)
		require.NoError(t, err)
		require.Equal(t, payloads[i], got)
	}
}

func TestRecoveryReplaysRecordsAndStoreMeta(t *testing.T) {
	dev := blockdevice.NewMemDevice(512)
	store := metastore.NewMemStore()
	rx := reactor.New(2)
	ld := New(testConfig(), dev, store, rx, nil)

	rec := newCompletionRecorder()
	ld.SetAppendCompletionCB(rec.cb)
	require.NoError(t, ld.Start(true))

	storeID, err := ld.ReserveStoreID(StoreMeta("survives-restart"))
	require.NoError(t, err)

	idx, err := ld.AppendAsync(storeID, 42, []byte("payload-before-restart"), nil)
	require.NoError(t, err)
	rec.wait(t, idx)
	ld.Stop()

	rx2 := reactor.New(2)
	ld2 := New(testConfig(), dev, store, rx2, nil)

	type found struct {
		storeID uint32
		seqNum  uint64
		payload []byte
	}
	var foundRecords []found
	var foundStores []uint32
	ld2.SetLogFoundCB(func(sid uint32, seq uint64, _ Key, payload []byte) {
		foundRecords = append(foundRecords, found{sid, seq, append([]byte(nil), payload...)})
	})
	ld2.SetStoreFoundCB(func(sid uint32, _ StoreMeta) {
		foundStores = append(foundStores, sid)
	})

	require.NoError(t, ld2.Start(false))
	defer ld2.Stop()

	require.Len(t, foundRecords, 1)
	require.Equal(t, storeID, foundRecords[0].storeID)
	require.Equal(t, uint64(42), foundRecords[0].seqNum)
	require.Equal(t, []byte("payload-before-restart"), foundRecords[0].payload)
	require.Contains(t, foundStores, storeID)

	// appends continue from where the recovered log left off, not from 0.
	nextIdx, err := ld2.AppendAsync(storeID, 43, []byte("after-restart"), nil)
	require.NoError(t, err)
	require.Greater(t, nextIdx, idx)
}

func TestTruncateFreesStoreIDAfterWatermark(t *testing.T) {
	dev := blockdevice.NewMemDevice(512)
	store := metastore.NewMemStore()
	rx := reactor.New(2)
	ld := New(testConfig(), dev, store, rx, nil)
	rec := newCompletionRecorder()
	ld.SetAppendCompletionCB(rec.cb)
	require.NoError(t, ld.Start(true))
	defer ld.Stop()

	storeID, err := ld.ReserveStoreID(StoreMeta("short-lived"))
	require.NoError(t, err)
	idx, err := ld.AppendAsync(storeID, 1, []byte("x"), nil)
	require.NoError(t, err)
	key := rec.wait(t, idx)

	require.NoError(t, ld.UnreserveStoreID(storeID))
	require.Contains(t, ld.GetRegisteredStoreIDs(), storeID) // still garbage, not yet freed

	require.NoError(t, ld.Truncate(key))
	require.NotContains(t, ld.GetRegisteredStoreIDs(), storeID)

	newID, err := ld.ReserveStoreID(StoreMeta("reused-id"))
	require.NoError(t, err)
	require.Equal(t, storeID, newID)
}

func TestAppendBeforeStartFails(t *testing.T) {
	dev := blockdevice.NewMemDevice(512)
	store := metastore.NewMemStore()
	rx := reactor.New(1)
	ld := New(testConfig(), dev, store, rx, nil)

	_, err := ld.AppendAsync(0, 0, []byte("x"), nil)
	require.Error(t, err)
}
