package logdev

import "sync"

// trackerChunkSize is the number of records held per contiguous chunk. A
// chunk is freed once every index inside it has been truncated.
const trackerChunkSize = 1024

type trackerChunk struct {
	recs      [trackerChunkSize]record
	populated [trackerChunkSize]bool
}

// streamTracker is a dense, sparsely populated sequence indexed by LogIdx
// It grows in contiguous chunks from the tail and frees chunks
// from the head once every index inside them has been truncated.
type streamTracker struct {
	mu sync.Mutex

	// firstChunkNo is the chunk number (idx / trackerChunkSize) of
	// chunks[0]. Chunks below firstChunkNo have been freed.
	firstChunkNo int64
	chunks       []*trackerChunk
}

func newStreamTracker() *streamTracker {
	return &streamTracker{}
}

func chunkNoOf(idx LogIdx) int64 { return int64(idx) / trackerChunkSize }
func slotOf(idx LogIdx) int      { return int(int64(idx) % trackerChunkSize) }

// chunkFor returns the chunk covering idx, growing the chunk slice from the
// tail if necessary. Must be called with mu held.
func (t *streamTracker) chunkFor(idx LogIdx, create bool) *trackerChunk {
	cn := chunkNoOf(idx)
	if len(t.chunks) == 0 {
		if !create {
			return nil
		}
		t.firstChunkNo = cn
	}
	for cn >= t.firstChunkNo+int64(len(t.chunks)) {
		if !create {
			return nil
		}
		t.chunks = append(t.chunks, &trackerChunk{})
	}
	if cn < t.firstChunkNo {
		return nil
	}
	return t.chunks[cn-t.firstChunkNo]
}

// create records a newly-appended record at idx. idx must not already be
// populated.
func (t *streamTracker) create(idx LogIdx, storeID uint32, seqNum uint64, payload []byte, context any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.chunkFor(idx, true)
	c.recs[slotOf(idx)] = record{state: stateActive, storeID: storeID, storeSeqNum: seqNum, payload: payload, context: context}
	c.populated[slotOf(idx)] = true
}

// at returns a copy of the record at idx and whether it is populated.
func (t *streamTracker) at(idx LogIdx) (record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.chunkFor(idx, false)
	if c == nil || !c.populated[slotOf(idx)] {
		return record{}, false
	}
	return c.recs[slotOf(idx)], true
}

// foreachActive visits populated, non-truncated records starting at from in
// ascending idx order until the visitor returns false or an unpopulated
// slot is reached. uptoHint carries the highest idx visited so far, mainly
// informational (it mirrors the C++ source's vestigial second visitor arg).
func (t *streamTracker) foreachActive(from LogIdx, visit func(idx LogIdx, uptoHint LogIdx, rec *record) bool) {
	idx := from
	for {
		t.mu.Lock()
		c := t.chunkFor(idx, false)
		if c == nil || !c.populated[slotOf(idx)] {
			t.mu.Unlock()
			return
		}
		rec := &c.recs[slotOf(idx)]
		t.mu.Unlock()

		if rec.state == stateTruncated {
			idx++
			continue
		}
		if !visit(idx, idx, rec) {
			return
		}
		idx++
	}
}

// complete marks [from, upto] Completed. Idempotent over already-completed
// indexes.
func (t *streamTracker) complete(from, upto LogIdx) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for idx := from; idx <= upto; idx++ {
		c := t.chunkFor(idx, false)
		if c == nil {
			continue
		}
		if c.populated[slotOf(idx)] && c.recs[slotOf(idx)].state == stateActive {
			c.recs[slotOf(idx)].state = stateCompleted
		}
	}
}

// truncate drops every index <= upto, freeing any now-fully-truncated
// leading chunks.
func (t *streamTracker) truncate(upto LogIdx) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for idx := LogIdx(t.firstChunkNo * trackerChunkSize); idx <= upto && len(t.chunks) > 0; idx++ {
		c := t.chunkFor(idx, false)
		if c == nil {
			continue
		}
		if c.populated[slotOf(idx)] {
			c.recs[slotOf(idx)].state = stateTruncated
			c.recs[slotOf(idx)].payload = nil
		}
	}

	for len(t.chunks) > 0 && chunkFullyTruncated(t.chunks[0], upto, LogIdx(t.firstChunkNo*trackerChunkSize)) {
		t.chunks = t.chunks[1:]
		t.firstChunkNo++
	}
}

func chunkFullyTruncated(c *trackerChunk, upto, chunkStart LogIdx) bool {
	chunkEnd := chunkStart + trackerChunkSize - 1
	if chunkEnd > upto {
		return false
	}
	for i := 0; i < trackerChunkSize; i++ {
		if c.populated[i] && c.recs[i].state != stateTruncated {
			return false
		}
	}
	return true
}

// reinit resets the tracker's bookkeeping so the next create() call is for
// newBase. Used after recovery, where records below newBase were already
// observed through the recovery scanner rather than through this tracker.
func (t *streamTracker) reinit(newBase LogIdx) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.chunks = nil
	t.firstChunkNo = chunkNoOf(newBase)
}
