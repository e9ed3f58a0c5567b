package logdev

import (
	"sync"

	"github.com/willf/bitset"
)

// idReserver is a dense store-id allocator. Reserved ids are never handed
// to two stores at once; an unreserved id is parked in a "garbage" set and
// only becomes reusable once truncate() confirms the log no longer holds
// any record that could reference it.
type idReserver struct {
	mu       sync.Mutex
	reserved *bitset.BitSet
	garbage  map[uint32]LogIdx // store id -> highest log idx that may still reference it
}

func newIDReserver() *idReserver {
	return &idReserver{
		reserved: bitset.New(64),
		garbage:  make(map[uint32]LogIdx),
	}
}

// reserve returns the lowest unused store id and marks it reserved.
func (r *idReserver) reserve() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var id uint
	for r.reserved.Test(id) {
		id++
	}
	r.reserved.Set(id)
	return uint32(id)
}

// markReservedLoaded marks id reserved without allocating it, used while
// replaying a previously-persisted superblock.
func (r *idReserver) markReservedLoaded(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reserved.Set(uint(id))
}

// unreserve parks id in the garbage set; it is not reusable until truncate
// observes watermarkIdx (LogDev passes the highest idx assigned to any store
// at the time of unreserve) has been truncated away.
func (r *idReserver) unreserve(id uint32, watermarkIdx LogIdx) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.garbage[id] = watermarkIdx
}

// truncate frees any garbage id whose watermark is <= upto, returning the
// freed ids.
func (r *idReserver) truncate(upto LogIdx) []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var freed []uint32
	for id, watermark := range r.garbage {
		if watermark <= upto {
			r.reserved.Clear(uint(id))
			delete(r.garbage, id)
			freed = append(freed, id)
		}
	}
	return freed
}

// isReserved reports whether id is currently reserved, including ids
// pending garbage collection.
func (r *idReserver) isReserved(id uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reserved.Test(uint(id))
}

// activeIDs returns every reserved id that is not pending garbage
// collection, the set get_registered_store_ids reports.
func (r *idReserver) activeIDs() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uint32
	for i, e := r.reserved.NextSet(0); e; i, e = r.reserved.NextSet(i + 1) {
		id := uint32(i)
		if _, garbage := r.garbage[id]; !garbage {
			ids = append(ids, id)
		}
	}
	return ids
}
