package logdev

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/rzbill/logdev/internal/metastore"
)

const superblockSubSBName = "LOG_DEV"
const superblockMagic uint64 = 0x4253564544474f4c // "LOGDEVSB" little-endian encoded
const superblockVersion uint32 = 1

// superblock is LogDev's metadata sub-superblock: the device offset
// recovery should resume scanning from, the set of reserved store ids, and
// each store's opaque metadata blob. It is persisted as a single named
// sub-superblock through the injected metastore.Store.
type superblock struct {
	mu sync.Mutex

	startDevOffset uint64
	ids            *idReserver
	storeMeta      map[uint32]StoreMeta

	// buf holds the most recently serialized image. persist always
	// reassigns this field directly rather than shadowing it with a local
	// of the same name, so a growth never gets silently discarded.
	buf []byte

	store  metastore.Store
	cookie metastore.Cookie
	found  bool
}

func newSuperblock(store metastore.Store) *superblock {
	return &superblock{ids: newIDReserver(), storeMeta: make(map[uint32]StoreMeta), store: store}
}

// load looks for a previously-persisted superblock. It reports whether one
// was found; callers should call create() when it was not.
func (sb *superblock) load() (bool, error) {
	buf, cookie, found, err := sb.store.Find(superblockSubSBName)
	if err != nil {
		return false, fmt.Errorf("logdev: superblock find: %w", err)
	}
	if !found {
		return false, nil
	}
	if err := sb.unmarshal(buf); err != nil {
		return false, fmt.Errorf("logdev: superblock unmarshal: %w", err)
	}
	sb.cookie = cookie
	sb.found = true
	return true, nil
}

// create persists a brand-new, empty superblock, used on first start
// (format) or when load found nothing.
func (sb *superblock) create(startDevOffset uint64) error {
	sb.mu.Lock()
	sb.startDevOffset = startDevOffset
	sb.mu.Unlock()
	return sb.persist()
}

func (sb *superblock) marshal() []byte {
	var b bytes.Buffer
	var hdr [20]byte
	binary.LittleEndian.PutUint64(hdr[0:8], superblockMagic)
	binary.LittleEndian.PutUint32(hdr[8:12], superblockVersion)
	binary.LittleEndian.PutUint64(hdr[12:20], sb.startDevOffset)
	b.Write(hdr[:])

	bitsetBytes, _ := sb.ids.reserved.MarshalBinary()
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(bitsetBytes)))
	b.Write(lenBuf[:])
	b.Write(bitsetBytes)

	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(sb.ids.garbage)))
	b.Write(lenBuf[:])
	for id, watermark := range sb.ids.garbage {
		var e [12]byte
		binary.LittleEndian.PutUint32(e[0:4], id)
		binary.LittleEndian.PutUint64(e[4:12], uint64(watermark))
		b.Write(e[:])
	}

	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(sb.storeMeta)))
	b.Write(lenBuf[:])
	for id, meta := range sb.storeMeta {
		var e [8]byte
		binary.LittleEndian.PutUint32(e[0:4], id)
		binary.LittleEndian.PutUint32(e[4:8], uint32(len(meta)))
		b.Write(e[:])
		b.Write(meta)
	}
	return b.Bytes()
}

func (sb *superblock) unmarshal(buf []byte) error {
	if len(buf) < 20 {
		return fmt.Errorf("superblock: short buffer (%d bytes)", len(buf))
	}
	if binary.LittleEndian.Uint64(buf[0:8]) != superblockMagic {
		return fmt.Errorf("superblock: bad magic")
	}
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.startDevOffset = binary.LittleEndian.Uint64(buf[12:20])
	off := 20

	bitsetLen := int(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	sb.ids = newIDReserver()
	if err := sb.ids.reserved.UnmarshalBinary(buf[off : off+bitsetLen]); err != nil {
		return fmt.Errorf("superblock: unmarshal bitset: %w", err)
	}
	off += bitsetLen

	ngarbage := int(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	for i := 0; i < ngarbage; i++ {
		id := binary.LittleEndian.Uint32(buf[off : off+4])
		watermark := LogIdx(binary.LittleEndian.Uint64(buf[off+4 : off+12]))
		sb.ids.garbage[id] = watermark
		off += 12
	}

	nstores := int(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	sb.storeMeta = make(map[uint32]StoreMeta, nstores)
	for i := 0; i < nstores; i++ {
		id := binary.LittleEndian.Uint32(buf[off : off+4])
		metaLen := int(binary.LittleEndian.Uint32(buf[off+4 : off+8]))
		off += 8
		meta := append(StoreMeta(nil), buf[off:off+metaLen]...)
		sb.storeMeta[id] = meta
		off += metaLen
	}
	return nil
}

// persist serializes the current state and writes it through the
// metastore, growing the underlying buffer (resize_if_needed) as needed.
func (sb *superblock) persist() error {
	sb.mu.Lock()
	serialized := sb.marshal()
	if cap(sb.buf) < len(serialized) {
		sb.buf = make([]byte, len(serialized))
	}
	sb.buf = sb.buf[:len(serialized)]
	copy(sb.buf, serialized)
	buf := sb.buf
	hasCookie := sb.found
	cookie := sb.cookie
	sb.mu.Unlock()

	if !hasCookie {
		newCookie, err := sb.store.AddSubSB(superblockSubSBName, buf)
		if err != nil {
			return err
		}
		sb.mu.Lock()
		sb.cookie = newCookie
		sb.found = true
		sb.mu.Unlock()
		return nil
	}
	return sb.store.UpdateSubSB(cookie, buf)
}

// updateStartDevOffset records the device offset recovery should resume
// scanning from. When persistNow is false the caller is batching this
// update with other superblock changes and will persist once itself.
func (sb *superblock) updateStartDevOffset(offset uint64, persistNow bool) error {
	sb.mu.Lock()
	sb.startDevOffset = offset
	sb.mu.Unlock()
	if !persistNow {
		return nil
	}
	return sb.persist()
}

func (sb *superblock) getStartDevOffset() uint64 {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.startDevOffset
}

// reserveStore allocates a new store id and records its initial metadata.
func (sb *superblock) reserveStore(meta StoreMeta) (uint32, error) {
	id := sb.ids.reserve()
	sb.mu.Lock()
	sb.storeMeta[id] = meta
	sb.mu.Unlock()
	if err := sb.persist(); err != nil {
		return 0, err
	}
	return id, nil
}

// unreserveStore parks id for garbage collection; it becomes reusable once
// truncate() observes watermarkIdx has been truncated away.
func (sb *superblock) unreserveStore(id uint32, watermarkIdx LogIdx) error {
	sb.ids.unreserve(id, watermarkIdx)
	sb.mu.Lock()
	delete(sb.storeMeta, id)
	sb.mu.Unlock()
	return sb.persist()
}

func (sb *superblock) updateStoreMeta(id uint32, meta StoreMeta) error {
	if !sb.ids.isReserved(id) {
		return fmt.Errorf("logdev: store %d is not reserved", id)
	}
	sb.mu.Lock()
	sb.storeMeta[id] = meta
	sb.mu.Unlock()
	return sb.persist()
}

func (sb *superblock) storeMetaOf(id uint32) (StoreMeta, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	m, ok := sb.storeMeta[id]
	return m, ok
}

func (sb *superblock) registeredStoreIDs() []uint32 { return sb.ids.activeIDs() }

// onTruncate frees any garbage store ids whose watermark has now been
// truncated away. When persistNow is false the caller is batching this
// update with other superblock changes and will persist once itself.
func (sb *superblock) onTruncate(upto LogIdx, persistNow bool) error {
	freed := sb.ids.truncate(upto)
	if len(freed) == 0 || !persistNow {
		return nil
	}
	return sb.persist()
}

// snapshotStoreMeta returns a defensive copy of every reserved store id's
// metadata, used by LogDev.StoreMetaSnapshot.
func (sb *superblock) snapshotStoreMeta() map[uint32]StoreMeta {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	out := make(map[uint32]StoreMeta, len(sb.storeMeta))
	for k, v := range sb.storeMeta {
		out[k] = v
	}
	return out
}
