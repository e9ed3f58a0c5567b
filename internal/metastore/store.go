package metastore

import (
	"errors"
	"fmt"

	pebblestore "github.com/rzbill/logdev/internal/storage/pebble"
)

// ErrNotFound names the absence of a sub-superblock. Find does not return
// it: Find reports a missing name with found == false and a nil error.
var ErrNotFound = errors.New("metastore: sub-superblock not found")

// Cookie identifies a previously-registered sub-superblock. It is opaque to
// callers, matching the C void* cookie in the original blkstore contract.
type Cookie struct {
	key []byte
}

// Store is the contract LogDev's superblock persists itself through.
type Store interface {
	// AddSubSB registers a new named sub-superblock and persists its
	// initial contents, returning a Cookie for subsequent updates.
	AddSubSB(name string, buf []byte) (Cookie, error)

	// UpdateSubSB overwrites the sub-superblock identified by cookie.
	UpdateSubSB(cookie Cookie, buf []byte) error

	// Find looks up a previously-registered sub-superblock by name, the
	// way the host scans for meta blocks at startup before calling
	// meta_blk_found.
	Find(name string) (buf []byte, cookie Cookie, found bool, err error)

	// IsAlignedBufNeeded reports whether buffers of the given size must be
	// DMA-aligned before being handed to AddSubSB/UpdateSubSB.
	IsAlignedBufNeeded(size int) bool
}

var metaKeyPrefix = []byte("metastore/subsb/")

func metaKey(name string) []byte {
	return append(append([]byte(nil), metaKeyPrefix...), name...)
}

// PebbleStore implements Store on top of internal/storage/pebble.
type PebbleStore struct {
	db *pebblestore.DB
}

// NewPebbleStore wraps an already-open pebblestore.DB.
func NewPebbleStore(db *pebblestore.DB) *PebbleStore {
	return &PebbleStore{db: db}
}

func (s *PebbleStore) AddSubSB(name string, buf []byte) (Cookie, error) {
	key := metaKey(name)
	if err := s.db.Set(key, buf); err != nil {
		return Cookie{}, fmt.Errorf("metastore: add_sub_sb %q: %w", name, err)
	}
	return Cookie{key: key}, nil
}

func (s *PebbleStore) UpdateSubSB(cookie Cookie, buf []byte) error {
	if len(cookie.key) == 0 {
		return errors.New("metastore: update_sub_sb called with zero-value cookie")
	}
	if err := s.db.Set(cookie.key, buf); err != nil {
		return fmt.Errorf("metastore: update_sub_sb: %w", err)
	}
	return nil
}

func (s *PebbleStore) Find(name string) ([]byte, Cookie, bool, error) {
	key := metaKey(name)
	buf, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return nil, Cookie{}, false, nil
		}
		return nil, Cookie{}, false, fmt.Errorf("metastore: find %q: %w", name, err)
	}
	return buf, Cookie{key: key}, true, nil
}

// IsAlignedBufNeeded is always false: Pebble copies the buffer into its own
// write-ahead log and memtable, so callers do not need DMA-aligned memory.
func (s *PebbleStore) IsAlignedBufNeeded(int) bool { return false }
