package metastore

import (
	"testing"

	pebblestore "github.com/rzbill/logdev/internal/storage/pebble"
)

func newTestPebbleDB(t *testing.T) *pebblestore.DB {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
