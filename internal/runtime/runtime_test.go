package runtime

import (
	"context"
	"path/filepath"
	"testing"

	cfgpkg "github.com/rzbill/logdev/internal/config"
	pebblestore "github.com/rzbill/logdev/internal/storage/pebble"
)

func testConfig(dir string) cfgpkg.Config {
	cfg := cfgpkg.Default()
	cfg.DevicePath = filepath.Join(dir, "logdev.data")
	cfg.DeviceSize = 8 << 20
	return cfg
}

func TestOpenCloseHealth(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: testConfig(dir), Format: true})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	defer rt.Close()
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestAppendThroughRuntime(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: testConfig(dir), Format: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()

	storeID, err := rt.LogDev().ReserveStoreID(nil)
	if err != nil {
		t.Fatalf("reserve store: %v", err)
	}
	if _, err := rt.LogDev().AppendAsync(storeID, 1, []byte("hello"), nil); err != nil {
		t.Fatalf("append: %v", err)
	}
}
