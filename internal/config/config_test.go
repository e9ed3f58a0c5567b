package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.FlushDataThresholdSize != 1<<20 {
		t.Fatalf("default flush threshold")
	}
	if cfg.DMABoundary != 4096 {
		t.Fatalf("default dma boundary")
	}
	if cfg.MaxIovCount != 512 {
		t.Fatalf("default max iov count")
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "logdev.json")
	data := []byte(`{"flushDataThresholdSize":4096,"maxGroupSize":8192,"dmaBoundary":512}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FlushDataThresholdSize != 4096 {
		t.Fatalf("expected 4096, got %d", cfg.FlushDataThresholdSize)
	}
	if cfg.MaxGroupSize != 8192 {
		t.Fatalf("expected 8192, got %d", cfg.MaxGroupSize)
	}
	if cfg.DMABoundary != 512 {
		t.Fatalf("expected 512, got %d", cfg.DMABoundary)
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	os.Setenv("LOGDEV_FLUSH_DATA_THRESHOLD_SIZE", "2048")
	os.Setenv("LOGDEV_MAX_IOV_COUNT", "64")
	os.Setenv("LOGDEV_DMA_BOUNDARY", "8192")
	t.Cleanup(func() {
		os.Unsetenv("LOGDEV_FLUSH_DATA_THRESHOLD_SIZE")
		os.Unsetenv("LOGDEV_MAX_IOV_COUNT")
		os.Unsetenv("LOGDEV_DMA_BOUNDARY")
	})
	FromEnv(&cfg)
	if cfg.FlushDataThresholdSize != 2048 {
		t.Fatalf("env override flush threshold")
	}
	if cfg.MaxIovCount != 64 {
		t.Fatalf("env override max iov count")
	}
	if cfg.DMABoundary != 8192 {
		t.Fatalf("env override dma boundary")
	}
}
