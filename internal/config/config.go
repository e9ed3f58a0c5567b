package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level configuration loaded from file/env, overlaying
// logdev.Config's host-facing knobs plus storage/device placement.
type Config struct {
	DataDir     string `json:"dataDir"`
	DevicePath  string `json:"devicePath"`
	DeviceSize  uint64 `json:"deviceSize"`
	DMABoundary uint64 `json:"dmaBoundary"`

	FlushDataThresholdSize uint32        `json:"flushDataThresholdSize"`
	MaxTimeBetweenFlushMs  int64         `json:"maxTimeBetweenFlushMs"`
	FlushTimerFrequencyMs  int64         `json:"flushTimerFrequencyMs"`
	MaxGroupSize           uint32        `json:"maxGroupSize"`
	MaxIovCount            uint32        `json:"maxIovCount"`
	InlineThreshold        uint32        `json:"inlineThreshold"`
	InitialReadSize        uint32        `json:"initialReadSize"`
	FlushWorkers           int           `json:"flushWorkers"`
}

// MaxTimeBetweenFlush returns the configured flush deadline as a Duration.
func (c Config) MaxTimeBetweenFlush() time.Duration {
	return time.Duration(c.MaxTimeBetweenFlushMs) * time.Millisecond
}

// FlushTimerFrequency returns the configured timer tick as a Duration.
func (c Config) FlushTimerFrequency() time.Duration {
	return time.Duration(c.FlushTimerFrequencyMs) * time.Millisecond
}

// Default returns built-in defaults, mirroring logdev.DefaultConfig's
// values so a host that never touches config gets the same behavior as a
// bare logdev.New(logdev.DefaultConfig(), ...).
func Default() Config {
	return Config{
		DataDir:                DefaultDataDir(),
		DevicePath:             "logdev.data",
		DeviceSize:             1 << 30, // 1 GiB
		DMABoundary:            4096,
		FlushDataThresholdSize: 1 << 20,
		MaxTimeBetweenFlushMs:  1000,
		FlushTimerFrequencyMs:  100,
		MaxGroupSize:           4 << 20,
		MaxIovCount:            512,
		InlineThreshold:        512,
		InitialReadSize:        4096,
		FlushWorkers:           2,
	}
}

// Load reads configuration from a JSON file. If path is empty, returns
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return Config{}, errors.New("yaml config not supported yet; use JSON for now")
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
