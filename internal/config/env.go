package config

import (
	"os"
	"strconv"
)

// FromEnv overlays LOGDEV_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("LOGDEV_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LOGDEV_DEVICE_PATH"); v != "" {
		cfg.DevicePath = v
	}
	if v := os.Getenv("LOGDEV_DEVICE_SIZE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.DeviceSize = n
		}
	}
	if v := os.Getenv("LOGDEV_DMA_BOUNDARY"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.DMABoundary = n
		}
	}
	if v := os.Getenv("LOGDEV_FLUSH_DATA_THRESHOLD_SIZE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.FlushDataThresholdSize = uint32(n)
		}
	}
	if v := os.Getenv("LOGDEV_MAX_TIME_BETWEEN_FLUSH_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxTimeBetweenFlushMs = n
		}
	}
	if v := os.Getenv("LOGDEV_FLUSH_TIMER_FREQUENCY_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.FlushTimerFrequencyMs = n
		}
	}
	if v := os.Getenv("LOGDEV_MAX_GROUP_SIZE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.MaxGroupSize = uint32(n)
		}
	}
	if v := os.Getenv("LOGDEV_MAX_IOV_COUNT"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.MaxIovCount = uint32(n)
		}
	}
	if v := os.Getenv("LOGDEV_INLINE_THRESHOLD"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.InlineThreshold = uint32(n)
		}
	}
	if v := os.Getenv("LOGDEV_INITIAL_READ_SIZE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.InitialReadSize = uint32(n)
		}
	}
	if v := os.Getenv("LOGDEV_FLUSH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FlushWorkers = n
		}
	}
}
