// Package config provides loading and environment overlay for LogDev's
// host-facing configuration: where the device and metadata store live, and
// the logdev.Config tunables that govern flushing. It exposes a Default()
// baseline and a FromEnv overlay.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/logdev.json"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
package config
