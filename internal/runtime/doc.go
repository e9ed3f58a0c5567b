// Package runtime wires a metastore.Store, a blockdevice.Device, a
// reactor.Reactor, and a logdev.LogDev into a single running instance. It
// exposes Open/Close and a basic health check.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg, Format: true})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	idx, _ := rt.LogDev().AppendAsync(storeID, seqNum, []byte("hello"), nil)
package runtime
