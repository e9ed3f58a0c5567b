package main

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/rzbill/logdev/internal/config"
	"github.com/rzbill/logdev/internal/logdev"
	pebblestore "github.com/rzbill/logdev/internal/storage/pebble"
	"github.com/rzbill/logdev/internal/runtime"
	idpkg "github.com/rzbill/logdev/pkg/id"
	logpkg "github.com/rzbill/logdev/pkg/log"
)

// seqGen hands out default store sequence numbers for the append command
// when the caller doesn't pin one. The append command keeps only the
// millisecond-timestamp half of each pkg/id ID, so invocations made in
// different milliseconds get distinct, increasing sequence numbers.
var seqGen = idpkg.NewGenerator()

func main() {
	level := os.Getenv("LOGDEV_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "logdevctl",
		Short: "LogDev device CLI",
		Long:  "logdevctl formats, appends to, and inspects a LogDev device from the command line.",
	}
	rootCmd.PersistentFlags().String("data-dir", cfgpkg.DefaultDataDir(), "metadata store directory")
	rootCmd.PersistentFlags().String("device", "logdev.data", "path to the backing device file")
	rootCmd.PersistentFlags().Uint64("device-size", 1<<30, "device capacity in bytes (0 for unbounded)")

	rootCmd.AddCommand(
		formatCmd(logger),
		appendCmd(logger),
		readCmd(logger),
		recoverCmd(logger),
		truncateCmd(logger),
		reserveStoreCmd(logger),
		statCmd(logger),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openRuntime(cmd *cobra.Command, logger logpkg.Logger, format bool) (*runtime.Runtime, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	device, _ := cmd.Flags().GetString("device")
	deviceSize, _ := cmd.Flags().GetUint64("device-size")

	cfg := cfgpkg.Default()
	cfg.DataDir = dataDir
	cfg.DevicePath = device
	cfg.DeviceSize = deviceSize

	return runtime.Open(runtime.Options{
		DataDir: dataDir,
		Fsync:   pebblestore.FsyncModeAlways,
		Config:  cfg,
		Format:  format,
		Logger:  logger,
	})
}

func formatCmd(logger logpkg.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "format",
		Short: "Initialize a fresh device and metadata store, discarding anything present",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd, logger, true)
			if err != nil {
				return err
			}
			defer rt.Close()
			fmt.Println("logdevctl: formatted")
			return nil
		},
	}
}

func appendCmd(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append a payload to a reserved store",
		RunE: func(cmd *cobra.Command, args []string) error {
			storeID, _ := cmd.Flags().GetUint32("store")
			seq, _ := cmd.Flags().GetUint64("seq")
			payload, _ := cmd.Flags().GetString("payload")
			waitMs, _ := cmd.Flags().GetInt("wait-ms")

			rt, err := openRuntime(cmd, logger, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if seq == 0 {
				gen := seqGen.Next().Bytes()
				seq = binary.BigEndian.Uint64(gen[0:8])
			}

			done := make(chan logdev.Key, 1)
			rt.LogDev().SetAppendCompletionCB(func(sid uint32, recordKey logdev.Key, groupFlushKey logdev.Key, distanceToUpto int, context any) {
				if sid == storeID {
					select {
					case done <- recordKey:
					default:
					}
				}
			})

			idx, err := rt.LogDev().AppendAsync(storeID, seq, []byte(payload), nil)
			if err != nil {
				return err
			}

			select {
			case key := <-done:
				fmt.Printf("logdevctl: appended idx=%d devOffset=%d\n", key.Idx, key.DevOffset)
			case <-time.After(time.Duration(waitMs) * time.Millisecond):
				fmt.Printf("logdevctl: appended idx=%d (flush pending)\n", idx)
			}
			return nil
		},
	}
	cmd.Flags().Uint32("store", 0, "store id to append to")
	cmd.Flags().Uint64("seq", 0, "store sequence number (0 generates one)")
	cmd.Flags().String("payload", "", "payload bytes, as a UTF-8 string")
	cmd.Flags().Int("wait-ms", 2000, "how long to wait for the flush to land before returning")
	return cmd
}

func readCmd(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read a single record by idx and device offset",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, _ := cmd.Flags().GetInt64("idx")
			offset, _ := cmd.Flags().GetUint64("offset")

			rt, err := openRuntime(cmd, logger, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			payload, err := rt.LogDev().Read(logdev.Key{Idx: logdev.LogIdx(idx), DevOffset: offset})
			if err != nil {
				return err
			}
			fmt.Println(base64.StdEncoding.EncodeToString(payload))
			return nil
		},
	}
	cmd.Flags().Int64("idx", 0, "record idx")
	cmd.Flags().Uint64("offset", 0, "device offset of the owning group")
	return cmd
}

func recoverCmd(logger logpkg.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Load the device and report the recovered tail",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd, logger, false)
			if err != nil {
				return err
			}
			defer rt.Close()
			fmt.Println("logdevctl: recovered and running")
			return nil
		},
	}
}

func truncateCmd(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "truncate",
		Short: "Drop every record at or below idx and reclaim the device space up to offset",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, _ := cmd.Flags().GetInt64("idx")
			offset, _ := cmd.Flags().GetUint64("offset")

			rt, err := openRuntime(cmd, logger, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.LogDev().Truncate(logdev.Key{Idx: logdev.LogIdx(idx), DevOffset: offset}); err != nil {
				return err
			}
			fmt.Println("logdevctl: truncated")
			return nil
		},
	}
	cmd.Flags().Int64("idx", 0, "highest idx to drop, inclusive")
	cmd.Flags().Uint64("offset", 0, "device offset of the group starting the still-needed range")
	return cmd
}

func reserveStoreCmd(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reserve-store",
		Short: "Reserve a new store id",
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, _ := cmd.Flags().GetString("meta")

			rt, err := openRuntime(cmd, logger, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			var metaBytes logdev.StoreMeta
			if meta != "" {
				metaBytes = logdev.StoreMeta(meta)
			}
			id, err := rt.LogDev().ReserveStoreID(metaBytes)
			if err != nil {
				return err
			}
			fmt.Printf("logdevctl: reserved store id %d\n", id)
			return nil
		},
	}
	cmd.Flags().String("meta", "", "opaque metadata to associate with the new store")
	return cmd
}

func statCmd(logger logpkg.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "stat",
		Short: "Print registered store ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd, logger, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			ids := rt.LogDev().GetRegisteredStoreIDs()
			if len(ids) == 0 {
				fmt.Println("logdevctl: no registered stores")
				return nil
			}
			meta := rt.LogDev().StoreMetaSnapshot()
			for _, id := range ids {
				fmt.Printf("%s\t%s\n", strconv.FormatUint(uint64(id), 10), meta[id])
			}
			return nil
		},
	}
}
