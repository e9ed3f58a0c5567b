package log

import (
	"fmt"
	golog "log"
	"strings"
)

// ParseLevel parses a case-insensitive level name. An empty string or an
// unrecognized name returns an error; callers typically fall back to
// InfoLevel in that case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("log: unknown level %q", s)
	}
}

// stdLogWriter adapts a Logger into an io.Writer suitable for
// golog.SetOutput, so third-party packages that only know about the
// standard library logger (Pebble included) end up routed through ours.
type stdLogWriter struct {
	logger Logger
}

func (w stdLogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	if msg != "" {
		w.logger.Info(msg)
	}
	return len(p), nil
}

// RedirectStdLog points the standard library's default logger at logger,
// so output from packages using log.Print/log.Printf (e.g. Pebble) is
// captured by the same formatter/output pipeline as the rest of the
// process.
func RedirectStdLog(logger Logger) {
	golog.SetFlags(0)
	golog.SetOutput(stdLogWriter{logger: logger})
}
