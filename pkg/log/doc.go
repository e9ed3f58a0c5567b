// Package log provides LogDev's structured logging facade and utilities.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. BaseLogger formats each entry
// with its Formatter and writes it to its Outputs directly. Each logger also
// builds a slog.Handler bridge into that same formatter/outputs pipeline;
// the Logger methods do not go through it.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("server"), log.Str("ns", "default"))
//	l.Info("server started", log.Int("port", 8080))
//
// # Interop
//
// To integrate with libraries that only know about the standard library's
// log package (e.g. Pebble), use RedirectStdLog. To interop with slog
// directly, construct a Logger and pull attrs through its WithField/With
// methods; most code should stay against this facade rather than reaching
// into slog directly.
package log
