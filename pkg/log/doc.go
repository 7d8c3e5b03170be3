// Package log provides structured trace logging for the layout compiler.
//
// This package defines the Logger interface and Event types for capturing
// compiler events at multiple layers (registry, merge, state layout, build,
// query). It is separate from operational logging (slog) - trace capture
// provides a complete machine-readable record of what was registered,
// resolved and built, for debugging layout content.
//
// # Basic Usage
//
// Components accept a Logger; nil means NoopLogger:
//
//	// For development: log to console via slog
//	reg := registry.New(registry.WithLogger(log.NewSlogAdapter(slog.Default())))
//
//	// For tooling: write to binary file
//	trace, _ := log.NewFileLogger("/tmp/layoutc.ltrace")
//
//	// Both: use MultiLogger
//	logger := log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), trace)
//
// # Event Types
//
// Events carry one payload:
//   - Registry: layout added, replaced or removed (ChangeEvent)
//   - Build: device built or rebuilt (BuildEvent)
//   - Query: path query evaluated (QueryEvent)
//
// Errors at any layer have a dedicated payload.
//
// # File Format
//
// Trace files use CBOR encoding. "layoutc log view" prints them.
package log
