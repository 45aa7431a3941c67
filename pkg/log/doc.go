// Package log provides protocol event capture for the lighting stack.
//
// This is separate from operational logging (slog). Capture produces a
// complete machine-readable trace of what crossed the socket and how the
// engine and supervisor reacted, for offline debugging with rgb-log.
//
// # Basic Usage
//
//	// Console, at debug level
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Binary capture file
//	fl, _ := log.NewFileLogger("/tmp/rgbd.rlog")
//	cfg.ProtocolLogger = fl
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # Event Types
//
//   - Transport: raw header+payload bytes (FrameEvent)
//   - Protocol: decoded packet summaries with round-trip time (PacketEvent)
//   - Engine and Supervisor: lifecycle transitions (StateChangeEvent)
//
// Errors at any layer carry an ErrorEventData.
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with integer keys,
// conventionally using the .rlog extension.
package log
