package transport

import (
	"errors"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/version"
)

// Transport errors.
var (
	// ErrDisconnected indicates the session is gone. Wrapped errors carry
	// the cause.
	ErrDisconnected = errors.New("disconnected")

	// ErrServerUnresponsive indicates the request lock or a response did
	// not arrive within RequestTimeout.
	ErrServerUnresponsive = errors.New("server unresponsive")

	// ErrClosed is the cause recorded when Close is called.
	ErrClosed = errors.New("client closed")

	// ErrPayloadTooLarge indicates a header announced more than
	// MaxPayloadSize bytes.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrShortResponse indicates a response payload too small for its type.
	ErrShortResponse = errors.New("short response")
)

// ErrUnsupportedOnVersion is returned, wrapped in a
// *version.UnsupportedError, for packets above the negotiated version.
var ErrUnsupportedOnVersion = version.ErrUnsupportedOnVersion
