// Package version implements protocol version negotiation and per-packet
// version gating.
package version

import (
	"errors"
	"fmt"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/wire"
)

// DefaultMax is the highest protocol version this client speaks by default.
const DefaultMax uint32 = 4

// ErrUnsupportedOnVersion indicates an operation needs a newer protocol
// version than the one negotiated.
var ErrUnsupportedOnVersion = errors.New("operation not supported on protocol version")

// UnsupportedError reports a version-gated packet refused locally.
type UnsupportedError struct {
	Packet     wire.PacketType
	Required   uint32
	Negotiated uint32
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s requires protocol version %d, negotiated %d", e.Packet, e.Required, e.Negotiated)
}

// Unwrap returns ErrUnsupportedOnVersion.
func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupportedOnVersion
}

// Negotiate returns the version both sides speak: the lower of the two.
func Negotiate(client, server uint32) uint32 {
	return min(client, server)
}

// MinVersion returns the first protocol version that carries pt.
// Unknown packet types report 0.
func MinVersion(pt wire.PacketType) uint32 {
	m := mustManifest()
	if v, ok := m.packetSince[pt]; ok {
		return v
	}
	return 0
}

// Check returns an *UnsupportedError when pt is not available on the
// negotiated version.
func Check(pt wire.PacketType, negotiated uint32) error {
	required := MinVersion(pt)
	if negotiated < required {
		return &UnsupportedError{Packet: pt, Required: required, Negotiated: negotiated}
	}
	return nil
}

// Supports reports whether the named feature is available on version v.
func Supports(feature string, v uint32) bool {
	f, ok := mustManifest().Features[feature]
	return ok && v >= f.Since
}
