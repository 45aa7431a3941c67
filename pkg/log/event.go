package log

import (
	"time"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/wire"
)

// Event is one captured occurrence at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the protocol session (UUID). Empty for
	// events not tied to a session.
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	Direction Direction `cbor:"3,keyasint"`
	Layer     Layer     `cbor:"4,keyasint"`
	Category  Category  `cbor:"5,keyasint"`

	// RemoteAddr is the server address (host:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// DeviceIndex is the controller index, when the event concerns one.
	DeviceIndex *uint32 `cbor:"7,keyasint,omitempty"`

	// Exactly one of these is set.
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Packet      *PacketEvent      `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Direction indicates the direction of data flow.
type Direction uint8

const (
	// DirectionIn is server to client.
	DirectionIn Direction = 0
	// DirectionOut is client to server.
	DirectionOut Direction = 1
	// DirectionNone is used for local events.
	DirectionNone Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionNone:
		return "LOCAL"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which component captured the event.
type Layer uint8

const (
	// LayerTransport is raw framing.
	LayerTransport Layer = 0
	// LayerProtocol is decoded packets.
	LayerProtocol Layer = 1
	// LayerEngine is the effect engine.
	LayerEngine Layer = 2
	// LayerSupervisor is the server supervisor.
	LayerSupervisor Layer = 3
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerProtocol:
		return "PROTOCOL"
	case LayerEngine:
		return "ENGINE"
	case LayerSupervisor:
		return "SUPERVISOR"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event.
type Category uint8

const (
	// CategoryMessage is a packet or frame.
	CategoryMessage Category = 0
	// CategoryState is a lifecycle transition.
	CategoryState Category = 1
	// CategoryError is a failure.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw bytes at the transport layer.
type FrameEvent struct {
	// Size is header plus payload, in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw bytes, possibly truncated.
	Data []byte `cbor:"2,keyasint,omitempty"`

	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// PacketEvent captures a decoded packet header.
type PacketEvent struct {
	Type        wire.PacketType `cbor:"1,keyasint"`
	PayloadSize uint32          `cbor:"2,keyasint"`

	// RoundTrip is the time between request and response (responses only).
	RoundTrip *time.Duration `cbor:"3,keyasint,omitempty"`

	// Unsolicited marks packets the server pushed without a request.
	Unsolicited bool `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures lifecycle transitions.
type StateChangeEvent struct {
	Entity   StateEntity `cbor:"1,keyasint"`
	Name     string      `cbor:"2,keyasint,omitempty"`
	OldState string      `cbor:"3,keyasint,omitempty"`
	NewState string      `cbor:"4,keyasint"`
	Reason   string      `cbor:"5,keyasint,omitempty"`
}

// StateEntity indicates what changed state.
type StateEntity uint8

const (
	// StateEntityConnection is the protocol session.
	StateEntityConnection StateEntity = 0
	// StateEntityServer is the server subprocess.
	StateEntityServer StateEntity = 1
	// StateEntityEffect is an effect instance.
	StateEntityEffect StateEntity = 2
	// StateEntityDevice is a controller's enabled state.
	StateEntityDevice StateEntity = 3
)

// String returns the entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityServer:
		return "SERVER"
	case StateEntityEffect:
		return "EFFECT"
	case StateEntityDevice:
		return "DEVICE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures a failure at any layer.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`

	// Context describes the operation that failed.
	Context string `cbor:"3,keyasint,omitempty"`
}

// Uint32Ptr returns a pointer to v, for Event.DeviceIndex.
func Uint32Ptr(v uint32) *uint32 {
	return &v
}
