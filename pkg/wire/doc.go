// Package wire defines the lighting-server wire format.
//
// Every packet starts with a fixed 16-byte header followed by a
// type-specific payload:
//
//	┌──────┬───────────┬─────────────┬──────────────┐
//	│ ORGB │ device_id │ packet_type │ payload_size │
//	│  4B  │  uint32   │   uint32    │    uint32    │
//	└──────┴───────────┴─────────────┴──────────────┘
//
// All integers are little-endian. The reference server writes them in host
// order and runs on little-endian hosts, so fixing little-endian here keeps
// bit compatibility while staying portable.
//
// Strings inside payloads are encoded as a uint16 length (including the
// terminating NUL) followed by the bytes and the NUL. Colors are four bytes:
// red, green, blue and one padding byte.
package wire
