package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderSize is the fixed size of a packet header.
const HeaderSize = 16

// Magic opens every packet header.
var Magic = [4]byte{'O', 'R', 'G', 'B'}

// Header errors.
var (
	// ErrBadMagic indicates the header did not start with "ORGB".
	ErrBadMagic = errors.New("bad header magic")

	// ErrShortHeader indicates fewer than HeaderSize bytes were supplied.
	ErrShortHeader = errors.New("short header")
)

// Header is the fixed packet header.
type Header struct {
	DeviceID    uint32
	Type        PacketType
	PayloadSize uint32
}

// Pack encodes the header.
func (h Header) Pack() [HeaderSize]byte {
	var b [HeaderSize]byte
	copy(b[0:4], Magic[:])
	binary.LittleEndian.PutUint32(b[4:8], h.DeviceID)
	binary.LittleEndian.PutUint32(b[8:12], uint32(h.Type))
	binary.LittleEndian.PutUint32(b[12:16], h.PayloadSize)
	return b
}

// UnpackHeader decodes a header from the first HeaderSize bytes of b.
func UnpackHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(b))
	}
	if b[0] != Magic[0] || b[1] != Magic[1] || b[2] != Magic[2] || b[3] != Magic[3] {
		return Header{}, fmt.Errorf("%w: % x", ErrBadMagic, b[0:4])
	}
	return Header{
		DeviceID:    binary.LittleEndian.Uint32(b[4:8]),
		Type:        PacketType(binary.LittleEndian.Uint32(b[8:12])),
		PayloadSize: binary.LittleEndian.Uint32(b[12:16]),
	}, nil
}

// Packet builds a complete packet: header followed by payload.
func Packet(deviceID uint32, pt PacketType, payload []byte) []byte {
	h := Header{DeviceID: deviceID, Type: pt, PayloadSize: uint32(len(payload))}
	hb := h.Pack()
	buf := make([]byte, 0, HeaderSize+len(payload))
	buf = append(buf, hb[:]...)
	return append(buf, payload...)
}
