package catalog

import (
	"errors"
	"fmt"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/wire"
)

// ErrParse is the sentinel wrapped by every *ParseError.
var ErrParse = errors.New("malformed payload")

// ParseError reports a malformed payload with device and packet context.
type ParseError struct {
	DeviceIndex uint32
	Packet      wire.PacketType
	Offset      int
	Field       string
	Err         error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s for device %d: field %s at offset %d: %v",
		e.Packet, e.DeviceIndex, e.Field, e.Offset, e.Err)
}

// Is matches ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// wrapDecode converts a decoder failure into a *ParseError.
func wrapDecode(idx uint32, pt wire.PacketType, err error) error {
	if err == nil {
		return nil
	}
	pe := &ParseError{DeviceIndex: idx, Packet: pt, Err: err}
	var de *wire.DecodeError
	if errors.As(err, &de) {
		pe.Field = de.Field
		pe.Offset = de.Offset
	}
	return pe
}
