package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
)

// ErrShortBuffer indicates a payload ended before a field could be read.
var ErrShortBuffer = errors.New("short buffer")

// DecodeError describes where a payload decode failed.
type DecodeError struct {
	Field  string
	Offset int
	Need   int
	Have   int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s at offset %d: need %d bytes, have %d", e.Field, e.Offset, e.Need, e.Have)
}

// Unwrap returns ErrShortBuffer.
func (e *DecodeError) Unwrap() error {
	return ErrShortBuffer
}

// Encoder appends little-endian payload fields to a buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder creates an encoder with the given capacity hint.
func NewEncoder(capacity int) *Encoder {
	return &Encoder{buf: make([]byte, 0, capacity)}
}

// Uint16 appends v.
func (e *Encoder) Uint16(v uint16) *Encoder {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
	return e
}

// Uint32 appends v.
func (e *Encoder) Uint32(v uint32) *Encoder {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
	return e
}

// Int32 appends v.
func (e *Encoder) Int32(v int32) *Encoder {
	return e.Uint32(uint32(v))
}

// String appends a length-prefixed, NUL-terminated string.
func (e *Encoder) String(s string) *Encoder {
	e.Uint16(uint16(len(s) + 1))
	e.buf = append(e.buf, s...)
	e.buf = append(e.buf, 0)
	return e
}

// Color appends one 4-byte color.
func (e *Encoder) Color(c color.Color) *Encoder {
	e.buf = append(e.buf, c.R, c.G, c.B, 0)
	return e
}

// Colors appends a uint16 count followed by the colors.
func (e *Encoder) Colors(cs []color.Color) *Encoder {
	e.Uint16(uint16(len(cs)))
	for _, c := range cs {
		e.Color(c)
	}
	return e
}

// Raw appends b unchanged.
func (e *Encoder) Raw(b []byte) *Encoder {
	e.buf = append(e.buf, b...)
	return e
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Bytes returns the encoded payload.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// SizePrefixed returns the payload with a leading uint32 holding the total
// size, including the prefix itself.
func (e *Encoder) SizePrefixed() []byte {
	out := make([]byte, 4, 4+len(e.buf))
	binary.LittleEndian.PutUint32(out, uint32(4+len(e.buf)))
	return append(out, e.buf...)
}

// CString returns s followed by a NUL byte.
func CString(s string) []byte {
	b := make([]byte, 0, len(s)+1)
	b = append(b, s...)
	return append(b, 0)
}

// ParseCString returns the bytes of b up to the first NUL.
func ParseCString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// Decoder reads little-endian payload fields from a buffer.
//
// The first failure is sticky: later reads return zero values and Err
// reports the original failure.
type Decoder struct {
	data []byte
	off  int
	err  error
}

// NewDecoder creates a decoder over data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

func (d *Decoder) take(field string, n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.data)-d.off < n {
		d.err = &DecodeError{Field: field, Offset: d.off, Need: n, Have: len(d.data) - d.off}
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

// Uint16 reads a uint16.
func (d *Decoder) Uint16(field string) uint16 {
	b := d.take(field, 2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// Uint32 reads a uint32.
func (d *Decoder) Uint32(field string) uint32 {
	b := d.take(field, 4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Int32 reads an int32.
func (d *Decoder) Int32(field string) int32 {
	return int32(d.Uint32(field))
}

// String reads a length-prefixed string and strips the trailing NUL.
func (d *Decoder) String(field string) string {
	n := int(d.Uint16(field + ".len"))
	b := d.take(field, n)
	if b == nil {
		return ""
	}
	return ParseCString(b)
}

// Color reads one 4-byte color.
func (d *Decoder) Color(field string) color.Color {
	b := d.take(field, 4)
	if b == nil {
		return color.Color{}
	}
	return color.Color{R: b[0], G: b[1], B: b[2]}
}

// Colors reads a uint16 count followed by that many colors.
func (d *Decoder) Colors(field string) []color.Color {
	n := int(d.Uint16(field + ".count"))
	if d.err != nil {
		return nil
	}
	if d.Remaining() < n*4 {
		d.take(field, n*4)
		return nil
	}
	out := make([]color.Color, n)
	for i := range out {
		out[i] = d.Color(field)
	}
	return out
}

// Skip advances past n bytes.
func (d *Decoder) Skip(field string, n int) {
	d.take(field, n)
}

// Offset returns the current read position.
func (d *Decoder) Offset() int {
	return d.off
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.off
}

// Err returns the first decode failure, if any.
func (d *Decoder) Err() error {
	return d.err
}
