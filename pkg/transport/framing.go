package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/log"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/wire"
)

// Framing constants.
const (
	// DefaultMaxPayloadSize bounds a single payload (8 MiB). Controller
	// descriptions of large matrix keyboards stay well below this.
	DefaultMaxPayloadSize = 8 << 20

	// MaxLogFrameDataSize is the largest frame captured verbatim in
	// protocol logs; longer frames are truncated.
	MaxLogFrameDataSize = 4096
)

// PacketReader reads header-framed packets.
type PacketReader struct {
	r              io.Reader
	maxPayloadSize uint32
	hdr            [wire.HeaderSize]byte

	logger log.Logger
	connID string
}

// NewPacketReader creates a reader with the default payload limit.
func NewPacketReader(r io.Reader) *PacketReader {
	return &PacketReader{r: r, maxPayloadSize: DefaultMaxPayloadSize}
}

// SetMaxPayloadSize changes the payload limit.
func (pr *PacketReader) SetMaxPayloadSize(n uint32) {
	pr.maxPayloadSize = n
}

// SetLogger configures frame capture. Pass nil to disable.
func (pr *PacketReader) SetLogger(logger log.Logger, connID string) {
	pr.logger = logger
	pr.connID = connID
}

// ReadPacket reads one header and exactly PayloadSize bytes of payload,
// across as many partial reads as the stream delivers.
func (pr *PacketReader) ReadPacket() (wire.Header, []byte, error) {
	if _, err := io.ReadFull(pr.r, pr.hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return wire.Header{}, nil, fmt.Errorf("reading header: %w", err)
		}
		return wire.Header{}, nil, err
	}

	h, err := wire.UnpackHeader(pr.hdr[:])
	if err != nil {
		return wire.Header{}, nil, err
	}
	if h.PayloadSize > pr.maxPayloadSize {
		return h, nil, fmt.Errorf("%w: %s announces %d bytes, limit %d",
			ErrPayloadTooLarge, h.Type, h.PayloadSize, pr.maxPayloadSize)
	}

	payload := make([]byte, h.PayloadSize)
	if _, err := io.ReadFull(pr.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return h, nil, fmt.Errorf("reading %s payload: %w", h.Type, err)
	}

	if pr.logger != nil {
		pr.logger.Log(frameEvent(pr.connID, log.DirectionIn, pr.hdr[:], payload))
	}
	return h, payload, nil
}

// PacketWriter writes header-framed packets. Safe for concurrent use.
type PacketWriter struct {
	mu sync.Mutex
	w  io.Writer

	logger log.Logger
	connID string
}

// NewPacketWriter creates a writer.
func NewPacketWriter(w io.Writer) *PacketWriter {
	return &PacketWriter{w: w}
}

// SetLogger configures frame capture. Pass nil to disable.
func (pw *PacketWriter) SetLogger(logger log.Logger, connID string) {
	pw.logger = logger
	pw.connID = connID
}

// WritePacket writes the header and payload in one write.
func (pw *PacketWriter) WritePacket(deviceID uint32, pt wire.PacketType, payload []byte) error {
	pkt := wire.Packet(deviceID, pt, payload)

	pw.mu.Lock()
	defer pw.mu.Unlock()
	if _, err := pw.w.Write(pkt); err != nil {
		return fmt.Errorf("writing %s: %w", pt, err)
	}

	if pw.logger != nil {
		pw.logger.Log(frameEvent(pw.connID, log.DirectionOut, pkt[:wire.HeaderSize], pkt[wire.HeaderSize:]))
	}
	return nil
}

func frameEvent(connID string, dir log.Direction, hdr, payload []byte) log.Event {
	size := len(hdr) + len(payload)
	data := make([]byte, 0, min(size, MaxLogFrameDataSize))
	data = append(data, hdr...)
	truncated := false
	if room := MaxLogFrameDataSize - len(hdr); len(payload) > room {
		data = append(data, payload[:room]...)
		truncated = true
	} else {
		data = append(data, payload...)
	}

	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Frame: &log.FrameEvent{
			Size:      size,
			Data:      data,
			Truncated: truncated,
		},
	}
}
