package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/log"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/version"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/wire"
)

// Config configures a Client.
type Config struct {
	// ClientName is announced with SET_CLIENT_NAME.
	ClientName string

	// MaxProtocolVersion is the highest version the client offers.
	MaxProtocolVersion uint32

	// DialTimeout bounds the TCP connect (default: 2s).
	DialTimeout time.Duration

	// HandshakeTimeout bounds the wait for the version reply; servers that
	// stay silent are treated as version 0 (default: 1s).
	HandshakeTimeout time.Duration

	// RequestTimeout bounds both the request-lock acquire and the wait for
	// a response (default: 10s).
	RequestTimeout time.Duration

	// MaxPayloadSize bounds incoming payloads (default: 8 MiB).
	MaxPayloadSize uint32

	// Logger receives operational logs. Nil disables them.
	Logger *slog.Logger

	// ProtocolLogger receives frame and packet capture events. Nil
	// disables capture.
	ProtocolLogger log.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		ClientName:         "rgbd",
		MaxProtocolVersion: version.DefaultMax,
		DialTimeout:        2 * time.Second,
		HandshakeTimeout:   time.Second,
		RequestTimeout:     10 * time.Second,
		MaxPayloadSize:     DefaultMaxPayloadSize,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.ClientName == "" {
		c.ClientName = d.ClientName
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = d.DialTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.MaxPayloadSize == 0 {
		c.MaxPayloadSize = d.MaxPayloadSize
	}
}

// errNoResponse is returned by roundTrip when the response wait expires.
var errNoResponse = errors.New("no response")

type response struct {
	payload []byte
}

// pendingRequest is the single request awaiting its response.
type pendingRequest struct {
	deviceID uint32
	pt       wire.PacketType
	ch       chan response
}

// Client is a connected protocol session.
type Client struct {
	config Config
	conn   net.Conn
	reader *PacketReader
	writer *PacketWriter
	connID string

	// sem is the request lock.
	sem chan struct{}

	pendingMu sync.Mutex
	pending   *pendingRequest

	negotiated   atomic.Uint32
	serverVer    atomic.Uint32
	listMu       sync.RWMutex
	listHandler  func()
	readLoopDone chan struct{}

	closeOnce sync.Once
	done      chan struct{}
	err       error
}

// Dial connects to addr and performs the version handshake.
func Dial(ctx context.Context, addr string, config Config) (*Client, error) {
	config.applyDefaults()

	dialer := &net.Dialer{Timeout: config.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c, err := NewClient(ctx, conn, config)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewClient wraps an established connection and performs the version
// handshake. The client owns conn from here on.
func NewClient(ctx context.Context, conn net.Conn, config Config) (*Client, error) {
	config.applyDefaults()

	c := &Client{
		config:       config,
		conn:         conn,
		reader:       NewPacketReader(conn),
		writer:       NewPacketWriter(conn),
		connID:       uuid.New().String(),
		sem:          make(chan struct{}, 1),
		readLoopDone: make(chan struct{}),
		done:         make(chan struct{}),
	}
	c.reader.SetMaxPayloadSize(config.MaxPayloadSize)
	if config.ProtocolLogger != nil {
		c.reader.SetLogger(config.ProtocolLogger, c.connID)
		c.writer.SetLogger(config.ProtocolLogger, c.connID)
	}

	go c.readLoop()

	if err := c.handshake(ctx); err != nil {
		c.fail(err)
		return nil, fmt.Errorf("handshake: %w", err)
	}

	c.logState("", "CONNECTED", fmt.Sprintf("protocol version %d", c.ProtocolVersion()))
	c.debugLog("connected",
		"addr", conn.RemoteAddr().String(),
		"server_version", c.serverVer.Load(),
		"negotiated", c.ProtocolVersion())
	return c, nil
}

// handshake negotiates the protocol version and announces the client name.
func (c *Client) handshake(ctx context.Context) error {
	offer := binary.LittleEndian.AppendUint32(nil, c.config.MaxProtocolVersion)

	if err := c.acquire(ctx); err != nil {
		return err
	}
	resp, err := c.roundTrip(ctx, 0, wire.RequestProtocolVersion, offer, c.config.HandshakeTimeout)
	c.release()

	switch {
	case errors.Is(err, errNoResponse):
		c.debugLog("no version reply, assuming protocol version 0")
		c.serverVer.Store(0)
	case err != nil:
		return err
	case len(resp) < 4:
		return fmt.Errorf("%w: %s reply has %d bytes", ErrShortResponse, wire.RequestProtocolVersion, len(resp))
	default:
		c.serverVer.Store(binary.LittleEndian.Uint32(resp))
	}
	c.negotiated.Store(version.Negotiate(c.config.MaxProtocolVersion, c.serverVer.Load()))

	return c.send(ctx, 0, wire.SetClientName, wire.CString(c.config.ClientName))
}

// ProtocolVersion returns the negotiated protocol version.
func (c *Client) ProtocolVersion() uint32 {
	return c.negotiated.Load()
}

// ServerVersion returns the version the server advertised.
func (c *Client) ServerVersion() uint32 {
	return c.serverVer.Load()
}

// ConnectionID returns the session identifier used in capture events.
func (c *Client) ConnectionID() string {
	return c.connID
}

// RemoteAddr returns the server address.
func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SetDeviceListUpdatedHandler registers fn for DEVICE_LIST_UPDATED
// notifications. fn runs on its own goroutine and may call back into the
// client.
func (c *Client) SetDeviceListUpdatedHandler(fn func()) {
	c.listMu.Lock()
	defer c.listMu.Unlock()
	c.listHandler = fn
}

// Done is closed when the session ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns why the session ended, or nil while it is open.
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close ends the session and waits for the reader to exit.
func (c *Client) Close() error {
	c.fail(ErrClosed)
	<-c.readLoopDone
	return nil
}

// fail ends the session once, recording cause.
func (c *Client) fail(cause error) {
	c.closeOnce.Do(func() {
		c.err = fmt.Errorf("%w: %w", ErrDisconnected, cause)
		close(c.done)
		_ = c.conn.Close()

		if !errors.Is(cause, ErrClosed) {
			c.warnLog("session lost", "error", cause)
		}
		c.logState("CONNECTED", "DISCONNECTED", cause.Error())
	})
}

// acquire takes the request lock.
func (c *Client) acquire(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	default:
	}

	timer := time.NewTimer(c.config.RequestTimeout)
	defer timer.Stop()

	select {
	case c.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: request lock not acquired within %s", ErrServerUnresponsive, c.config.RequestTimeout)
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return c.err
	}
}

func (c *Client) release() {
	<-c.sem
}

// send writes a packet that has no response.
func (c *Client) send(ctx context.Context, deviceID uint32, pt wire.PacketType, payload []byte) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()
	return c.write(deviceID, pt, payload)
}

// request writes a packet and waits for the matching response. A response
// that never arrives leaves the stream out of step, so the session is
// closed.
func (c *Client) request(ctx context.Context, deviceID uint32, pt wire.PacketType, payload []byte) ([]byte, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	resp, err := c.roundTrip(ctx, deviceID, pt, payload, c.config.RequestTimeout)
	if errors.Is(err, errNoResponse) {
		err = fmt.Errorf("%w: no %s reply within %s", ErrServerUnresponsive, pt, c.config.RequestTimeout)
		c.fail(err)
	}
	return resp, err
}

// roundTrip registers the pending request, writes it and waits. The
// caller holds the request lock.
func (c *Client) roundTrip(ctx context.Context, deviceID uint32, pt wire.PacketType, payload []byte, wait time.Duration) ([]byte, error) {
	p := &pendingRequest{deviceID: deviceID, pt: pt, ch: make(chan response, 1)}
	c.pendingMu.Lock()
	c.pending = p
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		if c.pending == p {
			c.pending = nil
		}
		c.pendingMu.Unlock()
	}()

	start := time.Now()
	if err := c.write(deviceID, pt, payload); err != nil {
		return nil, err
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case r := <-p.ch:
		c.logPacket(log.DirectionIn, deviceID, pt, uint32(len(r.payload)), time.Since(start))
		return r.payload, nil
	case <-timer.C:
		return nil, errNoResponse
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, c.err
	}
}

// write sends one packet. The caller holds the request lock.
func (c *Client) write(deviceID uint32, pt wire.PacketType, payload []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.RequestTimeout))
	if err := c.writer.WritePacket(deviceID, pt, payload); err != nil {
		c.fail(err)
		return c.err
	}
	c.logPacket(log.DirectionOut, deviceID, pt, uint32(len(payload)), 0)
	return nil
}

// readLoop owns the read side of the socket.
func (c *Client) readLoop() {
	defer close(c.readLoopDone)

	for {
		h, payload, err := c.reader.ReadPacket()
		if err != nil {
			c.fail(err)
			return
		}

		if h.Type == wire.DeviceListUpdated {
			c.handleDeviceListUpdated()
			continue
		}

		c.pendingMu.Lock()
		p := c.pending
		if p != nil && p.deviceID == h.DeviceID && p.pt == h.Type {
			c.pending = nil
		} else {
			p = nil
		}
		c.pendingMu.Unlock()

		if p == nil {
			c.debugLog("dropping unexpected packet", "type", h.Type, "device", h.DeviceID, "size", h.PayloadSize)
			continue
		}
		p.ch <- response{payload: payload}
	}
}

func (c *Client) handleDeviceListUpdated() {
	c.debugLog("device list updated")
	if c.config.ProtocolLogger != nil {
		c.config.ProtocolLogger.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: c.connID,
			Direction:    log.DirectionIn,
			Layer:        log.LayerProtocol,
			Category:     log.CategoryMessage,
			Packet:       &log.PacketEvent{Type: wire.DeviceListUpdated, Unsolicited: true},
		})
	}

	c.listMu.RLock()
	fn := c.listHandler
	c.listMu.RUnlock()
	if fn != nil {
		go fn()
	}
}

func (c *Client) logPacket(dir log.Direction, deviceID uint32, pt wire.PacketType, size uint32, rtt time.Duration) {
	if c.config.ProtocolLogger == nil {
		return
	}
	ev := &log.PacketEvent{Type: pt, PayloadSize: size}
	if dir == log.DirectionIn {
		ev.RoundTrip = &rtt
	}
	c.config.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    dir,
		Layer:        log.LayerProtocol,
		Category:     log.CategoryMessage,
		RemoteAddr:   c.conn.RemoteAddr().String(),
		DeviceIndex:  log.Uint32Ptr(deviceID),
		Packet:       ev,
	})
}

func (c *Client) logState(oldState, newState, reason string) {
	if c.config.ProtocolLogger == nil {
		return
	}
	c.config.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    log.DirectionNone,
		Layer:        log.LayerProtocol,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

// debugLog logs at debug level if a logger is configured.
func (c *Client) debugLog(msg string, args ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, append(args, "conn_id", c.connID)...)
	}
}

func (c *Client) warnLog(msg string, args ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Warn(msg, append(args, "conn_id", c.connID)...)
	}
}
