// Package fakeserver is an in-process stand-in for the lighting server,
// used by tests. It speaks the wire protocol over loopback TCP, serves a
// configurable device list and records what clients write.
package fakeserver

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/catalog"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/wire"
)

// Config configures a Server.
type Config struct {
	// ProtocolVersion is the version the server advertises.
	ProtocolVersion uint32

	// Silent makes the server ignore REQUEST_PROTOCOL_VERSION, like
	// servers that predate version negotiation.
	Silent bool

	// Devices is the controller list.
	Devices []*model.Device

	Profiles []string
	Plugins  []catalog.Plugin

	// ChunkSize splits every reply into writes of at most this many bytes
	// with a short pause between them. Zero writes replies whole.
	ChunkSize int
}

// Server is a running stub server.
type Server struct {
	ln net.Listener

	mu         sync.Mutex
	cfg        Config
	conns      map[net.Conn]struct{}
	clientName string
	leds       map[uint32][]color.Color
	counts     map[wire.PacketType]int
	stall      bool
	lastMode   map[uint32]int32

	// wmu keeps replies and notifications from interleaving.
	wmu sync.Mutex

	wg     sync.WaitGroup
	closed chan struct{}
}

// New starts a server on an ephemeral loopback port.
func New(cfg Config) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	return Serve(ln, cfg), nil
}

// Serve starts a server on ln.
func Serve(ln net.Listener, cfg Config) *Server {
	s := &Server{
		ln:       ln,
		cfg:      cfg,
		conns:    make(map[net.Conn]struct{}),
		leds:     make(map[uint32][]color.Color),
		counts:   make(map[wire.PacketType]int),
		lastMode: make(map[uint32]int32),
		closed:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s
}

// Addr returns the listen address as host:port.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Port returns the listen port.
func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Close stops the server and drops every connection.
func (s *Server) Close() error {
	select {
	case <-s.closed:
		return nil
	default:
	}
	close(s.closed)
	err := s.ln.Close()
	s.DropConnections()
	s.wg.Wait()
	return err
}

// DropConnections closes every client connection, simulating a crash.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
}

// SetDevices replaces the controller list.
func (s *Server) SetDevices(devices []*model.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Devices = devices
}

// SetStall makes the server stop answering requests.
func (s *Server) SetStall(stall bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stall = stall
}

// NotifyDeviceListUpdated pushes DEVICE_LIST_UPDATED to every client.
func (s *Server) NotifyDeviceListUpdated() {
	s.mu.Lock()
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	s.wmu.Lock()
	defer s.wmu.Unlock()
	for _, c := range conns {
		_, _ = c.Write(wire.Packet(0, wire.DeviceListUpdated, nil))
	}
}

// ClientName returns the last announced client name.
func (s *Server) ClientName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientName
}

// LEDs returns the last colors written to controller idx.
func (s *Server) LEDs(idx uint32) []color.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.leds[idx])
}

// Count returns how many packets of type pt were received.
func (s *Server) Count(pt wire.PacketType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[pt]
}

// Profiles returns the current profile names.
func (s *Server) Profiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cfg.Profiles)
}

// ActiveMode returns the last mode index set on controller idx.
func (s *Server) ActiveMode(idx uint32) (int32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.lastMode[idx]
	return m, ok
}

// ConnectionCount returns the number of open client connections.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// WaitFor polls cond until it holds or timeout passes.
func WaitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		c, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[c] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serve(c)
	}
}

func (s *Server) serve(c net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		_ = c.Close()
	}()

	var hdr [wire.HeaderSize]byte
	for {
		if _, err := io.ReadFull(c, hdr[:]); err != nil {
			return
		}
		h, err := wire.UnpackHeader(hdr[:])
		if err != nil {
			return
		}
		payload := make([]byte, h.PayloadSize)
		if _, err := io.ReadFull(c, payload); err != nil {
			return
		}

		reply, ok := s.handle(h, payload)
		if !ok {
			continue
		}
		if err := s.write(c, wire.Packet(h.DeviceID, h.Type, reply)); err != nil {
			return
		}
	}
}

func (s *Server) write(c net.Conn, pkt []byte) error {
	s.mu.Lock()
	chunk := s.cfg.ChunkSize
	s.mu.Unlock()

	s.wmu.Lock()
	defer s.wmu.Unlock()

	if chunk <= 0 {
		_, err := c.Write(pkt)
		return err
	}
	for len(pkt) > 0 {
		n := min(chunk, len(pkt))
		if _, err := c.Write(pkt[:n]); err != nil {
			return err
		}
		pkt = pkt[n:]
		time.Sleep(time.Millisecond)
	}
	return nil
}

var errNoDevice = errors.New("no such device")

// handle applies one packet and returns the reply payload, if any.
func (s *Server) handle(h wire.Header, payload []byte) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[h.Type]++
	if s.stall && h.Type.ExpectsResponse() {
		return nil, false
	}

	switch h.Type {
	case wire.RequestProtocolVersion:
		if s.cfg.Silent {
			return nil, false
		}
		return binary.LittleEndian.AppendUint32(nil, s.cfg.ProtocolVersion), true

	case wire.SetClientName:
		s.clientName = wire.ParseCString(payload)

	case wire.RequestControllerCount:
		return binary.LittleEndian.AppendUint32(nil, uint32(len(s.cfg.Devices))), true

	case wire.RequestControllerData:
		v := uint32(0)
		if len(payload) >= 4 {
			v = binary.LittleEndian.Uint32(payload)
		}
		v = min(v, s.cfg.ProtocolVersion)
		dev, err := s.device(h.DeviceID)
		if err != nil {
			return nil, false
		}
		return catalog.Encode(v, dev), true

	case wire.RGBControllerUpdateLEDs:
		if cs, err := wire.ParseUpdateLEDs(payload); err == nil {
			s.leds[h.DeviceID] = cs
		}

	case wire.RGBControllerUpdateZoneLEDs:
		zone, cs, err := wire.ParseUpdateZoneLEDs(payload)
		dev, derr := s.device(h.DeviceID)
		if err != nil || derr != nil || int(zone) >= len(dev.Zones) {
			break
		}
		buf := s.ledBuffer(h.DeviceID, dev)
		copy(buf[dev.Zones[zone].Start:dev.Zones[zone].End()], cs)

	case wire.RGBControllerUpdateSingleLED:
		led, c, err := wire.ParseUpdateSingleLED(payload)
		dev, derr := s.device(h.DeviceID)
		if err != nil || derr != nil || led < 0 || int(led) >= dev.LEDCount() {
			break
		}
		s.ledBuffer(h.DeviceID, dev)[led] = c

	case wire.RGBControllerUpdateMode, wire.RGBControllerSaveMode:
		if idx, _, err := catalog.ParseModePayload(s.cfg.ProtocolVersion, h.DeviceID, h.Type, payload); err == nil {
			s.lastMode[h.DeviceID] = idx
		}

	case wire.RequestProfileList:
		return catalog.ProfileListPayload(s.cfg.Profiles), true

	case wire.RequestSaveProfile:
		name := wire.ParseCString(payload)
		if !slices.Contains(s.cfg.Profiles, name) {
			s.cfg.Profiles = append(s.cfg.Profiles, name)
		}

	case wire.RequestDeleteProfile:
		name := wire.ParseCString(payload)
		s.cfg.Profiles = slices.DeleteFunc(s.cfg.Profiles, func(p string) bool { return p == name })

	case wire.RequestPluginList:
		return catalog.PluginListPayload(s.cfg.Plugins), true

	case wire.PluginSpecific:
		// Echo the plugin data back without the plugin packet type.
		if len(payload) < 4 {
			return nil, true
		}
		return slices.Clone(payload[4:]), true
	}
	return nil, false
}

func (s *Server) device(idx uint32) (*model.Device, error) {
	if int(idx) >= len(s.cfg.Devices) {
		return nil, errNoDevice
	}
	return s.cfg.Devices[idx], nil
}

func (s *Server) ledBuffer(idx uint32, dev *model.Device) []color.Color {
	buf := s.leds[idx]
	if len(buf) != dev.LEDCount() {
		buf = make([]color.Color, dev.LEDCount())
		s.leds[idx] = buf
	}
	return buf
}
