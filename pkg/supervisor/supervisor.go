package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/connection"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/effect"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/log"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/transport"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/usb"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/version"
)

// DialFunc opens a protocol session.
type DialFunc func(ctx context.Context, addr string, cfg transport.Config) (transport.Session, error)

// RecoveryConfig configures automatic session recovery.
type RecoveryConfig struct {
	Enabled     bool
	Backoff     connection.BackoffConfig
	MaxAttempts int
}

// Config configures a Supervisor.
type Config struct {
	// Host is the loopback address the server listens on (default: 127.0.0.1).
	Host string

	// Address attaches to a running server; Launcher is not used.
	Address string

	// Launcher starts the server process.
	Launcher Launcher

	// Client configures each protocol session. A zero MaxProtocolVersion
	// offers version.DefaultMax.
	Client transport.Config

	// Dial opens sessions (default: transport.Dial).
	Dial DialFunc

	// StartTimeout bounds launching plus poll-connect (default: 20s).
	StartTimeout time.Duration

	// PollBackoff paces poll-connect attempts (default: 100ms doubling to
	// 1s, no jitter).
	PollBackoff connection.BackoffConfig

	// StopGrace is the pause between the final black frame and
	// terminating the server (default: 500ms).
	StopGrace time.Duration

	// TerminateTimeout is how long the server gets to exit before it is
	// killed (default: 5s).
	TerminateTimeout time.Duration

	// Rules lists the compatible USB devices.
	Rules []usb.Identifier

	// Enumerator lists connected USB devices. Nil disables hot-plug
	// reconciliation.
	Enumerator usb.Enumerator

	Recovery RecoveryConfig

	// Effects configures the effect engine. Its loggers default to the
	// supervisor's.
	Effects effect.Config

	Logger         *slog.Logger
	ProtocolLogger log.Logger
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Dial == nil {
		c.Dial = dialSession
	}
	if c.StartTimeout <= 0 {
		c.StartTimeout = 20 * time.Second
	}
	if c.PollBackoff == (connection.BackoffConfig{}) {
		c.PollBackoff = connection.BackoffConfig{
			Initial: 100 * time.Millisecond,
			Max:     time.Second,
			Jitter:  -1,
		}
	}
	if c.StopGrace < 0 {
		c.StopGrace = 0
	} else if c.StopGrace == 0 {
		c.StopGrace = 500 * time.Millisecond
	}
	if c.TerminateTimeout <= 0 {
		c.TerminateTimeout = 5 * time.Second
	}
	if c.Client.MaxProtocolVersion == 0 {
		c.Client.MaxProtocolVersion = version.DefaultMax
	}
	if c.Client.Logger == nil {
		c.Client.Logger = c.Logger
	}
	if c.Client.ProtocolLogger == nil {
		c.Client.ProtocolLogger = c.ProtocolLogger
	}
	if c.Effects.Logger == nil {
		c.Effects.Logger = c.Logger
	}
	if c.Effects.ProtocolLogger == nil {
		c.Effects.ProtocolLogger = c.ProtocolLogger
	}
}

func dialSession(ctx context.Context, addr string, cfg transport.Config) (transport.Session, error) {
	c, err := transport.Dial(ctx, addr, cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// activeEffect is the last effect requested through ApplyEffect.
type activeEffect struct {
	name       string
	brightness color.Brightness
	color      color.Color
}

// Supervisor owns the server process, the session and the effect engine.
type Supervisor struct {
	cfg     Config
	engine  *effect.Engine
	manager *connection.Manager

	// reloadMu serializes start, stop, reload and effect application.
	reloadMu      sync.Mutex
	stopRequested atomic.Bool

	mu      sync.RWMutex
	session transport.Session
	proc    Process
	devices []*model.Device
	active  *activeEffect

	// gen changes on every teardown so stale loss watchers stay quiet.
	gen     atomic.Uint64
	reloads atomic.Int64

	usbMu sync.Mutex
	known []usb.Identifier

	// listDirty is set by DEVICE_LIST_UPDATED and cleared when a start
	// enumerates controllers; listCh wakes listLoop.
	listDirty atomic.Bool
	listCh    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a stopped supervisor.
func New(cfg Config) (*Supervisor, error) {
	cfg.applyDefaults()
	if cfg.Address == "" && cfg.Launcher == nil {
		return nil, errors.New("supervisor: either Address or Launcher is required")
	}

	s := &Supervisor{
		cfg:    cfg,
		listCh: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	s.engine = effect.NewEngine(sessionWriter{s}, cfg.Effects)
	if cfg.Recovery.Enabled {
		s.manager = connection.NewManager(s.bringUp, connection.ManagerConfig{
			Backoff:        cfg.Recovery.Backoff,
			AttemptTimeout: cfg.StartTimeout + cfg.Client.RequestTimeout,
			MaxAttempts:    cfg.Recovery.MaxAttempts,
			Logger:         cfg.Logger,
		})
		s.manager.OnReconnecting(func(attempt int, delay time.Duration) {
			s.infoLog("recovering lighting server", "attempt", attempt, "delay", delay)
		})
	}

	s.wg.Add(1)
	go s.listLoop()
	return s, nil
}

// Start launches the server, connects and enumerates devices, leaving
// every LED black. Starting a running supervisor does nothing.
func (s *Supervisor) Start(ctx context.Context) error {
	s.stopRequested.Store(false)
	if s.Running() {
		return nil
	}
	if s.manager != nil {
		err := s.manager.Connect(ctx)
		if errors.Is(err, connection.ErrAlreadyConnected) {
			return nil
		}
		return err
	}
	return s.bringUp(ctx)
}

// Stop halts every effect, pushes black, waits the grace period and
// terminates the server.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.stopRequested.Store(true)
	if s.manager != nil {
		s.manager.Disconnect()
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	s.stopLocked(ctx)
	if s.manager != nil {
		s.manager.Disconnect()
	}
	return nil
}

// Close stops the supervisor and its background loops. A closed
// supervisor cannot be restarted.
func (s *Supervisor) Close() error {
	err := s.Stop(context.Background())
	s.closeOnce.Do(func() {
		close(s.done)
		if s.manager != nil {
			s.manager.Close()
		}
	})
	s.wg.Wait()
	return err
}

// Reload performs a bounced reload: stop, start and re-apply the active
// effect.
func (s *Supervisor) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	return s.reloadLocked(ctx)
}

func (s *Supervisor) reloadLocked(ctx context.Context) error {
	if !s.Running() {
		return ErrNotStarted
	}
	s.reloads.Add(1)
	s.infoLog("reloading lighting server")

	s.stopLocked(ctx)
	if err := s.startLocked(ctx); err != nil {
		s.warnLog("reload failed", "error", err)
		if s.manager != nil {
			s.manager.NotifyConnectionLost()
		}
		return err
	}
	return s.reapplyLocked(ctx)
}

// Reloads returns the number of bounced reloads performed.
func (s *Supervisor) Reloads() int64 {
	return s.reloads.Load()
}

// Running reports whether a session is established.
func (s *Supervisor) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil
}

// ProtocolVersion returns the negotiated version of the current session.
func (s *Supervisor) ProtocolVersion() (uint32, error) {
	sess, err := s.currentSession()
	if err != nil {
		return 0, err
	}
	return sess.ProtocolVersion(), nil
}

// Devices returns the enumerated devices.
func (s *Supervisor) Devices() []*model.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.Device(nil), s.devices...)
}

// bringUp is the connect function for start and recovery.
func (s *Supervisor) bringUp(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if s.stopRequested.Load() {
		return ErrStopped
	}
	s.teardownLocked()
	if err := s.startLocked(ctx); err != nil {
		return err
	}
	return s.reapplyLocked(ctx)
}

// startLocked launches (unless attached), poll-connects, opens the session,
// enumerates devices and pushes black.
func (s *Supervisor) startLocked(ctx context.Context) error {
	startCtx, cancel := context.WithTimeout(ctx, s.cfg.StartTimeout)
	defer cancel()

	addr := s.cfg.Address
	var proc Process
	if addr == "" {
		port, err := freePort(s.cfg.Host)
		if err != nil {
			return fmt.Errorf("reserve port: %w", err)
		}
		proc, err = s.cfg.Launcher.Launch(port)
		if err != nil {
			return err
		}
		addr = net.JoinHostPort(s.cfg.Host, strconv.Itoa(port))
		s.logState(log.StateEntityServer, "", "LAUNCHED", fmt.Sprintf("pid %d port %d", proc.Pid(), port))

		go func() {
			select {
			case <-proc.Done():
				cancel()
			case <-startCtx.Done():
			}
		}()
	}

	sess, err := s.connect(startCtx, addr, proc)
	if err != nil {
		if proc != nil {
			_ = proc.Stop(s.cfg.TerminateTimeout)
		}
		return err
	}

	// Enumeration below covers every list change reported so far.
	s.listDirty.Store(false)
	devices, err := sess.Controllers(startCtx)
	if err != nil {
		_ = sess.Close()
		if proc != nil {
			_ = proc.Stop(s.cfg.TerminateTimeout)
		}
		return fmt.Errorf("enumerate controllers: %w", err)
	}
	for _, d := range devices {
		if err := sess.SetCustomMode(startCtx, d.Index); err != nil {
			s.warnLog("set custom mode failed", "device", d.String(), "error", err)
		}
		black := make([]color.Color, d.LEDCount())
		if err := sess.UpdateLEDs(startCtx, d.Index, black); err != nil {
			s.warnLog("initial black failed", "device", d.String(), "error", err)
		}
		_ = d.SetColors(black)
	}

	s.mu.Lock()
	s.session = sess
	s.proc = proc
	s.devices = devices
	s.mu.Unlock()

	sess.SetDeviceListUpdatedHandler(s.onDeviceListUpdated)
	s.watchLoss(s.gen.Load(), sess, proc)
	s.refreshKnown()

	s.logState(log.StateEntityConnection, "", "CONNECTED",
		fmt.Sprintf("%d controllers, protocol version %d", len(devices), sess.ProtocolVersion()))
	s.infoLog("lighting server ready", "addr", addr, "controllers", len(devices), "protocol", sess.ProtocolVersion())
	return nil
}

// connect polls addr until it accepts TCP connections, then opens the
// protocol session.
func (s *Supervisor) connect(ctx context.Context, addr string, proc Process) (transport.Session, error) {
	exited := func() error {
		if proc == nil {
			return nil
		}
		select {
		case <-proc.Done():
			return fmt.Errorf("%w: %v", ErrServerExited, proc.Err())
		default:
			return nil
		}
	}

	var dialer net.Dialer
	dial := func(ctx context.Context) error {
		if err := exited(); err != nil {
			return err
		}
		pctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
		defer cancel()
		c, err := dialer.DialContext(pctx, "tcp", addr)
		if err != nil {
			return err
		}
		return c.Close()
	}
	b := connection.NewBackoffWithConfig(s.cfg.PollBackoff)
	if err := connection.Retry(ctx, b, s.cfg.StartTimeout, dial); err != nil {
		if xerr := exited(); xerr != nil {
			return nil, xerr
		}
		return nil, fmt.Errorf("lighting server at %s not reachable: %w", addr, err)
	}
	s.debugLog("server port open", "addr", addr, "polls", b.Attempts()+1)

	sess, err := s.cfg.Dial(ctx, addr, s.cfg.Client)
	if err != nil {
		if xerr := exited(); xerr != nil {
			return nil, xerr
		}
		return nil, err
	}
	return sess, nil
}

// stopLocked halts effects, pushes black, waits the grace period and tears
// the session down.
func (s *Supervisor) stopLocked(ctx context.Context) {
	s.engine.StopAll()

	sess, _ := s.currentSession()
	if sess == nil {
		s.teardownLocked()
		return
	}
	for _, d := range s.Devices() {
		if !d.Enabled() {
			continue
		}
		black := make([]color.Color, d.LEDCount())
		if err := sess.UpdateLEDs(ctx, d.Index, black); err != nil {
			s.debugLog("final black failed", "device", d.String(), "error", err)
			continue
		}
		_ = d.SetColors(black)
	}
	if s.cfg.StopGrace > 0 {
		t := time.NewTimer(s.cfg.StopGrace)
		select {
		case <-ctx.Done():
		case <-t.C:
		}
		t.Stop()
	}
	s.teardownLocked()
}

// teardownLocked closes the session and terminates the process.
func (s *Supervisor) teardownLocked() {
	s.gen.Add(1)

	s.mu.Lock()
	sess, proc := s.session, s.proc
	s.session, s.proc, s.devices = nil, nil, nil
	s.mu.Unlock()

	if sess != nil {
		_ = sess.Close()
		s.logState(log.StateEntityConnection, "CONNECTED", "DISCONNECTED", "stopped")
	}
	if proc != nil {
		if err := proc.Stop(s.cfg.TerminateTimeout); err != nil {
			s.warnLog("server did not stop cleanly", "pid", proc.Pid(), "error", err)
		}
		s.logState(log.StateEntityServer, "LAUNCHED", "EXITED", "stopped")
	}
}

// watchLoss reports an unexpected session end or process exit.
func (s *Supervisor) watchLoss(gen uint64, sess transport.Session, proc Process) {
	var procDone <-chan struct{}
	if proc != nil {
		procDone = proc.Done()
	}
	go func() {
		var reason string
		select {
		case <-sess.Done():
			reason = fmt.Sprint(sess.Err())
		case <-procDone:
			reason = fmt.Sprintf("server exited: %v", proc.Err())
		}
		if s.gen.Load() != gen {
			return
		}
		s.warnLog("lighting server lost", "reason", reason)
		s.logState(log.StateEntityConnection, "CONNECTED", "LOST", reason)
		if s.manager != nil {
			s.manager.NotifyConnectionLost()
		}
	}()
}

// onDeviceListUpdated marks the controller list stale and wakes listLoop.
func (s *Supervisor) onDeviceListUpdated() {
	s.listDirty.Store(true)
	select {
	case s.listCh <- struct{}{}:
	default:
	}
}

// listLoop performs one reload per burst of DEVICE_LIST_UPDATED
// notifications. It waits for any start, stop, reload or effect switch in
// progress; a start that enumerates after the notification absorbs it.
func (s *Supervisor) listLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.listCh:
		}

		s.reloadMu.Lock()
		if s.listDirty.Load() && !s.stopRequested.Load() && s.Running() {
			s.infoLog("server device list changed")
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.StartTimeout+s.cfg.Client.RequestTimeout)
			if err := s.reloadLocked(ctx); err != nil {
				s.warnLog("device list reload failed", "error", err)
			}
			cancel()
		}
		s.reloadMu.Unlock()
	}
}

func (s *Supervisor) currentSession() (transport.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, ErrNotStarted
	}
	return s.session, nil
}

// sessionWriter routes effect output to whichever session is current.
type sessionWriter struct {
	s *Supervisor
}

func (w sessionWriter) UpdateLEDs(ctx context.Context, idx uint32, colors []color.Color) error {
	sess, err := w.s.currentSession()
	if err != nil {
		return err
	}
	return sess.UpdateLEDs(ctx, idx, colors)
}

func (s *Supervisor) logState(entity log.StateEntity, oldState, newState, reason string) {
	s.logStateNamed(entity, "", oldState, newState, reason)
}

func (s *Supervisor) logStateNamed(entity log.StateEntity, name, oldState, newState, reason string) {
	if s.cfg.ProtocolLogger == nil {
		return
	}
	s.cfg.ProtocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionNone,
		Layer:     log.LayerSupervisor,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   entity,
			Name:     name,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

func (s *Supervisor) debugLog(msg string, args ...any) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Debug(msg, args...)
	}
}

func (s *Supervisor) infoLog(msg string, args ...any) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Info(msg, args...)
	}
}

func (s *Supervisor) warnLog(msg string, args ...any) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Warn(msg, args...)
	}
}
