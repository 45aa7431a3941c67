package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Manager errors.
var (
	ErrManagerClosed    = errors.New("connection manager closed")
	ErrAlreadyConnected = errors.New("already connected")
)

// State is the manager's view of the session.
type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateFailed:
		return "FAILED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ConnectFunc brings the session up. It returns nil on success.
type ConnectFunc func(ctx context.Context) error

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Backoff BackoffConfig

	// AttemptTimeout bounds one ConnectFunc call (default: 30s).
	AttemptTimeout time.Duration

	// MaxAttempts bounds consecutive reconnect attempts; zero retries
	// forever. When exhausted the manager enters StateFailed.
	MaxAttempts int

	Logger *slog.Logger
}

// Manager drives a ConnectFunc through connect, loss and recovery.
type Manager struct {
	mu sync.Mutex

	cfg           ManagerConfig
	state         State
	backoff       *Backoff
	connectFn     ConnectFunc
	autoReconnect bool

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	reconnectCh chan struct{}

	onStateChange  func(oldState, newState State)
	onReconnecting func(attempt int, delay time.Duration)
}

// NewManager creates a manager and starts its reconnect loop.
func NewManager(connectFn ConnectFunc, cfg ManagerConfig) *Manager {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:           cfg,
		state:         StateDisconnected,
		backoff:       NewBackoffWithConfig(cfg.Backoff),
		connectFn:     connectFn,
		autoReconnect: true,
		ctx:           ctx,
		cancel:        cancel,
		reconnectCh:   make(chan struct{}, 1),
	}
	m.wg.Add(1)
	go m.reconnectLoop()
	return m
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetAutoReconnect enables or disables recovery after a loss.
func (m *Manager) SetAutoReconnect(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoReconnect = enabled
}

// OnStateChange sets a callback for state transitions.
func (m *Manager) OnStateChange(fn func(oldState, newState State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// OnReconnecting sets a callback invoked before each recovery attempt.
func (m *Manager) OnReconnecting(fn func(attempt int, delay time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReconnecting = fn
}

// Connect brings the session up once, without retry.
func (m *Manager) Connect(ctx context.Context) error {
	if err := m.transition(StateConnecting, StateDisconnected, StateFailed); err != nil {
		return err
	}

	if err := m.connectFn(ctx); err != nil {
		_ = m.transition(StateDisconnected, StateConnecting)
		return err
	}

	m.backoff.Reset()
	_ = m.transition(StateConnected, StateConnecting)
	return nil
}

// Disconnect marks the session down without triggering recovery.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	m.setState(StateDisconnected)
}

// NotifyConnectionLost reports an unexpected loss. With auto-reconnect
// enabled the background loop starts recovering.
func (m *Manager) NotifyConnectionLost() {
	m.mu.Lock()
	auto := m.autoReconnect
	m.mu.Unlock()

	if !auto {
		_ = m.transition(StateDisconnected, StateConnected)
		return
	}
	if m.transition(StateReconnecting, StateConnected) != nil {
		return
	}
	select {
	case m.reconnectCh <- struct{}{}:
	default:
	}
}

// Close stops the reconnect loop and waits for it.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.setState(StateClosed)
	m.cancel()
	m.wg.Wait()
}

// BackoffAttempts returns the number of recovery attempts since the last
// successful connect.
func (m *Manager) BackoffAttempts() int {
	return m.backoff.Attempts()
}

// transition moves to next if the current state is one of from.
func (m *Manager) transition(next State, from ...State) error {
	m.mu.Lock()
	cur := m.state
	if cur == StateClosed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	ok := false
	for _, f := range from {
		if cur == f {
			ok = true
			break
		}
	}
	if !ok {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	m.state = next
	fn := m.onStateChange
	m.mu.Unlock()

	m.notify(fn, cur, next)
	return nil
}

func (m *Manager) setState(next State) {
	m.mu.Lock()
	old := m.state
	if old == StateClosed || old == next {
		m.mu.Unlock()
		return
	}
	m.state = next
	fn := m.onStateChange
	m.mu.Unlock()

	m.notify(fn, old, next)
}

func (m *Manager) notify(fn func(oldState, newState State), old, next State) {
	if old == next {
		return
	}
	if m.cfg.Logger != nil {
		m.cfg.Logger.Debug("session state", "from", old, "to", next)
	}
	if fn != nil {
		fn(old, next)
	}
}

func (m *Manager) reconnectLoop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.reconnectCh:
			m.recover()
		}
	}
}

// recover retries connectFn with backoff until success, exhaustion or
// close.
func (m *Manager) recover() {
	for {
		if m.State() != StateReconnecting {
			return
		}
		if m.cfg.MaxAttempts > 0 && m.backoff.Attempts() >= m.cfg.MaxAttempts {
			if m.cfg.Logger != nil {
				m.cfg.Logger.Error("giving up on session recovery", "attempts", m.backoff.Attempts())
			}
			_ = m.transition(StateFailed, StateReconnecting)
			return
		}

		delay := m.backoff.Next()
		m.mu.Lock()
		fn := m.onReconnecting
		m.mu.Unlock()
		if fn != nil {
			fn(m.backoff.Attempts(), delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-m.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if m.State() != StateReconnecting {
			return
		}

		ctx, cancel := context.WithTimeout(m.ctx, m.cfg.AttemptTimeout)
		err := m.connectFn(ctx)
		cancel()

		if err == nil {
			m.backoff.Reset()
			// Disconnect or Close may have won the race.
			_ = m.transition(StateConnected, StateReconnecting)
			return
		}
		if m.cfg.Logger != nil {
			m.cfg.Logger.Warn("session recovery attempt failed", "attempt", m.backoff.Attempts(), "error", err)
		}
	}
}
