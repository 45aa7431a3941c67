// Package connection provides retry and recovery primitives for the
// lighting-server session.
//
// # Backoff
//
// Backoff computes exponentially growing delays with optional jitter:
//
//	actual_delay = base_delay + random(0, base_delay * jitter)
//
// The supervisor uses a short, jitter-free backoff to poll the freshly
// launched server until it accepts connections (Retry), and a longer one
// to recover a lost session (Manager).
//
// # Recovery
//
// Manager owns a ConnectFunc that brings the session up. After the first
// successful Connect, NotifyConnectionLost moves it to RECONNECTING and the
// background loop retries with backoff until the session is back, the
// attempt budget is exhausted or the manager is closed.
package connection
