// Package transport implements the lighting-server protocol client.
//
// # Protocol Stack
//
//	┌────────────────────────────────────────┐
//	│  Typed operations (Client methods)     │
//	├────────────────────────────────────────┤
//	│  Request lock + response matching      │
//	├────────────────────────────────────────┤
//	│  16-byte header framing (wire.Header)  │
//	├────────────────────────────────────────┤
//	│  TCP (loopback)                        │
//	└────────────────────────────────────────┘
//
// # Session
//
// Dial connects, asks the server for its protocol version, negotiates
// min(client, server) and announces the client name. A server that does
// not answer the version request within HandshakeTimeout is treated as
// version 0.
//
// # Concurrency
//
// A single request lock serializes every packet the client writes and,
// for requests that have a response, holds until the response arrives.
// Acquiring the lock times out after RequestTimeout with
// ErrServerUnresponsive; the connection stays open. A background reader
// owns the socket's read side, hands responses to the waiting request and
// reports DEVICE_LIST_UPDATED notifications to the registered handler.
//
// Any socket failure or malformed header closes the client. Every pending
// and future call then fails with ErrDisconnected. The client never
// reconnects on its own.
package transport
