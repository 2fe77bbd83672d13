// Package transport declares the boundary a Client talks to: connect,
// disconnect, synchronous send_frame, and an optional push callback
// (spec §6.1). Concrete wire implementations live in sub-packages
// (transport/mqtt).
package transport

import "time"

// Transport is the contract a Client orchestrates over. Implementations
// own all wire framing below Modbus; Connect/Disconnect/IsConnected
// manage the session, and SendFrame blocks for a single in-flight
// request/response.
type Transport interface {
	// Connect opens the underlying session. Calling Connect on an
	// already-connected transport is a no-op.
	Connect() error
	// Disconnect closes the session. Idempotent.
	Disconnect() error
	// IsConnected reports the current session state.
	IsConnected() bool
	// SendFrame blocks until a response is delivered or timeout
	// elapses, returning a TransportError on either send failure or
	// timeout.
	SendFrame(request []byte, timeout time.Duration) ([]byte, error)
}

// PushCapable is implemented by transports that can additionally
// deliver unsolicited device data, independent of any in-flight
// SendFrame call. cb must be safe to invoke from any goroutine.
type PushCapable interface {
	Transport
	SetOnData(cb func(data []byte))
}
