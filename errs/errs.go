// Package errs defines the SDK's error taxonomy (spec §7). Each
// variant is a distinct type so callers can dispatch with errors.As
// instead of matching on string content.
package errs

import "fmt"

// TransportError wraps a connection, send, or response-timeout
// failure from the transport layer. Client retries on this type.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("transport error: %s", e.Op)
	}
	return fmt.Sprintf("transport error: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError builds a TransportError for op, wrapping cause.
func NewTransportError(op string, cause error) *TransportError {
	return &TransportError{Op: op, Err: cause}
}

// ProtocolError signals a CRC mismatch, Modbus exception response, or
// malformed frame. Never retried.
type ProtocolError struct {
	Reason    string
	Exception *byte // non-nil when the device returned a Modbus exception code
}

func (e *ProtocolError) Error() string {
	if e.Exception != nil {
		return fmt.Sprintf("protocol error: %s (exception=0x%02X)", e.Reason, *e.Exception)
	}
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

// NewProtocolError builds a plain ProtocolError.
func NewProtocolError(reason string) *ProtocolError {
	return &ProtocolError{Reason: reason}
}

// NewModbusExceptionError builds a ProtocolError carrying the device's
// Modbus exception code.
func NewModbusExceptionError(code byte) *ProtocolError {
	return &ProtocolError{Reason: "modbus exception response", Exception: &code}
}

// ParserError signals a missing schema, a required-field parse
// failure, or a strict-mode validation failure. Never retried.
type ParserError struct {
	BlockID int
	Field   string
	Err     error
}

func (e *ParserError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("parser error: block %d field %q: %v", e.BlockID, e.Field, e.Err)
	}
	return fmt.Sprintf("parser error: block %d: %v", e.BlockID, e.Err)
}

func (e *ParserError) Unwrap() error { return e.Err }

// NewParserError builds a ParserError for a whole-block failure.
func NewParserError(blockID int, cause error) *ParserError {
	return &ParserError{BlockID: blockID, Err: cause}
}

// NewFieldParserError builds a ParserError naming the offending field.
func NewFieldParserError(blockID int, field string, cause error) *ParserError {
	return &ParserError{BlockID: blockID, Field: field, Err: cause}
}

// DeviceError signals an invariant violation in the device-state
// layer: unknown group, unsupported operation.
type DeviceError struct {
	Reason string
}

func (e *DeviceError) Error() string { return fmt.Sprintf("device error: %s", e.Reason) }

// NewDeviceError builds a DeviceError.
func NewDeviceError(reason string) *DeviceError { return &DeviceError{Reason: reason} }

// ConfigError signals a YAML schema violation, unresolved reference,
// or validation failure. Fatal at construction time.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError builds a ConfigError.
func NewConfigError(reason string, cause error) *ConfigError {
	return &ConfigError{Reason: reason, Err: cause}
}

// SinkError signals a post-poll delivery failure: a file write, an
// encoding failure, or a composite sink's aggregated per-member
// failures. Never retried — the executor logs it and continues the
// owning device's poll loop.
type SinkError struct {
	Reason string
	Err    error
}

func (e *SinkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sink error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("sink error: %s", e.Reason)
}

func (e *SinkError) Unwrap() error { return e.Err }

// NewSinkError builds a SinkError.
func NewSinkError(reason string, cause error) *SinkError {
	return &SinkError{Reason: reason, Err: cause}
}
