// Package clog is the logging facade shared by every layer of the SDK
// above the pure codec packages (datatype, transform, schema, modbus).
package clog

import (
	"log"
	"os"
	"sync/atomic"
)

// LogProvider is the pluggable backend. Only four levels are used
// anywhere in this SDK's call sites.
type LogProvider interface {
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Info(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

// Clog wraps a LogProvider behind an atomic on/off switch so call
// sites can format-string log unconditionally without measuring the
// cost of a disabled logger.
type Clog struct {
	provider LogProvider
	// has is 1 when log output is enabled, 0 when disabled.
	has uint32
}

// globalEnabled is a process-wide override: when set, every Clog
// instance logs regardless of its own LogMode setting. A CLI
// entrypoint sets this once from a single -v/--verbose flag instead
// of reaching into every package's private logger instance.
var globalEnabled uint32

// SetGlobalMode enables or disables log output for every Clog
// instance in the process, independent of each instance's own
// LogMode. Intended for a single entrypoint-level verbosity switch.
func SetGlobalMode(enable bool) {
	if enable {
		atomic.StoreUint32(&globalEnabled, 1)
	} else {
		atomic.StoreUint32(&globalEnabled, 0)
	}
}

// NewLogger creates a Clog writing to stdout with the given prefix.
// Output is disabled until LogMode(true) is called.
func NewLogger(prefix string) Clog {
	return Clog{
		provider: defaultLogger{log.New(os.Stdout, prefix, log.LstdFlags)},
	}
}

// LogMode enables or disables log output.
func (sf *Clog) LogMode(enable bool) {
	if enable {
		atomic.StoreUint32(&sf.has, 1)
	} else {
		atomic.StoreUint32(&sf.has, 0)
	}
}

// SetLogProvider swaps the backend. A nil provider is ignored.
func (sf *Clog) SetLogProvider(p LogProvider) {
	if p != nil {
		sf.provider = p
	}
}

// Error logs an ERROR level message.
func (sf Clog) Error(format string, v ...interface{}) {
	if atomic.LoadUint32(&sf.has) == 1 || atomic.LoadUint32(&globalEnabled) == 1 {
		sf.provider.Error(format, v...)
	}
}

// Warn logs a WARN level message.
func (sf Clog) Warn(format string, v ...interface{}) {
	if atomic.LoadUint32(&sf.has) == 1 || atomic.LoadUint32(&globalEnabled) == 1 {
		sf.provider.Warn(format, v...)
	}
}

// Info logs an INFO level message.
func (sf Clog) Info(format string, v ...interface{}) {
	if atomic.LoadUint32(&sf.has) == 1 || atomic.LoadUint32(&globalEnabled) == 1 {
		sf.provider.Info(format, v...)
	}
}

// Debug logs a DEBUG level message.
func (sf Clog) Debug(format string, v ...interface{}) {
	if atomic.LoadUint32(&sf.has) == 1 || atomic.LoadUint32(&globalEnabled) == 1 {
		sf.provider.Debug(format, v...)
	}
}

type defaultLogger struct {
	*log.Logger
}

var _ LogProvider = (*defaultLogger)(nil)

func (sf defaultLogger) Error(format string, v ...interface{}) { sf.Printf("[E]: "+format, v...) }
func (sf defaultLogger) Warn(format string, v ...interface{})  { sf.Printf("[W]: "+format, v...) }
func (sf defaultLogger) Info(format string, v ...interface{})  { sf.Printf("[I]: "+format, v...) }
func (sf defaultLogger) Debug(format string, v ...interface{}) { sf.Printf("[D]: "+format, v...) }
