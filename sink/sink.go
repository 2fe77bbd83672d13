// Package sink implements the post-poll snapshot delivery contract
// (spec §4.10, §6.4): an in-memory ring buffer for state queries, a
// JSONL file appender, and a fan-out composite.
package sink

import (
	"github.com/stationkit/powersdk/runtime"
)

// Sink receives one DeviceSnapshot per poll cycle or push event.
// Implementations must be safe for concurrent Write calls: the
// executor runs one sink worker per device, and a single Sink
// instance is commonly shared across every device in a config.
type Sink interface {
	Write(snapshot runtime.DeviceSnapshot) error
	Close() error
}
