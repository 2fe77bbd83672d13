// Package executor runs the per-device poll loops, push adapters, and
// sink delivery that turn a RuntimeRegistry into a live pipeline
// (spec §8).
package executor

import (
	"sync"
	"time"

	"github.com/stationkit/powersdk/clog"
	"github.com/stationkit/powersdk/runtime"
)

var log = clog.NewLogger("executor: ")

// DeviceMetrics accumulates counters for one device's poll history.
// Safe for concurrent use — Record is called from the device's own
// loop goroutine, while Snapshot may be called from a CLI or an HTTP
// metrics handler on another goroutine.
type DeviceMetrics struct {
	DeviceID string

	prom *PromMetrics

	mu                sync.Mutex
	pollOK            int
	pollError         int
	lastDurationMS    float64
	lastOKAt          time.Time
	lastErrorAt       time.Time
	reconnectAttempts int
	droppedSnapshots  int
}

// NewDeviceMetrics returns a zeroed DeviceMetrics for deviceID. prom
// may be nil — Prometheus export is then skipped.
func NewDeviceMetrics(deviceID string, prom *PromMetrics) *DeviceMetrics {
	return &DeviceMetrics{DeviceID: deviceID, prom: prom}
}

// Record updates the counters from one poll/push result.
func (m *DeviceMetrics) Record(snapshot runtime.DeviceSnapshot) {
	m.mu.Lock()
	m.lastDurationMS = snapshot.DurationMS
	if snapshot.OK() {
		m.pollOK++
		m.lastOKAt = snapshot.Timestamp
	} else {
		m.pollError++
		m.lastErrorAt = snapshot.Timestamp
	}
	m.mu.Unlock()

	if m.prom != nil {
		m.prom.RecordPoll(pollResult{deviceID: m.DeviceID, ok: snapshot.OK(), durationMS: snapshot.DurationMS})
	}
}

// RecordReconnect counts one reconnect attempt.
func (m *DeviceMetrics) RecordReconnect() {
	m.mu.Lock()
	m.reconnectAttempts++
	m.mu.Unlock()
	if m.prom != nil {
		m.prom.RecordReconnect(m.DeviceID)
	}
}

// RecordDropped counts one snapshot dropped or evicted by a bounded
// per-device queue (pull-mode poll queue or push-mode adapter queue).
func (m *DeviceMetrics) RecordDropped() {
	m.mu.Lock()
	m.droppedSnapshots++
	m.mu.Unlock()
	if m.prom != nil {
		m.prom.RecordDropped(m.DeviceID)
	}
}

// DeviceMetricsSnapshot is an immutable point-in-time copy of
// DeviceMetrics' counters, safe to hand to a caller without holding
// any lock.
type DeviceMetricsSnapshot struct {
	DeviceID          string
	PollOK            int
	PollError         int
	LastDurationMS    float64
	LastOKAt          time.Time
	LastErrorAt       time.Time
	ReconnectAttempts int
	DroppedSnapshots  int
}

// Snapshot returns a copy of the current counters.
func (m *DeviceMetrics) Snapshot() DeviceMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return DeviceMetricsSnapshot{
		DeviceID:          m.DeviceID,
		PollOK:            m.pollOK,
		PollError:         m.pollError,
		LastDurationMS:    m.lastDurationMS,
		LastOKAt:          m.lastOKAt,
		LastErrorAt:       m.lastErrorAt,
		ReconnectAttempts: m.reconnectAttempts,
		DroppedSnapshots:  m.droppedSnapshots,
	}
}
