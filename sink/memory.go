package sink

import (
	"sync"

	"github.com/stationkit/powersdk/runtime"
)

// MemorySink retains the last maxLen snapshots per device, plus
// derived ok/error counts and a whole-fleet "last snapshot" view.
// Safe for concurrent use.
type MemorySink struct {
	mu     sync.RWMutex
	maxLen int
	store  map[string][]runtime.DeviceSnapshot
}

// NewMemorySink returns a MemorySink retaining up to maxLen snapshots
// per device. maxLen <= 0 defaults to 100, mirroring the original's
// deque(maxlen=100).
func NewMemorySink(maxLen int) *MemorySink {
	if maxLen <= 0 {
		maxLen = 100
	}
	return &MemorySink{maxLen: maxLen, store: make(map[string][]runtime.DeviceSnapshot)}
}

// Write appends snapshot to its device's history, evicting the
// oldest entry once maxLen is exceeded.
func (m *MemorySink) Write(snapshot runtime.DeviceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.store[snapshot.DeviceID]
	q = append(q, snapshot)
	if len(q) > m.maxLen {
		q = q[len(q)-m.maxLen:]
	}
	m.store[snapshot.DeviceID] = q
	return nil
}

// Close is a no-op — MemorySink has nothing to flush.
func (m *MemorySink) Close() error {
	return nil
}

// Last returns the most recent snapshot for deviceID, or false if no
// polls have landed yet.
func (m *MemorySink) Last(deviceID string) (runtime.DeviceSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := m.store[deviceID]
	if len(q) == 0 {
		return runtime.DeviceSnapshot{}, false
	}
	return q[len(q)-1], true
}

// History returns every retained snapshot for deviceID, oldest first.
func (m *MemorySink) History(deviceID string) []runtime.DeviceSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := m.store[deviceID]
	out := make([]runtime.DeviceSnapshot, len(q))
	copy(out, q)
	return out
}

// AllLast returns device_id -> most recent snapshot for every device
// that has produced at least one.
func (m *MemorySink) AllLast() map[string]runtime.DeviceSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]runtime.DeviceSnapshot, len(m.store))
	for id, q := range m.store {
		if len(q) > 0 {
			out[id] = q[len(q)-1]
		}
	}
	return out
}

// OKCount returns how many retained snapshots for deviceID succeeded.
func (m *MemorySink) OKCount(deviceID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.store[deviceID] {
		if s.OK() {
			n++
		}
	}
	return n
}

// ErrorCount returns how many retained snapshots for deviceID failed.
func (m *MemorySink) ErrorCount(deviceID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.store[deviceID] {
		if !s.OK() {
			n++
		}
	}
	return n
}
