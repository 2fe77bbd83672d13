package executor

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/stationkit/powersdk/runtime"
)

// PushDecoder converts one raw push payload into device state fields.
// Errors are captured into an error snapshot rather than propagated —
// a bad payload from a streaming device must not take the device
// loop down.
type PushDecoder func(raw interface{}) (map[string]interface{}, error)

// PushCallbackAdapter bridges a transport's push callback to a
// bounded per-device snapshot queue. OnData is safe to call from any
// goroutine the transport chooses — unlike the asyncio original's
// call_soon_threadsafe hop onto a single event-loop thread, the
// queue's own mutex is already the synchronization point, so OnData
// can enqueue directly without rescheduling.
type PushCallbackAdapter struct {
	deviceID string
	model    string
	metrics  *DeviceMetrics
	queue    *snapshotQueue
	decode   PushDecoder

	// warnLimiter throttles the "queue full" log line to at most once
	// per second per device — a bursty publisher otherwise floods the
	// log on every dropped snapshot.
	warnLimiter *rate.Limiter
}

// NewPushCallbackAdapter builds an adapter for deviceID/model. decode
// defaults to passthrough-if-map, wrap-otherwise when nil. capacity
// defaults to 100 when <= 0.
func NewPushCallbackAdapter(deviceID, model string, metrics *DeviceMetrics, capacity int, policy DropPolicy, decode PushDecoder) *PushCallbackAdapter {
	if decode == nil {
		decode = defaultPushDecode
	}
	return &PushCallbackAdapter{
		deviceID:    deviceID,
		model:       model,
		metrics:     metrics,
		queue:       newSnapshotQueue(capacity, policy),
		decode:      decode,
		warnLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// DeviceID returns the device this adapter is bound to.
func (a *PushCallbackAdapter) DeviceID() string { return a.deviceID }

// OnData feeds one raw push payload, decoding it into a DeviceSnapshot
// and enqueueing it for the sink worker to drain.
func (a *PushCallbackAdapter) OnData(raw interface{}) {
	t := time.Now()
	state, err := a.decode(raw)

	var snapshot runtime.DeviceSnapshot
	if err != nil {
		log.Warn("[%s] push decode failed: %v", a.deviceID, err)
		snapshot = runtime.DeviceSnapshot{
			DeviceID:   a.deviceID,
			Model:      a.model,
			Timestamp:  t,
			State:      map[string]interface{}{},
			DurationMS: float64(time.Since(t).Microseconds()) / 1000.0,
			Error:      err,
		}
	} else {
		snapshot = runtime.DeviceSnapshot{
			DeviceID:   a.deviceID,
			Model:      a.model,
			Timestamp:  t,
			State:      state,
			BlocksRead: 1,
			DurationMS: float64(time.Since(t).Microseconds()) / 1000.0,
		}
	}

	a.metrics.Record(snapshot)

	enqueued, evicted := a.queue.push(snapshot)
	if evicted {
		a.metrics.RecordDropped()
	}
	if !enqueued {
		a.metrics.RecordDropped()
		if a.warnLimiter.Allow() {
			log.Warn("[%s] push queue full, dropping snapshot", a.deviceID)
		}
	}
}

// Next dequeues the oldest pending snapshot for a sink worker to
// deliver, or returns false if nothing is pending.
func (a *PushCallbackAdapter) Next() (runtime.DeviceSnapshot, bool) {
	return a.queue.pop()
}

// QueueLen reports the current queue depth.
func (a *PushCallbackAdapter) QueueLen() int {
	return a.queue.len()
}

func defaultPushDecode(raw interface{}) (map[string]interface{}, error) {
	if m, ok := raw.(map[string]interface{}); ok {
		return m, nil
	}
	return map[string]interface{}{"data": raw}, nil
}
