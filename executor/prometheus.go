package executor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromMetrics exports the same counters DeviceMetrics tracks in
// memory as Prometheus collectors, registered under a private
// registry so an embedding process can mount them on its own
// /metrics handler without fighting the global default registry.
type PromMetrics struct {
	registry   *prometheus.Registry
	pollOK     *prometheus.CounterVec
	pollError  *prometheus.CounterVec
	duration   *prometheus.GaugeVec
	reconnects *prometheus.CounterVec
	dropped    *prometheus.CounterVec
}

// NewPromMetrics builds a fresh private registry with one vector per
// counter, labeled by device_id.
func NewPromMetrics() *PromMetrics {
	reg := prometheus.NewRegistry()

	p := &PromMetrics{
		registry: reg,
		pollOK: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "powersdk_poll_ok_total",
			Help: "Successful poll cycles per device.",
		}, []string{"device_id"}),
		pollError: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "powersdk_poll_error_total",
			Help: "Failed poll cycles per device.",
		}, []string{"device_id"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "powersdk_poll_duration_ms",
			Help: "Duration of the most recent poll cycle, in milliseconds.",
		}, []string{"device_id"}),
		reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "powersdk_reconnects_total",
			Help: "Reconnect attempts triggered by consecutive poll errors.",
		}, []string{"device_id"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "powersdk_dropped_snapshots_total",
			Help: "Snapshots dropped or evicted by a full per-device queue.",
		}, []string{"device_id"}),
	}

	reg.MustRegister(p.pollOK, p.pollError, p.duration, p.reconnects, p.dropped)
	return p
}

// Registry returns the private registry so callers can mount it under
// promhttp.HandlerFor.
func (p *PromMetrics) Registry() *prometheus.Registry {
	return p.registry
}

// RecordPoll exports one poll cycle's result. Called alongside
// DeviceMetrics.Record so the two stay in lock-step.
func (p *PromMetrics) RecordPoll(snapshot pollResult) {
	if snapshot.ok {
		p.pollOK.WithLabelValues(snapshot.deviceID).Inc()
	} else {
		p.pollError.WithLabelValues(snapshot.deviceID).Inc()
	}
	p.duration.WithLabelValues(snapshot.deviceID).Set(snapshot.durationMS)
}

// RecordReconnect exports one reconnect attempt for deviceID.
func (p *PromMetrics) RecordReconnect(deviceID string) {
	p.reconnects.WithLabelValues(deviceID).Inc()
}

// RecordDropped exports one snapshot dropped or evicted by deviceID's
// queue (pull-mode or push-mode).
func (p *PromMetrics) RecordDropped(deviceID string) {
	p.dropped.WithLabelValues(deviceID).Inc()
}

// pollResult is the minimal view of a DeviceSnapshot RecordPoll needs,
// letting callers avoid importing the runtime package just to build a
// PromMetrics observation.
type pollResult struct {
	deviceID   string
	ok         bool
	durationMS float64
}
