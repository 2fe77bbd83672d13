// Package runtime manages N DeviceRuntime instances built from a YAML
// config file, wrapping each device's Client with poll-cycle lifecycle
// and snapshot capture (spec §4.8, §4.9).
package runtime

import (
	"sync"
	"time"

	"github.com/stationkit/powersdk/client"
	"github.com/stationkit/powersdk/device"
)

// DeviceSnapshot is the immutable result of a single poll cycle or
// push event, consumed by a Sink.
type DeviceSnapshot struct {
	DeviceID   string
	Model      string
	Timestamp  time.Time
	State      map[string]interface{}
	BlocksRead int
	DurationMS float64
	Error      error
}

// OK reports whether the poll/push succeeded.
func (s DeviceSnapshot) OK() bool {
	return s.Error == nil
}

// DeviceRuntime wraps a Client with poll-cycle lifecycle and snapshot
// capture. vendor/protocol/profile_id/transport_key are carried from
// YAML runtime context for --dry-run reporting; they do not affect
// the underlying device.Profile.
type DeviceRuntime struct {
	DeviceID     string
	Client       *client.Client
	Vendor       string
	Protocol     string
	ProfileID    string
	TransportKey string
	PollInterval time.Duration
	SinkName     string
	PipelineName string
	Mode         string

	mu           sync.Mutex
	lastSnapshot *DeviceSnapshot
}

// PollOnce reads the device's core block group once and returns a
// snapshot. connect opens the transport first; disconnect closes it
// afterward (even on error) — both are the caller's responsibility
// since a long-lived poll loop typically connects once and
// disconnects only on shutdown.
func (r *DeviceRuntime) PollOnce(connect, disconnect bool) DeviceSnapshot {
	t := time.Now()
	var snapshot DeviceSnapshot

	if connect {
		if err := r.Client.Connect(); err != nil {
			snapshot = r.errorSnapshot(t, err)
			if disconnect {
				_ = r.Client.Disconnect()
			}
			r.store(snapshot)
			return snapshot
		}
	}

	blocks, err := r.Client.ReadGroup(device.GroupCore, true)
	if err != nil {
		snapshot = r.errorSnapshot(t, err)
	} else {
		snapshot = DeviceSnapshot{
			DeviceID:   r.DeviceID,
			Model:      r.Client.Profile().Model,
			Timestamp:  t,
			State:      r.Client.GetDeviceState(),
			BlocksRead: len(blocks),
			DurationMS: float64(time.Since(t).Microseconds()) / 1000.0,
		}
	}

	if disconnect {
		_ = r.Client.Disconnect()
	}

	r.store(snapshot)
	return snapshot
}

func (r *DeviceRuntime) errorSnapshot(t time.Time, err error) DeviceSnapshot {
	return DeviceSnapshot{
		DeviceID:   r.DeviceID,
		Model:      r.Client.Profile().Model,
		Timestamp:  t,
		State:      map[string]interface{}{},
		DurationMS: float64(time.Since(t).Microseconds()) / 1000.0,
		Error:      err,
	}
}

func (r *DeviceRuntime) store(s DeviceSnapshot) {
	r.mu.Lock()
	r.lastSnapshot = &s
	r.mu.Unlock()
}

// LastSnapshot returns the most recent snapshot produced by PollOnce,
// or nil if none yet.
func (r *DeviceRuntime) LastSnapshot() *DeviceSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSnapshot
}
