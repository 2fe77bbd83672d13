package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stationkit/powersdk/runtime"
	"github.com/stationkit/powersdk/sink"
)

const pushMode = "push"

// Option configures an Executor.
type Option func(*Executor)

// WithConnect controls whether each device loop opens its own
// transport connection. Defaults to true; set false when the caller
// manages connections externally (e.g. a pre-connected dry run).
func WithConnect(connect bool) Option {
	return func(e *Executor) { e.connect = connect }
}

// WithJitterMax caps the random startup delay applied to each device
// loop (actual jitter is min(jitterMax, poll_interval/10)). Defaults
// to 5s.
func WithJitterMax(d time.Duration) Option {
	return func(e *Executor) { e.jitterMax = d }
}

// WithPollTimeout bounds how long a single poll cycle may run before
// the loop gives up and records a timeout error snapshot. Zero (the
// default) disables the timeout.
func WithPollTimeout(d time.Duration) Option {
	return func(e *Executor) { e.pollTimeout = d }
}

// WithReconnectPolicy reconnects a device's transport after
// afterErrors consecutive poll failures, waiting cooldown before the
// next attempt. afterErrors <= 0 disables automatic reconnection.
func WithReconnectPolicy(afterErrors int, cooldown time.Duration) Option {
	return func(e *Executor) {
		e.reconnectAfterErrors = afterErrors
		e.reconnectCooldown = cooldown
	}
}

// WithPromMetrics wires a PromMetrics exporter alongside the in-memory
// DeviceMetrics every device loop already maintains.
func WithPromMetrics(p *PromMetrics) Option {
	return func(e *Executor) { e.prom = p }
}

// WithQueuePolicy sets the capacity and drop policy of every
// per-device snapshot queue (both pull-mode poll queues and push-mode
// adapter queues). capacity <= 0 and an empty policy fall back to
// snapshotQueue's own defaults (100, DropOldest).
func WithQueuePolicy(capacity int, policy DropPolicy) Option {
	return func(e *Executor) {
		e.queueCapacity = capacity
		e.queuePolicy = policy
	}
}

// Executor runs one poll loop (pull-mode) or push adapter (push-mode)
// per device in the given registry, each paired with its own
// sink-worker goroutine that drains the device's snapshot queue, until
// Stop is called (spec §8). A blocking or slow Sink.Write only stalls
// that device's sink worker — never the producer filling the queue.
type Executor struct {
	registry *runtime.RuntimeRegistry
	sink     sink.Sink

	connect              bool
	jitterMax            time.Duration
	pollTimeout          time.Duration
	reconnectAfterErrors int
	reconnectCooldown    time.Duration
	prom                 *PromMetrics
	queueCapacity        int
	queuePolicy          DropPolicy

	metricsMu sync.Mutex
	metrics   map[string]*DeviceMetrics

	queues       map[string]*snapshotQueue
	pushAdapters map[string]*PushCallbackAdapter

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// noopSink discards every snapshot. Used when no sink is configured,
// mirroring the original's _NoOpSink default.
type noopSink struct{}

func (noopSink) Write(runtime.DeviceSnapshot) error { return nil }
func (noopSink) Close() error                       { return nil }

// New builds an Executor over registry. s may be nil, in which case
// snapshots are discarded.
func New(registry *runtime.RuntimeRegistry, s sink.Sink, opts ...Option) *Executor {
	if s == nil {
		s = noopSink{}
	}
	e := &Executor{
		registry:     registry,
		sink:         s,
		connect:      true,
		jitterMax:    5 * time.Second,
		metrics:      make(map[string]*DeviceMetrics),
		queues:       make(map[string]*snapshotQueue),
		pushAdapters: make(map[string]*PushCallbackAdapter),
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, rt := range registry.Runtimes() {
		m := NewDeviceMetrics(rt.DeviceID, e.prom)
		e.metrics[rt.DeviceID] = m
		if rt.Mode == pushMode {
			e.pushAdapters[rt.DeviceID] = NewPushCallbackAdapter(rt.DeviceID, rt.Client.Profile().Model, m, e.queueCapacity, e.queuePolicy, nil)
		} else {
			e.queues[rt.DeviceID] = newSnapshotQueue(e.queueCapacity, e.queuePolicy)
		}
	}
	return e
}

// Metrics returns the accumulated metrics for deviceID, or nil if
// unknown.
func (e *Executor) Metrics(deviceID string) *DeviceMetricsSnapshot {
	e.metricsMu.Lock()
	m, ok := e.metrics[deviceID]
	e.metricsMu.Unlock()
	if !ok {
		return nil
	}
	s := m.Snapshot()
	return &s
}

// AllMetrics returns metrics for every device.
func (e *Executor) AllMetrics() []DeviceMetricsSnapshot {
	e.metricsMu.Lock()
	defer e.metricsMu.Unlock()
	out := make([]DeviceMetricsSnapshot, 0, len(e.metrics))
	for _, rt := range e.registry.Runtimes() {
		if m, ok := e.metrics[rt.DeviceID]; ok {
			out = append(out, m.Snapshot())
		}
	}
	return out
}

// Run starts one loop goroutine per device and blocks until Stop (or
// parent's cancellation) causes all of them to exit. Calling Run
// while already running returns an error rather than starting a
// second set of loops.
func (e *Executor) Run(parent context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("executor: already running")
	}
	e.running = true
	loopCtx, cancel := context.WithCancel(parent)
	e.cancel = cancel
	done := make(chan struct{})
	e.done = done
	e.mu.Unlock()

	// Each loop/worker function always returns nil — per-device errors
	// are captured as snapshots, not propagated — so errgroup's
	// cancel-on-first-error behavior never kicks in; it's used purely
	// to join the per-device goroutines.
	var g errgroup.Group
	for _, rt := range e.registry.Runtimes() {
		rt := rt
		e.metricsMu.Lock()
		m := e.metrics[rt.DeviceID]
		e.metricsMu.Unlock()

		runGuarded := func(label string, fn func()) {
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						log.Error("%s for %q panicked: %v", label, rt.DeviceID, r)
					}
				}()
				fn()
				return nil
			})
		}

		if rt.Mode == pushMode {
			adapter := e.pushAdapters[rt.DeviceID]
			runGuarded("push adapter", func() { e.pushLoop(loopCtx, rt, adapter) })
			runGuarded("sink worker", func() { e.sinkWorker(loopCtx, rt.DeviceID, adapter.Next, e.sink) })
			continue
		}

		q := e.queues[rt.DeviceID]
		runGuarded("device loop", func() { e.deviceLoop(loopCtx, rt, m, q) })
		runGuarded("sink worker", func() { e.sinkWorker(loopCtx, rt.DeviceID, q.pop, e.sink) })
	}

	go func() {
		if err := g.Wait(); err != nil {
			log.Error("executor: unexpected device loop error: %v", err)
		}
		close(done)
	}()

	<-done

	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
	return nil
}

// Stop cancels every running device loop, waits (up to ctx's
// deadline, if any) for them to exit, then closes the sink exactly
// once. Safe to call even if Run was never started or has already
// returned.
func (e *Executor) Stop(ctx context.Context) error {
	e.mu.Lock()
	cancel := e.cancel
	done := e.done
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			log.Warn("executor: timed out waiting for device loops to stop")
		}
	}

	var closeErr error
	e.closeOnce.Do(func() {
		closeErr = e.sink.Close()
	})
	return closeErr
}
