package executor

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/stationkit/powersdk/runtime"
	"github.com/stationkit/powersdk/sink"
)

// deviceLoop runs PollOnce in a loop for one pull-mode device until
// ctx is cancelled. Initial jitter staggers device start times; the
// connection is opened only on the first iteration and closed on loop
// exit. Every snapshot is pushed onto q for a separate sink worker to
// drain — the loop never calls Sink.Write itself, so a slow or
// blocking sink cannot throttle polling.
func (e *Executor) deviceLoop(ctx context.Context, rt *runtime.DeviceRuntime, m *DeviceMetrics, q *snapshotQueue) {
	log.Info("loop started: %s (interval=%s)", rt.DeviceID, rt.PollInterval)

	queueWarnLimiter := rate.NewLimiter(rate.Every(time.Second), 1)

	jitterCap := e.jitterMax
	if tenthInterval := rt.PollInterval / 10; tenthInterval < jitterCap {
		jitterCap = tenthInterval
	}
	if jitterCap > 0 {
		jitter := time.Duration(rand.Int63n(int64(jitterCap) + 1))
		select {
		case <-time.After(jitter):
		case <-ctx.Done():
			log.Info("loop cancelled during jitter: %s", rt.DeviceID)
			return
		}
	}

	first := true
	connected := false
	consecutiveErrors := 0

	for {
		shouldConnect := e.connect && first
		snapshot := e.pollWithTimeout(rt, shouldConnect)
		first = false
		if shouldConnect && snapshot.OK() {
			connected = true
		}

		m.Record(snapshot)

		if snapshot.OK() {
			consecutiveErrors = 0
			log.Debug("[%s] poll_ok blocks=%d duration=%.1fms", rt.DeviceID, snapshot.BlocksRead, snapshot.DurationMS)
		} else {
			consecutiveErrors++
			log.Warn("[%s] poll_error: %v (duration=%.1fms)", rt.DeviceID, snapshot.Error, snapshot.DurationMS)

			if e.reconnectAfterErrors > 0 && consecutiveErrors >= e.reconnectAfterErrors {
				log.Warn("[%s] reconnecting after %d consecutive errors", rt.DeviceID, consecutiveErrors)
				_ = rt.Client.Disconnect()
				connected = false
				m.RecordReconnect()
				consecutiveErrors = 0
				first = true

				select {
				case <-time.After(e.reconnectCooldown):
				case <-ctx.Done():
					log.Info("loop stopped: %s", rt.DeviceID)
					return
				}
			}
		}

		enqueued, evicted := q.push(snapshot)
		if evicted {
			m.RecordDropped()
		}
		if !enqueued {
			m.RecordDropped()
			if queueWarnLimiter.Allow() {
				log.Warn("[%s] poll queue full, dropping snapshot", rt.DeviceID)
			}
		}

		select {
		case <-time.After(rt.PollInterval):
		case <-ctx.Done():
			if connected {
				_ = rt.Client.Disconnect()
			}
			log.Info("loop stopped: %s", rt.DeviceID)
			return
		}
	}
}

// pollWithTimeout races PollOnce against e.pollTimeout. On timeout it
// returns an error snapshot immediately; the PollOnce goroutine is
// left running to completion in the background, mirroring the
// original's asyncio.wait_for(to_thread(...)) — a blocking I/O call
// already in flight cannot be cancelled mid-execution either way.
func (e *Executor) pollWithTimeout(rt *runtime.DeviceRuntime, connect bool) runtime.DeviceSnapshot {
	if e.pollTimeout <= 0 {
		return rt.PollOnce(connect, false)
	}

	result := make(chan runtime.DeviceSnapshot, 1)
	go func() {
		result <- rt.PollOnce(connect, false)
	}()

	select {
	case snapshot := <-result:
		return snapshot
	case <-time.After(e.pollTimeout):
		return runtime.DeviceSnapshot{
			DeviceID:   rt.DeviceID,
			Model:      rt.Client.Profile().Model,
			Timestamp:  time.Now(),
			State:      map[string]interface{}{},
			Error:      fmt.Errorf("poll timed out after %s", e.pollTimeout),
		}
	}
}

// pushLoop is the push-mode counterpart to deviceLoop: it never polls
// itself. It connects (if e.connect), registers adapter.OnData as the
// transport's unsolicited-data callback, then blocks until ctx is
// cancelled — every DeviceSnapshot the adapter's queue receives in the
// meantime arrives on whatever goroutine the transport calls OnData
// from.
func (e *Executor) pushLoop(ctx context.Context, rt *runtime.DeviceRuntime, adapter *PushCallbackAdapter) {
	log.Info("push adapter started: %s", rt.DeviceID)

	connected := false
	if e.connect {
		if err := rt.Client.Connect(); err != nil {
			log.Error("[%s] push mode: connect failed: %v", rt.DeviceID, err)
		} else {
			connected = true
		}
	}

	if !rt.Client.SetOnData(func(data []byte) { adapter.OnData(data) }) {
		log.Error("[%s] push mode requires a push-capable transport, but this device's transport does not support it", rt.DeviceID)
	}

	<-ctx.Done()
	if connected {
		_ = rt.Client.Disconnect()
	}
	log.Info("push adapter stopped: %s", rt.DeviceID)
}

// sinkWorker drains one device's snapshot queue (pop) and delivers
// each entry to s, decoupling the sink from whatever produces
// snapshots — deviceLoop's polling or a PushCallbackAdapter's
// OnData — so a slow or blocking Sink.Write only stalls this worker,
// never the producer (spec §8's queue + sink-worker architecture).
// Runs until ctx is cancelled and the queue has been fully drained.
func (e *Executor) sinkWorker(ctx context.Context, deviceID string, pop func() (runtime.DeviceSnapshot, bool), s sink.Sink) {
	const idlePoll = 10 * time.Millisecond
	for {
		snapshot, ok := pop()
		if ok {
			if err := s.Write(snapshot); err != nil {
				log.Warn("[%s] sink.Write failed: %v", deviceID, err)
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(idlePoll):
		}
	}
}
