package executor

import (
	"sync"

	"github.com/stationkit/powersdk/runtime"
)

// DropPolicy selects what happens when a device's snapshot queue is
// full: evict the oldest entry to make room, or discard the new one.
type DropPolicy string

const (
	DropOldest DropPolicy = "drop_oldest"
	DropNew    DropPolicy = "drop_new"
)

// snapshotQueue is a bounded FIFO of snapshots shared between a
// producer (a pull-mode deviceLoop or a PushCallbackAdapter) and a
// sink worker's consumer side. The mutex is the only synchronization point — there is no
// separate event-loop thread to hop onto as in the asyncio original.
type snapshotQueue struct {
	mu       sync.Mutex
	items    []runtime.DeviceSnapshot
	capacity int
	policy   DropPolicy
}

func newSnapshotQueue(capacity int, policy DropPolicy) *snapshotQueue {
	if capacity <= 0 {
		capacity = 100
	}
	if policy == "" {
		policy = DropOldest
	}
	return &snapshotQueue{capacity: capacity, policy: policy}
}

// push enqueues s. enqueued is false only under DropNew when the
// queue was already full. evicted is true when an older entry was
// discarded to make room under DropOldest.
func (q *snapshotQueue) push(s runtime.DeviceSnapshot) (enqueued, evicted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		if q.policy == DropNew {
			return false, false
		}
		q.items = q.items[1:]
		evicted = true
	}
	q.items = append(q.items, s)
	return true, evicted
}

// pop dequeues the oldest snapshot, or returns false if empty.
func (q *snapshotQueue) pop() (runtime.DeviceSnapshot, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return runtime.DeviceSnapshot{}, false
	}
	s := q.items[0]
	q.items = q.items[1:]
	return s, true
}

func (q *snapshotQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
