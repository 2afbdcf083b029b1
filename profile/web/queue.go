package web

import (
	"sync"
	"time"

	"github.com/lvalerom/jsamp/internal/sampvalue"
)

// queuedCallback is one pending outbound delivery awaiting pull.
type queuedCallback struct {
	method string
	args   sampvalue.List
}

// pullQueue is one Web client's bounded pending-callback FIFO,
// grounded on the buffered-channel-per-client pattern in the pack's
// sse.Hub/Client (other_examples' internal-sse-hub.go), generalized
// from that file's "drop newest on overflow" to the "drop oldest"
// policy spec §4.6 requires, which a plain channel cannot express —
// hence a slice guarded by its own mutex plus a one-slot wake channel
// instead of a channel-as-queue.
type pullQueue struct {
	mu      sync.Mutex
	items   []queuedCallback
	bound   int
	lagging bool
	wake    chan struct{}
}

func newPullQueue(bound int) *pullQueue {
	return &pullQueue{bound: bound, wake: make(chan struct{}, 1)}
}

// enqueue appends a callback, dropping the oldest entries and setting
// the lagging flag if the queue is over bound.
func (q *pullQueue) enqueue(method string, args sampvalue.List) {
	q.mu.Lock()
	q.items = append(q.items, queuedCallback{method: method, args: args})
	if len(q.items) > q.bound {
		drop := len(q.items) - q.bound
		q.items = q.items[drop:]
		q.lagging = true
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// drain blocks up to timeout waiting for at least one pending
// callback, then returns and clears the entire current batch. An idle
// timeout returns a nil slice. The returned lagging flag is true and
// reset to false if an overflow occurred since the last drain.
func (q *pullQueue) drain(timeout time.Duration) ([]queuedCallback, bool) {
	if batch, lagging, ok := q.take(); ok {
		return batch, lagging
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-q.wake:
	case <-timer.C:
	}

	batch, lagging, _ := q.take()
	return batch, lagging
}

func (q *pullQueue) take() ([]queuedCallback, bool, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false, false
	}
	batch := q.items
	lagging := q.lagging
	q.items = nil
	q.lagging = false
	return batch, lagging, true
}

// webDeliverer adapts a pullQueue to hub.Deliverer: the hub's view of
// delivering to a Web client is simply enqueuing for later pull.
type webDeliverer struct {
	queue *pullQueue
}

func (d *webDeliverer) Deliver(method string, args sampvalue.List) {
	d.queue.enqueue(method, args)
}
