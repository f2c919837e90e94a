package device

import (
	"context"
	"sync"
	"time"
)

// Queue is a bounded hand-off between a completion handler and a consumer.
// Offer never blocks so it can be called from a completion callback; the
// consumer waits with a timeout.
type Queue[T any] struct {
	ch chan T
}

// NewQueue creates a queue holding at most depth items.
func NewQueue[T any](depth int) *Queue[T] {
	if depth <= 0 {
		depth = 1
	}
	return &Queue[T]{ch: make(chan T, depth)}
}

// Offer enqueues v and reports false when the queue is full.
func (q *Queue[T]) Offer(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		return false
	}
}

// Receive dequeues the oldest item, waiting at most timeout.
func (q *Queue[T]) Receive(ctx context.Context, timeout time.Duration) (T, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case v := <-q.ch:
		return v, nil
	case <-timer.C:
		return zero, ErrTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Drain discards queued items and returns how many were dropped.
func (q *Queue[T]) Drain() int {
	n := 0
	for {
		select {
		case <-q.ch:
			n++
		default:
			return n
		}
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Cap returns the queue depth.
func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}

// inflight tracks queued transmissions. acquire blocks while depth frames are
// pending; release is called when the transmitter reports a frame done.
type inflight struct {
	slots chan struct{}

	mu    sync.Mutex
	count int
	idle  chan struct{} // closed while count == 0
}

func newInflight(depth int) *inflight {
	if depth <= 0 {
		depth = 1
	}
	t := &inflight{
		slots: make(chan struct{}, depth),
		idle:  make(chan struct{}),
	}
	close(t.idle)
	return t
}

func (t *inflight) acquire(ctx context.Context) error {
	select {
	case t.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	t.mu.Lock()
	if t.count == 0 {
		t.idle = make(chan struct{})
	}
	t.count++
	t.mu.Unlock()
	return nil
}

func (t *inflight) release() {
	t.mu.Lock()
	if t.count == 0 {
		t.mu.Unlock()
		return
	}
	t.count--
	if t.count == 0 {
		close(t.idle)
	}
	t.mu.Unlock()

	<-t.slots
}

// releaseAll drops every pending frame, used when the link goes away.
func (t *inflight) releaseAll() {
	for {
		t.mu.Lock()
		pending := t.count
		t.mu.Unlock()
		if pending == 0 {
			return
		}
		t.release()
	}
}

func (t *inflight) depth() int {
	return cap(t.slots)
}

func (t *inflight) pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

func (t *inflight) wait(ctx context.Context, timeout time.Duration) error {
	t.mu.Lock()
	idle := t.idle
	t.mu.Unlock()
	return receiveTimeout(ctx, idle, timeout)
}
