// Package pubsub provides the delivery primitives shared by the screen
// engines and the favorites store: an unbounded FIFO queue with a single
// consumer, and a replay-latest value with many subscribers.
package pubsub

import "sync"

// Queue is an unbounded FIFO. Push never blocks; items are delivered on Out
// in push order, each exactly once.
//
// Goroutine safety: Push, Close and Len may be called from any goroutine.
// A single pump goroutine is the only writer to out.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool

	signal    chan struct{} // capacity 1, wakes the pump
	out       chan T
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue creates a queue and starts its pump goroutine.
// Call Close to stop it.
func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{
		signal: make(chan struct{}, 1),
		out:    make(chan T),
		done:   make(chan struct{}),
	}
	go q.pump()
	return q
}

// Push appends v. It returns false if the queue is closed.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Out returns the delivery channel. It is closed after Close; items still
// pending at that point are dropped.
func (q *Queue[T]) Out() <-chan T {
	return q.out
}

// Done is closed once Close has been called.
func (q *Queue[T]) Done() <-chan struct{} {
	return q.done
}

// Len returns the number of items not yet handed to the consumer.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops delivery. Safe to call more than once.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.items = nil
		q.mu.Unlock()
		close(q.done)
	})
}

func (q *Queue[T]) pump() {
	defer close(q.out)
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			select {
			case <-q.signal:
				continue
			case <-q.done:
				return
			}
		}
		v := q.items[0]
		var zero T
		q.items[0] = zero
		q.items = q.items[1:]
		q.mu.Unlock()

		select {
		case q.out <- v:
		case <-q.done:
			return
		}
	}
}
