package pubsub

import (
	"context"
	"sync"
)

// Value holds the latest T and fans every change out to its subscribers.
// A new subscriber receives the current value first, then every later
// Store in order. History before the subscription is never replayed.
type Value[T any] struct {
	mu     sync.Mutex
	cur    T
	subs   map[*Queue[T]]struct{}
	closed bool
}

// NewValue creates a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		cur:  initial,
		subs: make(map[*Queue[T]]struct{}),
	}
}

// Load returns the current value.
func (v *Value[T]) Load() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Store replaces the current value and publishes it.
func (v *Value[T]) Store(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.storeLocked(x)
}

// Update replaces the current value with fn(current) atomically with
// respect to other writers and publishes the result.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	next := fn(v.cur)
	v.storeLocked(next)
	return next
}

func (v *Value[T]) storeLocked(x T) {
	v.cur = x
	if v.closed {
		return
	}
	for q := range v.subs {
		q.Push(x)
	}
}

// Subscribe returns a channel that yields the current value immediately and
// then every subsequent change. The channel closes when ctx is done or the
// Value is closed.
func (v *Value[T]) Subscribe(ctx context.Context) <-chan T {
	q := NewQueue[T]()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		q.Close()
		return q.Out()
	}
	q.Push(v.cur)
	v.subs[q] = struct{}{}
	v.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-q.Done():
		}
		v.mu.Lock()
		delete(v.subs, q)
		v.mu.Unlock()
		q.Close()
	}()

	return q.Out()
}

// Subscribers returns the number of live subscriptions.
func (v *Value[T]) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

// Close ends every subscription. Load keeps working; Store no longer
// publishes.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	for q := range v.subs {
		q.Close()
	}
	v.subs = make(map[*Queue[T]]struct{})
}
