// Package queue provides a bounded queue that never blocks its producer.
package queue

import (
	"context"
	"sync"
)

// Dropping is a bounded FIFO. Push on a full queue evicts the oldest item.
type Dropping[T any] struct {
	mu      sync.Mutex
	items   chan T
	dropped uint64
}

func NewDropping[T any](capacity int) *Dropping[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Dropping[T]{items: make(chan T, capacity)}
}

// Push inserts v and reports whether an older item was evicted to make room.
func (q *Dropping[T]) Push(v T) (evicted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		select {
		case q.items <- v:
			return evicted
		default:
		}
		// Full: discard the head. A concurrent Pop may have emptied a slot
		// meanwhile, in which case the receive falls through and we retry.
		select {
		case <-q.items:
			evicted = true
			q.dropped++
		default:
		}
	}
}

// Pop blocks until an item is available or ctx is done.
func (q *Dropping[T]) Pop(ctx context.Context) (T, bool) {
	select {
	case v := <-q.items:
		return v, true
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

func (q *Dropping[T]) TryPop() (T, bool) {
	select {
	case v := <-q.items:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// C exposes the receive side for use in a select. Receiving from it is
// equivalent to a successful Pop.
func (q *Dropping[T]) C() <-chan T { return q.items }

func (q *Dropping[T]) Len() int { return len(q.items) }

func (q *Dropping[T]) Cap() int { return cap(q.items) }

// Dropped returns how many items were evicted since creation.
func (q *Dropping[T]) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
