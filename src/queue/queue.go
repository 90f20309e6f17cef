package queue

import (
	"context"
	"errors"
	"reflect"
	"sync"
)

// -----------------------------------------------------------------------------
// BackgroundQueue is an unbounded FIFO hand-off between the feed callback
// context (producers) and the single consumer loop. Enqueue never blocks;
// Dequeue blocks until an item arrives or the context is cancelled.
// -----------------------------------------------------------------------------

// ErrNilItem is returned when a nil pointer is enqueued.
var ErrNilItem = errors.New("queue: nil item")

type BackgroundQueue[T any] struct {
	mu     sync.Mutex
	items  []T
	signal chan struct{}
}

// -----------------------------------------------------------------------------

// NewBackgroundQueue creates an empty queue.
func NewBackgroundQueue[T any]() *BackgroundQueue[T] {
	return &BackgroundQueue[T]{
		// Capacity 1 is enough: the signal only has to mark "something was
		// enqueued since the consumer last looked".
		signal: make(chan struct{}, 1),
	}
}

// -----------------------------------------------------------------------------

// Enqueue appends an item and wakes the consumer. Safe for concurrent
// producers.
func (q *BackgroundQueue[T]) Enqueue(item T) error {
	if v := reflect.ValueOf(&item).Elem(); v.Kind() == reflect.Pointer && v.IsNil() {
		return ErrNilItem
	}

	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return nil
}

// -----------------------------------------------------------------------------

// Dequeue removes and returns the oldest item, blocking while the queue is
// empty. Cancellation surfaces as ctx.Err(), distinguishable from any data
// error. Exactly one concurrent consumer is assumed.
func (q *BackgroundQueue[T]) Dequeue(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return item, nil
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// -----------------------------------------------------------------------------

// Len returns the number of queued items.
func (q *BackgroundQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
