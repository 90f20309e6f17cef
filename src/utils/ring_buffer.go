package utils

import (
	"quote-relay/src/models"
)

// -----------------------------------------------------------------------------
// TickRing is a fixed-size circular buffer of raw quotes. One instance backs
// the rolling window of a single translation rule, so no locking is needed:
// the consumer loop is its only writer and reader.
// -----------------------------------------------------------------------------

type TickRing struct {
	data     []models.MQuote
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewTickRing creates a new buffer with fixed capacity
func NewTickRing(capacity int) *TickRing {
	if capacity <= 0 {
		capacity = 10
	}

	return &TickRing{
		data:     make([]models.MQuote, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append adds a quote, evicting the oldest when the buffer is full.
func (rb *TickRing) Append(q models.MQuote) {
	rb.data[rb.index] = q
	rb.index = (rb.index + 1) % rb.capacity

	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// Items returns all quotes in insertion order (oldest to newest)
func (rb *TickRing) Items() []models.MQuote {
	if rb.size == 0 {
		return []models.MQuote{}
	}

	result := make([]models.MQuote, rb.size)

	var startIdx int
	if rb.size == rb.capacity {
		// Buffer is full, oldest is at current index (wrap-around)
		startIdx = rb.index
	}

	for i := 0; i < rb.size; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}

	return result
}

// -----------------------------------------------------------------------------

// Spreads returns ask-bid for every held quote, oldest to newest.
func (rb *TickRing) Spreads() []float64 {
	items := rb.Items()
	result := make([]float64, len(items))
	for i, q := range items {
		result[i] = q.Spread()
	}
	return result
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *TickRing) Size() int {
	return rb.size
}

// -----------------------------------------------------------------------------

// Capacity returns buffer capacity (fixed until Resize)
func (rb *TickRing) Capacity() int {
	return rb.capacity
}

// -----------------------------------------------------------------------------

// IsFull returns whether buffer is full
func (rb *TickRing) IsFull() bool {
	return rb.size == rb.capacity
}

// -----------------------------------------------------------------------------

// Resize changes the capacity of the buffer.
// If newCapacity < size, oldest data is dropped.
func (rb *TickRing) Resize(newCapacity int) {
	if newCapacity <= 0 || newCapacity == rb.capacity {
		return
	}

	newData := make([]models.MQuote, newCapacity)

	count := rb.size
	if count > newCapacity {
		count = newCapacity
	}

	// Copy the newest 'count' items into the new buffer
	startIdx := (rb.index - count + rb.capacity) % rb.capacity
	for i := 0; i < count; i++ {
		newData[i] = rb.data[(startIdx+i)%rb.capacity]
	}

	rb.data = newData
	rb.capacity = newCapacity
	rb.size = count
	rb.index = count % newCapacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer
func (rb *TickRing) Clear() {
	rb.index = 0
	rb.size = 0
}
