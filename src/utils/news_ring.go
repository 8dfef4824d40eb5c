package utils

import (
	"resource-streamer/src/models"
)

// -----------------------------------------------------------------------------
// NewsRing is a fixed-size circular buffer of news items.
// True ring buffer - no resizing, oldest entries evicted first.
// -----------------------------------------------------------------------------

type NewsRing struct {
	data     []models.MNewsItem
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewNewsRing creates a new buffer with fixed capacity
func NewNewsRing(capacity int) *NewsRing {
	if capacity <= 0 {
		capacity = 100 // Default reasonable size
	}

	return &NewsRing{
		data:     make([]models.MNewsItem, capacity),
		capacity: capacity,
		index:    0,
		size:     0,
	}
}

// -----------------------------------------------------------------------------

// Append adds one item, evicting the oldest when full
func (rb *NewsRing) Append(item models.MNewsItem) {
	rb.data[rb.index] = item
	rb.index = (rb.index + 1) % rb.capacity

	// Update size (never exceeds capacity)
	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// Latest returns the n newest items in insertion order (oldest of the n first)
func (rb *NewsRing) Latest(n int) []models.MNewsItem {
	if rb.size == 0 || n <= 0 {
		return []models.MNewsItem{}
	}

	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([]models.MNewsItem, count)

	// Latest data is at index-1
	startIdx := (rb.index - count + rb.capacity) % rb.capacity

	for i := 0; i < count; i++ {
		idx := (startIdx + i) % rb.capacity
		result[i] = rb.data[idx]
	}

	return result
}

// -----------------------------------------------------------------------------

// All returns every buffered item in insertion order (oldest to newest).
// The returned slice is a fresh copy; callers may hand it out freely.
func (rb *NewsRing) All() []models.MNewsItem {
	if rb.size == 0 {
		return []models.MNewsItem{}
	}

	result := make([]models.MNewsItem, rb.size)

	// Calculate start index (oldest element)
	var startIdx int
	if rb.size == rb.capacity {
		// Buffer is full, oldest is at current index (wrap-around)
		startIdx = rb.index
	} else {
		// Buffer not full, oldest is at index 0
		startIdx = 0
	}

	for i := 0; i < rb.size; i++ {
		idx := (startIdx + i) % rb.capacity
		result[i] = rb.data[idx]
	}

	return result
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *NewsRing) Size() int {
	return rb.size
}

// -----------------------------------------------------------------------------

// Capacity returns buffer capacity (fixed)
func (rb *NewsRing) Capacity() int {
	return rb.capacity
}

// -----------------------------------------------------------------------------

// IsFull returns whether buffer is full
func (rb *NewsRing) IsFull() bool {
	return rb.size == rb.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer
func (rb *NewsRing) Clear() {
	rb.index = 0
	rb.size = 0
}
