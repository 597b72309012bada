// Package ringbuf provides a fixed-capacity FIFO that drops the oldest item
// when full. Used to hold log lines and MQTT messages until they can be sent.
package ringbuf

// Buffer is a fixed-capacity FIFO.
// Not safe for concurrent use; callers synchronize.
type Buffer[T any] struct {
	buf      []T
	capacity int
	head     int // next write position
	count    int
	dropped  uint64
}

// New creates a buffer holding at most capacity items.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{
		buf:      make([]T, capacity),
		capacity: capacity,
	}
}

// Push appends v. It reports false if the buffer was full and the oldest
// item was overwritten.
func (r *Buffer[T]) Push(v T) bool {
	if r.count == r.capacity {
		// Overwrite oldest: head is already pointing at it
		r.buf[r.head] = v
		r.head = (r.head + 1) % r.capacity
		r.dropped++
		return false
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % r.capacity
	r.count++
	return true
}

// DrainAll removes and returns every item, oldest first.
func (r *Buffer[T]) DrainAll() []T {
	if r.count == 0 {
		return nil
	}

	result := make([]T, r.count)
	// Oldest item is at (head - count) mod capacity
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		result[i] = r.buf[(start+i)%r.capacity]
	}

	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.count = 0
	r.head = 0
	return result
}

// Len returns the number of buffered items.
func (r *Buffer[T]) Len() int {
	return r.count
}

// Dropped returns the number of items overwritten since creation.
func (r *Buffer[T]) Dropped() uint64 {
	return r.dropped
}
