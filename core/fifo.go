package core

// Fifo is a fixed-capacity circular buffer with exact count tracking.
// It is shared between one producer and one consumer under the tick
// discipline: engines inspect it during Compute and move data during
// Commit, external callers use it between ticks. All operations are O(1).
//
// Push on a full Fifo and Pop on an empty Fifo are no-ops that leave the
// count untouched.
type Fifo[T any] struct {
	buf   []T
	read  int
	write int
	count int
}

// NewFifo creates a Fifo holding at most capacity items
func NewFifo[T any](capacity int) *Fifo[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Fifo[T]{buf: make([]T, capacity)}
}

// Push appends v. It returns false and changes nothing if the Fifo is full.
func (f *Fifo[T]) Push(v T) bool {
	if f.count == len(f.buf) {
		return false
	}
	f.buf[f.write] = v
	f.write = (f.write + 1) % len(f.buf)
	f.count++
	return true
}

// Pop removes and returns the oldest item, or (zero, false) when empty
func (f *Fifo[T]) Pop() (T, bool) {
	var zero T
	if f.count == 0 {
		return zero, false
	}
	v := f.buf[f.read]
	f.buf[f.read] = zero
	f.read = (f.read + 1) % len(f.buf)
	f.count--
	return v, true
}

// Peek returns the oldest item without removing it
func (f *Fifo[T]) Peek() (T, bool) {
	var zero T
	if f.count == 0 {
		return zero, false
	}
	return f.buf[f.read], true
}

// Len returns the number of buffered items
func (f *Fifo[T]) Len() int { return f.count }

// Cap returns the fixed capacity
func (f *Fifo[T]) Cap() int { return len(f.buf) }

// Full reports count == capacity
func (f *Fifo[T]) Full() bool { return f.count == len(f.buf) }

// Empty reports count == 0
func (f *Fifo[T]) Empty() bool { return f.count == 0 }

// Reset discards all buffered items
func (f *Fifo[T]) Reset() {
	var zero T
	for i := range f.buf {
		f.buf[i] = zero
	}
	f.read = 0
	f.write = 0
	f.count = 0
}
