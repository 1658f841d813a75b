package worker

// DefaultHistorySize is the number of finished jobs kept by default
const DefaultHistorySize = 20

// History is a fixed-capacity ring buffer. When full, pushing a new
// item evicts the oldest one. Not safe for concurrent use.
type History[T any] struct {
	items []T
	next  int // slot for the next push
	size  int
}

// NewHistory creates a History holding at most capacity items
func NewHistory[T any](capacity int) *History[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &History[T]{items: make([]T, capacity)}
}

// Push inserts item as the newest entry
func (h *History[T]) Push(item T) {
	h.items[h.next] = item
	h.next = (h.next + 1) % len(h.items)
	if h.size < len(h.items) {
		h.size++
	}
}

// Len returns the number of stored items
func (h *History[T]) Len() int {
	return h.size
}

// Cap returns the capacity
func (h *History[T]) Cap() int {
	return len(h.items)
}

// Newest returns the most recently pushed item
func (h *History[T]) Newest() (T, bool) {
	var zero T
	if h.size == 0 {
		return zero, false
	}
	return h.items[(h.next-1+len(h.items))%len(h.items)], true
}

// List returns the items newest-first
func (h *History[T]) List() []T {
	out := make([]T, 0, h.size)
	for i := 1; i <= h.size; i++ {
		out = append(out, h.items[(h.next-i+len(h.items))%len(h.items)])
	}
	return out
}
