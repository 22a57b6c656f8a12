package stats

// Window is a fixed-capacity FIFO buffer over the most recent values.
// Pushing into a full window evicts the oldest value first; nothing else
// removes elements.
type Window[T any] struct {
	buf   []T
	head  int
	count int
}

// NewWindow returns an empty window holding at most capacity values.
func NewWindow[T any](capacity int) *Window[T] {
	if capacity <= 0 {
		panic("stats: window capacity must be positive")
	}
	return &Window[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest value when the window is full.
func (w *Window[T]) Push(v T) {
	w.buf[(w.head+w.count)%len(w.buf)] = v
	if w.count < len(w.buf) {
		w.count++
	} else {
		w.head = (w.head + 1) % len(w.buf)
	}
}

// Len returns the number of values currently held, always <= Cap.
func (w *Window[T]) Len() int { return w.count }

// Cap returns the fixed capacity.
func (w *Window[T]) Cap() int { return len(w.buf) }

// IsEmpty reports whether no value has been pushed yet.
func (w *Window[T]) IsEmpty() bool { return w.count == 0 }

// Snapshot returns a copy of the window contents, oldest first.
func (w *Window[T]) Snapshot() []T {
	out := make([]T, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}
