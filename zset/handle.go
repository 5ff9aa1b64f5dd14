package zset

// InputHandle is an append/retract interface over a z-set input collection
// (spec.md §6). Pushes accumulate additively until the circuit steps;
// push order within a tick never affects the result.
type InputHandle[T comparable] struct {
	pending *Builder[T]
}

// NewInputHandle returns an empty InputHandle.
func NewInputHandle[T comparable]() *InputHandle[T] {
	return &InputHandle[T]{pending: NewBuilder[T]()}
}

// Push appends v with weight w (negative w is a retraction).
func (h *InputHandle[T]) Push(v T, w Weight) {
	h.pending.Insert(v, w)
}

// Insert is sugar for Push(v, 1).
func (h *InputHandle[T]) Insert(v T) { h.Push(v, 1) }

// Retract is sugar for Push(v, -1).
func (h *InputHandle[T]) Retract(v T) { h.Push(v, -1) }

// TakeDelta drains and returns everything pushed since the last TakeDelta
// call, consolidated. The circuit calls this once per tick per input.
func (h *InputHandle[T]) TakeDelta() ZSet[T] {
	return h.pending.Build()
}

// OutputHandle buffers a stream's per-tick output for the consumer to read
// and then drain (spec.md §4.1 consolidate / take_from_all).
type OutputHandle[T comparable] struct {
	current ZSet[T]
}

// Set records this tick's consolidated output.
func (h *OutputHandle[T]) Set(z ZSet[T]) {
	h.current = z
}

// Read returns this tick's output without draining it.
func (h *OutputHandle[T]) Read() ZSet[T] {
	return h.current
}

// Drain returns this tick's output and clears it, so a consumer that reads
// once per tick never sees a stale value on the next.
func (h *OutputHandle[T]) Drain() ZSet[T] {
	out := h.current
	h.current = Empty[T]()
	return out
}
