package zset

// Accumulator holds per-key fold state across ticks. The zero value is
// ready to use.
type Accumulator[K comparable, S any] struct {
	state map[K]S
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator[K comparable, S any]() *Accumulator[K, S] {
	return &Accumulator[K, S]{state: map[K]S{}}
}

// Get returns the current state for k and whether it has ever been touched.
func (a *Accumulator[K, S]) Get(k K) (S, bool) {
	s, ok := a.state[k]
	return s, ok
}

// Delete removes k's state entirely, e.g. once a fold's output reports the
// key has gone empty.
func (a *Accumulator[K, S]) Delete(k K) {
	delete(a.state, k)
}

// Fold applies step to every (value, weight) pair in delta's bucket for
// each key that changed this tick, threading the per-key accumulator state
// S across ticks. step must handle negative weights itself (spec.md §4.1):
// a retraction is not "skip this value", it is "undo whatever step did when
// this value arrived with positive weight".
//
// empty reports whether a state value should be treated as absent (so a key
// whose bucket folds back down to nothing is removed rather than retained
// forever with a zero-ish state).
func Fold[K comparable, V comparable, S any](
	acc *Accumulator[K, S],
	delta Indexed[K, V],
	init func() S,
	step func(s S, v V, w Weight) S,
	empty func(s S) bool,
) {
	if acc.state == nil {
		acc.state = map[K]S{}
	}
	for k, bucket := range delta.m {
		s, ok := acc.state[k]
		if !ok {
			s = init()
		}
		for v, w := range bucket {
			s = step(s, v, w)
		}
		if empty != nil && empty(s) {
			delete(acc.state, k)
		} else {
			acc.state[k] = s
		}
	}
}

// Output projects every live accumulator entry through f into a z-set with
// weight 1, for folds whose state doubles as the circuit's output
// (e.g. the health reducer's running aggregate).
func Output[K comparable, S any, O comparable](acc *Accumulator[K, S], f func(k K, s S) O) ZSet[O] {
	b := NewBuilder[O]()
	for k, s := range acc.state {
		b.Insert(f(k, s), 1)
	}
	return b.Build()
}
