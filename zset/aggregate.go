package zset

// Row pairs an aggregate's key with its reduced value.
type Row[K comparable, V any] struct {
	Key   K
	Value V
}

// AggregateMax reduces each key's bucket to the greatest value under less,
// ignoring any value whose net weight is not positive (a retracted value
// contributes nothing). Keys with no positive-weight value are dropped.
func AggregateMax[K comparable, V comparable](ix Indexed[K, V], less func(a, b V) bool) ZSet[Row[K, V]] {
	out := NewBuilder[Row[K, V]]()
	for k, bucket := range ix.m {
		var best V
		has := false
		for v, w := range bucket {
			if w <= 0 {
				continue
			}
			if !has || less(best, v) {
				best, has = v, true
			}
		}
		if has {
			out.Insert(Row[K, V]{Key: k, Value: best}, 1)
		}
	}
	return out.Build()
}

// AggregateMin reduces each key's bucket to the least value under less,
// with the same retraction handling as AggregateMax.
func AggregateMin[K comparable, V comparable](ix Indexed[K, V], less func(a, b V) bool) ZSet[Row[K, V]] {
	return AggregateMax(ix, func(a, b V) bool { return less(b, a) })
}

// AggregateSum reduces each key's bucket to the weighted sum of its values,
// using add/zero/neg as the values' additive group so that a negative
// weight (retraction) correctly removes its prior contribution.
func AggregateSum[K comparable, V comparable](ix Indexed[K, V], zero V, add func(a, b V) V, neg func(a V) V) ZSet[Row[K, V]] {
	out := NewBuilder[Row[K, V]]()
	for k, bucket := range ix.m {
		total := zero
		for v, w := range bucket {
			term := v
			if w < 0 {
				term = neg(v)
				w = -w
			}
			for i := Weight(0); i < w; i++ {
				total = add(total, term)
			}
		}
		out.Insert(Row[K, V]{Key: k, Value: total}, 1)
	}
	return out.Build()
}
