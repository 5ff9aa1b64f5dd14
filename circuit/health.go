package circuit

import (
	"github.com/pthm-cable/worldcore/records"
	"github.com/pthm-cable/worldcore/zset"
)

// healthEntityTick is the fold key for damage-event reduction: spec.md §4.6
// aggregates per (entity, tick).
type healthEntityTick struct {
	Entity records.HealthEntityID
	AtTick records.Tick
}

// healthFoldState is the per-(entity,tick) accumulator spec.md §4.6
// describes: a sequenced map (seq -> signed amount, first-write-wins) and
// an unsequenced set (deduped by full payload, per spec.md §9's noted
// probable intent).
type healthFoldState struct {
	sequenced   map[uint64]int32
	unsequenced map[records.DamageEvent]struct{}
}

func newHealthFoldState() healthFoldState {
	return healthFoldState{sequenced: map[uint64]int32{}, unsequenced: map[records.DamageEvent]struct{}{}}
}

func (s healthFoldState) empty() bool {
	return len(s.sequenced) == 0 && len(s.unsequenced) == 0
}

// healthFoldStep folds one DamageEvent with its weight into s, per spec.md
// §4.6: insertion (w>0) adds to the sequenced map (first-write-wins) or the
// unsequenced set; retraction (w<0) removes the matching entry.
func healthFoldStep(s healthFoldState, e records.DamageEvent, w zset.Weight) healthFoldState {
	if w > 0 {
		if e.Seq != nil {
			if _, exists := s.sequenced[*e.Seq]; !exists {
				s.sequenced[*e.Seq] = e.Source.SignedAmount(e.Amount)
			}
			// first-write-wins: a repeat insertion of the same seq is
			// expected to carry the same payload and is otherwise ignored.
		} else {
			s.unsequenced[e] = struct{}{}
		}
		return s
	}
	if e.Seq != nil {
		delete(s.sequenced, *e.Seq)
	} else {
		delete(s.unsequenced, e)
	}
	return s
}

// healthAggregate is the reduction of a healthFoldState to the two values
// the delta computation needs (spec.md §4.6: net signed amount, and the
// highest seq seen, for the output HealthDelta.Seq).
type healthAggregate struct {
	Net      int32
	HasEvent bool
	MaxSeq   *uint64
}

func reduceHealthState(s healthFoldState) healthAggregate {
	agg := healthAggregate{HasEvent: !s.empty()}
	for _, amount := range s.sequenced {
		agg.Net += amount
	}
	for e := range s.unsequenced {
		agg.Net += e.Source.SignedAmount(e.Amount)
	}
	for seq := range s.sequenced {
		seq := seq
		if agg.MaxSeq == nil || seq > *agg.MaxSeq {
			agg.MaxSeq = &seq
		}
	}
	return agg
}

// DeriveHealthDeltas implements spec.md §4.6 in full: fold damage_events
// into per-(entity,tick) state, reduce to a net signed amount, then join
// against the current HealthState snapshot to clamp and detect death.
//
// acc persists across ticks (it is how the fold's state survives between
// calls); the caller (circuit.go) owns one Accumulator for the lifetime of
// the circuit.
func DeriveHealthDeltas(acc *zset.Accumulator[healthEntityTick, healthFoldState], damageDelta zset.ZSet[records.DamageEvent], healthStates zset.ZSet[records.HealthState], atTick records.Tick) zset.ZSet[records.HealthDelta] {
	indexed := zset.IndexBy(damageDelta,
		func(e records.DamageEvent) healthEntityTick { return healthEntityTick{Entity: e.Entity, AtTick: e.AtTick} },
		identity[records.DamageEvent],
	)
	zset.Fold(acc, indexed, newHealthFoldState, healthFoldStep, healthFoldState.empty)

	aggregates := zset.Output(acc, func(k healthEntityTick, s healthFoldState) struct {
		Key healthEntityTick
		Agg healthAggregate
	} {
		return struct {
			Key healthEntityTick
			Agg healthAggregate
		}{k, reduceHealthState(s)}
	})

	// Only this tick's keys matter for delta computation: a key whose fold
	// state didn't change this tick produces no new HealthDelta this tick.
	touched := map[healthEntityTick]struct{}{}
	indexed.ForEach(func(k healthEntityTick, _ records.DamageEvent, _ zset.Weight) { touched[k] = struct{}{} })

	aggByKey := zset.IndexBy(aggregates,
		func(r struct {
			Key healthEntityTick
			Agg healthAggregate
		}) healthEntityTick {
			return r.Key
		},
		identity[struct {
			Key healthEntityTick
			Agg healthAggregate
		}],
	)
	healthByEntity := zset.Index(healthStates, records.HealthState.Key)

	out := zset.NewBuilder[records.HealthDelta]()
	for key := range touched {
		bucket := aggByKey.Get(key)
		var agg healthAggregate
		if key.AtTick == atTick {
			for r, w := range bucket {
				if w > 0 {
					agg = r.Agg
					break
				}
			}
		} else {
			continue
		}
		hsBucket := healthByEntity.Get(key.Entity)
		var hs records.HealthState
		found := false
		for h, w := range hsBucket {
			if w > 0 {
				hs = h
				found = true
				break
			}
		}
		if !found || !agg.HasEvent {
			continue
		}
		current := int32(hs.Current)
		max := int32(hs.Max)
		proposed := current + agg.Net
		clamped := clampInt32(proposed, 0, max)
		delta := clamped - current
		death := current > 0 && clamped == 0
		out.Insert(records.HealthDelta{
			Entity: key.Entity,
			AtTick: key.AtTick,
			Seq:    agg.MaxSeq,
			Delta:  delta,
			Death:  death,
		}, 1)
	}
	return out.Build()
}

func clampInt32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
