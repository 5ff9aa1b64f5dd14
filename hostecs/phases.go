package hostecs

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/worldcore/records"
	"github.com/pthm-cable/worldcore/zset"
)

// Run drives one full cycle of the four mutually-exclusive phases spec.md
// §4.10/§5 describe: cache_inputs -> step -> apply_outputs -> clear_inputs.
// All four run on the calling goroutine; nothing here spawns a goroutine.
func (s *Sync) Run() {
	s.cacheInputs()
	stepErr := s.c.Step()
	if stepErr != nil {
		slog.Error("circuit step failed", "context", stepErr.Context, "detail", stepErr.Detail)
		if s.tel != nil {
			s.tel.RecordStepFailure()
		}
		s.clearInputs()
		return
	}
	s.applyOutputs()
	s.recordLandingTelemetry()
	s.clearInputs()
}

// recordLandingTelemetry implements the telemetry side of spec.md §4.5's
// landing/cooldown output: every landing that produced fall damage and
// every cooldown-suppressed landing this tick is counted.
func (s *Sync) recordLandingTelemetry() {
	if s.tel == nil {
		return
	}
	s.c.FallDamageOut.Read().ForEach(func(d records.DamageEvent, w zset.Weight) {
		if w > 0 {
			s.tel.RecordLanding(d.Amount)
		}
	})
	s.c.SuppressedLandingOut.Read().ForEach(func(_ records.EntityID, w zset.Weight) {
		if w > 0 {
			s.tel.RecordSuppressedLanding()
		}
	})
}

// cacheInputs implements spec.md §4.10 steps 1-4: republish every snapshot
// component (retracting what was pushed last tick first, so the reducer
// never sees a stale baseline), then drain and dedup the damage inbox.
func (s *Sync) cacheInputs() {
	filter := ecs.NewFilter1[Position](s.world)
	query := filter.Query()
	for query.Next() {
		e := query.Entity()
		pos := query.Get()
		id, ok := s.toCircuit[e]
		if !ok {
			continue
		}
		s.c.PositionIn.Insert(records.Position{Entity: id, X: records.Of(pos.X), Y: records.Of(pos.Y), Z: records.Of(pos.Z)})

		if vel := s.velMap.Get(e); vel != nil {
			s.c.VelocityIn.Insert(records.Velocity{Entity: id, VX: records.Of(vel.VX), VY: records.Of(vel.VY), VZ: records.Of(vel.VZ)})
		}
		if s.forceMap.Has(e) {
			f := s.forceMap.Get(e)
			rf := records.Force{Entity: id, FX: records.Of(f.FX), FY: records.Of(f.FY), FZ: records.Of(f.FZ)}
			if f.Mass != nil {
				m := records.Of(*f.Mass)
				rf.Mass = &m
			}
			s.c.ForceIn.Insert(rf)
		}
		if s.targetMap.Has(e) {
			t := s.targetMap.Get(e)
			s.c.TargetIn.Insert(records.Target{Entity: id, X: records.Of(t.X), Y: records.Of(t.Y)})
		}
		if s.fearMap.Has(e) {
			f := s.fearMap.Get(e)
			s.c.FearIn.Insert(records.FearLevel{Entity: id, Level: records.Of(f.Level)})
		}
	}

	healthFilter := ecs.NewFilter1[HealthState](s.world)
	hq := healthFilter.Query()
	for hq.Next() {
		e := hq.Entity()
		hid, ok := s.healthToID[e]
		if !ok {
			continue
		}
		hs := hq.Get()
		current, max := clampHealth(hs.Current, hs.Max)
		snapshot := records.HealthState{Entity: hid, Current: current, Max: max}
		if prev, ok := s.lastHealthSnapshot[hid]; ok {
			s.c.HealthStateIn.Retract(prev)
		}
		s.c.HealthStateIn.Insert(snapshot)
		s.lastHealthSnapshot[hid] = snapshot
	}

	s.retractExpiredDamage()
	s.drainDamageInbox()
}

func clampHealth(current, max uint16) (uint16, uint16) {
	if current > max {
		slog.Warn("hostecs: clamping health snapshot above max", "current", current, "max", max)
		return max, max
	}
	return current, max
}

// retractExpiredDamage implements spec.md §4.10 step 2: every DamageEvent
// pushed last tick that has not yet been retracted is retracted now, and
// recorded as an expected retraction so applyOutputs skips any HealthDelta
// carrying the same (entity, at_tick, seq) instead of applying it again.
func (s *Sync) retractExpiredDamage() {
	for k, e := range s.pendingDamage {
		s.c.DamageIn.Retract(e)
		s.expectedRetraction[k] = struct{}{}
		delete(s.pendingDamage, k)
	}
}

// drainDamageInbox implements spec.md §4.10 step 3: dedup inbound damage
// events before pushing them. Sequenced events are rejected if their
// (entity, at_tick, seq) tuple has already been applied this lifetime;
// unsequenced events are rejected if an identical payload is already
// pending this tick.
func (s *Sync) drainDamageInbox() {
	for _, e := range s.damageInbox {
		k := keyOf(e)
		if e.Seq != nil {
			sk := seqKey{Entity: e.Entity, AtTick: e.AtTick, Seq: *e.Seq}
			if _, applied := s.appliedDeltaSeq[sk]; applied {
				s.recordDuplicate()
				continue
			}
		}
		if _, pending := s.pendingDamage[k]; pending {
			s.recordDuplicate()
			continue
		}
		s.c.DamageIn.Insert(e)
		s.pendingDamage[k] = e
	}
	s.damageInbox = s.damageInbox[:0]
}

func (s *Sync) recordDuplicate() {
	if s.tel != nil {
		s.tel.RecordDuplicateDamage()
	}
}

// applyOutputs implements spec.md §4.10 step 6: write positions/velocities
// back, and apply HealthDelta rows (skipping expected retractions and
// duplicates, clamping, and updating the live HealthState component).
func (s *Sync) applyOutputs() {
	s.c.NewPositionOut.Read().ForEach(func(p records.Position, w zset.Weight) {
		if w <= 0 {
			return
		}
		e, ok := s.toEntity[p.Entity]
		if !ok {
			slog.Warn("hostecs: position output for unknown entity", "entity", p.Entity)
			return
		}
		s.posMap.Set(e, &Position{X: p.X.Float(), Y: p.Y.Float(), Z: p.Z.Float()})
	})

	s.c.NewVelocityOut.Read().ForEach(func(v records.Velocity, w zset.Weight) {
		if w <= 0 {
			return
		}
		e, ok := s.toEntity[v.Entity]
		if !ok {
			return
		}
		s.velMap.Set(e, &Velocity{VX: v.VX.Float(), VY: v.VY.Float(), VZ: v.VZ.Float()})
	})

	s.c.HealthDeltaOut.Read().ForEach(func(d records.HealthDelta, w zset.Weight) {
		if w <= 0 {
			return
		}
		k := damageKey{Entity: d.Entity, AtTick: d.AtTick}
		if d.Seq != nil {
			k.Seq, k.HasSeq = *d.Seq, true
		}
		if _, expected := s.expectedRetraction[k]; expected {
			return
		}
		if d.Seq != nil {
			sk := seqKey{Entity: d.Entity, AtTick: d.AtTick, Seq: *d.Seq}
			if _, applied := s.appliedDeltaSeq[sk]; applied {
				s.recordDuplicate()
				return
			}
			s.appliedDeltaSeq[sk] = struct{}{}
		}
		e, ok := s.idToHealth[d.Entity]
		if !ok {
			slog.Warn("hostecs: health delta for unknown entity", "entity", d.Entity)
			return
		}
		hs := s.healthMap.Get(e)
		if hs == nil {
			return
		}
		newCurrent := clampInt(int32(hs.Current)+d.Delta, 0, int32(hs.Max))
		s.healthMap.Set(e, &HealthState{Current: uint16(newCurrent), Max: hs.Max})
		if d.Death && s.tel != nil {
			s.tel.RecordDeath()
		}
	})
}

func clampInt(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clearInputs drops any buffered-but-undrained output, so a tick where the
// consumer never called Read doesn't leak a stale value into the next
// cycle's Read.
func (s *Sync) clearInputs() {
	s.c.NewPositionOut.Drain()
	s.c.NewVelocityOut.Drain()
	s.c.HighestBlockOut.Drain()
	s.c.FloorHeightOut.Drain()
	s.c.PositionFloorOut.Drain()
	s.c.HealthDeltaOut.Drain()
	s.c.FallDamageOut.Drain()
	s.c.SuppressedLandingOut.Drain()
}
