package circuit

import (
	"math"

	"github.com/pthm-cable/worldcore/config"
	"github.com/pthm-cable/worldcore/records"
	"github.com/pthm-cable/worldcore/zset"
)

// DeriveLandings implements spec.md §4.5 step 1-2: a landing is an entity
// that was unsupported at the end of the previous tick and is standing this
// tick. prevUnsupported is expected to already be delay()ed by the caller
// (circuit.go owns the Delay instance since it must persist across ticks).
func DeriveLandings(prevUnsupported, standing zset.ZSet[records.EntityID]) zset.ZSet[records.EntityID] {
	prevByEntity := zset.Index(prevUnsupported, identity[records.EntityID])
	standingByEntity := zset.Index(standing, identity[records.EntityID])
	return zset.Join(prevByEntity, standingByEntity, func(k records.EntityID, _, _ records.EntityID) records.EntityID { return k })
}

// DeriveAllowedLandings implements spec.md §4.5's cooldown: a landing is
// suppressed if the entity is still "cooling" from a prior landing within
// the configured window. coolingEntities is the caller-maintained
// delay(active_cooldown) set (circuit.go owns the Integrator/DelayN chain
// that produces it, since it is stateful across ticks).
func DeriveAllowedLandings(landings, coolingEntities zset.ZSet[records.EntityID]) zset.ZSet[records.EntityID] {
	byEntity := zset.Index(landings, identity[records.EntityID])
	return zset.Antijoin(byEntity, coolingEntities)
}

// fallCandidate carries whether a landing actually produced damage, since
// Join has no way to drop a row outright (that is what the following
// FlatMap is for).
type fallCandidate struct {
	Event records.DamageEvent
	Emit  bool
}

// DeriveFallDamage implements spec.md §4.5's damage derivation: for each
// allowed landing, look up the entity's pre-landing integrated velocity
// (the caller-supplied delay(integrated_velocity) from the previous tick)
// and compute the fall-damage amount from its downward speed.
func DeriveFallDamage(allowedLandings zset.ZSet[records.EntityID], prevIntegratedVelocity zset.ZSet[records.Velocity], atTick records.Tick, c *config.Constants) zset.ZSet[records.DamageEvent] {
	landingByEntity := zset.Index(allowedLandings, identity[records.EntityID])
	velByEntity := zset.Index(prevIntegratedVelocity, records.Velocity.Key)

	candidates := zset.Join(landingByEntity, velByEntity, func(entity records.EntityID, _ records.EntityID, v records.Velocity) fallCandidate {
		speed := math.Max(0, -v.VZ.Float())
		clamped := math.Min(speed, c.Physics.TerminalVelocity)
		excess := clamped - c.Landing.SafeLandingSpeed
		if excess <= 0 {
			return fallCandidate{}
		}
		damageRaw := excess * c.Landing.FallDamageScale
		if damageRaw <= 0 {
			return fallCandidate{}
		}
		amount := math.Floor(math.Min(damageRaw, math.MaxUint16))
		if amount == 0 {
			return fallCandidate{}
		}
		return fallCandidate{
			Emit: true,
			Event: records.DamageEvent{
				Entity: toHealthEntity(entity),
				AtTick: atTick,
				Source: records.SourceFall,
				Amount: uint16(amount),
			},
		}
	})

	return zset.FlatMap(candidates, func(c fallCandidate) []records.DamageEvent {
		if !c.Emit {
			return nil
		}
		return []records.DamageEvent{c.Event}
	})
}

// toHealthEntity bridges the kinematics domain's signed EntityID to the
// health domain's HealthEntityID. spec.md does not address this bridge
// directly (Position/Velocity/Force use i64 ids, HealthState/DamageEvent
// use u64). It is a direct numeric cast, so a negative EntityID wraps to a
// large HealthEntityID; hostecs.SpawnHealth refuses to attach health to a
// negative id, so such an id never has a HealthState snapshot to match.
func toHealthEntity(e records.EntityID) records.HealthEntityID {
	return records.HealthEntityID(e)
}
