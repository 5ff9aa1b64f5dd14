package circuit

import (
	"math"

	"github.com/pthm-cable/worldcore/config"
	"github.com/pthm-cable/worldcore/records"
	"github.com/pthm-cable/worldcore/zset"
)

// DefaultFear implements spec.md §4.7 step 1: every entity with a Position
// but no FearLevel is synthesized a level-0 row, via antijoin of positions'
// entity keys against fear's entity keys followed by a union with the real
// fear rows.
func DefaultFear(positions zset.ZSet[records.Position], fear zset.ZSet[records.FearLevel]) zset.ZSet[records.FearLevel] {
	posByEntity := zset.IndexBy(positions, records.Position.Key, records.Position.Key)
	fearKeys := zset.Map(fear, records.FearLevel.Key)
	missing := zset.Antijoin(posByEntity, fearKeys)
	defaulted := zset.Map(missing, func(e records.EntityID) records.FearLevel {
		return records.FearLevel{Entity: e, Level: records.Of(0)}
	})
	return zset.Plus(fear, defaulted)
}

// DeriveMovement implements spec.md §4.7 steps 2-5: join position with
// target and (defaulted) fear, then produce a unit-length vector toward the
// target, or away from it if the entity's fear exceeds the threshold.
// "Equal to threshold" is treated as not afraid (strict >).
func DeriveMovement(positions zset.ZSet[records.Position], targets zset.ZSet[records.Target], fear zset.ZSet[records.FearLevel], c *config.Constants) zset.ZSet[records.MovementDecision] {
	posByEntity := zset.Index(positions, records.Position.Key)
	targetByEntity := zset.Index(targets, records.Target.Key)
	fearByEntity := zset.Index(fear, records.FearLevel.Key)

	type posTarget struct {
		Position records.Position
		Target   records.Target
	}
	withTarget := zset.Join(posByEntity, targetByEntity, func(_ records.EntityID, p records.Position, t records.Target) posTarget {
		return posTarget{Position: p, Target: t}
	})

	withTargetByEntity := zset.IndexBy(withTarget, func(pt posTarget) records.EntityID { return pt.Position.Entity }, identity[posTarget])

	return zset.Join(withTargetByEntity, fearByEntity, func(entity records.EntityID, pt posTarget, f records.FearLevel) records.MovementDecision {
		dx := pt.Target.X.Float() - pt.Position.X.Float()
		dy := pt.Target.Y.Float() - pt.Position.Y.Float()
		if f.Level.Float() > c.Behaviour.FearThreshold {
			dx, dy = -dx, -dy
		}
		mag := math.Hypot(dx, dy)
		if mag == 0 {
			return records.MovementDecision{Entity: entity, DX: records.Of(0), DY: records.Of(0)}
		}
		return records.MovementDecision{Entity: entity, DX: records.Of(dx / mag), DY: records.Of(dy / mag)}
	})
}
