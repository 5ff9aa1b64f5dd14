package circuit

import (
	"github.com/pthm-cable/worldcore/records"
	"github.com/pthm-cable/worldcore/zset"
)

// ApplyMovement implements spec.md §4.8: antijoin base positions by the
// entity set of movement decisions to find untouched positions, join the
// rest with their decision, and union the two branches. The vertical axis
// is never touched here.
func ApplyMovement(basePositions zset.ZSet[records.Position], decisions zset.ZSet[records.MovementDecision]) zset.ZSet[records.Position] {
	posByEntity := zset.Index(basePositions, records.Position.Key)
	decisionKeys := zset.Map(decisions, records.MovementDecision.Key)
	decisionsByEntity := zset.Index(decisions, records.MovementDecision.Key)

	untouched := zset.Antijoin(posByEntity, decisionKeys)
	moved := zset.Join(posByEntity, decisionsByEntity, func(_ records.EntityID, p records.Position, d records.MovementDecision) records.Position {
		return records.Position{
			Entity: p.Entity,
			X:      records.Of(p.X.Float() + d.DX.Float()),
			Y:      records.Of(p.Y.Float() + d.DY.Float()),
			Z:      p.Z,
		}
	})

	return zset.Plus(untouched, moved)
}
