package circuit

import (
	"testing"

	"github.com/pthm-cable/worldcore/records"
	"github.com/pthm-cable/worldcore/zset"
)

func TestApplyMovementShiftsPositionsWithADecision(t *testing.T) {
	base := positionSet(records.Position{Entity: 1, X: records.Of(0), Y: records.Of(0), Z: records.Of(5)})
	decisions := zset.Single(records.MovementDecision{Entity: 1, DX: records.Of(0.5), DY: records.Of(-0.5)}, 1)

	out := ApplyMovement(base, decisions)
	p, _ := onlyEntry(t, out)
	if !approxEqual(p.X.Float(), 0.5) || !approxEqual(p.Y.Float(), -0.5) || !approxEqual(p.Z.Float(), 5) {
		t.Fatalf("expected position shifted by the decision with z untouched, got %+v", p)
	}
}

func TestApplyMovementLeavesUndecidedPositionsUntouched(t *testing.T) {
	base := positionSet(
		records.Position{Entity: 1, X: records.Of(0), Y: records.Of(0), Z: records.Of(5)},
		records.Position{Entity: 2, X: records.Of(9), Y: records.Of(9), Z: records.Of(9)},
	)
	decisions := zset.Single(records.MovementDecision{Entity: 1, DX: records.Of(1), DY: records.Of(0)}, 1)

	out := ApplyMovement(base, decisions)
	if out.Len() != 2 {
		t.Fatalf("expected both entities to produce a position, got %v", out.Entries())
	}
	untouched := records.Position{Entity: 2, X: records.Of(9), Y: records.Of(9), Z: records.Of(9)}
	if out.Weight(untouched) != 1 {
		t.Fatalf("expected entity 2's position to pass through unchanged, got %v", out.Entries())
	}
}
