package circuit

import (
	"testing"

	"github.com/pthm-cable/worldcore/records"
	"github.com/pthm-cable/worldcore/zset"
)

func entitySet(entities ...records.EntityID) zset.ZSet[records.EntityID] {
	b := zset.NewBuilder[records.EntityID]()
	for _, e := range entities {
		b.Insert(e, 1)
	}
	return b.Build()
}

func TestDeriveLandingsJoinsPrevUnsupportedWithStanding(t *testing.T) {
	prev := entitySet(1, 2)
	standing := entitySet(2, 3)
	out := DeriveLandings(prev, standing)
	if out.Weight(2) != 1 || out.Len() != 1 {
		t.Fatalf("expected only entity 2 (unsupported last tick, standing now) to land, got %v", out.Entries())
	}
}

func TestDeriveAllowedLandingsDropsCoolingEntities(t *testing.T) {
	landings := entitySet(1, 2)
	cooling := entitySet(1)
	out := DeriveAllowedLandings(landings, cooling)
	if out.Weight(1) != 0 || out.Weight(2) != 1 {
		t.Fatalf("expected entity 1 suppressed by cooldown, got %v", out.Entries())
	}
}

func TestDeriveFallDamageAboveSafeSpeedProducesDamage(t *testing.T) {
	c := testConfig()
	allowed := entitySet(1)
	prevVel := velocitySet(records.Velocity{Entity: 1, VX: records.Of(0), VY: records.Of(0), VZ: records.Of(-8.0)})
	out := DeriveFallDamage(allowed, prevVel, 42, c)
	d, w := onlyEntry(t, out)
	if w != 1 {
		t.Fatalf("expected one damage event, got %v", out.Entries())
	}
	// speed=8, excess over safe(5)=3, scale=2.0 -> amount=6
	if d.Amount != 6 || d.Source != records.SourceFall || d.AtTick != 42 {
		t.Fatalf("expected fall damage of 6 at tick 42, got %+v", d)
	}
	if d.Entity != toHealthEntity(1) {
		t.Fatalf("expected damage targeted at the health-domain bridge of entity 1, got %v", d.Entity)
	}
}

func TestDeriveFallDamageBelowSafeSpeedProducesNoDamage(t *testing.T) {
	c := testConfig()
	allowed := entitySet(1)
	prevVel := velocitySet(records.Velocity{Entity: 1, VX: records.Of(0), VY: records.Of(0), VZ: records.Of(-3.0)})
	out := DeriveFallDamage(allowed, prevVel, 1, c)
	if out.Len() != 0 {
		t.Fatalf("expected no damage for a landing below the safe speed, got %v", out.Entries())
	}
}

func TestDeriveFallDamageClampsToTerminalVelocity(t *testing.T) {
	c := testConfig()
	allowed := entitySet(1)
	// downward speed far exceeds terminal velocity (20); clamp applies before the excess calc.
	prevVel := velocitySet(records.Velocity{Entity: 1, VX: records.Of(0), VY: records.Of(0), VZ: records.Of(-500.0)})
	out := DeriveFallDamage(allowed, prevVel, 1, c)
	d, _ := onlyEntry(t, out)
	// clamped speed=20, excess over safe(5)=15, scale=2.0 -> amount=30
	if d.Amount != 30 {
		t.Fatalf("expected damage computed off the terminal-velocity clamp, got %d", d.Amount)
	}
}

func TestToHealthEntityIsANumericCast(t *testing.T) {
	if toHealthEntity(records.EntityID(7)) != records.HealthEntityID(7) {
		t.Fatalf("expected toHealthEntity to be a direct numeric cast")
	}
}
