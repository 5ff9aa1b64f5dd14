package circuit

import (
	"testing"

	"github.com/pthm-cable/worldcore/records"
)

// groundFloor pushes a single flat block under column (0,0) so entity 1 has
// somewhere to land.
func groundFloor(c *Circuit) {
	c.BlockIn.Insert(records.Block{ID: 1, X: 0, Y: 0, Z: 0})
}

func TestStepIsUnsupportedWhenFallingAboveFloor(t *testing.T) {
	c := New(testConfig())
	groundFloor(c)
	c.PositionIn.Insert(records.Position{Entity: 1, X: records.Of(0), Y: records.Of(0), Z: records.Of(10)})
	c.VelocityIn.Insert(records.Velocity{Entity: 1, VX: records.Of(0), VY: records.Of(0), VZ: records.Of(0)})

	if err := c.Step(); err != nil {
		t.Fatalf("unexpected step error: %v", err)
	}
	pf := c.PositionFloorOut.Read()
	row, _ := onlyEntry(t, pf)
	if row.Standing(records.Of(testConfig().Physics.GraceDistance)) {
		t.Fatalf("expected entity far above the floor to classify as unsupported, got %+v", row)
	}
}

func TestStepLandingProducesFallDamageAfterEnoughFallSpeed(t *testing.T) {
	c := New(testConfig())
	groundFloor(c)
	// floor top = 1.0 (top_offset). Start well above it, already falling fast.
	c.PositionIn.Insert(records.Position{Entity: 1, X: records.Of(0), Y: records.Of(0), Z: records.Of(9.0)})
	c.VelocityIn.Insert(records.Velocity{Entity: 1, VX: records.Of(0), VY: records.Of(0), VZ: records.Of(-8.0)})
	c.HealthStateIn.Insert(records.HealthState{Entity: toHealthEntity(1), Current: 100, Max: 100})

	lastPos := records.Position{Entity: 1, X: records.Of(0), Y: records.Of(0), Z: records.Of(9.0)}
	lastVel := records.Velocity{Entity: 1, VX: records.Of(0), VY: records.Of(0), VZ: records.Of(-8.0)}

	var sawDamage bool
	for tick := 0; tick < 10; tick++ {
		if err := c.Step(); err != nil {
			t.Fatalf("tick %d: unexpected step error: %v", tick, err)
		}
		c.NewPositionOut.Drain().ForEach(func(p records.Position, w int64) {
			if w <= 0 {
				return
			}
			c.PositionIn.Retract(lastPos)
			c.PositionIn.Insert(p)
			lastPos = p
		})
		c.NewVelocityOut.Drain().ForEach(func(v records.Velocity, w int64) {
			if w <= 0 {
				return
			}
			c.VelocityIn.Retract(lastVel)
			c.VelocityIn.Insert(v)
			lastVel = v
		})
		c.FallDamageOut.Read().ForEach(func(d records.DamageEvent, w int64) {
			if w > 0 && d.Source == records.SourceFall {
				sawDamage = true
			}
		})
		c.HighestBlockOut.Drain()
		c.FloorHeightOut.Drain()
		c.PositionFloorOut.Drain()
		c.HealthDeltaOut.Drain()
		c.FallDamageOut.Drain()
		c.SuppressedLandingOut.Drain()
	}

	if !sawDamage {
		t.Fatalf("expected a fast fall from z=9 onto a floor at z=1 to eventually produce fall damage")
	}
}

func TestStepSecondLandingWithinCooldownIsSuppressed(t *testing.T) {
	cfg := testConfig()
	cfg.Landing.LandingCooldownTicks = 100
	c := New(cfg)
	groundFloor(c)

	lastPos := records.Position{Entity: 1, X: records.Of(0), Y: records.Of(0), Z: records.Of(9.0)}
	lastVel := records.Velocity{Entity: 1, VX: records.Of(0), VY: records.Of(0), VZ: records.Of(-8.0)}
	c.PositionIn.Insert(lastPos)
	c.VelocityIn.Insert(lastVel)

	firstLanding := false
	relaunched := false
	suppressed := false

	for tick := 0; tick < 40 && !suppressed; tick++ {
		if err := c.Step(); err != nil {
			t.Fatalf("tick %d: unexpected step error: %v", tick, err)
		}
		c.NewPositionOut.Drain().ForEach(func(p records.Position, w int64) {
			if w <= 0 {
				return
			}
			c.PositionIn.Retract(lastPos)
			c.PositionIn.Insert(p)
			lastPos = p
		})
		c.NewVelocityOut.Drain().ForEach(func(v records.Velocity, w int64) {
			if w <= 0 {
				return
			}
			c.VelocityIn.Retract(lastVel)
			c.VelocityIn.Insert(v)
			lastVel = v
		})
		c.FallDamageOut.Read().ForEach(func(d records.DamageEvent, w int64) {
			if w > 0 && d.Source == records.SourceFall {
				firstLanding = true
			}
		})
		c.SuppressedLandingOut.Read().ForEach(func(e records.EntityID, w int64) {
			if w > 0 && e == 1 {
				suppressed = true
			}
		})
		c.HighestBlockOut.Drain()
		c.FloorHeightOut.Drain()
		c.PositionFloorOut.Drain()
		c.HealthDeltaOut.Drain()
		c.FallDamageOut.Drain()
		c.SuppressedLandingOut.Drain()

		if firstLanding && !relaunched {
			// relaunch it straight back into the air, well within the
			// cooldown window, and let it fall onto the same floor again.
			c.PositionIn.Retract(lastPos)
			lastPos = records.Position{Entity: 1, X: records.Of(0), Y: records.Of(0), Z: records.Of(9.0)}
			c.PositionIn.Insert(lastPos)
			c.VelocityIn.Retract(lastVel)
			lastVel = records.Velocity{Entity: 1, VX: records.Of(0), VY: records.Of(0), VZ: records.Of(-8.0)}
			c.VelocityIn.Insert(lastVel)
			relaunched = true
		}
	}

	if !firstLanding {
		t.Fatalf("expected the first fall to register a landing before the relaunch")
	}
	if !suppressed {
		t.Fatalf("expected the relaunched entity's second landing, inside the cooldown window, to be suppressed")
	}
}

func TestStepMovesFleeingEntityWithoutAVelocityRow(t *testing.T) {
	c := New(testConfig())
	c.BlockIn.Insert(records.Block{ID: 1, X: 0, Y: 0, Z: 0})
	// position rests exactly on the floor top (z=1.0): standing, no Velocity row.
	c.PositionIn.Insert(records.Position{Entity: 1, X: records.Of(0), Y: records.Of(0), Z: records.Of(1.0)})
	c.TargetIn.Insert(records.Target{Entity: 1, X: records.Of(1.0), Y: records.Of(1.0)})
	c.FearIn.Insert(records.FearLevel{Entity: 1, Level: records.Of(0.5)})

	if err := c.Step(); err != nil {
		t.Fatalf("unexpected step error: %v", err)
	}
	p, w := onlyEntry(t, c.NewPositionOut.Read())
	if w != 1 {
		t.Fatalf("expected exactly one NewPosition row for the fleeing entity, got %v", c.NewPositionOut.Read().Entries())
	}
	// fleeing from (1,1) starting at (0,0): direction away is (-1,-1)
	// normalized, so x and y both move negative by 1/sqrt(2).
	if !(p.X.Float() < 0 && p.Y.Float() < 0) {
		t.Fatalf("expected the fleeing entity to move away from its target, got %+v", p)
	}
}

func TestStepAdvancesTickByOneOnSuccess(t *testing.T) {
	cfg := testConfig()
	cfg.Landing.LandingCooldownTicks = 0 // triggers New's n<1 guard, not a panic path by itself
	c := New(cfg)
	before := c.Tick()
	// Force a panic path is hard to trigger without corrupting internals;
	// instead verify the documented contract holds for a normal step: the
	// tick counter only advances on success.
	if err := c.Step(); err != nil {
		t.Fatalf("unexpected step error: %v", err)
	}
	if c.Tick() != before+1 {
		t.Fatalf("expected tick to advance by exactly one on a successful step, got %v -> %v", before, c.Tick())
	}
}
