package hostecs

import (
	"testing"

	"github.com/pthm-cable/worldcore/circuit"
	"github.com/pthm-cable/worldcore/config"
	"github.com/pthm-cable/worldcore/records"
	"github.com/pthm-cable/worldcore/zset"
)

func testCircuit() *circuit.Circuit {
	cfg := &config.Constants{}
	cfg.Physics.TerminalVelocity = 20
	cfg.Landing.LandingCooldownTicks = 1
	cfg.Derived.NegativeTerminalVelocity = -20
	return circuit.New(cfg)
}

func TestSpawnHealthBridgesToNumericCast(t *testing.T) {
	s := New(testCircuit(), nil)
	id := s.Spawn(Position{X: 1, Y: 2, Z: 3}, Velocity{})
	hid := s.SpawnHealth(id, 100, 100)
	if hid != records.HealthEntityID(id) {
		t.Fatalf("expected SpawnHealth's id to be the numeric cast of the entity id, got %v for entity %v", hid, id)
	}
}

func TestSpawnHealthOnUnknownEntityReturnsZero(t *testing.T) {
	s := New(testCircuit(), nil)
	hid := s.SpawnHealth(records.EntityID(999), 10, 10)
	if hid != 0 {
		t.Fatalf("expected SpawnHealth on an unknown entity to return 0, got %v", hid)
	}
}

func TestDespawnClearsAllMaps(t *testing.T) {
	s := New(testCircuit(), nil)
	id := s.Spawn(Position{}, Velocity{})
	hid := s.SpawnHealth(id, 50, 100)
	s.Despawn(id)

	if _, ok := s.toEntity[id]; ok {
		t.Fatalf("expected toEntity to be cleared after Despawn")
	}
	if _, ok := s.idToHealth[hid]; ok {
		t.Fatalf("expected idToHealth to be cleared after Despawn")
	}
	if _, ok := s.lastHealthSnapshot[hid]; ok {
		t.Fatalf("expected lastHealthSnapshot to be cleared after Despawn")
	}
}

func TestDrainDamageInboxDedupsIdenticalUnsequencedPayload(t *testing.T) {
	s := New(testCircuit(), nil)
	id := s.Spawn(Position{}, Velocity{})
	hid := s.SpawnHealth(id, 100, 100)

	event := records.DamageEvent{Entity: hid, AtTick: 5, Source: records.SourceExternal, Amount: 10}
	s.PushDamage(event)
	s.PushDamage(event)
	s.drainDamageInbox()

	if len(s.pendingDamage) != 1 {
		t.Fatalf("expected exactly one pending damage event after deduping an identical repeat, got %d", len(s.pendingDamage))
	}
}

func TestDrainDamageInboxRejectsAlreadyAppliedSeq(t *testing.T) {
	s := New(testCircuit(), nil)
	id := s.Spawn(Position{}, Velocity{})
	hid := s.SpawnHealth(id, 100, 100)

	seq := uint64(7)
	s.appliedDeltaSeq[seqKey{Entity: hid, AtTick: 3, Seq: seq}] = struct{}{}

	s.PushDamage(records.DamageEvent{Entity: hid, AtTick: 3, Seq: &seq, Source: records.SourceExternal, Amount: 5})
	s.drainDamageInbox()

	if len(s.pendingDamage) != 0 {
		t.Fatalf("expected a damage event with an already-applied seq to be rejected, got %d pending", len(s.pendingDamage))
	}
}

func TestRetractExpiredDamageMarksExpectedRetraction(t *testing.T) {
	s := New(testCircuit(), nil)
	id := s.Spawn(Position{}, Velocity{})
	hid := s.SpawnHealth(id, 100, 100)

	event := records.DamageEvent{Entity: hid, AtTick: 1, Source: records.SourceExternal, Amount: 5}
	s.PushDamage(event)
	s.drainDamageInbox()
	if len(s.pendingDamage) != 1 {
		t.Fatalf("expected one pending damage event before retraction")
	}

	s.retractExpiredDamage()
	if len(s.pendingDamage) != 0 {
		t.Fatalf("expected pendingDamage to be drained after retractExpiredDamage")
	}
	if len(s.expectedRetraction) != 1 {
		t.Fatalf("expected the retraction to be recorded as expected, got %d", len(s.expectedRetraction))
	}
}

func TestClampHealthClampsCurrentAboveMax(t *testing.T) {
	current, max := clampHealth(150, 100)
	if current != 100 || max != 100 {
		t.Fatalf("expected current to be clamped to max, got current=%d max=%d", current, max)
	}
}

func TestClampHealthLeavesValidValuesUntouched(t *testing.T) {
	current, max := clampHealth(40, 100)
	if current != 40 || max != 100 {
		t.Fatalf("expected valid values to pass through unchanged, got current=%d max=%d", current, max)
	}
}

func TestClampIntBounds(t *testing.T) {
	if clampInt(-5, 0, 100) != 0 {
		t.Fatalf("expected a negative value to clamp to the lower bound")
	}
	if clampInt(150, 0, 100) != 100 {
		t.Fatalf("expected a value above max to clamp to the upper bound")
	}
	if clampInt(42, 0, 100) != 42 {
		t.Fatalf("expected an in-range value to pass through unchanged")
	}
}

func TestApplyOutputsAppliesHealthDelta(t *testing.T) {
	s := New(testCircuit(), nil)
	id := s.Spawn(Position{}, Velocity{})
	hid := s.SpawnHealth(id, 50, 100)

	s.c.HealthDeltaOut.Set(zset.Single(records.HealthDelta{Entity: hid, AtTick: 1, Delta: -20, Death: false}, 1))
	s.applyOutputs()

	e := s.toEntity[id]
	hs := s.healthMap.Get(e)
	if hs == nil || hs.Current != 30 {
		t.Fatalf("expected health reduced to 30, got %+v", hs)
	}
}

func TestApplyOutputsSkipsExpectedRetraction(t *testing.T) {
	s := New(testCircuit(), nil)
	id := s.Spawn(Position{}, Velocity{})
	hid := s.SpawnHealth(id, 50, 100)

	k := damageKey{Entity: hid, AtTick: 1}
	s.expectedRetraction[k] = struct{}{}

	s.c.HealthDeltaOut.Set(zset.Single(records.HealthDelta{Entity: hid, AtTick: 1, Delta: -20, Death: false}, 1))
	s.applyOutputs()

	e := s.toEntity[id]
	hs := s.healthMap.Get(e)
	if hs == nil || hs.Current != 50 {
		t.Fatalf("expected an expected-retraction delta to be skipped, health should remain 50, got %+v", hs)
	}
}
