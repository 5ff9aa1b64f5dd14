// Package hostecs realizes the host-side sync layer spec.md §4.10
// describes as an external collaborator, on top of
// github.com/mlange-42/ark — the same ecs.World/ecs.Map1[T] machinery the
// teacher uses for its organism entities (game/game.go), repurposed here to
// mirror Position/Velocity/Force/Target/FearLevel/HealthState components
// into the circuit's input collections and apply its outputs back.
package hostecs

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/worldcore/circuit"
	"github.com/pthm-cable/worldcore/records"
	"github.com/pthm-cable/worldcore/telemetry"
)

// Position, Velocity, Force, Target, FearLevel, and HealthState are the ECS
// components mirrored to the circuit's identically-named record types.
// They are distinct types (not aliases) because ark indexes components by
// concrete type and the circuit's records carry records.Ordered fields the
// host components keep as plain float64 for ark's storage layout.
type Position struct{ X, Y, Z float64 }
type Velocity struct{ VX, VY, VZ float64 }
type Force struct {
	FX, FY, FZ float64
	Mass       *float64
}
type Target struct{ X, Y float64 }
type FearLevel struct{ Level float64 }
type HealthState struct{ Current, Max uint16 }

// Sync owns the ECS world, the circuit handle, the bidirectional id map,
// and every cache spec.md §4.10 requires: the per-entity last-HealthState
// snapshot, the pending damage-event retraction set, and the duplicate
// dedup caches. It is the single writer of all of this state (spec.md §5).
type Sync struct {
	world *ecs.World
	c     *circuit.Circuit
	tel   *telemetry.Collector

	posMap    *ecs.Map1[Position]
	velMap    *ecs.Map1[Velocity]
	forceMap  *ecs.Map1[Force]
	targetMap *ecs.Map1[Target]
	fearMap   *ecs.Map1[FearLevel]
	healthMap *ecs.Map1[HealthState]

	nextID     records.EntityID
	toCircuit  map[ecs.Entity]records.EntityID
	toEntity   map[records.EntityID]ecs.Entity
	healthToID map[ecs.Entity]records.HealthEntityID
	idToHealth map[records.HealthEntityID]ecs.Entity

	lastHealthSnapshot map[records.HealthEntityID]records.HealthState

	pendingDamage      map[damageKey]records.DamageEvent
	expectedRetraction map[damageKey]struct{}
	appliedDeltaSeq    map[seqKey]struct{}

	damageInbox []records.DamageEvent
}

type damageKey struct {
	Entity records.HealthEntityID
	AtTick records.Tick
	Seq    uint64
	HasSeq bool
}

type seqKey struct {
	Entity records.HealthEntityID
	AtTick records.Tick
	Seq    uint64
}

func keyOf(e records.DamageEvent) damageKey {
	if e.Seq != nil {
		return damageKey{Entity: e.Entity, AtTick: e.AtTick, Seq: *e.Seq, HasSeq: true}
	}
	return damageKey{Entity: e.Entity, AtTick: e.AtTick, HasSeq: false}
}

// New builds a Sync over a fresh ECS world and circuit.
func New(c *circuit.Circuit, tel *telemetry.Collector) *Sync {
	world := ecs.NewWorld()
	return &Sync{
		world: world,
		c:     c,
		tel:   tel,

		posMap:    ecs.NewMap1[Position](world),
		velMap:    ecs.NewMap1[Velocity](world),
		forceMap:  ecs.NewMap1[Force](world),
		targetMap: ecs.NewMap1[Target](world),
		fearMap:   ecs.NewMap1[FearLevel](world),
		healthMap: ecs.NewMap1[HealthState](world),

		toCircuit:  map[ecs.Entity]records.EntityID{},
		toEntity:   map[records.EntityID]ecs.Entity{},
		healthToID: map[ecs.Entity]records.HealthEntityID{},
		idToHealth: map[records.HealthEntityID]ecs.Entity{},

		lastHealthSnapshot: map[records.HealthEntityID]records.HealthState{},
		pendingDamage:      map[damageKey]records.DamageEvent{},
		expectedRetraction: map[damageKey]struct{}{},
		appliedDeltaSeq:    map[seqKey]struct{}{},
	}
}

// Spawn creates a new ECS entity carrying Position and Velocity, and
// returns the circuit-facing id that identifies it going forward. Handles
// ark's Added event implicitly: the id map is populated right here rather
// than by a change-event subscription, since hostecs owns every entity
// creation path (spec.md §9: "maintains the bidirectional id↔ECS-entity map
// incrementally").
func (s *Sync) Spawn(pos Position, vel Velocity) records.EntityID {
	e := s.posMap.NewEntity(&pos)
	s.velMap.Add(e, &vel)
	id := s.nextID
	s.nextID++
	s.toCircuit[e] = id
	s.toEntity[id] = e
	return id
}

// SpawnHealth attaches a HealthState component to an existing entity and
// returns its health-domain id. The health-domain id is the numeric cast of
// entity, matching circuit.toHealthEntity's bridge: a fall-damage event the
// circuit derives internally for a landing targets HealthEntityID(entity),
// so the host must use the same mapping rather than an independent counter,
// or fall damage would never find the entity it was computed for.
func (s *Sync) SpawnHealth(entity records.EntityID, current, max uint16) records.HealthEntityID {
	e, ok := s.toEntity[entity]
	if !ok {
		slog.Warn("hostecs: SpawnHealth on unknown entity", "entity", entity)
		return 0
	}
	if entity < 0 {
		slog.Warn("hostecs: SpawnHealth on negative entity id, cannot bridge to HealthEntityID", "entity", entity)
		return 0
	}
	s.healthMap.Add(e, &HealthState{Current: current, Max: max})
	hid := records.HealthEntityID(entity)
	s.healthToID[e] = hid
	s.idToHealth[hid] = e
	return hid
}

// Despawn removes an entity from the world and both id maps.
func (s *Sync) Despawn(entity records.EntityID) {
	e, ok := s.toEntity[entity]
	if !ok {
		return
	}
	s.world.RemoveEntity(e)
	delete(s.toCircuit, e)
	delete(s.toEntity, entity)
	if hid, ok := s.healthToID[e]; ok {
		delete(s.healthToID, e)
		delete(s.idToHealth, hid)
		delete(s.lastHealthSnapshot, hid)
	}
}

// PushDamage enqueues a damage event for the next Run cycle's dedup pass
// (spec.md §4.10 step 3's "inbound damage inbox").
func (s *Sync) PushDamage(e records.DamageEvent) {
	s.damageInbox = append(s.damageInbox, e)
}
