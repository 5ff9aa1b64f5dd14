// Package circuit implements the incremental dataflow simulation core: the
// per-tick pipeline that derives floor heights, classifies entities as
// standing or unsupported, integrates kinematics, detects landings and
// emits fall damage, reduces damage events against health snapshots, and
// chooses movement decisions from fear and targets.
package circuit

import (
	"github.com/pthm-cable/worldcore/config"
	"github.com/pthm-cable/worldcore/records"
	"github.com/pthm-cable/worldcore/zset"
)

// Circuit owns every input/output handle, the tick counter, and the
// stateful dataflow nodes (delays, integrators, the health fold
// accumulator) that must persist across calls to Step. It is
// single-threaded cooperative: Step runs to completion on the calling
// goroutine and exposes no suspension points (spec.md §5).
type Circuit struct {
	cfg  *config.Constants
	tick records.Tick

	PositionIn    *zset.InputHandle[records.Position]
	VelocityIn    *zset.InputHandle[records.Velocity]
	ForceIn       *zset.InputHandle[records.Force]
	TargetIn      *zset.InputHandle[records.Target]
	FearIn        *zset.InputHandle[records.FearLevel]
	HealthStateIn *zset.InputHandle[records.HealthState]
	DamageIn      *zset.InputHandle[records.DamageEvent]
	BlockIn       *zset.InputHandle[records.Block]
	BlockSlopeIn  *zset.InputHandle[records.BlockSlope]

	NewPositionOut       *zset.OutputHandle[records.Position]
	NewVelocityOut       *zset.OutputHandle[records.Velocity]
	HighestBlockOut      *zset.OutputHandle[records.HighestBlockAt]
	FloorHeightOut       *zset.OutputHandle[records.FloorHeightAt]
	PositionFloorOut     *zset.OutputHandle[records.PositionFloor]
	HealthDeltaOut       *zset.OutputHandle[records.HealthDelta]
	FallDamageOut        *zset.OutputHandle[records.DamageEvent]
	SuppressedLandingOut *zset.OutputHandle[records.EntityID]

	positions    *zset.Integrator[records.Position]
	velocities   *zset.Integrator[records.Velocity]
	forces       *zset.Integrator[records.Force]
	targets      *zset.Integrator[records.Target]
	fear         *zset.Integrator[records.FearLevel]
	blocks       *zset.Integrator[records.Block]
	slopes       *zset.Integrator[records.BlockSlope]
	healthStates *zset.Integrator[records.HealthState]

	unsupportedDelay *zset.Delay[records.EntityID]
	prevVelocity     *zset.Delay[records.Velocity]
	landingsDelayN   *zset.DelayN[records.EntityID]
	cooldown         *zset.Integrator[records.EntityID]
	coolingDelay     *zset.Delay[records.EntityID]

	healthAcc *zset.Accumulator[healthEntityTick, healthFoldState]
}

// New builds a Circuit wired against cfg. Construction failures (spec.md
// §7.1) are reserved for a future version that loads a precompiled
// dataflow graph description; today building the graph cannot fail, since
// every node is a plain Go value.
func New(cfg *config.Constants) *Circuit {
	n := int(cfg.Landing.LandingCooldownTicks)
	if n < 1 {
		n = 1
	}
	return &Circuit{
		cfg: cfg,

		PositionIn:    zset.NewInputHandle[records.Position](),
		VelocityIn:    zset.NewInputHandle[records.Velocity](),
		ForceIn:       zset.NewInputHandle[records.Force](),
		TargetIn:      zset.NewInputHandle[records.Target](),
		FearIn:        zset.NewInputHandle[records.FearLevel](),
		HealthStateIn: zset.NewInputHandle[records.HealthState](),
		DamageIn:      zset.NewInputHandle[records.DamageEvent](),
		BlockIn:       zset.NewInputHandle[records.Block](),
		BlockSlopeIn:  zset.NewInputHandle[records.BlockSlope](),

		NewPositionOut:       &zset.OutputHandle[records.Position]{},
		NewVelocityOut:       &zset.OutputHandle[records.Velocity]{},
		HighestBlockOut:      &zset.OutputHandle[records.HighestBlockAt]{},
		FloorHeightOut:       &zset.OutputHandle[records.FloorHeightAt]{},
		PositionFloorOut:     &zset.OutputHandle[records.PositionFloor]{},
		HealthDeltaOut:       &zset.OutputHandle[records.HealthDelta]{},
		FallDamageOut:        &zset.OutputHandle[records.DamageEvent]{},
		SuppressedLandingOut: &zset.OutputHandle[records.EntityID]{},

		positions:    zset.NewIntegrator[records.Position](),
		velocities:   zset.NewIntegrator[records.Velocity](),
		forces:       zset.NewIntegrator[records.Force](),
		targets:      zset.NewIntegrator[records.Target](),
		fear:         zset.NewIntegrator[records.FearLevel](),
		blocks:       zset.NewIntegrator[records.Block](),
		slopes:       zset.NewIntegrator[records.BlockSlope](),
		healthStates: zset.NewIntegrator[records.HealthState](),

		unsupportedDelay: zset.NewDelay[records.EntityID](),
		prevVelocity:     zset.NewDelay[records.Velocity](),
		landingsDelayN:   zset.NewDelayN[records.EntityID](n),
		cooldown:         zset.NewIntegrator[records.EntityID](),
		coolingDelay:     zset.NewDelay[records.EntityID](),

		healthAcc: zset.NewAccumulator[healthEntityTick, healthFoldState](),
	}
}

// Tick returns the tick counter Step will use for this call's outputs.
func (c *Circuit) Tick() records.Tick { return c.tick }

// Step evaluates one tick of the pipeline (spec.md §2's data-flow diagram
// in full), writes results to the output handles, and advances the tick
// counter. A panic inside any node is recovered and reported as a
// StepError rather than propagated, per spec.md §7.2: the output handles
// are not written for that tick and the tick counter does not advance.
// Input deltas already taken and stateful nodes (integrators, delays, the
// health accumulator) that stepped before the panic keep their new state;
// they are not rolled back.
func (c *Circuit) Step() (err *StepError) {
	defer func() {
		if r := recover(); r != nil {
			err = newStepError("panic during step: %v", r)
		}
	}()

	currentPositions := c.positions.Step(c.PositionIn.TakeDelta())
	currentVelocities := c.velocities.Step(c.VelocityIn.TakeDelta())
	currentForces := c.forces.Step(c.ForceIn.TakeDelta())
	currentTargets := c.targets.Step(c.TargetIn.TakeDelta())
	currentFear := c.fear.Step(c.FearIn.TakeDelta())
	currentBlocks := c.blocks.Step(c.BlockIn.TakeDelta())
	currentSlopes := c.slopes.Step(c.BlockSlopeIn.TakeDelta())
	currentHealthStates := c.healthStates.Step(c.HealthStateIn.TakeDelta())
	damageDelta := c.DamageIn.TakeDelta()

	highestBlock := DeriveHighestBlock(currentBlocks)
	floorHeight := DeriveFloorHeight(currentBlocks, currentSlopes, c.cfg)
	positionFloor := DerivePositionFloor(currentPositions, floorHeight)
	standing, unsupported := Classify(positionFloor, c.cfg)

	integratedVelocity := IntegrateVelocity(currentVelocities, currentForces, c.cfg)
	velocityForMotion := DefaultVelocity(currentPositions, integratedVelocity)

	unsupportedEntities := Entities(unsupported)
	standingEntities := Entities(standing)
	prevUnsupportedEntities := c.unsupportedDelay.Step(unsupportedEntities)

	landings := DeriveLandings(prevUnsupportedEntities, standingEntities)

	delayedLandingsN := c.landingsDelayN.Step(landings)
	activeCooldownDelta := zset.Minus(landings, delayedLandingsN)
	activeCooldown := c.cooldown.Step(activeCooldownDelta)
	coolingEntities := c.coolingDelay.Step(activeCooldown)

	allowedLandings := DeriveAllowedLandings(landings, coolingEntities)
	suppressedLandings := zset.Minus(landings, allowedLandings)

	prevIntegratedVelocity := c.prevVelocity.Step(integratedVelocity)
	fallDamage := DeriveFallDamage(allowedLandings, prevIntegratedVelocity, c.tick, c.cfg)

	unsupportedPos, unsupportedVel := ApplyUnsupportedMotion(unsupported, velocityForMotion)
	standingPos, standingVel := ApplyStandingMotion(standing, velocityForMotion, floorHeight, c.cfg)
	basePositions := zset.Plus(unsupportedPos, standingPos)
	baseVelocities := zset.Plus(unsupportedVel, standingVel)

	defaultedFear := DefaultFear(currentPositions, currentFear)
	movementDecisions := DeriveMovement(currentPositions, currentTargets, defaultedFear, c.cfg)
	finalPositions := ApplyMovement(basePositions, movementDecisions)

	damageEventsThisTick := zset.Plus(damageDelta, fallDamage)
	healthDeltas := DeriveHealthDeltas(c.healthAcc, damageEventsThisTick, currentHealthStates, c.tick)

	c.NewPositionOut.Set(finalPositions)
	c.NewVelocityOut.Set(baseVelocities)
	c.HighestBlockOut.Set(highestBlock)
	c.FloorHeightOut.Set(floorHeight)
	c.PositionFloorOut.Set(positionFloor)
	c.HealthDeltaOut.Set(healthDeltas)
	c.FallDamageOut.Set(fallDamage)
	c.SuppressedLandingOut.Set(suppressedLandings)

	c.tick = advanceTick(c.tick)
	return nil
}
