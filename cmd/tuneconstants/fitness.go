package main

import (
	"math"

	"github.com/pthm-cable/worldcore/circuit"
	"github.com/pthm-cable/worldcore/config"
	"github.com/pthm-cable/worldcore/records"
	"github.com/pthm-cable/worldcore/worldgen"
	"github.com/pthm-cable/worldcore/zset"
)

// targetFallDamageMean and targetLandingFraction describe the fall-damage
// profile a "fun" tuning hits: a bit over half of the drops deal damage, and
// landings that do damage average a moderate bite rather than one-shotting
// or tickling.
const (
	targetFallDamageMean    = 12.0
	targetLandingFraction   = 0.6
	minViableDamageVariance = 1.0
)

// FitnessEvaluator runs headless circuit simulations and scores a parameter
// vector by how close its fall-damage distribution lands to the targets
// above, averaged across seeds (grounded on the teacher's seed-averaged
// FitnessEvaluator.Evaluate).
type FitnessEvaluator struct {
	params   *ParamVector
	maxTicks int
	seeds    []int64
	baseCfg  *config.Constants

	lastMeanDamage float64
}

// NewFitnessEvaluator builds an evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Constants) *FitnessEvaluator {
	return &FitnessEvaluator{params: params, maxTicks: maxTicks, seeds: seeds, baseCfg: baseCfg}
}

// LastMeanDamage returns the mean fall-damage amount from the most recent
// Evaluate call, for progress reporting.
func (fe *FitnessEvaluator) LastMeanDamage() float64 { return fe.lastMeanDamage }

// Evaluate computes fitness for a raw (denormalized) parameter vector.
// Lower is better.
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	cfg := *fe.baseCfg
	fe.params.ApplyToConfig(&cfg, raw)

	var total float64
	var amounts []float64
	for _, seed := range fe.seeds {
		amounts = append(amounts, runOnce(&cfg, fe.maxTicks, seed)...)
	}

	if len(amounts) == 0 {
		fe.lastMeanDamage = 0
		return 1e9
	}

	sum := 0.0
	for _, a := range amounts {
		sum += a
	}
	mean := sum / float64(len(amounts))
	fe.lastMeanDamage = mean

	landingFraction := float64(len(amounts)) / float64(max(1, len(fe.seeds)*20))
	if landingFraction > 1 {
		landingFraction = 1
	}

	total = math.Pow(mean-targetFallDamageMean, 2) + 100*math.Pow(landingFraction-targetLandingFraction, 2)
	return total
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// runOnce drops 20 entities from 5 above their column's block over
// generated terrain and steps the circuit for maxTicks ticks (stopping early
// only on a step error; it does not stop once every entity has landed),
// returning the fall-damage amount of every DamageEvent the circuit emits.
func runOnce(cfg *config.Constants, maxTicks int, seed int64) []float64 {
	c := circuit.New(cfg)
	world := worldgen.Generate(worldgen.DefaultParams(seed))
	world.ScatterEntities(20, 1)

	for _, b := range world.Blocks {
		c.BlockIn.Insert(b)
	}
	for _, s := range world.Slopes {
		c.BlockSlopeIn.Insert(s)
	}
	lastPos := map[records.EntityID]records.Position{}
	lastVel := map[records.EntityID]records.Velocity{}
	for _, p := range world.Positions {
		c.PositionIn.Insert(p)
		lastPos[p.Entity] = p
	}
	for _, v := range world.Velocities {
		c.VelocityIn.Insert(v)
		lastVel[v.Entity] = v
	}

	var amounts []float64
	for tick := 0; tick < maxTicks; tick++ {
		if err := c.Step(); err != nil {
			break
		}
		c.FallDamageOut.Drain().ForEach(func(d records.DamageEvent, w zset.Weight) {
			if w > 0 {
				amounts = append(amounts, float64(d.Amount))
			}
		})
		c.NewPositionOut.Drain().ForEach(func(p records.Position, w zset.Weight) {
			if w <= 0 {
				return
			}
			if prev, ok := lastPos[p.Entity]; ok {
				c.PositionIn.Retract(prev)
			}
			c.PositionIn.Insert(p)
			lastPos[p.Entity] = p
		})
		c.NewVelocityOut.Drain().ForEach(func(v records.Velocity, w zset.Weight) {
			if w <= 0 {
				return
			}
			if prev, ok := lastVel[v.Entity]; ok {
				c.VelocityIn.Retract(prev)
			}
			c.VelocityIn.Insert(v)
			lastVel[v.Entity] = v
		})
		c.HighestBlockOut.Drain()
		c.FloorHeightOut.Drain()
		c.PositionFloorOut.Drain()
		c.HealthDeltaOut.Drain()
		c.SuppressedLandingOut.Drain()
	}
	return amounts
}
