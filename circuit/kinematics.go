package circuit

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/worldcore/config"
	"github.com/pthm-cable/worldcore/records"
	"github.com/pthm-cable/worldcore/zset"
)

const massEpsilon = 1e-12

// IntegrateVelocity implements spec.md §4.4's "integrated velocity" step for
// every entity carrying a Velocity row, applied regardless of standing or
// unsupported classification. A Force row contributes mass-scaled
// acceleration; a missing Force, or one with non-finite or non-positive
// mass, contributes zero acceleration (spec.md §9 Open Question, resolved:
// the circuit-path policy, not the legacy default-mass divide).
func IntegrateVelocity(velocities zset.ZSet[records.Velocity], forces zset.ZSet[records.Force], c *config.Constants) zset.ZSet[records.Velocity] {
	forceByEntity := zset.Index(forces, records.Force.Key)

	return zset.Map(velocities, func(v records.Velocity) records.Velocity {
		ax, ay, az := accelerationFor(v.Entity, forceByEntity, c)
		vz := v.VZ.Float() + az + c.Physics.GravityPull
		vz = clampLower(vz, c.Derived.NegativeTerminalVelocity)
		return records.Velocity{
			Entity: v.Entity,
			VX:     records.Of(v.VX.Float() + ax),
			VY:     records.Of(v.VY.Float() + ay),
			VZ:     records.Of(vz),
		}
	})
}

// DefaultVelocity implements the same antijoin-then-union idiom DefaultFear
// uses for FearLevel: an entity with a Position but no Velocity row never
// asked to be integrated (spec.md §4.4 scopes integration to "every entity
// with a Velocity row"), but ApplyUnsupportedMotion and ApplyStandingMotion
// both join against the integrated-velocity stream, so without a
// zero-velocity stand-in that entity's position would be silently dropped
// from this tick's kinematics output and never reach ApplyMovement.
func DefaultVelocity(positions zset.ZSet[records.Position], integratedVelocity zset.ZSet[records.Velocity]) zset.ZSet[records.Velocity] {
	posByEntity := zset.IndexBy(positions, records.Position.Key, records.Position.Key)
	velKeys := zset.Map(integratedVelocity, records.Velocity.Key)
	missing := zset.Antijoin(posByEntity, velKeys)
	defaulted := zset.Map(missing, func(e records.EntityID) records.Velocity {
		return records.Velocity{Entity: e, VX: records.Of(0), VY: records.Of(0), VZ: records.Of(0)}
	})
	return zset.Plus(integratedVelocity, defaulted)
}

func accelerationFor(entity records.EntityID, forceByEntity zset.Indexed[records.EntityID, records.Force], c *config.Constants) (ax, ay, az float64) {
	bucket := forceByEntity.Get(entity)
	for f, w := range bucket {
		if w <= 0 {
			continue
		}
		if f.Mass == nil {
			return 0, 0, 0
		}
		m := f.Mass.Float()
		if math.IsNaN(m) || math.IsInf(m, 0) || m <= massEpsilon {
			slog.Warn("non-positive mass on force, treating as zero acceleration", "entity", entity, "mass", m)
			return 0, 0, 0
		}
		return f.FX.Float() / m, f.FY.Float() / m, f.FZ.Float() / m
	}
	return 0, 0, 0
}

// ApplyUnsupportedMotion implements spec.md §4.4's unsupported branch:
// Position' = Position + Velocity', restricted to unsupported entities by
// semi-join (expressed here as a Join against the unsupported entity set).
func ApplyUnsupportedMotion(unsupported zset.ZSet[records.PositionFloor], integratedVelocity zset.ZSet[records.Velocity]) (zset.ZSet[records.Position], zset.ZSet[records.Velocity]) {
	posByEntity := zset.IndexBy(unsupported, func(p records.PositionFloor) records.EntityID { return p.Position.Entity }, func(p records.PositionFloor) records.Position { return p.Position })
	velByEntity := zset.Index(integratedVelocity, records.Velocity.Key)

	newPos := zset.Join(posByEntity, velByEntity, func(_ records.EntityID, p records.Position, v records.Velocity) records.Position {
		return records.Position{
			Entity: p.Entity,
			X:      records.Of(p.X.Float() + v.VX.Float()),
			Y:      records.Of(p.Y.Float() + v.VY.Float()),
			Z:      records.Of(p.Z.Float() + v.VZ.Float()),
		}
	})
	newVel := zset.Join(posByEntity, velByEntity, func(_ records.EntityID, _ records.Position, v records.Velocity) records.Velocity {
		return v
	})
	return newPos, newVel
}

// movingEntity carries a standing entity's pre-friction position and
// integrated velocity through the two-stage lookup ApplyStandingMotion
// needs: friction is applied first, then the new horizontal cell is used to
// re-look-up FloorHeightAt for the cell the entity is sliding into.
type movingEntity struct {
	Position records.Position
	Velocity records.Velocity
}

// ApplyStandingMotion implements spec.md §4.4's standing branch: horizontal
// friction reduces vx/vy toward zero, the new horizontal position looks up
// the floor height of its (possibly new) column, and z snaps to that floor
// with vz zeroed. An entity that slides into a column with no FloorHeightAt
// row is dropped from this tick's standing motion output, mirroring §4.3's
// documented behaviour for positions with no floor.
func ApplyStandingMotion(standing zset.ZSet[records.PositionFloor], integratedVelocity zset.ZSet[records.Velocity], floorHeight zset.ZSet[records.FloorHeightAt], c *config.Constants) (zset.ZSet[records.Position], zset.ZSet[records.Velocity]) {
	posByEntity := zset.IndexBy(standing, func(p records.PositionFloor) records.EntityID { return p.Position.Entity }, func(p records.PositionFloor) records.Position { return p.Position })
	velByEntity := zset.Index(integratedVelocity, records.Velocity.Key)

	frictioned := zset.Join(posByEntity, velByEntity, func(_ records.EntityID, p records.Position, v records.Velocity) movingEntity {
		fx := applyGroundFriction(v.VX.Float(), c.Physics.FrictionCoefficient)
		fy := applyGroundFriction(v.VY.Float(), c.Physics.FrictionCoefficient)
		return movingEntity{
			Position: records.Position{Entity: p.Entity, X: records.Of(p.X.Float() + fx), Y: records.Of(p.Y.Float() + fy), Z: p.Z},
			Velocity: records.Velocity{Entity: v.Entity, VX: records.Of(fx), VY: records.Of(fy), VZ: records.Of(0)},
		}
	})

	byColumn := zset.IndexBy(frictioned, func(m movingEntity) records.Column { return columnOf(m.Position.X, m.Position.Y) }, identity[movingEntity])
	floorByColumn := zset.IndexBy(floorHeight, func(f records.FloorHeightAt) records.Column { return records.Column{X: f.X, Y: f.Y} }, identity[records.FloorHeightAt])

	snapped := zset.Join(byColumn, floorByColumn, func(_ records.Column, m movingEntity, f records.FloorHeightAt) movingEntity {
		m.Position.Z = f.Z
		return m
	})

	newPos := zset.Map(snapped, func(m movingEntity) records.Position { return m.Position })
	newVel := zset.Map(snapped, func(m movingEntity) records.Velocity { return m.Velocity })
	return newPos, newVel
}
