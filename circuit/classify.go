package circuit

import (
	"github.com/pthm-cable/worldcore/config"
	"github.com/pthm-cable/worldcore/records"
	"github.com/pthm-cable/worldcore/zset"
)

// DerivePositionFloor implements spec.md §4.3 steps 1-3: index positions by
// the grid column they fall in, join against that column's floor height.
// Positions whose column has no FloorHeightAt row produce no output.
func DerivePositionFloor(positions zset.ZSet[records.Position], floorHeight zset.ZSet[records.FloorHeightAt]) zset.ZSet[records.PositionFloor] {
	byColumn := zset.IndexBy(positions, func(p records.Position) records.Column { return columnOf(p.X, p.Y) }, identity[records.Position])
	floorByColumn := zset.IndexBy(floorHeight, func(f records.FloorHeightAt) records.Column { return records.Column{X: f.X, Y: f.Y} }, identity[records.FloorHeightAt])

	return zset.Join(byColumn, floorByColumn, func(_ records.Column, pos records.Position, f records.FloorHeightAt) records.PositionFloor {
		return records.PositionFloor{Position: pos, ZFloor: f.Z}
	})
}

// Classify partitions position/floor pairs into standing and unsupported
// per spec.md §4.3 steps 4-5. The comparison is <= , so a position that
// lands exactly on z_floor + grace is standing (spec.md §4.4 tie-break).
func Classify(pf zset.ZSet[records.PositionFloor], c *config.Constants) (standing, unsupported zset.ZSet[records.PositionFloor]) {
	grace := records.Of(c.Physics.GraceDistance)
	standing = zset.Filter(pf, func(p records.PositionFloor) bool { return p.Standing(grace) })
	unsupported = zset.Filter(pf, func(p records.PositionFloor) bool { return !p.Standing(grace) })
	return standing, unsupported
}

// Entities projects a PositionFloor z-set down to the entities it covers,
// for use as a join/antijoin key-set (e.g. landing detection, semi-joins
// against the integrated-velocity stream).
func Entities(pf zset.ZSet[records.PositionFloor]) zset.ZSet[records.EntityID] {
	return zset.Map(pf, func(p records.PositionFloor) records.EntityID { return p.Position.Entity })
}
