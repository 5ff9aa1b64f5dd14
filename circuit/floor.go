package circuit

import (
	"github.com/pthm-cable/worldcore/config"
	"github.com/pthm-cable/worldcore/records"
	"github.com/pthm-cable/worldcore/zset"
)

// blockTop pairs a column's highest block height with the block's id, so
// the highest-per-column aggregate can be re-indexed by id to join slopes.
type blockTop struct {
	Z  int32
	ID records.BlockID
}

func lessBlockTop(a, b blockTop) bool {
	if a.Z != b.Z {
		return a.Z < b.Z
	}
	return a.ID < b.ID
}

// highestWithColumn carries a column's coordinates alongside the winning
// block, since the id-indexed join in DeriveFloorHeight needs the column
// back to build the output record.
type highestWithColumn struct {
	X, Y int32
	Top  blockTop
}

// DeriveHighestBlock implements spec.md §4.2 steps 1-2: index blocks by
// column, take the highest (z, id) per column.
func DeriveHighestBlock(blocks zset.ZSet[records.Block]) zset.ZSet[records.HighestBlockAt] {
	byColumn := zset.IndexBy(blocks,
		func(b records.Block) records.Column { return records.Column{X: b.X, Y: b.Y} },
		func(b records.Block) blockTop { return blockTop{Z: b.Z, ID: b.ID} },
	)
	highest := zset.AggregateMax(byColumn, lessBlockTop)
	return zset.Map(highest, func(r zset.Row[records.Column, blockTop]) records.HighestBlockAt {
		return records.HighestBlockAt{X: r.Key.X, Y: r.Key.Y, Z: r.Value.Z}
	})
}

// DeriveFloorHeight implements spec.md §4.2 steps 3-4: re-project the
// highest block per column (as already computed by DeriveHighestBlock) to
// id-keyed rows, outer-join against slopes. Takes the raw blocks again
// rather than HighestBlockAt because the block id is needed for the join
// and HighestBlockAt deliberately does not carry it (spec.md's output
// record for highest_block_out has no id field).
func DeriveFloorHeight(blocks zset.ZSet[records.Block], slopes zset.ZSet[records.BlockSlope], c *config.Constants) zset.ZSet[records.FloorHeightAt] {
	byColumn := zset.IndexBy(blocks,
		func(b records.Block) records.Column { return records.Column{X: b.X, Y: b.Y} },
		func(b records.Block) blockTop { return blockTop{Z: b.Z, ID: b.ID} },
	)
	highest := zset.AggregateMax(byColumn, lessBlockTop)

	byID := zset.IndexBy(highest,
		func(r zset.Row[records.Column, blockTop]) records.BlockID { return r.Value.ID },
		func(r zset.Row[records.Column, blockTop]) highestWithColumn {
			return highestWithColumn{X: r.Key.X, Y: r.Key.Y, Top: r.Value}
		},
	)
	slopesByID := zset.IndexBy(slopes, func(s records.BlockSlope) records.BlockID { return s.BlockID }, identity[records.BlockSlope])

	return zset.OuterJoin(byID, slopesByID,
		func(id records.BlockID, h highestWithColumn, s records.BlockSlope) (records.FloorHeightAt, bool) {
			top := float64(h.Top.Z) + c.Block.TopOffset
			z := top + c.Block.CentreOffset*(s.GradX.Float()+s.GradY.Float())
			return records.FloorHeightAt{X: h.X, Y: h.Y, Z: records.Of(z)}, true
		},
		func(id records.BlockID, h highestWithColumn) (records.FloorHeightAt, bool) {
			top := float64(h.Top.Z) + c.Block.TopOffset
			return records.FloorHeightAt{X: h.X, Y: h.Y, Z: records.Of(top)}, true
		},
		nil, // a slope without a matching highest block is dropped
	)
}
