package circuit

import (
	"testing"

	"github.com/pthm-cable/worldcore/records"
	"github.com/pthm-cable/worldcore/zset"
)

func blockSet(blocks ...records.Block) zset.ZSet[records.Block] {
	b := zset.NewBuilder[records.Block]()
	for _, blk := range blocks {
		b.Insert(blk, 1)
	}
	return b.Build()
}

func slopeSet(slopes ...records.BlockSlope) zset.ZSet[records.BlockSlope] {
	b := zset.NewBuilder[records.BlockSlope]()
	for _, s := range slopes {
		b.Insert(s, 1)
	}
	return b.Build()
}

func TestDeriveHighestBlockPicksTallestPerColumn(t *testing.T) {
	blocks := blockSet(
		records.Block{ID: 1, X: 0, Y: 0, Z: 2},
		records.Block{ID: 2, X: 0, Y: 0, Z: 5},
		records.Block{ID: 3, X: 1, Y: 0, Z: 9},
	)
	out := DeriveHighestBlock(blocks)
	if out.Weight(records.HighestBlockAt{X: 0, Y: 0, Z: 5}) != 1 {
		t.Fatalf("expected column (0,0) highest to be z=5, got %v", out.Entries())
	}
	if out.Weight(records.HighestBlockAt{X: 1, Y: 0, Z: 9}) != 1 {
		t.Fatalf("expected column (1,0) highest to be z=9, got %v", out.Entries())
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 columns, got %d: %v", out.Len(), out.Entries())
	}
}

func TestDeriveHighestBlockTiesByID(t *testing.T) {
	blocks := blockSet(
		records.Block{ID: 5, X: 0, Y: 0, Z: 3},
		records.Block{ID: 2, X: 0, Y: 0, Z: 3},
	)
	out := DeriveHighestBlock(blocks)
	// both blocks are at z=3; the higher id wins the tie-break.
	if out.Weight(records.HighestBlockAt{X: 0, Y: 0, Z: 3}) != 1 || out.Len() != 1 {
		t.Fatalf("expected single row at z=3, got %v", out.Entries())
	}
}

func TestDeriveFloorHeightFlatNoSlope(t *testing.T) {
	c := testConfig()
	blocks := blockSet(records.Block{ID: 1, X: 0, Y: 0, Z: 4})
	out := DeriveFloorHeight(blocks, zset.Empty[records.BlockSlope](), c)
	want := records.FloorHeightAt{X: 0, Y: 0, Z: records.Of(5.0)} // top_offset=1.0
	if out.Weight(want) != 1 {
		t.Fatalf("expected flat floor at z=5, got %v", out.Entries())
	}
}

func TestDeriveFloorHeightAppliesSlope(t *testing.T) {
	c := testConfig()
	blocks := blockSet(records.Block{ID: 7, X: 0, Y: 0, Z: 4})
	slopes := slopeSet(records.BlockSlope{BlockID: 7, GradX: records.Of(1.0), GradY: records.Of(0)})
	out := DeriveFloorHeight(blocks, slopes, c)
	// top=5, centre_offset=0.5, grad sum=1.0 -> z = 5 + 0.5*1.0 = 5.5
	want := records.FloorHeightAt{X: 0, Y: 0, Z: records.Of(5.5)}
	if out.Weight(want) != 1 {
		t.Fatalf("expected sloped floor at z=5.5, got %v", out.Entries())
	}
}

func TestDeriveFloorHeightDropsOrphanSlope(t *testing.T) {
	c := testConfig()
	slopes := slopeSet(records.BlockSlope{BlockID: 99, GradX: records.Of(1.0), GradY: records.Of(0)})
	out := DeriveFloorHeight(zset.Empty[records.Block](), slopes, c)
	if out.Len() != 0 {
		t.Fatalf("expected no floor rows for a slope with no matching block, got %v", out.Entries())
	}
}
