// Package worldgen procedurally generates a grid of terrain blocks and a
// scatter of entities for the demo CLI and the constant-tuning CLI,
// grounded on the teacher's noise-driven terrain
// generation (systems/resource_field.go's opensimplex.New(seed) + FBM
// sampling, systems/terrain.go's threshold-over-grid generation pattern)
// with the rendering and ecosystem-specific cell types stripped. Nothing
// here is part of the dataflow evaluation semantics: it is a pure data
// producer feeding block_in / block_slope_in / position_in / velocity_in.
package worldgen

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/worldcore/records"
)

// Params controls the generated terrain's extent and noise shape.
type Params struct {
	Seed       int64
	Width      int32 // columns along x, centered on 0
	Depth      int32 // columns along y, centered on 0
	Scale      float64
	Octaves    int
	Lacunarity float64
	Gain       float64
	HeightMin  int32
	HeightMax  int32
}

// DefaultParams returns a small, deterministic default terrain.
func DefaultParams(seed int64) Params {
	return Params{
		Seed:       seed,
		Width:      16,
		Depth:      16,
		Scale:      0.08,
		Octaves:    4,
		Lacunarity: 2.0,
		Gain:       0.5,
		HeightMin:  0,
		HeightMax:  4,
	}
}

// World is a generated terrain and entity scatter ready to push into a
// Circuit's input handles.
type World struct {
	Blocks     []records.Block
	Slopes     []records.BlockSlope
	Positions  []records.Position
	Velocities []records.Velocity
}

// Generate builds a World from p: one block per column with a height
// derived from fractal Brownian motion over 2D opensimplex noise, and a
// slope derived from the noise field's local gradient (central difference).
func Generate(p Params) World {
	noise := opensimplex.New(p.Seed)
	w := World{}

	halfW := p.Width / 2
	halfD := p.Depth / 2

	heightAt := func(x, y int32) int32 {
		h := fbm(noise, float64(x)*p.Scale, float64(y)*p.Scale, p.Octaves, p.Lacunarity, p.Gain)
		span := float64(p.HeightMax - p.HeightMin)
		return p.HeightMin + int32(((h+1)/2)*span)
	}

	id := records.BlockID(1)
	for x := -halfW; x < p.Width-halfW; x++ {
		for y := -halfD; y < p.Depth-halfD; y++ {
			z := heightAt(x, y)
			w.Blocks = append(w.Blocks, records.Block{ID: id, X: x, Y: y, Z: z})

			gradX := (float64(heightAt(x+1, y)) - float64(heightAt(x-1, y))) / 2
			gradY := (float64(heightAt(x, y+1)) - float64(heightAt(x, y-1))) / 2
			if gradX != 0 || gradY != 0 {
				w.Slopes = append(w.Slopes, records.BlockSlope{BlockID: id, GradX: records.Of(gradX), GradY: records.Of(gradY)})
			}
			id++
		}
	}

	return w
}

// ScatterEntities adds n entities at rest just above the generated terrain,
// evenly spaced across the generated footprint, starting ids at firstID.
func (w *World) ScatterEntities(n int, firstID records.EntityID) {
	if len(w.Blocks) == 0 || n <= 0 {
		return
	}
	step := len(w.Blocks) / n
	if step < 1 {
		step = 1
	}
	entity := firstID
	for i := 0; i < n; i++ {
		b := w.Blocks[(i*step)%len(w.Blocks)]
		w.Positions = append(w.Positions, records.Position{
			Entity: entity,
			X:      records.Of(float64(b.X) + 0.5),
			Y:      records.Of(float64(b.Y) + 0.5),
			Z:      records.Of(float64(b.Z) + 5.0),
		})
		w.Velocities = append(w.Velocities, records.Velocity{Entity: entity})
		entity++
	}
}

// fbm samples fractal Brownian motion over 2D opensimplex noise, summing
// octaves at increasing frequency (lacunarity) and decreasing amplitude
// (gain), normalized to roughly [-1, 1] — the same shape as the teacher's
// capacity-noise sampling in resource_field.go, without the time/torus
// dimensions this domain has no use for.
func fbm(noise opensimplex.Noise, x, y float64, octaves int, lacunarity, gain float64) float64 {
	var sum, amplitude, norm float64
	amplitude = 1
	freq := 1.0
	for i := 0; i < octaves; i++ {
		sum += noise.Eval2(x*freq, y*freq) * amplitude
		norm += amplitude
		amplitude *= gain
		freq *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}
