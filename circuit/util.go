package circuit

import (
	"math"

	"github.com/pthm-cable/worldcore/records"
)

// columnOf projects a floating x/y coordinate onto the grid column it
// falls in, per spec.md §4.3: floor, clamp to i32 bounds, non-finite -> 0.
func columnOf(x, y records.Ordered) records.Column {
	return records.Column{X: clampColumn(x), Y: clampColumn(y)}
}

func clampColumn(v records.Ordered) int32 {
	f := v.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Floor(f)
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32
	case f < math.MinInt32:
		return math.MinInt32
	default:
		return int32(f)
	}
}

// clampLower clamps v to be no less than min, leaving it otherwise
// unbounded above. Used for the terminal-velocity clamp on vz, which is
// one-sided (spec.md §4.4: "clamp(..., -TERMINAL_VELOCITY, +∞)").
func clampLower(v, min float64) float64 {
	if v < min {
		return min
	}
	return v
}

// applyGroundFriction reduces the magnitude of v by coefficient, pulling it
// toward zero without overshooting (spec.md §4.4).
func applyGroundFriction(v, coefficient float64) float64 {
	return v * coefficient
}

func identity[T any](v T) T { return v }
