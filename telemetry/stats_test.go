package telemetry

import (
	"math"
	"testing"
)

func TestComputeFallDamageStats(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	mean, p10, p50, _ := computeFallDamageStats(values)

	if math.Abs(mean-55) > 0.001 {
		t.Errorf("mean = %v, want 55", mean)
	}
	if p10 <= 0 || p10 >= p50 {
		t.Errorf("p10 = %v, expected between 0 and p50 (%v)", p10, p50)
	}
}

func TestComputeFallDamageStatsEmpty(t *testing.T) {
	mean, p10, p50, p90 := computeFallDamageStats(nil)
	if mean != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}
