package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated circuit diagnostics for a tick window,
// mirroring the teacher's WindowStats shape (one CSV row per window) but
// carrying the circuit's counters instead of ecosystem population stats.
type WindowStats struct {
	WindowStartTick uint64 `csv:"-"`
	WindowEndTick   uint64 `csv:"window_end"`

	Landings             int `csv:"landings"`
	SuppressedLandings   int `csv:"suppressed_landings"`
	FallDamageEvents     int `csv:"fall_damage_events"`
	DuplicateDamageDrops int `csv:"duplicate_damage_drops"`
	Deaths               int `csv:"deaths"`
	StepFailures         int `csv:"step_failures"`

	FallDamageAmountMean float64 `csv:"fall_damage_mean"`
	FallDamageAmountP10  float64 `csv:"fall_damage_p10"`
	FallDamageAmountP50  float64 `csv:"fall_damage_p50"`
	FallDamageAmountP90  float64 `csv:"fall_damage_p90"`
}

// computeFallDamageStats returns the mean and 10th/50th/90th percentiles of
// values, using gonum/stat for the quantile interpolation rather than
// hand-rolling it (the teacher's ComputeEnergyStats hand-rolls this; the
// rest of the pack's numeric work goes through gonum, so this is the one
// place we prefer the ecosystem library over repeating the teacher's
// pattern — see DESIGN.md).
func computeFallDamageStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Int("landings", s.Landings),
		slog.Int("suppressed_landings", s.SuppressedLandings),
		slog.Int("fall_damage_events", s.FallDamageEvents),
		slog.Int("duplicate_damage_drops", s.DuplicateDamageDrops),
		slog.Int("deaths", s.Deaths),
		slog.Int("step_failures", s.StepFailures),
		slog.Float64("fall_damage_mean", s.FallDamageAmountMean),
		slog.Float64("fall_damage_p10", s.FallDamageAmountP10),
		slog.Float64("fall_damage_p50", s.FallDamageAmountP50),
		slog.Float64("fall_damage_p90", s.FallDamageAmountP90),
	)
}

// LogStats logs the window stats using slog, matching the teacher's
// WindowStats.LogStats call-site convention.
func (s WindowStats) LogStats() {
	slog.Info("window stats", "stats", s)
}
