// Package telemetry provides per-tick diagnostics for the dataflow circuit:
// counters for landings, suppressed landings, fall damage, duplicate
// damage drops, deaths, and step failures, aggregated into window stats and
// written to CSV. Telemetry only ever observes the circuit's output
// streams and the host sync layer's counters — it is never consulted by
// the circuit itself.
package telemetry

// Collector accumulates per-tick diagnostic counters within a window and
// produces WindowStats on Flush, mirroring the teacher's windowed
// Collector/Flush pattern (github.com/pthm-cable/soup/telemetry) retargeted
// from ecosystem events to circuit events.
type Collector struct {
	windowDurationTicks uint64
	windowStartTick     uint64

	landings           int
	suppressedLandings int
	fallDamageEvents   int
	duplicateDamage    int
	deaths             int
	stepFailures       int

	fallDamageAmounts []float64
}

// NewCollector creates a Collector that flushes a WindowStats every
// windowDurationTicks ticks.
func NewCollector(windowDurationTicks uint64) *Collector {
	if windowDurationTicks < 1 {
		windowDurationTicks = 1
	}
	return &Collector{windowDurationTicks: windowDurationTicks}
}

// RecordLanding records a landing transition that produced a fall-damage
// event, along with the damage amount (for the window's percentile stats).
func (c *Collector) RecordLanding(amount uint16) {
	c.landings++
	c.fallDamageEvents++
	c.fallDamageAmounts = append(c.fallDamageAmounts, float64(amount))
}

// RecordSuppressedLanding records a landing that the cooldown window
// suppressed (spec.md §4.5's allowed_landings antijoin dropped it).
func (c *Collector) RecordSuppressedLanding() {
	c.suppressedLandings++
}

// RecordDuplicateDamage records a damage event the host sync layer dropped
// as a duplicate (spec.md §4.10 step 3/6).
func (c *Collector) RecordDuplicateDamage() {
	c.duplicateDamage++
}

// RecordDeath records a HealthDelta with Death == true.
func (c *Collector) RecordDeath() {
	c.deaths++
}

// RecordStepFailure records a Circuit.Step call that returned a StepError.
func (c *Collector) RecordStepFailure() {
	c.stepFailures++
}

// ShouldFlush reports whether enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick uint64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats for the window ending at currentTick and
// resets counters for the next window.
func (c *Collector) Flush(currentTick uint64) WindowStats {
	mean, p10, p50, p90 := computeFallDamageStats(c.fallDamageAmounts)

	stats := WindowStats{
		WindowStartTick:       c.windowStartTick,
		WindowEndTick:         currentTick,
		Landings:              c.landings,
		SuppressedLandings:    c.suppressedLandings,
		FallDamageEvents:      c.fallDamageEvents,
		DuplicateDamageDrops:  c.duplicateDamage,
		Deaths:                c.deaths,
		StepFailures:          c.stepFailures,
		FallDamageAmountMean:  mean,
		FallDamageAmountP10:   p10,
		FallDamageAmountP50:   p50,
		FallDamageAmountP90:   p90,
	}

	c.windowStartTick = currentTick
	c.landings = 0
	c.suppressedLandings = 0
	c.fallDamageEvents = 0
	c.duplicateDamage = 0
	c.deaths = 0
	c.stepFailures = 0
	c.fallDamageAmounts = nil

	return stats
}

// WindowDurationTicks returns the configured window size.
func (c *Collector) WindowDurationTicks() uint64 {
	return c.windowDurationTicks
}
