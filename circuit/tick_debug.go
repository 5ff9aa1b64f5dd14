//go:build debugticks

package circuit

import "github.com/pthm-cable/worldcore/records"

// advanceTick implements spec.md §4.9's debug-build policy: trap on
// overflow rather than silently wrapping, the nearest Go equivalent to the
// original's debug_assert! on the tick counter.
func advanceTick(t records.Tick) records.Tick {
	if t == ^records.Tick(0) {
		panic("circuit: tick counter overflow")
	}
	return t + 1
}
