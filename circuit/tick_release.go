//go:build !debugticks

package circuit

import "github.com/pthm-cable/worldcore/records"

// advanceTick implements spec.md §4.9's release-build policy: wrap to 0 on
// overflow rather than trap.
func advanceTick(t records.Tick) records.Tick {
	return t + 1
}
