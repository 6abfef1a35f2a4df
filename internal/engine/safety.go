package engine

import (
	"github.com/talgya/zone-brain/internal/world"
)

// SafetyMonitor triggers the controller's emergency mode when a barrier is
// about to fall while hostiles are present. It keeps no state between ticks.
type SafetyMonitor struct {
	Floor int // Barrier hits below which the zone is in danger
}

// CriticalBarriers returns the walls and ramparts below the floor.
func (m SafetyMonitor) CriticalBarriers(v world.View) []*world.Structure {
	var out []*world.Structure
	for _, s := range v.Structures() {
		if s.Type.IsBarrier() && s.Hits < m.Floor {
			out = append(out, s)
		}
	}
	return out
}

// Critical reports whether the zone needs emergency mode this tick.
func (m SafetyMonitor) Critical(v world.View) bool {
	return v.HostileCount() > 0 && len(m.CriticalBarriers(v)) > 0
}

// Check evaluates the zone and activates emergency mode if needed.
func (m SafetyMonitor) Check(v world.View, t world.SafeModeTrigger) (bool, error) {
	if !m.Critical(v) {
		return false, nil
	}
	return true, t.ActivateSafeMode()
}
