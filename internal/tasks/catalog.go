package tasks

import (
	"github.com/talgya/zone-brain/internal/config"
	"github.com/talgya/zone-brain/internal/world"
)

// Thresholds parameterize target discovery.
type Thresholds struct {
	Pickup       int // Minimum pile amount worth picking up
	Collect      int // Minimum container content worth collecting
	FortifyLevel int // Barriers are fortified up to this level
}

// ThresholdsFor resolves discovery thresholds for a zone.
func ThresholdsFor(s config.Settings, z config.Zone) Thresholds {
	return Thresholds{
		Pickup:       s.PickupThreshold,
		Collect:      s.CollectThreshold,
		FortifyLevel: z.FortifyLevel,
	}
}

// Catalog enumerates the current targets of each task type in a zone.
// Nothing is cached: every call reads the view again.
type Catalog struct {
	view       world.View
	thresholds Thresholds
}

// NewCatalog creates a catalog over a zone view.
func NewCatalog(v world.View, th Thresholds) *Catalog {
	return &Catalog{view: v, thresholds: th}
}

// View returns the zone view the catalog reads.
func (c *Catalog) View() world.View {
	return c.view
}

// TargetsFor returns the valid targets for a task kind. Unknown kinds and
// zones lacking the required entity yield an empty sequence.
func (c *Catalog) TargetsFor(k Kind) []world.Entity {
	var targets []world.Entity
	switch k {
	case KindPickup:
		for _, p := range c.view.DroppedResources() {
			if p.Amount > c.thresholds.Pickup {
				targets = append(targets, p)
			}
		}
	case KindCollect:
		for _, s := range c.view.Structures() {
			if Collectable(s, c.thresholds.Collect) {
				targets = append(targets, s)
			}
		}
	case KindSupplyTowers:
		for _, s := range c.view.Structures() {
			if s.Owned && s.Type == world.StructureTower && s.NeedsEnergy() {
				targets = append(targets, s)
			}
		}
	case KindSupply:
		for _, s := range c.view.Structures() {
			if s.Owned && (s.Type == world.StructureExtension || s.Type == world.StructureSpawn) && s.NeedsEnergy() {
				targets = append(targets, s)
			}
		}
	case KindRepair:
		for _, s := range c.view.Structures() {
			if Repairable(s) {
				targets = append(targets, s)
			}
		}
	case KindBuild, KindBuildRoads:
		roads := k == KindBuildRoads
		for _, site := range c.view.ConstructionSites() {
			if (site.Type == world.StructureRoad) == roads {
				targets = append(targets, site)
			}
		}
	case KindFortify:
		for _, s := range c.view.Structures() {
			if Fortifiable(s, c.thresholds.FortifyLevel) {
				targets = append(targets, s)
			}
		}
	case KindUpgrade:
		if ctrl := c.view.Controller(); ctrl != nil && ctrl.Owned {
			targets = append(targets, ctrl)
		}
	}
	return targets
}

// Collectable: a container holding more than the minimum.
func Collectable(s *world.Structure, min int) bool {
	return s.Type == world.StructureContainer && s.Energy > min
}

// Repairable: damaged, not a barrier, and containers and roads only past
// 30% damage.
func Repairable(s *world.Structure) bool {
	if !s.Damaged() || s.Type.IsBarrier() {
		return false
	}
	if s.Type == world.StructureContainer || s.Type == world.StructureRoad {
		return s.HitsBelow(0.7)
	}
	return true
}

// Fortifiable: a barrier below the fortify level.
func Fortifiable(s *world.Structure, level int) bool {
	return s.Type.IsBarrier() && s.Hits < level
}
