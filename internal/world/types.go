package world

import (
	"fmt"
	"strings"
)

// StructureType enumerates the built structures a zone can contain.
type StructureType uint8

const (
	StructureSpawn     StructureType = iota // Production facility
	StructureExtension                      // Adds production budget
	StructureTower                          // Defensive energy sink
	StructureContainer                      // Small staging store
	StructureStorage                        // Zone-wide energy sink
	StructureLink                           // Energy teleport endpoint
	StructureRoad
	StructureWall
	StructureRampart
)

var structureNames = [...]string{
	StructureSpawn:     "spawn",
	StructureExtension: "extension",
	StructureTower:     "tower",
	StructureContainer: "container",
	StructureStorage:   "storage",
	StructureLink:      "link",
	StructureRoad:      "road",
	StructureWall:      "wall",
	StructureRampart:   "rampart",
}

func (t StructureType) String() string {
	if int(t) < len(structureNames) {
		return structureNames[t]
	}
	return fmt.Sprintf("structure(%d)", uint8(t))
}

// ParseStructureType resolves a structure name as written in scenario files.
func ParseStructureType(name string) (StructureType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range structureNames {
		if n == name {
			return StructureType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown structure type %q", name)
}

// IsBarrier reports whether the type is a wall or rampart.
func (t StructureType) IsBarrier() bool {
	return t == StructureWall || t == StructureRampart
}

// IsEnergySink reports whether the type is refilled by suppliers.
func (t StructureType) IsEnergySink() bool {
	return t == StructureTower || t == StructureExtension || t == StructureSpawn
}

// Entity is anything a task can target.
type Entity interface {
	EntityID() string
	Location() HexCoord
}

// Structure is a built structure inside the zone.
type Structure struct {
	ID       string        `json:"id"`
	Type     StructureType `json:"type"`
	Position HexCoord      `json:"position"`

	Hits    int `json:"hits"`
	HitsMax int `json:"hits_max"`

	// Energy held; for containers and storage this is the stored amount.
	Energy         int `json:"energy"`
	EnergyCapacity int `json:"energy_capacity"`

	Owned  bool `json:"owned"`
	Linked bool `json:"linked"` // A link sits next to it
}

func (s *Structure) EntityID() string   { return s.ID }
func (s *Structure) Location() HexCoord { return s.Position }

// Damaged reports whether the structure is below full durability.
func (s *Structure) Damaged() bool {
	return s.Hits < s.HitsMax
}

// HitsBelow reports whether hits are under the given fraction of the maximum.
func (s *Structure) HitsBelow(fraction float64) bool {
	return float64(s.Hits) < fraction*float64(s.HitsMax)
}

// NeedsEnergy reports whether the structure can accept more energy.
func (s *Structure) NeedsEnergy() bool {
	return s.Energy < s.EnergyCapacity
}

// ConstructionSite is a pending build.
type ConstructionSite struct {
	ID            string        `json:"id"`
	Type          StructureType `json:"type"`
	Position      HexCoord      `json:"position"`
	Progress      int           `json:"progress"`
	ProgressTotal int           `json:"progress_total"`
}

func (c *ConstructionSite) EntityID() string   { return c.ID }
func (c *ConstructionSite) Location() HexCoord { return c.Position }

// Pile is a dropped resource lying on the ground.
type Pile struct {
	ID       string   `json:"id"`
	Position HexCoord `json:"position"`
	Amount   int      `json:"amount"`
}

func (p *Pile) EntityID() string   { return p.ID }
func (p *Pile) Location() HexCoord { return p.Position }

// Source is a regenerating resource node.
type Source struct {
	ID         string   `json:"id"`
	Position   HexCoord `json:"position"`
	Capacity   int      `json:"capacity"`    // Energy per regeneration cycle
	RegenTicks int      `json:"regen_ticks"` // Length of a regeneration cycle
	Linked     bool     `json:"linked"`

	// Path lengths in ticks; 0 means unknown.
	PathLengthToStorage         int `json:"path_length_to_storage"`
	PathLengthToAssignedStorage int `json:"path_length_to_assigned_storage"`
}

func (s *Source) EntityID() string   { return s.ID }
func (s *Source) Location() HexCoord { return s.Position }

// Throughput returns the energy per tick the source yields at saturation.
func (s *Source) Throughput() float64 {
	if s.RegenTicks <= 0 {
		return 0
	}
	return float64(s.Capacity) / float64(s.RegenTicks)
}

// Controller is the zone's control entity.
type Controller struct {
	ID                string   `json:"id"`
	Position          HexCoord `json:"position"`
	Owned             bool     `json:"owned"`
	Level             int      `json:"level"`
	SafeModeAvailable int      `json:"safe_mode_available"`
	SafeModeActive    bool     `json:"safe_mode_active"`
}

func (c *Controller) EntityID() string   { return c.ID }
func (c *Controller) Location() HexCoord { return c.Position }

// DirectiveKind classifies a zone-wide directive (a placed flag in the zone).
type DirectiveKind uint8

const (
	DirectiveStationary DirectiveKind = iota // Keep vision on a position
	DirectiveGuard
	DirectiveReserve
	DirectiveRemoteMine
	DirectiveHealPoint
	DirectiveSiege
)

var directiveNames = [...]string{
	DirectiveStationary: "stationary",
	DirectiveGuard:      "guard",
	DirectiveReserve:    "reserve",
	DirectiveRemoteMine: "remoteMine",
	DirectiveHealPoint:  "healPoint",
	DirectiveSiege:      "siege",
}

func (k DirectiveKind) String() string {
	if int(k) < len(directiveNames) {
		return directiveNames[k]
	}
	return fmt.Sprintf("directive(%d)", uint8(k))
}

// ParseDirectiveKind resolves a directive kind name as written in scenario files.
func ParseDirectiveKind(name string) (DirectiveKind, error) {
	for i, n := range directiveNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return DirectiveKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown directive kind %q", name)
}

// Expensive reports whether agents serving this directive draw heavily on suppliers.
func (k DirectiveKind) Expensive() bool {
	switch k {
	case DirectiveGuard, DirectiveReserve, DirectiveRemoteMine, DirectiveSiege:
		return true
	}
	return false
}

// Directive is a zone-wide order assigned to this zone.
type Directive struct {
	Name     string        `json:"name"`
	Kind     DirectiveKind `json:"kind"`
	Position HexCoord      `json:"position"`
	Zone     string        `json:"zone"` // Zone the directive sits in

	// Path length to the assigned zone's storage; 0 means unknown.
	PathLength int `json:"path_length"`

	// Remaining reservation ticks on the target controller (reserve only).
	Reservation int `json:"reservation"`

	// Source being mined (remoteMine only).
	Source *Source `json:"source,omitempty"`
}

func (d *Directive) EntityID() string   { return d.Name }
func (d *Directive) Location() HexCoord { return d.Position }
