package world

// View is the read-only per-tick snapshot of a zone. Implementations are
// re-hydrated from world state every tick; the brain never caches results
// across ticks.
type View interface {
	// Name returns the zone identifier.
	Name() string

	Structures() []*Structure
	ConstructionSites() []*ConstructionSite
	DroppedResources() []*Pile
	Sources() []*Source
	Directives() []*Directive

	// Controller returns nil if the zone has no controller.
	Controller() *Controller
	// Storage returns nil if the zone has no storage structure.
	Storage() *Structure

	HostileCount() int

	// Production budget currently available and the maximum it refills to.
	EnergyAvailable() int
	EnergyCapacityAvailable() int

	// ClaimCount returns how many agents are bound to the target.
	ClaimCount(targetID string) int
	// AssignedCount returns how many agents of a role were produced for an entity.
	AssignedCount(assignmentID, role string) int
	// HasAgent reports whether an agent with the given name exists.
	HasAgent(name string) bool
}

// SafeModeTrigger is the controller action the safety check can take.
type SafeModeTrigger interface {
	ActivateSafeMode() error
}

// StructuresOf returns the view's structures matching any of the given types.
func StructuresOf(v View, types ...StructureType) []*Structure {
	var out []*Structure
	for _, s := range v.Structures() {
		for _, t := range types {
			if s.Type == t {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
