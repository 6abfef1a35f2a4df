// Package planner converts a zone's economic state into per-role headcount
// requirements. Every function is a pure function of an Economy snapshot
// and the immutable settings; nothing here mutates world state.
package planner

import (
	"github.com/talgya/zone-brain/internal/tasks"
	"github.com/talgya/zone-brain/internal/world"
)

// Economy is the slice of zone state the requirement models read.
type Economy struct {
	Zone string

	// HasFacility is false when no production facility is reachable.
	HasFacility bool
	// BudgetMax is the maximum production budget of the facility in use.
	BudgetMax int

	Sources []*world.Source
	Storage *world.Structure
	Sinks   []*world.Structure // Towers, extensions and spawns

	// Staging structures (containers and storage) present in the zone.
	StagingCount int

	RepairJobs       int
	ConstructionJobs int
	FortifyJobs      int

	ExpensiveDirectives int
}

// Snapshot reads an Economy out of a zone view. budgetMax is the maximum
// budget of the facility the zone would produce from; hasFacility is false
// when none is reachable.
func Snapshot(v world.View, hasFacility bool, budgetMax int, th tasks.Thresholds) Economy {
	e := Economy{
		Zone:        v.Name(),
		HasFacility: hasFacility,
		BudgetMax:   budgetMax,
		Sources:     v.Sources(),
		Storage:     v.Storage(),
	}

	for _, s := range v.Structures() {
		switch {
		case s.Type.IsEnergySink():
			e.Sinks = append(e.Sinks, s)
		case s.Type == world.StructureContainer || s.Type == world.StructureStorage:
			e.StagingCount++
		}
		if RepairJob(s) {
			e.RepairJobs++
		}
		if tasks.Fortifiable(s, th.FortifyLevel) {
			e.FortifyJobs++
		}
	}
	e.ConstructionJobs = len(v.ConstructionSites())

	for _, d := range v.Directives() {
		if d.Kind.Expensive() {
			e.ExpensiveDirectives++
		}
	}
	return e
}

// RepairJob counts toward worker demand: damaged structures other than
// containers (miners repair those) and barriers (fortify jobs), with roads
// only once they drop under half durability.
func RepairJob(s *world.Structure) bool {
	if !s.Damaged() {
		return false
	}
	switch s.Type {
	case world.StructureContainer, world.StructureWall, world.StructureRampart:
		return false
	case world.StructureRoad:
		return s.HitsBelow(0.5)
	}
	return true
}

// PendingJobs sums repair, construction and fortify jobs.
func (e Economy) PendingJobs() int {
	return e.RepairJobs + e.ConstructionJobs + e.FortifyJobs
}

// SourceThroughput sums the saturation throughput of every source.
func (e Economy) SourceThroughput() float64 {
	total := 0.0
	for _, s := range e.Sources {
		total += s.Throughput()
	}
	return total
}
