package planner

import (
	"math"

	"github.com/talgya/zone-brain/internal/agents"
	"github.com/talgya/zone-brain/internal/config"
	"github.com/talgya/zone-brain/internal/world"
)

const (
	// Workers run below the equilibrium they could sustain.
	workerUtilization = 0.8
	// Without a staging point workers spend most of their time walking.
	noStorageTravelPenalty = 3.0
	// Worker demand per pending job, in worker repetitions.
	repetitionsPerJob = 2.0
)

// Planner computes headcount requirements for one zone.
type Planner struct {
	settings config.Settings
	zone     config.Zone
}

// New creates a planner for a zone; overrides are resolved once here.
func New(s config.Settings, zone string) Planner {
	return Planner{settings: s, zone: s.ForZone(zone)}
}

// Settings returns the settings the planner was built with.
func (p Planner) Settings() config.Settings {
	return p.settings
}

// Zone returns the resolved zone settings.
func (p Planner) Zone() config.Zone {
	return p.zone
}

// workerSize is the largest affordable worker, bounded by the repetition cap.
func (p Planner) workerSize(budget int) int {
	cost := agents.MustTemplate(agents.RoleWorker).Cost()
	size := budget / cost
	if size > p.settings.WorkerPatternRepetitionLimit {
		size = p.settings.WorkerPatternRepetitionLimit
	}
	return size
}

// WorkersByEnergy sizes the worker force against source throughput for
// economies without storage. Returns false when no facility is reachable
// or not even one worker repetition is affordable.
func (p Planner) WorkersByEnergy(e Economy) (int, bool) {
	if !e.HasFacility {
		return 0, false
	}
	size := p.workerSize(e.BudgetMax)
	if size < 1 {
		return 0, false
	}
	equilibrium := float64(size)
	if e.Storage == nil {
		equilibrium /= noStorageTravelPenalty
	}
	return int(math.Ceil(workerUtilization * e.SourceThroughput() / equilibrium)), true
}

// WorkersByJobs sizes the worker force against pending jobs for economies
// with storage. Zero jobs always means zero workers.
func (p Planner) WorkersByJobs(e Economy) int {
	jobs := e.PendingJobs()
	if jobs == 0 {
		return 0
	}
	size := p.workerSize(e.BudgetMax)
	if size < 1 {
		return p.settings.MaxWorkersPerZone
	}
	n := int(math.Ceil(repetitionsPerJob * float64(jobs) / float64(size)))
	if n > p.settings.MaxWorkersPerZone {
		n = p.settings.MaxWorkersPerZone
	}
	return n
}

// Workers returns the worker requirement: the zone override when set,
// otherwise jobs-based with storage and energy-based without.
func (p Planner) Workers(e Economy) (int, bool) {
	if !e.HasFacility {
		return 0, false
	}
	if p.zone.Workers.Set {
		return p.zone.Workers.Value, true
	}
	if e.Storage != nil {
		return p.WorkersByJobs(e), true
	}
	return p.WorkersByEnergy(e)
}

// HaulerSize returns the hauler size needed to saturate a source given the
// round trip to storage, with a 10% margin. remote uses the path to the
// assigned zone's storage.
func (p Planner) HaulerSize(src *world.Source, remote bool) int {
	tmpl := agents.MustTemplate(agents.RoleHauler)

	path := src.PathLengthToStorage
	if remote {
		path = src.PathLengthToAssignedStorage
	}
	if path < 1 {
		path = 1
	}
	trip := float64(2 * path)

	perTrip := float64(agents.CarryPerPart * tmpl.PartsPerRepetition(agents.PartCarry))
	if perTrip <= 0 {
		return 0
	}
	perTick := perTrip / trip
	required := src.Throughput() / perTick
	return int(math.Ceil(required * 11 / 10))
}

// Haulers returns the size and number of haulers a source needs. ok is
// false without a facility or storage, when the source and the storage are
// both linked, since the link does the transport, and when the source
// yields nothing to carry.
func (p Planner) Haulers(e Economy, src *world.Source, remote bool) (size, count int, ok bool) {
	if !e.HasFacility || e.Storage == nil {
		return 0, 0, false
	}
	if src.Linked && e.Storage.Linked {
		return 0, 0, false
	}
	cost := agents.MustTemplate(agents.RoleHauler).Cost()
	maxSize := e.BudgetMax / cost
	if maxSize < 1 {
		return 0, 0, false
	}
	size = p.HaulerSize(src, remote)
	if size < 1 {
		return 0, 0, false
	}
	count = 1
	if size > maxSize {
		// Split into whole units of the max size, chopping off the excess.
		n := float64(size) / float64(maxSize)
		units := math.Ceil(n)
		size = int(math.Ceil(float64(maxSize) * (n / units)))
		count = int(units)
	}
	return size, count, true
}

// Upgraders returns the upgrader size and count. One extra repetition is
// added per increment of stored energy above the upgrade buffer; the count
// then jumps whenever that size outgrows the budget.
func (p Planner) Upgraders(e Economy) (size, count int, ok bool) {
	if e.Storage == nil || e.BudgetMax <= 0 {
		return 0, 0, false
	}
	over := e.Storage.Energy - p.settings.UpgradeBuffer
	if over < 0 {
		over = 0
	}
	size = 1 + over/p.settings.UpgradeIncrement
	if p.zone.Upgraders.Set {
		return size, p.zone.Upgraders.Value, true
	}
	cost := agents.MustTemplate(agents.RoleUpgrader).Cost()
	count = int(math.Ceil(float64(size*cost) / float64(e.BudgetMax)))
	return size, count, true
}

// MinersPerSource returns the miners each source needs.
func (p Planner) MinersPerSource() int {
	return p.settings.MinersPerSource
}

// Linkers returns one linker for a linked storage and none otherwise.
func (p Planner) Linkers(e Economy) int {
	if e.Storage != nil && e.Storage.Linked {
		return 1
	}
	return 0
}

// Suppliers returns the supplier requirement. Zones with at most one energy
// sink need none; otherwise one, a second while storage exists and a sink is
// short, and one more per ten expensive directives.
func (p Planner) Suppliers(e Economy) int {
	if len(e.Sinks) <= 1 {
		return 0
	}
	limit := 1
	if e.Storage != nil {
		for _, s := range e.Sinks {
			if s.NeedsEnergy() {
				limit++
				break
			}
		}
	}
	limit += e.ExpensiveDirectives / 10
	return limit
}
