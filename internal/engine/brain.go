package engine

import (
	"log/slog"

	"github.com/talgya/zone-brain/internal/agents"
	"github.com/talgya/zone-brain/internal/config"
	"github.com/talgya/zone-brain/internal/planner"
	"github.com/talgya/zone-brain/internal/tasks"
	"github.com/talgya/zone-brain/internal/world"
)

// Zone is everything the brain reads from and acts on in one zone.
type Zone interface {
	world.View
	world.SafeModeTrigger
	Agents() []*agents.Agent
	// Facility returns nil when the zone has no production facility.
	Facility() agents.Facility
}

// TickReport summarizes what a brain did in one tick.
type TickReport struct {
	Zone        string
	Tick        uint64
	SafeMode    bool
	SafeModeErr error
	Dispatched  bool
	Outcome     Outcome
	Borrowed    bool // Production went through a peer zone's facility
	Pruned      int  // Spawn queue entries cleared
}

// Brain is the control loop of a single zone.
type Brain struct {
	zone       Zone
	base       config.Settings
	settings   config.Settings
	planner    planner.Planner
	tasks      *tasks.Engine
	dispatcher *Dispatcher
	safety     SafetyMonitor
	record     *ZoneRecord
	lenders    []Zone
}

// NewBrain creates the brain for a zone. The record's overrides are layered
// over the shared settings once, here.
func NewBrain(z Zone, s config.Settings, te *tasks.Engine, rec *ZoneRecord) *Brain {
	rec.Init()
	b := &Brain{
		zone:       z,
		base:       s,
		tasks:      te,
		dispatcher: NewDispatcher(DefaultHandlers()...),
		record:     rec,
	}
	b.apply()
	return b
}

func (b *Brain) apply() {
	b.settings = b.base.WithOverride(b.zone.Name(), b.record.Overrides)
	b.planner = planner.New(b.settings, b.zone.Name())
	b.safety = SafetyMonitor{Floor: b.settings.SafeModeFloor}
}

// SetOverrides replaces the zone's persisted overrides. Fields left unset
// fall back to the settings file's entry for the zone.
func (b *Brain) SetOverrides(o config.ZoneOverride) {
	b.record.Overrides = o
	b.apply()
}

// Name returns the zone name.
func (b *Brain) Name() string { return b.zone.Name() }

// Zone returns the zone the brain runs.
func (b *Brain) Zone() Zone { return b.zone }

// Record returns the zone's persisted record.
func (b *Brain) Record() *ZoneRecord { return b.record }

// Planner returns the zone's planner.
func (b *Brain) Planner() planner.Planner { return b.planner }

// Lend lets the brain borrow production from peer zones.
func (b *Brain) Lend(peers ...Zone) {
	b.lenders = append(b.lenders, peers...)
}

// facility returns the facility to produce from and its zone's maximum
// budget. A peer's facility is only lent while its budget is full.
func (b *Brain) facility() (agents.Facility, int, bool, bool) {
	if f := b.zone.Facility(); f != nil {
		return f, b.zone.EnergyCapacityAvailable(), false, true
	}
	for _, peer := range b.lenders {
		f := peer.Facility()
		if f != nil && peer.EnergyAvailable() == peer.EnergyCapacityAvailable() {
			return f, peer.EnergyCapacityAvailable(), true, true
		}
	}
	return nil, 0, false, false
}

// Thresholds returns the zone's task discovery thresholds.
func (b *Brain) Thresholds() tasks.Thresholds {
	return tasks.ThresholdsFor(b.settings, b.planner.Zone())
}

// Catalog returns a task catalog over the zone's current state.
func (b *Brain) Catalog() *tasks.Catalog {
	return tasks.NewCatalog(b.zone, b.Thresholds())
}

// Economy returns the zone's current economic snapshot.
func (b *Brain) Economy() planner.Economy {
	_, budget, _, ok := b.facility()
	return planner.Snapshot(b.zone, ok, budget, b.Thresholds())
}

// Run executes the brain's own tick segment: the safety check first, then
// population control.
func (b *Brain) Run(tick uint64) TickReport {
	report := TickReport{Zone: b.Name(), Tick: tick}

	triggered, err := b.safety.Check(b.zone, b.zone)
	report.SafeMode, report.SafeModeErr = triggered, err
	if triggered {
		if err != nil {
			slog.Warn("safe mode activation failed", "zone", b.Name(), "tick", tick, "error", err)
		} else {
			slog.Warn("safe mode activated", "zone", b.Name(), "tick", tick, "hostiles", b.zone.HostileCount())
		}
	}

	report.Pruned = b.record.Prune(b.zone.HasAgent, tick)

	f, budget, borrowed, ok := b.facility()
	if !ok {
		return report
	}
	ctx := &SpawnContext{
		Zone:    b.Name(),
		View:    b.zone,
		Planner: b.planner,
		Economy: planner.Snapshot(b.zone, true, budget, b.Thresholds()),
		Tick:    tick,
	}
	outcome, dispatched := b.dispatcher.Dispatch(ctx, f)
	report.Dispatched, report.Outcome, report.Borrowed = dispatched, outcome, borrowed && dispatched
	if !dispatched {
		return report
	}

	o := outcome.Order
	if outcome.Err != nil {
		slog.Warn("production request failed",
			"zone", b.Name(), "tick", tick, "handler", o.Handler, "role", o.Template.Role, "estimate", outcome.Estimate, "error", outcome.Err)
		return report
	}
	b.record.Enqueue(string(outcome.Handle), QueuedSpawn{
		Handler:    o.Handler,
		Role:       string(o.Template.Role),
		Assignment: o.Assignment,
		WorkZone:   o.WorkZone,
		Size:       o.Size,
		Tick:       tick,
	})
	slog.Debug("production requested",
		"zone", b.Name(), "tick", tick, "handler", o.Handler, "role", o.Template.Role,
		"size", o.Size, "estimate", outcome.Estimate, "assignment", o.Assignment, "handle", outcome.Handle, "borrowed", borrowed)
	return report
}

// AssignAll rebinds every agent in the zone and returns how many are bound.
func (b *Brain) AssignAll(tick uint64) int {
	return b.tasks.AssignAll(b.Catalog(), b.zone.Agents(), tick)
}
