// Simulation ties the zone brains together and runs them each tick.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/zone-brain/internal/config"
	"github.com/talgya/zone-brain/internal/tasks"
)

// maxEvents bounds the in-memory event log.
const maxEvents = 1000

// Advancer is implemented by zones whose world state moves on between ticks.
type Advancer interface {
	Advance(tick uint64)
}

// Event is a notable occurrence in a zone.
type Event struct {
	Tick        uint64 `json:"tick" db:"tick"`
	Zone        string `json:"zone" db:"zone"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // "spawn", "safety", "failure", "override"
}

// SimStats tracks aggregate counters since start.
type SimStats struct {
	Zones          int `json:"zones"`
	Agents         int `json:"agents"`
	Bound          int `json:"bound"` // Agents holding a binding after the last tick
	Requests       int `json:"requests"`
	FailedRequests int `json:"failed_requests"`
	Committed      int `json:"committed"` // Estimated cost of accepted requests
	SafeModes      int `json:"safe_modes"`
}

// Simulation holds every zone brain.
type Simulation struct {
	mu sync.Mutex

	Brains     []*Brain
	BrainIndex map[string]*Brain
	Events     []Event
	LastTick   uint64
	Stats      SimStats
}

// NewSimulation bootstraps a brain per zone. Each zone's persisted record is
// fetched (or created) exactly once, here. Zones lend their facilities to
// each other.
func NewSimulation(zones []Zone, s config.Settings, te *tasks.Engine, store RecordStore, tick uint64) (*Simulation, error) {
	sim := &Simulation{
		BrainIndex: make(map[string]*Brain, len(zones)),
		LastTick:   tick,
	}
	for _, z := range zones {
		if _, dup := sim.BrainIndex[z.Name()]; dup {
			return nil, fmt.Errorf("duplicate zone %q", z.Name())
		}
		rec, err := store.Record(z.Name(), tick)
		if err != nil {
			return nil, fmt.Errorf("zone %s record: %w", z.Name(), err)
		}
		b := NewBrain(z, s, te, rec)
		sim.Brains = append(sim.Brains, b)
		sim.BrainIndex[z.Name()] = b
	}
	for _, b := range sim.Brains {
		for _, peer := range sim.Brains {
			if peer != b {
				b.Lend(peer.Zone())
			}
		}
	}
	sim.Stats.Zones = len(sim.Brains)
	return sim, nil
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastTick
}

// Tick runs one tick for every zone: the world moves on, the brain runs
// its safety check and population control, then every agent in the zone
// gets its task binding rewritten.
func (s *Simulation) Tick(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastTick = tick
	agentsSeen, bound := 0, 0

	for _, b := range s.Brains {
		if adv, ok := b.Zone().(Advancer); ok {
			adv.Advance(tick)
		}

		report := b.Run(tick)
		s.recordReport(report)

		agentsSeen += len(b.Zone().Agents())
		bound += b.AssignAll(tick)
	}

	s.Stats.Agents = agentsSeen
	s.Stats.Bound = bound
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}

func (s *Simulation) recordReport(r TickReport) {
	if r.SafeMode {
		s.Stats.SafeModes++
		s.Events = append(s.Events, Event{
			Tick:        r.Tick,
			Zone:        r.Zone,
			Description: "safe mode activated",
			Category:    "safety",
		})
	}
	if !r.Dispatched {
		return
	}
	s.Stats.Requests++
	o := r.Outcome.Order
	if r.Outcome.Err != nil {
		s.Stats.FailedRequests++
		s.Events = append(s.Events, Event{
			Tick:        r.Tick,
			Zone:        r.Zone,
			Description: fmt.Sprintf("%s request for %s failed: %v", o.Handler, o.Template.Role, r.Outcome.Err),
			Category:    "failure",
		})
		return
	}
	s.Stats.Committed += r.Outcome.Estimate
	desc := fmt.Sprintf("%s requested %s %s for %s", o.Handler, o.Template.Role, r.Outcome.Handle, o.Assignment)
	if r.Borrowed {
		desc += " (borrowed facility)"
	}
	s.Events = append(s.Events, Event{Tick: r.Tick, Zone: r.Zone, Description: desc, Category: "spawn"})
}

// ZoneStatus is a point-in-time summary of one zone.
type ZoneStatus struct {
	Zone            string              `json:"zone"`
	Agents          int                 `json:"agents"`
	Census          map[string]int      `json:"census"`
	EnergyAvailable int                 `json:"energy_available"`
	EnergyCapacity  int                 `json:"energy_capacity"`
	Stored          int                 `json:"stored"`
	Hostiles        int                 `json:"hostiles"`
	Jobs            int                 `json:"jobs"`
	WantWorkers     int                 `json:"want_workers"`
	WantUpgraders   int                 `json:"want_upgraders"`
	WantSuppliers   int                 `json:"want_suppliers"`
	Queued          int                 `json:"queued"`
	Overrides       config.ZoneOverride `json:"overrides"`
	Effective       config.Zone         `json:"effective"` // Overrides layered over the settings file
}

func zoneStatus(b *Brain) ZoneStatus {
	z := b.Zone()
	e := b.Economy()
	p := b.Planner()

	workers, _ := p.Workers(e)
	_, upgraders, _ := p.Upgraders(e)
	st := ZoneStatus{
		Zone:            z.Name(),
		Agents:          len(z.Agents()),
		Census:          make(map[string]int),
		EnergyAvailable: z.EnergyAvailable(),
		EnergyCapacity:  z.EnergyCapacityAvailable(),
		Hostiles:        z.HostileCount(),
		Jobs:            e.PendingJobs(),
		WantWorkers:     workers,
		WantUpgraders:   upgraders,
		WantSuppliers:   p.Suppliers(e),
		Queued:          len(b.Record().SpawnQueue),
		Overrides:       b.Record().Overrides,
		Effective:       p.Zone(),
	}
	if e.Storage != nil {
		st.Stored = e.Storage.Energy
	}
	for _, a := range z.Agents() {
		st.Census[string(a.Role)]++
	}
	return st
}

// Status returns a summary of every zone.
func (s *Simulation) Status() []ZoneStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ZoneStatus, 0, len(s.Brains))
	for _, b := range s.Brains {
		out = append(out, zoneStatus(b))
	}
	return out
}

// ZoneStatus returns one zone's summary.
func (s *Simulation) ZoneStatus(zone string) (ZoneStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.BrainIndex[zone]
	if !ok {
		return ZoneStatus{}, false
	}
	return zoneStatus(b), true
}

// StatsSnapshot returns the aggregate counters.
func (s *Simulation) StatsSnapshot() SimStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Stats
}

// SetOverrides replaces a zone's persisted overrides. They are layered over
// the settings file's entry for the zone, take effect on the next tick and
// are saved with the record.
func (s *Simulation) SetOverrides(zone string, o config.ZoneOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.BrainIndex[zone]
	if !ok {
		return fmt.Errorf("unknown zone %q", zone)
	}
	b.SetOverrides(o)
	s.Events = append(s.Events, Event{
		Tick:        s.LastTick,
		Zone:        zone,
		Description: "zone overrides changed",
		Category:    "override",
	})
	slog.Info("zone overrides changed", "zone", zone, "tick", s.LastTick)
	return nil
}

// RecentEvents returns up to n pending events, newest first.
func (s *Simulation) RecentEvents(n int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0, n)
	for i := len(s.Events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.Events[i])
	}
	return out
}

// Report logs a summary line per zone.
func (s *Simulation) Report(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.Brains {
		st := zoneStatus(b)

		roles := make([]string, 0, len(st.Census))
		for r := range st.Census {
			roles = append(roles, r)
		}
		sort.Strings(roles)
		census := make([]string, 0, len(roles))
		for _, r := range roles {
			census = append(census, fmt.Sprintf("%s=%d", r, st.Census[r]))
		}

		slog.Info("zone report",
			"tick", tick,
			"zone", st.Zone,
			"agents", st.Agents,
			"census", strings.Join(census, " "),
			"energy", fmt.Sprintf("%s/%s", humanize.Comma(int64(st.EnergyAvailable)), humanize.Comma(int64(st.EnergyCapacity))),
			"stored", humanize.Comma(int64(st.Stored)),
			"jobs", st.Jobs,
			"want_workers", st.WantWorkers,
			"want_upgraders", st.WantUpgraders,
			"want_suppliers", st.WantSuppliers,
			"queued", st.Queued,
		)
	}
	slog.Info("simulation summary",
		"tick", tick,
		"zones", s.Stats.Zones,
		"agents", s.Stats.Agents,
		"bound", s.Stats.Bound,
		"requests", s.Stats.Requests,
		"failed", s.Stats.FailedRequests,
		"committed", humanize.Comma(int64(s.Stats.Committed)),
		"safe_modes", s.Stats.SafeModes,
	)
}

// Records returns every zone's persisted record.
func (s *Simulation) Records() []*ZoneRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ZoneRecord, 0, len(s.Brains))
	for _, b := range s.Brains {
		out = append(out, b.Record())
	}
	return out
}

// DrainEvents returns and clears the pending events.
func (s *Simulation) DrainEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.Events
	s.Events = nil
	return out
}
