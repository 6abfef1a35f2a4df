// Package sandbox is an in-memory world for driving zone brains outside a
// live game: it answers the brain's queries, runs a production facility
// and moves simple world state forward each tick.
package sandbox

import (
	"errors"
	"fmt"
	"sort"

	"github.com/talgya/zone-brain/internal/agents"
	"github.com/talgya/zone-brain/internal/world"
)

const (
	// SpawnTicksPerPart is how long the facility spends on each body part.
	SpawnTicksPerPart = 3
	// AgentLifetime is the number of ticks an agent lives.
	AgentLifetime = 1500
	// DefaultRefillPerTick is the budget regained per tick.
	DefaultRefillPerTick = 10
)

var (
	ErrNoController = errors.New("zone has no controller")
	ErrNoSafeMode   = errors.New("no safe mode activations left")
)

// Wave sets the hostile count from a tick on.
type Wave struct {
	Tick     uint64 `yaml:"tick"`
	Hostiles int    `yaml:"hostiles"`
}

type production struct {
	handle     agents.Handle
	template   agents.Template
	size       int
	assignment string
	workZone   string
	done       uint64
}

// Zone is an in-memory zone. It implements the brain's Zone contract.
type Zone struct {
	name string

	structures []*world.Structure
	sites      []*world.ConstructionSite
	piles      []*world.Pile
	sources    []*world.Source
	directives []*world.Directive
	controller *world.Controller
	spawn      *world.Structure

	hostiles int
	waves    []Wave

	energy        int
	energyCap     int
	refillPerTick int

	agents  []*agents.Agent
	spawner *agents.Spawner
	pending *production
	tick    uint64

	// Zones built from the same scenario, by name. Agents produced for a
	// peer zone move there once finished.
	peers map[string]*Zone

	// SafeModeActivations counts successful emergency activations.
	SafeModeActivations int
}

// Name implements world.View.
func (z *Zone) Name() string { return z.name }

func (z *Zone) Structures() []*world.Structure               { return z.structures }
func (z *Zone) ConstructionSites() []*world.ConstructionSite { return z.sites }
func (z *Zone) DroppedResources() []*world.Pile              { return z.piles }
func (z *Zone) Sources() []*world.Source                     { return z.sources }
func (z *Zone) Directives() []*world.Directive               { return z.directives }
func (z *Zone) Controller() *world.Controller                { return z.controller }
func (z *Zone) HostileCount() int                            { return z.hostiles }
func (z *Zone) EnergyAvailable() int                         { return z.energy }
func (z *Zone) EnergyCapacityAvailable() int                 { return z.energyCap }

// Storage returns the zone's first storage structure.
func (z *Zone) Storage() *world.Structure {
	for _, s := range z.structures {
		if s.Type == world.StructureStorage {
			return s
		}
	}
	return nil
}

// ClaimCount counts live bindings on the target, so agents assigned one
// after another in the same tick see each other's claims.
func (z *Zone) ClaimCount(targetID string) int {
	n := 0
	for _, a := range z.agents {
		if a.Binding != nil && a.Binding.TargetID == targetID {
			n++
		}
	}
	return n
}

// AssignedCount counts agents of a role produced for an entity, including
// one still in production.
func (z *Zone) AssignedCount(assignmentID, role string) int {
	n := 0
	for _, a := range z.agents {
		if a.Assignment == assignmentID && string(a.Role) == role {
			n++
		}
	}
	if p := z.pending; p != nil && p.assignment == assignmentID && string(p.template.Role) == role {
		n++
	}
	return n
}

// HasAgent reports whether a materialized agent has the name.
func (z *Zone) HasAgent(name string) bool {
	for _, a := range z.agents {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Agents returns the zone's agents ordered by name.
func (z *Zone) Agents() []*agents.Agent {
	return z.agents
}

// AddAgent places an existing agent in the zone.
func (z *Zone) AddAgent(a *agents.Agent) {
	z.agents = append(z.agents, a)
	sort.Slice(z.agents, func(i, j int) bool { return z.agents[i].Name < z.agents[j].Name })
}

// SetHostiles overrides the current hostile count.
func (z *Zone) SetHostiles(n int) { z.hostiles = n }

// SetEnergy overrides the available budget, capped at the maximum.
func (z *Zone) SetEnergy(n int) {
	z.energy = min(n, z.energyCap)
}

// ActivateSafeMode implements world.SafeModeTrigger.
func (z *Zone) ActivateSafeMode() error {
	c := z.controller
	if c == nil {
		return ErrNoController
	}
	if c.SafeModeActive {
		return nil
	}
	if c.SafeModeAvailable <= 0 {
		return ErrNoSafeMode
	}
	c.SafeModeAvailable--
	c.SafeModeActive = true
	z.SafeModeActivations++
	return nil
}

// Facility returns nil if the zone has no spawn.
func (z *Zone) Facility() agents.Facility {
	if z.spawn == nil {
		return nil
	}
	return facility{z}
}

// Advance moves the zone to the given tick: hostile waves land, the
// budget refills, finished production materializes and old agents expire.
func (z *Zone) Advance(tick uint64) {
	z.tick = tick

	for _, w := range z.waves {
		if w.Tick == tick {
			z.hostiles = w.Hostiles
		}
	}
	if z.hostiles == 0 && z.controller != nil {
		z.controller.SafeModeActive = false
	}

	z.energy = min(z.energy+z.refillPerTick, z.energyCap)

	if p := z.pending; p != nil && tick >= p.done {
		a := z.spawner.Spawn(p.handle, p.template, p.size, p.assignment, p.workZone, z.spawn.Position, tick)
		home := z
		if peer, ok := z.peers[p.workZone]; ok {
			home = peer
		}
		home.AddAgent(a)
		z.pending = nil
	}

	alive := z.agents[:0]
	for _, a := range z.agents {
		if a.BornTick+AgentLifetime > tick {
			alive = append(alive, a)
		}
	}
	for i := len(alive); i < len(z.agents); i++ {
		z.agents[i] = nil
	}
	z.agents = alive
}

// facility is the zone's spawn seen as a production facility.
type facility struct {
	z *Zone
}

func (f facility) Busy() bool { return f.z.pending != nil }

// EstimateCost prices the largest body the zone's full budget affords.
func (f facility) EstimateCost(t agents.Template) int {
	return t.MaxSize(f.z.energyCap) * t.Cost()
}

// RequestProduction sizes the body against the full budget and accepts the
// request only once the available budget covers it.
func (f facility) RequestProduction(t agents.Template, assignment, workZone string, size int) (agents.Handle, error) {
	z := f.z
	if z.pending != nil {
		return "", agents.ErrFacilityBusy
	}
	size, cost, err := z.spawner.Plan(t, size, z.energyCap)
	if err != nil {
		return "", fmt.Errorf("%s: %w", t.Role, err)
	}
	if cost > z.energy {
		return "", fmt.Errorf("%s size %d costs %d of %d: %w", t.Role, size, cost, z.energy, agents.ErrInsufficientBudget)
	}
	z.energy -= cost
	h := z.spawner.NewHandle(t.Role)
	z.pending = &production{
		handle:     h,
		template:   t,
		size:       size,
		assignment: assignment,
		workZone:   workZone,
		done:       z.tick + uint64(size*len(t.Pattern)*SpawnTicksPerPart),
	}
	return h, nil
}
