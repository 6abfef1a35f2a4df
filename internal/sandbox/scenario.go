package sandbox

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/zone-brain/internal/agents"
	"github.com/talgya/zone-brain/internal/world"
)

// Scenario is a set of zones as written in a YAML scenario file.
type Scenario struct {
	Seed  int64      `yaml:"seed"`
	Zones []ZoneSpec `yaml:"zones"`
}

// ZoneSpec describes one zone's starting state.
type ZoneSpec struct {
	Name            string `yaml:"name"`
	EnergyAvailable int    `yaml:"energy_available"`
	EnergyCapacity  int    `yaml:"energy_capacity"`
	RefillPerTick   int    `yaml:"refill_per_tick,omitempty"`
	Hostiles        int    `yaml:"hostiles,omitempty"`
	Waves           []Wave `yaml:"waves,omitempty"`

	Controller *ControllerSpec `yaml:"controller,omitempty"`
	Structures []StructureSpec `yaml:"structures,omitempty"`
	Sites      []SiteSpec      `yaml:"sites,omitempty"`
	Piles      []PileSpec      `yaml:"piles,omitempty"`
	Sources    []SourceSpec    `yaml:"sources,omitempty"`
	Directives []DirectiveSpec `yaml:"directives,omitempty"`
	Agents     []AgentSpec     `yaml:"agents,omitempty"`
}

type ControllerSpec struct {
	ID                string         `yaml:"id"`
	Pos               world.HexCoord `yaml:"pos"`
	Level             int            `yaml:"level"`
	SafeModeAvailable int            `yaml:"safe_mode_available"`
}

type StructureSpec struct {
	ID             string         `yaml:"id"`
	Type           string         `yaml:"type"`
	Pos            world.HexCoord `yaml:"pos"`
	Hits           int            `yaml:"hits"`
	HitsMax        int            `yaml:"hits_max"`
	Energy         int            `yaml:"energy,omitempty"`
	EnergyCapacity int            `yaml:"energy_capacity,omitempty"`
	Linked         bool           `yaml:"linked,omitempty"`
}

type SiteSpec struct {
	ID            string         `yaml:"id"`
	Type          string         `yaml:"type"`
	Pos           world.HexCoord `yaml:"pos"`
	Progress      int            `yaml:"progress,omitempty"`
	ProgressTotal int            `yaml:"progress_total"`
}

type PileSpec struct {
	ID     string         `yaml:"id"`
	Pos    world.HexCoord `yaml:"pos"`
	Amount int            `yaml:"amount"`
}

type SourceSpec struct {
	ID         string         `yaml:"id"`
	Pos        world.HexCoord `yaml:"pos"`
	Capacity   int            `yaml:"capacity"`
	RegenTicks int            `yaml:"regen_ticks"`
	Linked     bool           `yaml:"linked,omitempty"`
	PathLength int            `yaml:"path_length,omitempty"`
}

type DirectiveSpec struct {
	Name        string         `yaml:"name"`
	Kind        string         `yaml:"kind"`
	Pos         world.HexCoord `yaml:"pos"`
	Zone        string         `yaml:"zone,omitempty"`
	PathLength  int            `yaml:"path_length,omitempty"`
	Reservation int            `yaml:"reservation,omitempty"`
	Source      *SourceSpec    `yaml:"source,omitempty"`
}

type AgentSpec struct {
	Name       string         `yaml:"name"`
	Role       string         `yaml:"role"`
	Pos        world.HexCoord `yaml:"pos"`
	Size       int            `yaml:"size"`
	Energy     int            `yaml:"energy,omitempty"`
	Assignment string         `yaml:"assignment,omitempty"`
	WorkZone   string         `yaml:"work_zone,omitempty"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(sc.Zones) == 0 {
		return nil, fmt.Errorf("scenario %s: no zones", path)
	}
	return &sc, nil
}

// Save writes the scenario as YAML.
func (sc *Scenario) Save(path string) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Build creates the in-memory zones. Each zone's spawner is seeded from
// the scenario seed and the zone's position in the file.
func (sc *Scenario) Build() ([]*Zone, error) {
	zones := make([]*Zone, 0, len(sc.Zones))
	peers := make(map[string]*Zone, len(sc.Zones))
	for i, spec := range sc.Zones {
		if _, dup := peers[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate zone %q", spec.Name)
		}
		z, err := spec.Build(sc.Seed + int64(i))
		if err != nil {
			return nil, fmt.Errorf("zone %q: %w", spec.Name, err)
		}
		z.peers = peers
		peers[spec.Name] = z
		zones = append(zones, z)
	}
	return zones, nil
}

// Build creates the in-memory zone described by the spec.
func (spec ZoneSpec) Build(seed int64) (*Zone, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("zone name is required")
	}
	z := &Zone{
		name:          spec.Name,
		hostiles:      spec.Hostiles,
		waves:         spec.Waves,
		energyCap:     spec.EnergyCapacity,
		refillPerTick: spec.RefillPerTick,
		spawner:       agents.NewSpawner(seed),
	}
	if z.refillPerTick == 0 {
		z.refillPerTick = DefaultRefillPerTick
	}
	z.energy = min(spec.EnergyAvailable, z.energyCap)

	if c := spec.Controller; c != nil {
		z.controller = &world.Controller{
			ID:                c.ID,
			Position:          c.Pos,
			Owned:             true,
			Level:             c.Level,
			SafeModeAvailable: c.SafeModeAvailable,
		}
	}

	for _, s := range spec.Structures {
		t, err := world.ParseStructureType(s.Type)
		if err != nil {
			return nil, fmt.Errorf("structure %q: %w", s.ID, err)
		}
		st := &world.Structure{
			ID:             s.ID,
			Type:           t,
			Position:       s.Pos,
			Hits:           s.Hits,
			HitsMax:        s.HitsMax,
			Energy:         s.Energy,
			EnergyCapacity: s.EnergyCapacity,
			Owned:          true,
			Linked:         s.Linked,
		}
		z.structures = append(z.structures, st)
		if t == world.StructureSpawn && z.spawn == nil {
			z.spawn = st
		}
	}

	for _, s := range spec.Sites {
		t, err := world.ParseStructureType(s.Type)
		if err != nil {
			return nil, fmt.Errorf("site %q: %w", s.ID, err)
		}
		z.sites = append(z.sites, &world.ConstructionSite{
			ID:            s.ID,
			Type:          t,
			Position:      s.Pos,
			Progress:      s.Progress,
			ProgressTotal: s.ProgressTotal,
		})
	}

	for _, p := range spec.Piles {
		z.piles = append(z.piles, &world.Pile{ID: p.ID, Position: p.Pos, Amount: p.Amount})
	}
	for _, s := range spec.Sources {
		z.sources = append(z.sources, s.source())
	}

	for _, d := range spec.Directives {
		kind, err := world.ParseDirectiveKind(d.Kind)
		if err != nil {
			return nil, fmt.Errorf("directive %q: %w", d.Name, err)
		}
		dir := &world.Directive{
			Name:        d.Name,
			Kind:        kind,
			Position:    d.Pos,
			Zone:        d.Zone,
			PathLength:  d.PathLength,
			Reservation: d.Reservation,
		}
		if d.Source != nil {
			dir.Source = d.Source.source()
		}
		z.directives = append(z.directives, dir)
	}

	for _, a := range spec.Agents {
		t, err := agents.TemplateFor(agents.Role(a.Role))
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", a.Name, err)
		}
		size := a.Size
		if size <= 0 {
			size = 1
		}
		workZone := a.WorkZone
		if workZone == "" {
			workZone = spec.Name
		}
		ag := z.spawner.Spawn(agents.Handle(a.Name), t, size, a.Assignment, workZone, a.Pos, 0)
		ag.Energy = min(a.Energy, ag.CarryCapacity())
		z.AddAgent(ag)
	}

	return z, nil
}

func (s SourceSpec) source() *world.Source {
	capacity, regen := s.Capacity, s.RegenTicks
	if capacity == 0 {
		capacity = 3000
	}
	if regen == 0 {
		regen = 300
	}
	return &world.Source{
		ID:                          s.ID,
		Position:                    s.Pos,
		Capacity:                    capacity,
		RegenTicks:                  regen,
		Linked:                      s.Linked,
		PathLengthToStorage:         s.PathLength,
		PathLengthToAssignedStorage: s.PathLength,
	}
}
