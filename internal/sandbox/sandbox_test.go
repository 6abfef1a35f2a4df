package sandbox

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/talgya/zone-brain/internal/agents"
	"github.com/talgya/zone-brain/internal/world"
)

const scenarioYAML = `
seed: 7
zones:
  - name: W1N1
    energy_available: 300
    energy_capacity: 550
    hostiles: 0
    waves:
      - tick: 5
        hostiles: 2
    controller:
      id: ctrl
      pos: {q: 2, r: 0}
      level: 3
      safe_mode_available: 1
    structures:
      - {id: spawn, type: spawn, pos: {q: 0, r: 0}, hits: 5000, hits_max: 5000, energy: 300, energy_capacity: 300}
      - {id: store, type: storage, pos: {q: 1, r: 0}, hits: 10000, hits_max: 10000, energy: 90000, energy_capacity: 1000000, linked: true}
    sources:
      - {id: src, pos: {q: -3, r: 1}, path_length: 7}
    directives:
      - {name: hold, kind: stationary, pos: {q: 4, r: -2}, path_length: 9}
    agents:
      - {name: w1, role: worker, pos: {q: 0, r: 1}, size: 2, energy: 500, assignment: ctrl}
`

func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	zones, err := sc.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(zones) != 1 {
		t.Fatalf("zones = %d", len(zones))
	}
	z := zones[0]

	if z.Name() != "W1N1" || z.EnergyAvailable() != 300 || z.EnergyCapacityAvailable() != 550 {
		t.Fatalf("zone = %s %d/%d", z.Name(), z.EnergyAvailable(), z.EnergyCapacityAvailable())
	}
	if st := z.Storage(); st == nil || st.ID != "store" || !st.Linked {
		t.Fatalf("storage = %+v", st)
	}
	src := z.Sources()[0]
	if src.Capacity != 3000 || src.RegenTicks != 300 || src.PathLengthToStorage != 7 {
		t.Fatalf("source defaults not applied: %+v", src)
	}
	if d := z.Directives()[0]; d.Kind != world.DirectiveStationary || d.PathLength != 9 {
		t.Fatalf("directive = %+v", d)
	}
	a := z.Agents()[0]
	if a.Role != agents.RoleWorker || len(a.Body) != 6 || a.Energy != a.CarryCapacity() || a.WorkZone != "W1N1" {
		t.Fatalf("agent = %+v", a)
	}
	if z.AssignedCount("ctrl", "worker") != 1 || !z.HasAgent("w1") {
		t.Fatalf("agent lookups failed")
	}
}

func TestBuildRejectsBadNames(t *testing.T) {
	bad := []ZoneSpec{
		{Name: "A", Structures: []StructureSpec{{ID: "x", Type: "moat"}}},
		{Name: "A", Directives: []DirectiveSpec{{Name: "d", Kind: "party"}}},
		{Name: "A", Agents: []AgentSpec{{Name: "a", Role: "jester"}}},
		{},
	}
	for i, spec := range bad {
		if _, err := spec.Build(1); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
	dup := &Scenario{Zones: []ZoneSpec{{Name: "A"}, {Name: "A"}}}
	if _, err := dup.Build(); err == nil {
		t.Fatalf("duplicate zone names accepted")
	}
}

func TestFacilityLifecycle(t *testing.T) {
	z, err := ZoneSpec{
		Name:            "W1",
		EnergyAvailable: 200,
		EnergyCapacity:  550,
		RefillPerTick:   100,
		Structures:      []StructureSpec{{ID: "spawn", Type: "spawn", Hits: 5000, HitsMax: 5000}},
	}.Build(1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	f := z.Facility()
	worker := agents.MustTemplate(agents.RoleWorker)

	if got := f.EstimateCost(worker); got != 400 {
		t.Fatalf("EstimateCost = %d, want 400", got)
	}
	if _, err := f.RequestProduction(worker, "ctrl", "W1", 0); !errors.Is(err, agents.ErrInsufficientBudget) {
		t.Fatalf("err = %v, want ErrInsufficientBudget", err)
	}

	z.Advance(1)
	z.Advance(2)
	h, err := f.RequestProduction(worker, "ctrl", "W1", 0)
	if err != nil {
		t.Fatalf("RequestProduction: %v", err)
	}
	if !f.Busy() || z.EnergyAvailable() != 0 {
		t.Fatalf("busy=%v energy=%d after request", f.Busy(), z.EnergyAvailable())
	}
	if _, err := f.RequestProduction(worker, "ctrl", "W1", 0); !errors.Is(err, agents.ErrFacilityBusy) {
		t.Fatalf("err = %v, want ErrFacilityBusy", err)
	}
	if z.AssignedCount("ctrl", "worker") != 1 {
		t.Fatalf("production in progress not counted")
	}

	// Two worker repetitions are six parts.
	z.Advance(2 + 6*SpawnTicksPerPart)
	if f.Busy() || !z.HasAgent(string(h)) {
		t.Fatalf("agent %s not produced", h)
	}
	z.Advance(2 + 6*SpawnTicksPerPart + AgentLifetime)
	if z.HasAgent(string(h)) {
		t.Fatalf("agent outlived its lifetime")
	}
}

func TestNoSpawnMeansNoFacility(t *testing.T) {
	z, err := ZoneSpec{Name: "W1"}.Build(1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if z.Facility() != nil {
		t.Fatalf("zone without spawn returned a facility")
	}
	if err := z.ActivateSafeMode(); !errors.Is(err, ErrNoController) {
		t.Fatalf("err = %v, want ErrNoController", err)
	}
}

func TestWavesAndSafeMode(t *testing.T) {
	z, err := ZoneSpec{
		Name:       "W1",
		Waves:      []Wave{{Tick: 3, Hostiles: 4}, {Tick: 6, Hostiles: 0}},
		Controller: &ControllerSpec{ID: "ctrl", SafeModeAvailable: 1},
	}.Build(1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	z.Advance(3)
	if z.HostileCount() != 4 {
		t.Fatalf("hostiles = %d", z.HostileCount())
	}
	if err := z.ActivateSafeMode(); err != nil {
		t.Fatalf("ActivateSafeMode: %v", err)
	}
	if err := z.ActivateSafeMode(); err != nil {
		t.Fatalf("repeat activation while active: %v", err)
	}
	z.Advance(6)
	if z.Controller().SafeModeActive {
		t.Fatalf("safe mode still active without hostiles")
	}
	if err := z.ActivateSafeMode(); !errors.Is(err, ErrNoSafeMode) {
		t.Fatalf("err = %v, want ErrNoSafeMode", err)
	}
	if z.SafeModeActivations != 1 {
		t.Fatalf("activations = %d", z.SafeModeActivations)
	}
}

func TestGenerateRoundTrip(t *testing.T) {
	cfg := world.SmallTestConfig()
	spec := Generate(cfg, "G1")
	if !reflect.DeepEqual(spec, Generate(cfg, "G1")) {
		t.Fatalf("same seed produced different zones")
	}
	if spec.EnergyCapacity != 300+50*cfg.Extensions || spec.EnergyAvailable != spec.EnergyCapacity {
		t.Fatalf("budget = %d/%d", spec.EnergyAvailable, spec.EnergyCapacity)
	}

	path := filepath.Join(t.TempDir(), "gen.yaml")
	sc := &Scenario{Seed: cfg.Seed, Zones: []ZoneSpec{spec}}
	if err := sc.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	zones, err := loaded.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	z := zones[0]
	if z.Facility() == nil || z.Storage() == nil || z.Controller() == nil {
		t.Fatalf("generated zone missing core structures")
	}
	if len(z.Sources()) != cfg.Sources {
		t.Fatalf("sources = %d, want %d", len(z.Sources()), cfg.Sources)
	}
}
