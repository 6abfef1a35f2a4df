package tasks_test

import (
	"errors"
	"testing"

	"github.com/talgya/zone-brain/internal/agents"
	"github.com/talgya/zone-brain/internal/config"
	"github.com/talgya/zone-brain/internal/sandbox"
	"github.com/talgya/zone-brain/internal/tasks"
	"github.com/talgya/zone-brain/internal/world"
)

func buildZone(t *testing.T, spec sandbox.ZoneSpec) *sandbox.Zone {
	t.Helper()
	if spec.Name == "" {
		spec.Name = "W1"
	}
	z, err := spec.Build(1)
	if err != nil {
		t.Fatalf("build zone: %v", err)
	}
	return z
}

func defaultCatalog(z *sandbox.Zone) *tasks.Catalog {
	s := config.Defaults()
	return tasks.NewCatalog(z, tasks.ThresholdsFor(s, s.ForZone(z.Name())))
}

func ids(es []world.Entity) map[string]bool {
	out := make(map[string]bool, len(es))
	for _, e := range es {
		out[e.EntityID()] = true
	}
	return out
}

func TestValidateDefaults(t *testing.T) {
	if err := tasks.Validate(tasks.DefaultTypes(), tasks.DefaultPriorities); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}
}

func TestValidateRejectsIncompleteTypes(t *testing.T) {
	types := tasks.DefaultTypes()
	build := types[tasks.KindBuild]
	build.Precondition = nil
	types[tasks.KindBuild] = build

	err := tasks.Validate(types, tasks.DefaultPriorities)
	if !errors.Is(err, tasks.ErrMissingAttribute) {
		t.Fatalf("err = %v, want ErrMissingAttribute", err)
	}
	var cfgErr *tasks.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Task != tasks.KindBuild {
		t.Fatalf("err = %#v, want ConfigError for build", err)
	}
	if _, err := tasks.NewEngine(types, tasks.DefaultPriorities); err == nil {
		t.Fatalf("NewEngine accepted an incomplete table")
	}

	if err := tasks.Validate(tasks.DefaultTypes(), []tasks.Kind{"scout"}); !errors.Is(err, tasks.ErrUnknownTask) {
		t.Fatalf("err = %v, want ErrUnknownTask", err)
	}
	dup := []tasks.Kind{tasks.KindSupply, tasks.KindSupply}
	if err := tasks.Validate(tasks.DefaultTypes(), dup); !errors.Is(err, tasks.ErrDuplicateTask) {
		t.Fatalf("err = %v, want ErrDuplicateTask", err)
	}
}

func TestCatalogDiscoveryRules(t *testing.T) {
	z := buildZone(t, sandbox.ZoneSpec{
		EnergyCapacity: 300,
		Controller:     &sandbox.ControllerSpec{ID: "ctrl", Pos: world.HexCoord{Q: 3, R: 0}},
		Piles: []sandbox.PileSpec{
			{ID: "pile-small", Amount: 100},
			{ID: "pile-big", Amount: 101},
		},
		Structures: []sandbox.StructureSpec{
			{ID: "can-low", Type: "container", Hits: 250000, HitsMax: 250000, Energy: 1000, EnergyCapacity: 2000},
			{ID: "can-full", Type: "container", Hits: 100000, HitsMax: 250000, Energy: 1001, EnergyCapacity: 2000},
			{ID: "road-worn", Type: "road", Hits: 690, HitsMax: 1000},
			{ID: "road-ok", Type: "road", Hits: 710, HitsMax: 1000},
			{ID: "ext-empty", Type: "extension", Hits: 500, HitsMax: 1000, Energy: 0, EnergyCapacity: 50},
			{ID: "ext-full", Type: "extension", Hits: 1000, HitsMax: 1000, Energy: 50, EnergyCapacity: 50},
			{ID: "tower", Type: "tower", Hits: 3000, HitsMax: 3000, Energy: 10, EnergyCapacity: 1000},
			{ID: "wall-low", Type: "wall", Hits: 5000, HitsMax: 300000000},
			{ID: "wall-high", Type: "wall", Hits: 2000000, HitsMax: 300000000},
		},
		Sites: []sandbox.SiteSpec{
			{ID: "site-road", Type: "road", ProgressTotal: 300},
			{ID: "site-ext", Type: "extension", ProgressTotal: 3000},
		},
	})
	cat := defaultCatalog(z)

	want := map[tasks.Kind][]string{
		tasks.KindPickup:       {"pile-big"},
		tasks.KindCollect:      {"can-full"},
		tasks.KindSupplyTowers: {"tower"},
		tasks.KindSupply:       {"ext-empty"},
		tasks.KindRepair:       {"can-full", "road-worn", "ext-empty"},
		tasks.KindBuild:        {"site-ext"},
		tasks.KindBuildRoads:   {"site-road"},
		tasks.KindFortify:      {"wall-low"},
		tasks.KindUpgrade:      {"ctrl"},
	}
	for kind, expected := range want {
		got := ids(cat.TargetsFor(kind))
		if len(got) != len(expected) {
			t.Fatalf("%s: got %v, want %v", kind, got, expected)
		}
		for _, id := range expected {
			if !got[id] {
				t.Fatalf("%s: missing %s in %v", kind, id, got)
			}
		}
	}
}

func TestCatalogFortifyHonorsZoneOverride(t *testing.T) {
	z := buildZone(t, sandbox.ZoneSpec{
		Structures: []sandbox.StructureSpec{
			{ID: "rampart", Type: "rampart", Hits: 200000, HitsMax: 300000000},
		},
	})
	s := config.Defaults()
	s.Overrides = map[string]config.ZoneOverride{"W1": {FortifyLevel: config.Int(100000)}}
	cat := tasks.NewCatalog(z, tasks.ThresholdsFor(s, s.ForZone("W1")))
	if got := cat.TargetsFor(tasks.KindFortify); len(got) != 0 {
		t.Fatalf("rampart above the zone's fortify level was offered: %v", ids(got))
	}
}

func TestCatalogEmptyWithoutEntities(t *testing.T) {
	z := buildZone(t, sandbox.ZoneSpec{})
	cat := defaultCatalog(z)
	for _, k := range tasks.DefaultPriorities {
		if got := cat.TargetsFor(k); len(got) != 0 {
			t.Fatalf("%s: expected no targets, got %v", k, ids(got))
		}
	}
	if got := cat.TargetsFor("unknown"); len(got) != 0 {
		t.Fatalf("unknown kind produced targets")
	}
}

func TestAssignTaskFollowsPriority(t *testing.T) {
	z := buildZone(t, sandbox.ZoneSpec{
		Controller: &sandbox.ControllerSpec{ID: "ctrl"},
		Structures: []sandbox.StructureSpec{
			{ID: "ext", Type: "extension", Hits: 400, HitsMax: 1000, EnergyCapacity: 50, Energy: 50},
		},
		Sites: []sandbox.SiteSpec{{ID: "site", Type: "extension", ProgressTotal: 3000}},
		Agents: []sandbox.AgentSpec{
			{Name: "worker-1", Role: "worker", Size: 2, Energy: 50},
		},
	})
	te := tasks.DefaultEngine()
	a := z.Agents()[0]

	b := te.AssignTask(defaultCatalog(z), a, 7)
	if b == nil || b.Kind != string(tasks.KindRepair) || b.TargetID != "ext" {
		t.Fatalf("binding = %+v, want repair on ext", b)
	}
	if b.Action != string(tasks.ActionRepair) || b.Tick != 7 {
		t.Fatalf("binding = %+v", b)
	}
	if a.Binding != b {
		t.Fatalf("agent not bound to returned binding")
	}

	// Reassignment releases the agent's own claim first.
	again := te.AssignTask(defaultCatalog(z), a, 8)
	if again == nil || again.TargetID != "ext" {
		t.Fatalf("reassignment = %+v, want ext again", again)
	}
}

func TestClaimCeilingAcrossAgents(t *testing.T) {
	z := buildZone(t, sandbox.ZoneSpec{
		Structures: []sandbox.StructureSpec{
			{ID: "can", Type: "container", Hits: 250000, HitsMax: 250000, Energy: 1800, EnergyCapacity: 2000},
		},
		Agents: []sandbox.AgentSpec{
			{Name: "h1", Role: "hauler", Size: 1},
			{Name: "h2", Role: "hauler", Size: 1},
			{Name: "h3", Role: "hauler", Size: 1},
		},
	})
	te := tasks.DefaultEngine()

	bound := te.AssignAll(defaultCatalog(z), z.Agents(), 1)
	if bound != 2 {
		t.Fatalf("bound = %d, want 2", bound)
	}
	if got := z.ClaimCount("can"); got != 2 {
		t.Fatalf("claims on can = %d, want 2", got)
	}
	for _, a := range z.Agents() {
		switch a.Name {
		case "h1", "h2":
			if a.Binding == nil || a.Binding.Kind != string(tasks.KindCollect) {
				t.Fatalf("%s binding = %+v, want collect", a.Name, a.Binding)
			}
		case "h3":
			if a.Binding != nil {
				t.Fatalf("h3 should fall through to nothing, got %+v", a.Binding)
			}
		}
	}
}

// staleView reports claim counts from a snapshot taken at the start of the
// tick, so bindings made during the tick are not visible to later agents.
type staleView struct {
	piles  []*world.Pile
	claims map[string]int
}

func (v *staleView) Name() string                                 { return "W1" }
func (v *staleView) Structures() []*world.Structure               { return nil }
func (v *staleView) ConstructionSites() []*world.ConstructionSite { return nil }
func (v *staleView) DroppedResources() []*world.Pile              { return v.piles }
func (v *staleView) Sources() []*world.Source                     { return nil }
func (v *staleView) Directives() []*world.Directive               { return nil }
func (v *staleView) Controller() *world.Controller                { return nil }
func (v *staleView) Storage() *world.Structure                    { return nil }
func (v *staleView) HostileCount() int                            { return 0 }
func (v *staleView) EnergyAvailable() int                         { return 0 }
func (v *staleView) EnergyCapacityAvailable() int                 { return 0 }
func (v *staleView) ClaimCount(id string) int                     { return v.claims[id] }
func (v *staleView) AssignedCount(string, string) int             { return 0 }
func (v *staleView) HasAgent(string) bool                         { return false }

// refresh re-reads the claim counts from the agents' bindings.
func (v *staleView) refresh(list []*agents.Agent) {
	v.claims = map[string]int{}
	for _, a := range list {
		if a.Binding != nil {
			v.claims[a.Binding.TargetID]++
		}
	}
}

func TestStaleClaimsOvershootByAtMostTheRacers(t *testing.T) {
	v := &staleView{piles: []*world.Pile{{ID: "pile", Amount: 500}}, claims: map[string]int{}}
	s := config.Defaults()
	cat := tasks.NewCatalog(v, tasks.ThresholdsFor(s, s.ForZone("W1")))
	te := tasks.DefaultEngine()
	pickup, _ := te.Type(tasks.KindPickup)

	sp := agents.NewSpawner(1)
	hauler := agents.MustTemplate(agents.RoleHauler)
	var racers []*agents.Agent
	for _, name := range []string{"h1", "h2", "h3"} {
		racers = append(racers, sp.Spawn(agents.Handle(name), hauler, 1, "", "W1", world.HexCoord{}, 0))
	}

	bound := te.AssignAll(cat, racers, 1)
	if bound != len(racers) {
		t.Fatalf("bound = %d, want all %d racers on the stale snapshot", bound, len(racers))
	}
	v.refresh(racers)
	over := v.ClaimCount("pile") - pickup.MaxPerTarget
	if over < 1 || over > len(racers) {
		t.Fatalf("overshoot = %d, want between 1 and %d", over, len(racers))
	}

	late := sp.Spawn("h4", hauler, 1, "", "W1", world.HexCoord{}, 0)
	if b := te.AssignTask(cat, late, 2); b != nil {
		t.Fatalf("late hauler bound to %+v after the snapshot caught up", b)
	}
}

func TestNoCapabilityMeansNoBinding(t *testing.T) {
	z := buildZone(t, sandbox.ZoneSpec{
		Controller: &sandbox.ControllerSpec{ID: "ctrl"},
		Piles:      []sandbox.PileSpec{{ID: "pile", Amount: 500}},
		Agents: []sandbox.AgentSpec{
			{Name: "scout", Role: "scout", Size: 1},
			{Name: "tired", Role: "worker", Size: 1, Energy: 0},
		},
	})
	te := tasks.DefaultEngine()
	for _, a := range z.Agents() {
		if b := te.AssignTask(defaultCatalog(z), a, 1); b != nil {
			t.Fatalf("%s bound to %+v", a.Name, b)
		}
	}
}

func TestBindingsRespectEligibility(t *testing.T) {
	z := buildZone(t, sandbox.ZoneSpec{
		Controller: &sandbox.ControllerSpec{ID: "ctrl"},
		Piles:      []sandbox.PileSpec{{ID: "pile", Amount: 500}},
		Structures: []sandbox.StructureSpec{
			{ID: "spawn", Type: "spawn", Hits: 5000, HitsMax: 5000, EnergyCapacity: 300},
			{ID: "road", Type: "road", Hits: 100, HitsMax: 1000},
			{ID: "wall", Type: "wall", Hits: 100, HitsMax: 300000000},
		},
		Sites: []sandbox.SiteSpec{{ID: "site", Type: "road", ProgressTotal: 300}},
		Agents: []sandbox.AgentSpec{
			{Name: "a-supplier", Role: "supplier", Size: 1, Energy: 100},
			{Name: "b-hauler", Role: "hauler", Size: 1},
			{Name: "c-miner", Role: "miner", Size: 1, Energy: 50},
			{Name: "d-worker", Role: "worker", Size: 1, Energy: 50},
			{Name: "e-upgrader", Role: "upgrader", Size: 1, Energy: 50},
			{Name: "f-guard", Role: "guard", Size: 1},
			{Name: "g-linker", Role: "linker", Size: 1, Energy: 50},
		},
	})
	te := tasks.DefaultEngine()
	te.AssignAll(defaultCatalog(z), z.Agents(), 1)

	for _, a := range z.Agents() {
		if a.Binding == nil {
			continue
		}
		tt, ok := te.Type(tasks.Kind(a.Binding.Kind))
		if !ok {
			t.Fatalf("%s bound to unknown kind %q", a.Name, a.Binding.Kind)
		}
		if !tt.Eligible(a.Role) {
			t.Fatalf("%s (%s) bound to ineligible %s", a.Name, a.Role, tt.Kind)
		}
		if !tt.Precondition(a.Capability()) {
			t.Fatalf("%s bound to %s without meeting its precondition", a.Name, tt.Kind)
		}
	}
	bound := map[string]string{}
	for _, a := range z.Agents() {
		if a.Binding != nil {
			bound[a.Name] = a.Binding.Kind
		}
	}
	want := map[string]string{
		"a-supplier": string(tasks.KindSupply),
		"b-hauler":   string(tasks.KindPickup),
		"c-miner":    string(tasks.KindRepair),
		"d-worker":   string(tasks.KindBuildRoads),
		"e-upgrader": string(tasks.KindUpgrade),
	}
	for name, kind := range want {
		if bound[name] != kind {
			t.Fatalf("%s bound to %q, want %q (all: %v)", name, bound[name], kind, bound)
		}
	}
	for _, name := range []string{"f-guard", "g-linker"} {
		if _, ok := bound[name]; ok {
			t.Fatalf("%s should have no task, got %s", name, bound[name])
		}
	}
}

func TestNearestTieBreaksOnID(t *testing.T) {
	targets := []world.Entity{
		&world.Pile{ID: "b", Position: world.HexCoord{Q: 1, R: 0}},
		&world.Pile{ID: "a", Position: world.HexCoord{Q: -1, R: 0}},
		&world.Pile{ID: "c", Position: world.HexCoord{Q: 3, R: 0}},
	}
	if got := tasks.Nearest(world.HexCoord{}, targets); got.EntityID() != "a" {
		t.Fatalf("Nearest = %s, want a", got.EntityID())
	}
	if got := tasks.Nearest(world.HexCoord{Q: 3, R: -1}, targets); got.EntityID() != "c" {
		t.Fatalf("Nearest = %s, want c", got.EntityID())
	}
	if tasks.Nearest(world.HexCoord{}, nil) != nil {
		t.Fatalf("Nearest of nothing should be nil")
	}
}

func TestApplicableKeepsPriorityOrder(t *testing.T) {
	te := tasks.DefaultEngine()
	w := &agents.Agent{Name: "w", Role: agents.RoleWorker, Body: agents.MustTemplate(agents.RoleWorker).Body(1), Energy: 10}
	var kinds []tasks.Kind
	for _, tt := range te.Applicable(w) {
		kinds = append(kinds, tt.Kind)
	}
	want := []tasks.Kind{tasks.KindRepair, tasks.KindBuild, tasks.KindBuildRoads, tasks.KindFortify, tasks.KindUpgrade}
	if len(kinds) != len(want) {
		t.Fatalf("applicable = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("applicable = %v, want %v", kinds, want)
		}
	}
}
