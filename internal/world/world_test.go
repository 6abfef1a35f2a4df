package world

import (
	"reflect"
	"testing"
)

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b HexCoord
		want int
	}{
		{HexCoord{0, 0}, HexCoord{0, 0}, 0},
		{HexCoord{0, 0}, HexCoord{1, 0}, 1},
		{HexCoord{0, 0}, HexCoord{2, -1}, 2},
		{HexCoord{-2, 3}, HexCoord{1, -1}, 4},
		{HexCoord{3, -3}, HexCoord{-3, 3}, 6},
	}
	for _, c := range cases {
		if got := Distance(c.a, c.b); got != c.want {
			t.Fatalf("Distance(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
		if got := Distance(c.b, c.a); got != c.want {
			t.Fatalf("Distance(%v, %v) = %d, want %d (symmetry)", c.b, c.a, got, c.want)
		}
	}
}

func TestNeighborsAreAdjacent(t *testing.T) {
	origin := HexCoord{Q: 2, R: -1}
	for _, n := range origin.Neighbors() {
		if d := Distance(origin, n); d != 1 {
			t.Fatalf("neighbor %v at distance %d", n, d)
		}
	}
}

func TestBoundsCoordsMatchHexCount(t *testing.T) {
	for r := 0; r <= 5; r++ {
		b := Bounds{Radius: r}
		if got := len(b.Coords()); got != b.HexCount() {
			t.Fatalf("radius %d: %d coords, HexCount %d", r, got, b.HexCount())
		}
	}
}

func TestParseNames(t *testing.T) {
	st, err := ParseStructureType(" Rampart ")
	if err != nil || st != StructureRampart {
		t.Fatalf("ParseStructureType = %v, %v", st, err)
	}
	if _, err := ParseStructureType("moat"); err == nil {
		t.Fatalf("expected error for unknown structure type")
	}
	k, err := ParseDirectiveKind("remotemine")
	if err != nil || k != DirectiveRemoteMine {
		t.Fatalf("ParseDirectiveKind = %v, %v", k, err)
	}
	if !DirectiveSiege.Expensive() || DirectiveHealPoint.Expensive() {
		t.Fatalf("unexpected Expensive classification")
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := SmallTestConfig()
	a := Generate(cfg)
	b := Generate(cfg)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different layouts")
	}
	if len(a.Sources) != cfg.Sources {
		t.Fatalf("sources: got %d want %d", len(a.Sources), cfg.Sources)
	}
	if len(a.Extensions) != cfg.Extensions {
		t.Fatalf("extensions: got %d want %d", len(a.Extensions), cfg.Extensions)
	}

	seen := map[HexCoord]bool{a.Core: true}
	placed := append(append([]HexCoord{a.Storage, a.Controller}, a.Sources...), a.Extensions...)
	for _, c := range placed {
		if !a.Bounds.InBounds(c) {
			t.Fatalf("%v outside %v", c, a.Bounds)
		}
		if seen[c] {
			t.Fatalf("%v placed twice", c)
		}
		seen[c] = true
	}
	for _, c := range a.Barriers {
		if Distance(HexCoord{}, c) != cfg.Radius {
			t.Fatalf("barrier %v not on the edge ring", c)
		}
	}
}

func TestStructurePredicates(t *testing.T) {
	s := &Structure{Type: StructureRoad, Hits: 300, HitsMax: 1000, Energy: 0, EnergyCapacity: 0}
	if !s.Damaged() || !s.HitsBelow(0.5) || s.HitsBelow(0.2) {
		t.Fatalf("unexpected durability predicates for %+v", s)
	}
	if s.NeedsEnergy() {
		t.Fatalf("road without capacity should not need energy")
	}
	if !StructureWall.IsBarrier() || StructureStorage.IsBarrier() {
		t.Fatalf("unexpected IsBarrier")
	}
	src := &Source{Capacity: 3000, RegenTicks: 300}
	if got := src.Throughput(); got != 10 {
		t.Fatalf("Throughput = %v, want 10", got)
	}
	if (&Source{Capacity: 3000}).Throughput() != 0 {
		t.Fatalf("zero regen should yield zero throughput")
	}
}
