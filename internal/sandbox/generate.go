package sandbox

import (
	"fmt"
	"math/rand"

	"github.com/talgya/zone-brain/internal/world"
)

// Generated structure durability and capacities.
const (
	spawnHits        = 5000
	spawnEnergy      = 300
	extensionHits    = 1000
	extensionEnergy  = 50
	towerHits        = 3000
	towerEnergy      = 1000
	storageHits      = 10000
	storageCapacity  = 1000000
	barrierHitsMax   = 300000000
	roadSiteProgress = 300
	buildSiteTotal   = 3000
)

// Generate builds a zone from a noise layout. Barrier durability and the
// storage stock are drawn from the layout seed so the same seed gives the
// same zone.
func Generate(cfg world.GenConfig, name string) ZoneSpec {
	if cfg.Seed == 0 {
		cfg.Seed = rand.Int63()
	}
	layout := world.Generate(cfg)
	rng := rand.New(rand.NewSource(cfg.Seed + 100))

	id := func(kind string, i int) string { return fmt.Sprintf("%s-%s-%d", name, kind, i) }

	spec := ZoneSpec{
		Name:           name,
		EnergyCapacity: spawnEnergy + extensionEnergy*len(layout.Extensions),
		Controller: &ControllerSpec{
			ID:                id("controller", 0),
			Pos:               layout.Controller,
			Level:             2 + len(layout.Extensions)/5,
			SafeModeAvailable: 1,
		},
	}
	spec.EnergyAvailable = spec.EnergyCapacity

	spec.Structures = append(spec.Structures, StructureSpec{
		ID: id("spawn", 0), Type: "spawn", Pos: layout.Core,
		Hits: spawnHits, HitsMax: spawnHits,
		Energy: spawnEnergy, EnergyCapacity: spawnEnergy,
	})
	for i, c := range layout.Extensions {
		spec.Structures = append(spec.Structures, StructureSpec{
			ID: id("extension", i), Type: "extension", Pos: c,
			Hits: extensionHits, HitsMax: extensionHits,
			Energy: extensionEnergy, EnergyCapacity: extensionEnergy,
		})
	}
	for i, c := range layout.Towers {
		spec.Structures = append(spec.Structures, StructureSpec{
			ID: id("tower", i), Type: "tower", Pos: c,
			Hits: towerHits, HitsMax: towerHits,
			Energy: rng.Intn(towerEnergy), EnergyCapacity: towerEnergy,
		})
	}
	spec.Structures = append(spec.Structures, StructureSpec{
		ID: id("storage", 0), Type: "storage", Pos: layout.Storage,
		Hits: storageHits, HitsMax: storageHits,
		Energy: rng.Intn(150000), EnergyCapacity: storageCapacity,
	})
	for i, c := range layout.Barriers {
		kind := "wall"
		if i%3 == 0 {
			kind = "rampart"
		}
		spec.Structures = append(spec.Structures, StructureSpec{
			ID: id(kind, i), Type: kind, Pos: c,
			Hits: 1000 + rng.Intn(2000000), HitsMax: barrierHitsMax,
		})
	}

	for i, c := range layout.RoadSites {
		spec.Sites = append(spec.Sites, SiteSpec{ID: id("road-site", i), Type: "road", Pos: c, ProgressTotal: roadSiteProgress})
	}
	for i, c := range layout.BuildSites {
		spec.Sites = append(spec.Sites, SiteSpec{ID: id("site", i), Type: "extension", Pos: c, ProgressTotal: buildSiteTotal})
	}

	for i, c := range layout.Sources {
		spec.Sources = append(spec.Sources, SourceSpec{
			ID:         id("source", i),
			Pos:        c,
			Capacity:   3000,
			RegenTicks: 300,
			PathLength: world.Distance(c, layout.Storage),
		})
	}

	return spec
}
