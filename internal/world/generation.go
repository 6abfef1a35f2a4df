// Zone layout generation using layered simplex noise.
// Samples a richness field and a roughness field over the hex area, then
// places resource nodes on rich hexes and barriers on rough edge hexes.
package world

import (
	"math"
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds zone layout generation parameters.
type GenConfig struct {
	Radius     int     // Hex radius of the zone
	Seed       int64   // Random seed (0 = random)
	Sources    int     // Number of resource nodes
	Extensions int     // Number of extensions placed around the core
	Towers     int     // Number of towers placed around the core
	WallLevel  float64 // Roughness threshold for edge barriers (0.0 to 1.0)
	RoadSites  int     // Pending road construction sites
	BuildSites int     // Pending non-road construction sites
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:     12,
		Seed:       0,
		Sources:    2,
		Extensions: 10,
		Towers:     1,
		WallLevel:  0.62,
		RoadSites:  3,
		BuildSites: 1,
	}
}

// SmallTestConfig returns a tiny zone for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Radius:     5,
		Seed:       42,
		Sources:    1,
		Extensions: 2,
		Towers:     0,
		WallLevel:  0.70,
		RoadSites:  1,
		BuildSites: 0,
	}
}

// Layout is the set of positions chosen for a generated zone.
type Layout struct {
	Bounds     Bounds
	Core       HexCoord // Spawn position
	Controller HexCoord
	Sources    []HexCoord
	Extensions []HexCoord
	Towers     []HexCoord
	Storage    HexCoord
	Barriers   []HexCoord
	RoadSites  []HexCoord
	BuildSites []HexCoord
}

type scoredHex struct {
	coord HexCoord
	score float64
}

// Generate creates a zone layout from noise.
func Generate(cfg GenConfig) Layout {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	richNoise := opensimplex.NewNormalized(seed)
	roughNoise := opensimplex.NewNormalized(seed + 1)

	bounds := Bounds{Radius: cfg.Radius}
	layout := Layout{Bounds: bounds}

	var rich, rough []scoredHex
	for _, coord := range bounds.Coords() {
		// Hex axial → cartesian: x = q + r*0.5, y = r * sqrt(3)/2
		x := float64(coord.Q) + float64(coord.R)*0.5
		y := float64(coord.R) * math.Sqrt(3.0) / 2.0

		d := Distance(HexCoord{}, coord)
		if d >= cfg.Radius/2 && d < cfg.Radius {
			// Resource nodes sit away from the core but inside the edge ring.
			rich = append(rich, scoredHex{coord, octaveNoise(richNoise, x, y, 3, 0.15, 0.5)})
		}
		if d == cfg.Radius {
			rough = append(rough, scoredHex{coord, octaveNoise(roughNoise, x, y, 2, 0.2, 0.5)})
		}
	}
	sortScored(rich)

	used := map[HexCoord]bool{{}: true}
	layout.Core = HexCoord{}
	for _, h := range rich {
		if len(layout.Sources) >= cfg.Sources {
			break
		}
		if nearAny(h.coord, layout.Sources, 3) {
			continue
		}
		layout.Sources = append(layout.Sources, h.coord)
		used[h.coord] = true
	}

	// Core structures fill rings outward from the spawn.
	ring := ringOrder(cfg.Radius / 2)
	take := func(n int) []HexCoord {
		var out []HexCoord
		for _, c := range ring {
			if len(out) >= n {
				break
			}
			if used[c] {
				continue
			}
			used[c] = true
			out = append(out, c)
		}
		return out
	}
	if c := take(1); len(c) == 1 {
		layout.Storage = c[0]
	}
	layout.Extensions = take(cfg.Extensions)
	layout.Towers = take(cfg.Towers)
	layout.BuildSites = take(cfg.BuildSites)
	layout.RoadSites = take(cfg.RoadSites)
	if c := take(1); len(c) == 1 {
		layout.Controller = c[0]
	}

	for _, h := range rough {
		if h.score >= cfg.WallLevel {
			layout.Barriers = append(layout.Barriers, h.coord)
		}
	}

	return layout
}

func sortScored(hexes []scoredHex) {
	sort.SliceStable(hexes, func(i, j int) bool {
		if hexes[i].score != hexes[j].score {
			return hexes[i].score > hexes[j].score
		}
		if hexes[i].coord.Q != hexes[j].coord.Q {
			return hexes[i].coord.Q < hexes[j].coord.Q
		}
		return hexes[i].coord.R < hexes[j].coord.R
	})
}

func nearAny(c HexCoord, others []HexCoord, within int) bool {
	for _, o := range others {
		if Distance(c, o) <= within {
			return true
		}
	}
	return false
}

// ringOrder returns coordinates sorted by distance from the origin, then (q, r).
func ringOrder(radius int) []HexCoord {
	coords := Bounds{Radius: radius}.Coords()
	sort.SliceStable(coords, func(i, j int) bool {
		di, dj := Distance(HexCoord{}, coords[i]), Distance(HexCoord{}, coords[j])
		if di != dj {
			return di < dj
		}
		if coords[i].Q != coords[j].Q {
			return coords[i].Q < coords[j].Q
		}
		return coords[i].R < coords[j].R
	})
	return coords
}

// octaveNoise sums multiple octaves of noise for natural-looking variation.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
