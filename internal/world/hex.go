// Package world provides the zone snapshot types, the read-only query surface
// the brain consumes, and hex-grid geometry for positions inside a zone.
package world

// HexCoord is an axial (q, r) position inside a zone. The cube coordinate
// s = -q - r is implied.
type HexCoord struct {
	Q int `json:"q" yaml:"q"`
	R int `json:"r" yaml:"r"`
}

// S returns the implied cube coordinate.
func (h HexCoord) S() int { return -h.Q - h.R }

// Add offsets a position.
func (h HexCoord) Add(d HexCoord) HexCoord { return HexCoord{Q: h.Q + d.Q, R: h.R + d.R} }

// hexDirections are the six axial unit offsets, east first, counter-clockwise.
var hexDirections = [6]HexCoord{{1, 0}, {1, -1}, {0, -1}, {-1, 0}, {-1, 1}, {0, 1}}

// Neighbors returns the six adjacent positions.
func (h HexCoord) Neighbors() [6]HexCoord {
	var out [6]HexCoord
	for i, d := range hexDirections {
		out[i] = h.Add(d)
	}
	return out
}

// Distance is the number of hex steps between two positions. Path lengths
// the brain sizes agents against are approximated with it.
func Distance(a, b HexCoord) int {
	return max(abs(a.Q-b.Q), abs(a.R-b.R), abs(a.S()-b.S()))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
