package world

import "fmt"

// Bounds describes the hex area a zone occupies.
// A zone of radius R contains hexes where max(|q|, |r|, |s|) <= R.
type Bounds struct {
	Radius int `json:"radius" yaml:"radius"`
}

// InBounds returns true if the coordinate is within the zone radius.
func (b Bounds) InBounds(coord HexCoord) bool {
	return Distance(HexCoord{}, coord) <= b.Radius
}

// Coords returns every coordinate inside the bounds in (q, r) order.
func (b Bounds) Coords() []HexCoord {
	var out []HexCoord
	for q := -b.Radius; q <= b.Radius; q++ {
		for r := -b.Radius; r <= b.Radius; r++ {
			c := HexCoord{Q: q, R: r}
			if b.InBounds(c) {
				out = append(out, c)
			}
		}
	}
	return out
}

// HexCount returns the number of hexes inside the bounds.
func (b Bounds) HexCount() int {
	return 3*b.Radius*(b.Radius+1) + 1
}

// String returns a summary of the bounds.
func (b Bounds) String() string {
	return fmt.Sprintf("Bounds(radius=%d, hexes=%d)", b.Radius, b.HexCount())
}
