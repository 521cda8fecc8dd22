package geometry

// SightBlocker answers whether the straight path between two points is
// obstructed. Implemented by the host's scene geometry service; Walls is a
// self-contained implementation used by the simulator and tests.
type SightBlocker interface {
	Blocked(from, to Point) bool
}

// Walls is a SightBlocker backed by a list of blocking segments
type Walls []Segment

// Blocked reports whether any wall crosses the segment from -> to
func (w Walls) Blocked(from, to Point) bool {
	ray := Segment{A: from, B: to}
	for _, wall := range w {
		if ray.Intersects(wall) {
			return true
		}
	}
	return false
}

// NoBlocker is a SightBlocker that never blocks
type NoBlocker struct{}

// Blocked always returns false
func (NoBlocker) Blocked(_, _ Point) bool { return false }
