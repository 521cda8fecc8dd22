package geometry

import "math"

// Point is a position in world coordinates
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns p + q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// DistanceTo returns the Euclidean distance between p and q
func (p Point) DistanceTo(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Polygon is a closed shape given as an ordered list of vertices
type Polygon struct {
	Points []Point `json:"points"`
}

// Contains reports whether p falls inside the polygon, using the even-odd
// ray casting rule. Points exactly on an edge may land on either side;
// callers must not rely on boundary behavior.
func (poly Polygon) Contains(p Point) bool {
	n := len(poly.Points)
	if n < 3 {
		return false
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		a := poly.Points[i]
		b := poly.Points[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if p.X < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Segment is a straight line between two points
type Segment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Intersects reports whether two segments cross
func (s Segment) Intersects(o Segment) bool {
	d1 := cross(o.A, o.B, s.A)
	d2 := cross(o.A, o.B, s.B)
	d3 := cross(s.A, s.B, o.A)
	d4 := cross(s.A, s.B, o.B)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	return d1 == 0 && onSegment(o.A, o.B, s.A) ||
		d2 == 0 && onSegment(o.A, o.B, s.B) ||
		d3 == 0 && onSegment(s.A, s.B, o.A) ||
		d4 == 0 && onSegment(s.A, s.B, o.B)
}

func cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func onSegment(a, b, p Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// Grid converts between game-distance units and world coordinates
type Grid struct {
	CellSize     float64 // world units per grid cell
	UnitsPerCell float64 // game-distance units per grid cell (e.g. 5 ft)
}

// WorldLength converts a game-distance length into world units
func (g Grid) WorldLength(units float64) float64 {
	if g.UnitsPerCell == 0 {
		return units
	}
	return units / g.UnitsPerCell * g.CellSize
}
