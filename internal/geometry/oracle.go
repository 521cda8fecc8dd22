package geometry

// losRetryOffset is how far sight-ray endpoints are nudged sideways when the
// direct ray is blocked, to tolerate tokens snapped against a wall edge.
const losRetryOffset = 0.45

// Oracle answers containment queries for area shapes. It holds no state
// beyond its collaborators and is queried fresh on every call.
type Oracle struct {
	blocker SightBlocker
	grid    Grid
}

// OracleConfig holds configuration for the oracle
type OracleConfig struct {
	Blocker SightBlocker
	Grid    Grid
}

// NewOracle creates an oracle. A nil Blocker disables occlusion testing.
func NewOracle(cfg *OracleConfig) *Oracle {
	blocker := cfg.Blocker
	if blocker == nil {
		blocker = NoBlocker{}
	}
	return &Oracle{
		blocker: blocker,
		grid:    cfg.Grid,
	}
}

// ContainsFixed reports whether p falls inside a polygon anchored at origin.
// The polygon is given in local coordinates.
func (o *Oracle) ContainsFixed(shape Polygon, origin Point, p Point) bool {
	return shape.Contains(p.Sub(origin))
}

// ContainsMobile reports whether p falls within radiusUnits (game-distance)
// of the bearer center. When requireSight is set, an occluded point is not
// contained regardless of distance.
func (o *Oracle) ContainsMobile(bearer Point, radiusUnits float64, p Point, requireSight bool) bool {
	if bearer.DistanceTo(p) > o.grid.WorldLength(radiusUnits) {
		return false
	}
	if !requireSight {
		return true
	}
	return o.HasLineOfSight(bearer, p)
}

// HasLineOfSight tests the sight ray from a to b. A blocked direct ray is
// retried with laterally offset endpoints so a token hugging a wall corner
// is not spuriously hidden.
func (o *Oracle) HasLineOfSight(a, b Point) bool {
	if !o.blocker.Blocked(a, b) {
		return true
	}

	dx := b.X - a.X
	dy := b.Y - a.Y
	length := a.DistanceTo(b)
	if length == 0 {
		return true
	}

	// Unit perpendicular to the ray
	px := -dy / length * losRetryOffset
	py := dx / length * losRetryOffset

	for _, sign := range []float64{1, -1} {
		from := Point{X: a.X + sign*px, Y: a.Y + sign*py}
		to := Point{X: b.X + sign*px, Y: b.Y + sign*py}
		if !o.blocker.Blocked(from, to) {
			return true
		}
	}
	return false
}

// WithinLight reports whether p falls inside the bearer's own light radius
// (game-distance units). Used as an illumination fallback when a distance
// based visibility answer is undefined.
func (o *Oracle) WithinLight(bearer Point, lightRadiusUnits float64, p Point) bool {
	if lightRadiusUnits <= 0 {
		return false
	}
	return bearer.DistanceTo(p) <= o.grid.WorldLength(lightRadiusUnits)
}
