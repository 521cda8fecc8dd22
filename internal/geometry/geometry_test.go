package geometry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vttforge/areatrigger/internal/geometry"
)

func squareShape(size float64) geometry.Polygon {
	return geometry.Polygon{Points: []geometry.Point{
		{X: 0, Y: 0},
		{X: size, Y: 0},
		{X: size, Y: size},
		{X: 0, Y: size},
	}}
}

func TestPolygon_Contains(t *testing.T) {
	square := squareShape(10)

	assert.True(t, square.Contains(geometry.Point{X: 5, Y: 5}))
	assert.False(t, square.Contains(geometry.Point{X: 15, Y: 5}))
	assert.False(t, square.Contains(geometry.Point{X: -1, Y: 5}))

	// Concave L-shape
	ell := geometry.Polygon{Points: []geometry.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5},
		{X: 5, Y: 5}, {X: 5, Y: 10}, {X: 0, Y: 10},
	}}
	assert.True(t, ell.Contains(geometry.Point{X: 2, Y: 8}))
	assert.False(t, ell.Contains(geometry.Point{X: 8, Y: 8}))

	// Degenerate polygon contains nothing
	line := geometry.Polygon{Points: []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}}
	assert.False(t, line.Contains(geometry.Point{X: 0.5, Y: 0.5}))
}

func TestOracle_ContainsFixed(t *testing.T) {
	oracle := geometry.NewOracle(&geometry.OracleConfig{})

	// Shape in local coordinates, anchored at (100, 100)
	origin := geometry.Point{X: 100, Y: 100}
	shape := squareShape(10)

	assert.True(t, oracle.ContainsFixed(shape, origin, geometry.Point{X: 105, Y: 105}))
	assert.False(t, oracle.ContainsFixed(shape, origin, geometry.Point{X: 95, Y: 105}))
}

func TestOracle_ContainsMobile(t *testing.T) {
	grid := geometry.Grid{CellSize: 100, UnitsPerCell: 5} // 30 ft = 600 world units
	oracle := geometry.NewOracle(&geometry.OracleConfig{Grid: grid})

	bearer := geometry.Point{X: 0, Y: 0}

	assert.True(t, oracle.ContainsMobile(bearer, 30, geometry.Point{X: 400, Y: 0}, false))
	assert.True(t, oracle.ContainsMobile(bearer, 30, geometry.Point{X: 600, Y: 0}, false))
	assert.False(t, oracle.ContainsMobile(bearer, 30, geometry.Point{X: 601, Y: 0}, false))
}

func TestOracle_LineOfSight(t *testing.T) {
	grid := geometry.Grid{CellSize: 100, UnitsPerCell: 5}
	wall := geometry.Walls{
		{A: geometry.Point{X: 300, Y: -1000}, B: geometry.Point{X: 300, Y: 1000}},
	}
	oracle := geometry.NewOracle(&geometry.OracleConfig{Blocker: wall, Grid: grid})

	bearer := geometry.Point{X: 0, Y: 0}
	behindWall := geometry.Point{X: 500, Y: 0}

	// In range but fully occluded
	assert.True(t, oracle.ContainsMobile(bearer, 30, behindWall, false))
	assert.False(t, oracle.ContainsMobile(bearer, 30, behindWall, true))
}

func TestOracle_LineOfSightRetryOffsets(t *testing.T) {
	// Wall clips only the direct ray; the lateral retries clear it
	wall := geometry.Walls{
		{A: geometry.Point{X: 5, Y: -0.2}, B: geometry.Point{X: 5, Y: 0.2}},
	}
	oracle := geometry.NewOracle(&geometry.OracleConfig{Blocker: wall})

	assert.True(t, oracle.HasLineOfSight(geometry.Point{X: 0, Y: 0}, geometry.Point{X: 10, Y: 0}))
}

func TestOracle_WithinLight(t *testing.T) {
	grid := geometry.Grid{CellSize: 100, UnitsPerCell: 5}
	oracle := geometry.NewOracle(&geometry.OracleConfig{Grid: grid})

	bearer := geometry.Point{X: 0, Y: 0}
	assert.True(t, oracle.WithinLight(bearer, 20, geometry.Point{X: 300, Y: 0}))
	assert.False(t, oracle.WithinLight(bearer, 20, geometry.Point{X: 500, Y: 0}))
	assert.False(t, oracle.WithinLight(bearer, 0, geometry.Point{X: 1, Y: 0}))
}

func TestWalls_Blocked(t *testing.T) {
	walls := geometry.Walls{
		{A: geometry.Point{X: 5, Y: -5}, B: geometry.Point{X: 5, Y: 5}},
	}

	assert.True(t, walls.Blocked(geometry.Point{X: 0, Y: 0}, geometry.Point{X: 10, Y: 0}))
	assert.False(t, walls.Blocked(geometry.Point{X: 0, Y: 0}, geometry.Point{X: 4, Y: 0}))
	assert.False(t, walls.Blocked(geometry.Point{X: 0, Y: 10}, geometry.Point{X: 10, Y: 10}))
}
