package catalog

import (
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestShapeToGeom_Point(t *testing.T) {
	g := shapeToGeom(&shp.Point{X: -3.5, Y: 52.1})
	assert.Equal(t, []float64{-3.5, 52.1}, g.FlatCoords())
}

func TestShapeToGeom_PolygonWithHole(t *testing.T) {
	// Clockwise shell, counter-clockwise hole.
	p := shp.Polygon(*shp.NewPolyLine([][]shp.Point{
		{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}},
		{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 4}, {X: 2, Y: 2}},
	}))

	g := shapeToGeom(&p)
	poly, ok := g.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, 2, poly.NumLinearRings())
	assert.InDelta(t, 96, poly.Area(), 1e-9)
	// Rewound: counter-clockwise shell, clockwise hole.
	assert.Greater(t, poly.LinearRing(0).Area(), 0.0)
	assert.Less(t, poly.LinearRing(1).Area(), 0.0)
}

func TestShapeToGeom_MultiPolygon(t *testing.T) {
	p := shp.Polygon(*shp.NewPolyLine([][]shp.Point{
		{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}},
		{{X: 5, Y: 5}, {X: 5, Y: 6}, {X: 6, Y: 6}, {X: 6, Y: 5}, {X: 5, Y: 5}},
	}))

	mp, ok := shapeToGeom(&p).(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 2, mp.NumPolygons())
	assert.InDelta(t, 2, mp.Area(), 1e-9)
}

func TestShapeToGeom_PolyLine(t *testing.T) {
	pl := shp.NewPolyLine([][]shp.Point{{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}}})

	ls, ok := shapeToGeom(pl).(*geom.LineString)
	require.True(t, ok)
	assert.Equal(t, 3, ls.NumCoords())
}

func TestShapeToGeom_DegenerateAndNull(t *testing.T) {
	p := shp.Polygon(*shp.NewPolyLine([][]shp.Point{{{X: 0, Y: 0}, {X: 1, Y: 1}}}))
	assert.Nil(t, shapeToGeom(&p))
	assert.Nil(t, shapeToGeom(nil))
	assert.Nil(t, shapeToGeom(&shp.Null{}))
}

func TestSignedArea(t *testing.T) {
	ccw := []shp.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}}
	assert.InDelta(t, 1, signedArea(ccw), 1e-12)

	cw := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}
	assert.InDelta(t, -1, signedArea(cw), 1e-12)
}

func TestReverseFlat(t *testing.T) {
	flat := []float64{0, 0, 0, 1, 1, 1, 0, 0}
	reverseFlat(flat)
	assert.Equal(t, []float64{0, 0, 1, 1, 0, 1, 0, 0}, flat)
}
