package buffer

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/livingwales/areaselect/internal/crs"
	"github.com/livingwales/areaselect/internal/geomio"
)

// equatorSquare is a side x side meter square with its south-west corner at
// (0, 0), built in Web Mercator and returned in WGS84.
func equatorSquare(t *testing.T, side float64) geom.T {
	t.Helper()
	sq := geom.NewPolygonFlat(geom.XY, []float64{
		0, 0, 0, side, side, side, side, 0, 0, 0,
	}, []int{10})
	out, err := crs.Reproject(sq, crs.WebMercator, crs.WGS84)
	require.NoError(t, err)
	return out
}

func welshSquare() geom.T {
	return geom.NewPolygonFlat(geom.XY, []float64{
		-4.10, 52.40, -4.10, 52.41, -4.09, 52.41, -4.09, 52.40, -4.10, 52.40,
	}, []int{10})
}

func mercatorM2(t *testing.T, g geom.T) float64 {
	t.Helper()
	ha, err := geomio.AreaHectares(g)
	require.NoError(t, err)
	return ha * 10000
}

// ---------------------------------------------------------------------------
// Include
// ---------------------------------------------------------------------------

func TestApply_IncludeAreaMatchesFirstOrderApproximation(t *testing.T) {
	square := equatorSquare(t, 1000)

	out, err := Apply(square, 100, Include)
	require.NoError(t, err)

	original := mercatorM2(t, square)
	buffered := mercatorM2(t, out)
	want := original + 4000*100

	assert.InDelta(t, 1e6, original, 1)
	assert.InEpsilon(t, want, buffered, 0.05)
	assert.Greater(t, buffered, want)
}

func TestApply_IncludeContainsOriginal(t *testing.T) {
	p := welshSquare()

	out, err := Apply(p, 250, Include)
	require.NoError(t, err)

	outG, err := toGEOS(out)
	require.NoError(t, err)
	defer outG.Destroy()
	pG, err := toGEOS(p)
	require.NoError(t, err)
	defer pG.Destroy()

	assert.True(t, outG.Contains(pG))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	p := welshSquare()
	before := append([]float64(nil), p.FlatCoords()...)

	_, err := Apply(p, 100, Include)
	require.NoError(t, err)
	assert.Equal(t, before, p.FlatCoords())
}

// ---------------------------------------------------------------------------
// Exclude
// ---------------------------------------------------------------------------

func TestApply_ExcludeIsDisjointFromInterior(t *testing.T) {
	p := welshSquare()

	ring, err := Apply(p, 250, Exclude)
	require.NoError(t, err)

	ringG, err := toGEOS(ring)
	require.NoError(t, err)
	defer ringG.Destroy()
	pG, err := toGEOS(p)
	require.NoError(t, err)
	defer pG.Destroy()

	overlap := ringG.Intersection(pG)
	require.NotNil(t, overlap)
	defer overlap.Destroy()
	assert.Less(t, overlap.Area(), pG.Area()*1e-6)

	poly, ok := ring.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, 2, poly.NumLinearRings())
}

func TestApply_ExcludeAreaIsBufferMinusOriginal(t *testing.T) {
	square := equatorSquare(t, 1000)

	included, err := Apply(square, 100, Include)
	require.NoError(t, err)
	excluded, err := Apply(square, 100, Exclude)
	require.NoError(t, err)

	assert.InDelta(t, mercatorM2(t, included)-1e6, mercatorM2(t, excluded), 10)
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestApply_RejectsNonPositiveDistance(t *testing.T) {
	for _, d := range []float64{-100, 0, math.NaN(), math.Inf(1)} {
		out, err := Apply(welshSquare(), d, Exclude)
		assert.Nil(t, out)
		assert.True(t, errors.Is(err, ErrInvalidParameter), "distance %v", d)
	}
}

func TestApply_NilGeometry(t *testing.T) {
	_, err := Apply(nil, 100, Include)
	assert.True(t, errors.Is(err, geomio.ErrInvalidGeometryInput))
}

func TestApplyTo_CoercesInput(t *testing.T) {
	e := New(Options{QuadrantSegments: 8})

	out, err := e.ApplyTo(map[string]any{
		"type":        "Polygon",
		"coordinates": [][][]float64{{{-4.10, 52.40}, {-4.10, 52.41}, {-4.09, 52.41}, {-4.09, 52.40}, {-4.10, 52.40}}},
	}, 100, Include)
	require.NoError(t, err)
	assert.NotNil(t, out)

	_, err = e.ApplyTo(42, 100, Include)
	assert.True(t, errors.Is(err, geomio.ErrInvalidGeometryInput))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Exclude")
	require.NoError(t, err)
	assert.Equal(t, Exclude, m)

	m, err = ParseMode("include")
	require.NoError(t, err)
	assert.Equal(t, Include, m)

	_, err = ParseMode("around")
	assert.True(t, errors.Is(err, ErrInvalidParameter))
	assert.Equal(t, "exclude", Exclude.String())
}
