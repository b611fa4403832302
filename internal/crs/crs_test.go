package crs

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

// ---------------------------------------------------------------------------
// Web Mercator
// ---------------------------------------------------------------------------

func TestWebMercator_Origin(t *testing.T) {
	x, y, err := Point(WGS84, WebMercator, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)
}

func TestWebMercator_KnownPoint(t *testing.T) {
	// 180 degrees east is half the equatorial circumference.
	x, _, err := Point(WGS84, WebMercator, 180, 0)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi*6378137.0, x, 1e-3)
}

func TestWebMercator_IsLongitudeFirst(t *testing.T) {
	x, y, err := Point(WGS84, WebMercator, -3.18, 51.48)
	require.NoError(t, err)
	assert.Less(t, x, 0.0)
	assert.Greater(t, y, 6e6)
}

func TestWebMercator_RoundTrip(t *testing.T) {
	for _, c := range [][2]float64{{-3.18, 51.48}, {0.001, -0.002}, {120.5, -33.9}, {-179.9, 80}} {
		x, y, err := Point(WGS84, WebMercator, c[0], c[1])
		require.NoError(t, err)
		lon, lat, err := Point(WebMercator, WGS84, x, y)
		require.NoError(t, err)
		assert.InDelta(t, c[0], lon, 1e-9)
		assert.InDelta(t, c[1], lat, 1e-9)
	}
}

func TestWebMercator_ClampsPoles(t *testing.T) {
	_, y, err := Point(WGS84, WebMercator, 0, 90)
	require.NoError(t, err)
	assert.False(t, math.IsInf(y, 0))
	_, lat, err := Point(WebMercator, WGS84, 0, y)
	require.NoError(t, err)
	assert.InDelta(t, MaxLatitude, lat, 1e-9)
}

// ---------------------------------------------------------------------------
// British National Grid
// ---------------------------------------------------------------------------

func TestBritishNationalGrid_Cardiff(t *testing.T) {
	lon, lat, err := Point(BritishNationalGrid, WGS84, 318300, 176500)
	require.NoError(t, err)

	assert.InDelta(t, -3.18, lon, 0.05)
	assert.InDelta(t, 51.48, lat, 0.05)
}

func TestBritishNationalGrid_RoundTrip(t *testing.T) {
	lon, lat, err := Point(BritishNationalGrid, WGS84, 260000, 270000)
	require.NoError(t, err)
	e, n, err := Point(WGS84, BritishNationalGrid, lon, lat)
	require.NoError(t, err)

	assert.InDelta(t, 260000, e, 0.01)
	assert.InDelta(t, 270000, n, 0.01)
}

// ---------------------------------------------------------------------------
// Transformer / PRJ
// ---------------------------------------------------------------------------

func TestTransformer_Unsupported(t *testing.T) {
	_, err := Transformer(CRS(2154), WGS84)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.False(t, IsSupported(WGS84, CRS(2154)))
	assert.True(t, IsSupported(WGS84, WebMercator))
	assert.True(t, IsSupported(WebMercator, BritishNationalGrid))
}

func TestTransformer_IsShared(t *testing.T) {
	a, err := Transformer(WGS84, WebMercator)
	require.NoError(t, err)
	b, err := Transformer(WGS84, WebMercator)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestTransformer_Identity(t *testing.T) {
	tr, err := Transformer(WGS84, WGS84)
	require.NoError(t, err)
	x, y, err := tr.Point(-3.5, 52.1)
	require.NoError(t, err)
	assert.Equal(t, -3.5, x)
	assert.Equal(t, 52.1, y)
}

func TestTransformer_ConcurrentUse(t *testing.T) {
	tr, err := Transformer(WGS84, WebMercator)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			x, _, err := tr.Point(float64(i), 0)
			assert.NoError(t, err)
			assert.InDelta(t, float64(i)*math.Pi/180*6378137.0, x, 1e-3)
		}(i)
	}
	wg.Wait()
}

func TestFromPRJ(t *testing.T) {
	tests := []struct {
		name string
		wkt  string
		want CRS
	}{
		{"empty defaults to wgs84", "", WGS84},
		{"geographic", `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`, WGS84},
		{"national grid", `PROJCS["British_National_Grid",GEOGCS["GCS_OSGB_1936",DATUM["D_OSGB_1936",SPHEROID["Airy_1830",6377563.396,299.3249646]]]]`, BritishNationalGrid},
		{"web mercator", `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",GEOGCS["GCS_WGS_1984"]]`, WebMercator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromPRJ(tt.wkt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := FromPRJ(`PROJCS["RGF93_Lambert_93"]`)
	assert.ErrorIs(t, err, ErrUnsupported)
}

// ---------------------------------------------------------------------------
// Geometry
// ---------------------------------------------------------------------------

func shift(dx, dy float64) Func {
	return func(flat []float64, stride int) error {
		for i := 0; i+1 < len(flat); i += stride {
			flat[i] += dx
			flat[i+1] += dy
		}
		return nil
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	poly := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}},
	})

	moved, err := Apply(poly, shift(10, 20))
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0, 1, 0, 1, 1, 0, 1, 0, 0}, poly.FlatCoords())
	assert.Equal(t, []float64{10, 20, 11, 20, 11, 21, 10, 21, 10, 20}, moved.FlatCoords())
	_, ok := moved.(*geom.Polygon)
	assert.True(t, ok)
}

func TestApply_GeometryCollection(t *testing.T) {
	gc := geom.NewGeometryCollection()
	require.NoError(t, gc.Push(geom.NewPointFlat(geom.XY, []float64{1, 2})))

	moved, err := Apply(gc, shift(1, -1))
	require.NoError(t, err)

	out := moved.(*geom.GeometryCollection)
	require.Equal(t, 1, out.NumGeoms())
	assert.Equal(t, []float64{2, 1}, out.Geom(0).FlatCoords())
}

func TestReproject_RoundTrip(t *testing.T) {
	poly := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{-3.2, 51.4}, {-3.1, 51.4}, {-3.1, 51.5}, {-3.2, 51.5}, {-3.2, 51.4}},
	})

	merc, err := Reproject(poly, WGS84, WebMercator)
	require.NoError(t, err)
	back, err := Reproject(merc, WebMercator, WGS84)
	require.NoError(t, err)

	for i, v := range poly.FlatCoords() {
		assert.InDelta(t, v, back.FlatCoords()[i], 1e-9)
	}
}

func TestApply_Nil(t *testing.T) {
	_, err := Apply(nil, shift(0, 0))
	assert.Error(t, err)
}
