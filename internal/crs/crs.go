// Package crs converts coordinates between the reference systems the catalog
// encounters: geographic WGS84, Web Mercator and the British National Grid.
//
// Transforms are built with PROJ and normalized for visualization, so every
// coordinate is x/y (longitude first for geographic systems).
package crs

import (
	"math"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	proj "github.com/twpayne/go-proj/v10"
)

// CRS is an EPSG code.
type CRS int

// Supported reference systems.
const (
	WGS84               CRS = 4326
	WebMercator         CRS = 3857
	BritishNationalGrid CRS = 27700
)

// ErrUnsupported is returned for reference systems or pairs with no transform.
var ErrUnsupported = eris.New("crs: unsupported reference system")

func (c CRS) String() string {
	switch c {
	case WGS84:
		return "EPSG:4326"
	case WebMercator:
		return "EPSG:3857"
	case BritishNationalGrid:
		return "EPSG:27700"
	default:
		return "EPSG:unknown"
	}
}

func (c CRS) supported() bool {
	return c == WGS84 || c == WebMercator || c == BritishNationalGrid
}

// MaxLatitude is the latitude at which Web Mercator y reaches the square
// world extent. Latitudes beyond it are clamped before projecting.
const MaxLatitude = 85.05112877980659

// Transform converts coordinates from one reference system to another. It is
// safe for concurrent use.
type Transform struct {
	src, dst CRS

	mu sync.Mutex
	pj *proj.PJ // nil for the identity
}

type pair struct{ src, dst CRS }

var (
	cacheMu sync.Mutex
	cache   = make(map[pair]*Transform)
)

// IsSupported reports whether a transform from src to dst exists.
func IsSupported(src, dst CRS) bool {
	return src.supported() && dst.supported()
}

// Transformer returns the transform from src to dst. Transforms are created
// once per pair and shared.
func Transformer(src, dst CRS) (*Transform, error) {
	if !IsSupported(src, dst) {
		return nil, eris.Wrapf(ErrUnsupported, "crs: %s -> %s", src, dst)
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if t, ok := cache[pair{src, dst}]; ok {
		return t, nil
	}

	t := &Transform{src: src, dst: dst}
	if src != dst {
		pj, err := proj.NewCRSToCRS(src.String(), dst.String(), nil)
		if err != nil {
			return nil, eris.Wrapf(err, "crs: create %s -> %s", src, dst)
		}
		xy, err := pj.NormalizeForVisualization()
		pj.Destroy()
		if err != nil {
			return nil, eris.Wrapf(err, "crs: normalize %s -> %s", src, dst)
		}
		t.pj = xy
	}
	cache[pair{src, dst}] = t
	return t, nil
}

// Point transforms a single x/y coordinate.
func (t *Transform) Point(x, y float64) (float64, float64, error) {
	flat := []float64{x, y}
	if err := t.Flat(flat, 2); err != nil {
		return 0, 0, err
	}
	return flat[0], flat[1], nil
}

// Flat transforms flat coordinates in place. Only the first two ordinates of
// each stride are touched.
func (t *Transform) Flat(flat []float64, stride int) error {
	if t.pj == nil || len(flat) == 0 {
		return nil
	}
	if t.src == WGS84 && t.dst == WebMercator {
		for i := 1; i < len(flat); i += stride {
			flat[i] = math.Max(-MaxLatitude, math.Min(MaxLatitude, flat[i]))
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.pj.ForwardFlatCoords(flat, stride, -1, -1); err != nil {
		return eris.Wrapf(err, "crs: transform %s -> %s", t.src, t.dst)
	}
	return nil
}

// Point transforms one coordinate from src to dst.
func Point(src, dst CRS, x, y float64) (float64, float64, error) {
	t, err := Transformer(src, dst)
	if err != nil {
		return 0, 0, err
	}
	return t.Point(x, y)
}

// FromPRJ identifies the reference system described by the WKT in a
// shapefile .prj sidecar.
func FromPRJ(wkt string) (CRS, error) {
	s := strings.ToUpper(strings.TrimSpace(wkt))
	if s == "" {
		return WGS84, nil
	}
	switch {
	case strings.Contains(s, "BRITISH_NATIONAL_GRID"),
		strings.Contains(s, "BRITISH NATIONAL GRID"),
		strings.HasPrefix(s, "PROJCS") && strings.Contains(s, "OSGB"):
		return BritishNationalGrid, nil
	case strings.Contains(s, "MERCATOR_AUXILIARY_SPHERE"),
		strings.Contains(s, "PSEUDO-MERCATOR"),
		strings.Contains(s, "WEB_MERCATOR"),
		strings.Contains(s, "\"EPSG\",\"3857\""):
		return WebMercator, nil
	case strings.HasPrefix(s, "GEOGCS") && (strings.Contains(s, "WGS_1984") || strings.Contains(s, "WGS 84") || strings.Contains(s, "WGS84")):
		return WGS84, nil
	}
	return 0, eris.Wrapf(ErrUnsupported, "crs: prj %.40q", wkt)
}
