// Package buffer grows or rings a WGS84 geometry by a distance in meters.
//
// Buffering is planar in Web Mercator, using GEOS. Distances are therefore
// Mercator meters, which is accurate near the equator and increasingly
// generous towards the poles.
package buffer

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geos"
	"go.uber.org/zap"

	"github.com/livingwales/areaselect/internal/crs"
	"github.com/livingwales/areaselect/internal/geomio"
)

// ErrInvalidParameter is returned for a distance that is not a positive
// finite number.
var ErrInvalidParameter = eris.New("buffer: invalid parameter")

// Mode selects whether the original footprint is part of the result.
type Mode int

const (
	// Include returns the original area plus the buffer around it.
	Include Mode = iota
	// Exclude returns only the ring around the original area.
	Exclude
)

func (m Mode) String() string {
	if m == Exclude {
		return "exclude"
	}
	return "include"
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// ParseMode parses "include" or "exclude".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "include":
		return Include, nil
	case "exclude":
		return Exclude, nil
	}
	return Include, eris.Wrapf(ErrInvalidParameter, "buffer: unknown mode %q", s)
}

// DefaultQuadrantSegments is the number of segments approximating a quarter
// circle at buffer corners.
const DefaultQuadrantSegments = 16

// Options configures an Engine.
type Options struct {
	QuadrantSegments int
}

// Engine applies buffers.
type Engine struct {
	quadSegs int
}

// New creates an Engine.
func New(opts Options) *Engine {
	if opts.QuadrantSegments <= 0 {
		opts.QuadrantSegments = DefaultQuadrantSegments
	}
	return &Engine{quadSegs: opts.QuadrantSegments}
}

// Apply buffers g with a default Engine.
func Apply(g geom.T, meters float64, mode Mode) (geom.T, error) {
	return New(Options{}).Apply(g, meters, mode)
}

// ApplyTo coerces v to a single geometry and buffers it. Feature tables
// contribute their first geometry.
func (e *Engine) ApplyTo(v any, meters float64, mode Mode) (geom.T, error) {
	g, err := geomio.Coerce(v)
	if err != nil {
		return nil, err
	}
	return e.Apply(g, meters, mode)
}

// Apply buffers g (WGS84) by meters. In Exclude mode the original footprint is
// subtracted. The result is WGS84 and g is not modified.
func (e *Engine) Apply(g geom.T, meters float64, mode Mode) (geom.T, error) {
	if meters <= 0 || math.IsNaN(meters) || math.IsInf(meters, 0) {
		return nil, eris.Wrapf(ErrInvalidParameter, "buffer: distance must be positive, got %v", meters)
	}
	if g == nil {
		return nil, eris.Wrap(geomio.ErrInvalidGeometryInput, "buffer: nil geometry")
	}

	projected, err := crs.Reproject(g, crs.WGS84, crs.WebMercator)
	if err != nil {
		return nil, eris.Wrap(err, "buffer: project to web mercator")
	}

	src, err := toGEOS(projected)
	if err != nil {
		return nil, err
	}
	defer src.Destroy()

	if !src.IsValid() {
		repaired := src.MakeValid()
		if repaired == nil {
			return nil, eris.Wrap(geomio.ErrInvalidGeometryInput, "buffer: geometry cannot be repaired")
		}
		defer repaired.Destroy()
		src = repaired
	}

	result := src.Buffer(meters, e.quadSegs)
	if result == nil {
		return nil, eris.New("buffer: geos buffer failed")
	}
	defer result.Destroy()

	if mode == Exclude {
		ring := result.Difference(src)
		if ring == nil {
			return nil, eris.New("buffer: geos difference failed")
		}
		defer ring.Destroy()
		result = ring
	}

	areaM2 := result.Area()
	out, err := fromGEOS(result)
	if err != nil {
		return nil, err
	}
	out, err = crs.Reproject(out, crs.WebMercator, crs.WGS84)
	if err != nil {
		return nil, eris.Wrap(err, "buffer: project to wgs84")
	}

	zap.L().Debug("buffer: applied",
		zap.Float64("meters", meters),
		zap.Stringer("mode", mode),
		zap.Int("quadrant_segments", e.quadSegs),
		zap.Float64("area_ha", areaM2/10000),
	)
	return out, nil
}

// toGEOS hands a go-geom geometry to GEOS through GeoJSON.
func toGEOS(g geom.T) (*geos.Geom, error) {
	enc, err := geomio.ToGeoJSON(g)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(enc)
	if err != nil {
		return nil, eris.Wrap(err, "buffer: marshal geojson")
	}
	out, err := geos.NewGeomFromGeoJSON(string(data))
	if err != nil {
		return nil, eris.Wrap(err, "buffer: parse geometry in geos")
	}
	return out, nil
}

// fromGEOS reads a GEOS result back, rewound for GeoJSON since GEOS emits
// clockwise shells.
func fromGEOS(g *geos.Geom) (geom.T, error) {
	out, err := geomio.Parse([]byte(g.ToGeoJSON(-1)))
	if err != nil {
		return nil, eris.Wrap(err, "buffer: read geos result")
	}
	return geomio.Orient(out), nil
}
