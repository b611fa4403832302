// Package geomio converts geometries to and from the GeoJSON interchange
// structure exchanged with map widgets and other notebook cells.
package geomio

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/livingwales/areaselect/internal/crs"
)

// ErrInvalidGeometryInput is returned when a value is neither a recognized
// table of features nor a geometry interchange structure.
var ErrInvalidGeometryInput = eris.New("geomio: input must be a feature table or a GeoJSON geometry")

// FirstGeometryer is implemented by feature tables (datasets, resolved areas)
// whose first geometry stands in for the whole table when a single geometry is
// required.
type FirstGeometryer interface {
	FirstGeometry() (geom.T, bool)
}

// ToGeoJSON encodes g as a GeoJSON geometry.
func ToGeoJSON(g geom.T) (*geojson.Geometry, error) {
	if g == nil {
		return nil, eris.Wrap(ErrInvalidGeometryInput, "geomio: nil geometry")
	}
	out, err := geojson.Encode(g)
	if err != nil {
		return nil, eris.Wrap(err, "geomio: encode geojson")
	}
	return out, nil
}

// FromGeoJSON decodes a GeoJSON geometry.
func FromGeoJSON(g *geojson.Geometry) (geom.T, error) {
	if g == nil || g.Type == "" {
		return nil, eris.Wrap(ErrInvalidGeometryInput, "geomio: empty geojson geometry")
	}
	if g.Coordinates == nil && g.Geometries == nil {
		return nil, eris.Wrapf(ErrInvalidGeometryInput, "geomio: %s has no coordinates", g.Type)
	}
	out, err := g.Decode()
	if err != nil {
		return nil, eris.Wrap(err, "geomio: decode geojson")
	}
	return out, nil
}

// Parse decodes raw GeoJSON. Bare geometries and single Features are accepted;
// for a Feature its geometry is returned.
func Parse(data []byte) (geom.T, error) {
	var probe struct {
		Type     string          `json:"type"`
		Geometry json.RawMessage `json:"geometry"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, eris.Wrap(ErrInvalidGeometryInput, "geomio: not json")
	}
	if probe.Type == "Feature" {
		if len(probe.Geometry) == 0 {
			return nil, eris.Wrap(ErrInvalidGeometryInput, "geomio: feature without geometry")
		}
		data = probe.Geometry
	}

	var g geojson.Geometry
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, eris.Wrap(ErrInvalidGeometryInput, "geomio: malformed geometry")
	}
	return FromGeoJSON(&g)
}

// Coerce extracts a single geometry from v. Accepted inputs are feature tables
// (via FirstGeometryer), geom.T values, *geojson.Geometry, raw GeoJSON bytes and
// decoded JSON maps holding "type" and "coordinates". Anything else yields
// ErrInvalidGeometryInput.
func Coerce(v any) (geom.T, error) {
	switch in := v.(type) {
	case nil:
		return nil, eris.Wrap(ErrInvalidGeometryInput, "geomio: nil input")
	case FirstGeometryer:
		g, ok := in.FirstGeometry()
		if !ok {
			return nil, eris.Wrap(ErrInvalidGeometryInput, "geomio: empty feature table")
		}
		return g, nil
	case geom.T:
		return in, nil
	case *geojson.Geometry:
		return FromGeoJSON(in)
	case json.RawMessage:
		return Parse(in)
	case []byte:
		return Parse(in)
	case map[string]any:
		if _, ok := in["type"]; !ok {
			return nil, eris.Wrap(ErrInvalidGeometryInput, "geomio: map without type")
		}
		if _, ok := in["coordinates"]; !ok {
			return nil, eris.Wrap(ErrInvalidGeometryInput, "geomio: map without coordinates")
		}
		data, err := json.Marshal(in)
		if err != nil {
			return nil, eris.Wrap(ErrInvalidGeometryInput, "geomio: map not serializable")
		}
		return Parse(data)
	default:
		return nil, eris.Wrapf(ErrInvalidGeometryInput, "geomio: unsupported input %T", v)
	}
}

// Feature builds a GeoJSON feature with the synthetic identifier as its id.
func Feature(id int, properties map[string]any, g geom.T) *geojson.Feature {
	return &geojson.Feature{
		ID:         strconv.Itoa(id),
		Geometry:   g,
		Properties: properties,
	}
}

// Collection wraps a single geometry in a one-feature collection.
func Collection(g geom.T) *geojson.FeatureCollection {
	return &geojson.FeatureCollection{
		Features: []*geojson.Feature{{Geometry: g, Properties: map[string]any{}}},
	}
}

// AreaHectares returns the planar area of a WGS84 geometry measured in Web
// Mercator, in hectares.
func AreaHectares(g geom.T) (float64, error) {
	merc, err := crs.Reproject(g, crs.WGS84, crs.WebMercator)
	if err != nil {
		return 0, err
	}
	return planarArea(merc) / 10000, nil
}

// planarArea sums shell areas minus hole areas regardless of ring winding.
func planarArea(g geom.T) float64 {
	switch t := g.(type) {
	case *geom.Polygon:
		return polygonArea(t)
	case *geom.MultiPolygon:
		var sum float64
		for i := 0; i < t.NumPolygons(); i++ {
			sum += polygonArea(t.Polygon(i))
		}
		return sum
	case *geom.GeometryCollection:
		var sum float64
		for _, member := range t.Geoms() {
			sum += planarArea(member)
		}
		return sum
	default:
		return 0
	}
}

func polygonArea(p *geom.Polygon) float64 {
	var area float64
	for i := 0; i < p.NumLinearRings(); i++ {
		a := math.Abs(p.LinearRing(i).Area())
		if i == 0 {
			area += a
		} else {
			area -= a
		}
	}
	return area
}

// Orient returns g with polygon shells counter-clockwise and holes clockwise,
// the winding GeoJSON requires. Other geometries are returned unchanged; g is
// not modified.
func Orient(g geom.T) geom.T {
	switch t := g.(type) {
	case *geom.Polygon:
		return orientPolygon(t)
	case *geom.MultiPolygon:
		out := geom.NewMultiPolygon(t.Layout())
		for i := 0; i < t.NumPolygons(); i++ {
			if err := out.Push(orientPolygon(t.Polygon(i))); err != nil {
				return g
			}
		}
		return out
	case *geom.GeometryCollection:
		out := geom.NewGeometryCollection()
		for _, member := range t.Geoms() {
			if err := out.Push(Orient(member)); err != nil {
				return g
			}
		}
		return out
	default:
		return g
	}
}

func orientPolygon(p *geom.Polygon) *geom.Polygon {
	out := geom.NewPolygon(p.Layout())
	for i := 0; i < p.NumLinearRings(); i++ {
		ring := p.LinearRing(i).Clone()
		// go-geom areas are positive for counter-clockwise rings.
		if ccw := ring.Area() > 0; ccw != (i == 0) {
			ring.Reverse()
		}
		if err := out.Push(ring); err != nil {
			return p
		}
	}
	return out
}

// Bounds returns the combined bounds of gs, or nil when none has coordinates.
func Bounds(gs ...geom.T) *geom.Bounds {
	b := geom.NewBounds(geom.XY)
	for _, g := range gs {
		extendBounds(b, g)
	}
	if b.IsEmpty() {
		return nil
	}
	return b
}

func extendBounds(b *geom.Bounds, g geom.T) {
	switch t := g.(type) {
	case nil:
		return
	case *geom.GeometryCollection:
		for _, member := range t.Geoms() {
			extendBounds(b, member)
		}
	default:
		if len(g.FlatCoords()) > 0 {
			b.Extend(g)
		}
	}
}
