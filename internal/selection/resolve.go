package selection

import (
	"strconv"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/livingwales/areaselect/internal/catalog"
	"github.com/livingwales/areaselect/internal/geomio"
)

// HintNothingSelected is shown to the user when Resolve finds no selection.
const HintNothingSelected = "No polygon currently selected. Start a map selection, click or draw an area and confirm it on the map."

// Source says how an Area was derived.
type Source int

const (
	// SourceDrawn is a drawn or buffer-confirmed geometry.
	SourceDrawn Source = iota
	// SourceAll is every feature of the dataset, optionally filtered by name.
	SourceAll
	// SourceFeature is one feature picked by identifier.
	SourceFeature
	// SourceDropdown is the features matching the dropdown name.
	SourceDropdown
)

func (s Source) String() string {
	switch s {
	case SourceDrawn:
		return "drawn"
	case SourceAll:
		return "all"
	case SourceFeature:
		return "feature"
	case SourceDropdown:
		return "dropdown"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Area is a resolved selection: either a subset of the active dataset or a
// single geometry. It is recomputed on every request and never cached.
type Area struct {
	Source Source
	// Label names the selection for titles: a polygon name, "All" or
	// "Drawn area".
	Label string
	// Features is set for dataset-backed areas.
	Features *catalog.Dataset
	// Geometry is set for drawn areas, in WGS84.
	Geometry geom.T
}

// FirstGeometry returns the drawn geometry or the first feature's geometry.
func (a *Area) FirstGeometry() (geom.T, bool) {
	if a == nil {
		return nil, false
	}
	if a.Geometry != nil {
		return a.Geometry, true
	}
	return a.Features.FirstGeometry()
}

// Geometries returns every geometry in the area.
func (a *Area) Geometries() []geom.T {
	if a == nil {
		return nil
	}
	if a.Geometry != nil {
		return []geom.T{a.Geometry}
	}
	return a.Features.Geometries()
}

// FeatureCollection renders the area for a map layer.
func (a *Area) FeatureCollection() *geojson.FeatureCollection {
	if a != nil && a.Geometry != nil {
		return geomio.Collection(a.Geometry)
	}
	var ds *catalog.Dataset
	if a != nil {
		ds = a.Features
	}
	return ds.FeatureCollection()
}

// Bounds returns the WGS84 bounds of the area, or nil when it has no geometry.
func (a *Area) Bounds() *geom.Bounds {
	return geomio.Bounds(a.Geometries()...)
}

// AreaHectares sums the planar Web Mercator area of every geometry.
func (a *Area) AreaHectares() (float64, error) {
	var total float64
	for _, g := range a.Geometries() {
		ha, err := geomio.AreaHectares(g)
		if err != nil {
			return 0, err
		}
		total += ha
	}
	return total, nil
}

// Len returns the number of features or 1 for a drawn area.
func (a *Area) Len() int {
	if a == nil {
		return 0
	}
	if a.Geometry != nil {
		return 1
	}
	return a.Features.Len()
}

// Resolve computes the current selection from state and the active dataset,
// in strict precedence:
//
//  1. Draw mode: the drawn (or buffer-confirmed) geometry.
//  2. Select mode, scope All: rows matching the dropdown value, else the whole
//     dataset.
//  3. Scope Single with an identifier: that feature. An identifier missing
//     from the dataset falls through.
//  4. The dropdown value: rows matching it by name.
//
// A nil Area with a nil error means nothing is selected; callers show
// HintNothingSelected. Duplicate names are only told apart by identifier.
// The only error is a stored drawn geometry that cannot be decoded.
func Resolve(s State, ds *catalog.Dataset) (*Area, error) {
	switch s.Mode {
	case ModeUnset:
		return nil, nil
	case ModeDraw:
		if s.DrawnGeometry == nil {
			return nil, nil
		}
		g, err := geomio.FromGeoJSON(s.DrawnGeometry)
		if err != nil {
			return nil, err
		}
		return &Area{Source: SourceDrawn, Label: "Drawn area", Geometry: g}, nil
	}

	if ds == nil {
		return nil, nil
	}

	if s.Scope == ScopeAll {
		if s.DropdownValue != nil {
			return nonEmpty(SourceAll, *s.DropdownValue, ds.FilterByName(*s.DropdownValue)), nil
		}
		return nonEmpty(SourceAll, "All", ds), nil
	}

	if s.Scope == ScopeSingle && s.FeatureID != nil {
		if f, ok := ds.ByID(*s.FeatureID); ok {
			label := ds.Name(f)
			if label == "" {
				label = "Feature " + strconv.Itoa(f.ID)
			}
			return &Area{Source: SourceFeature, Label: label, Features: ds.Subset(f.ID)}, nil
		}
	}

	if s.DropdownValue != nil {
		return nonEmpty(SourceDropdown, *s.DropdownValue, ds.FilterByName(*s.DropdownValue)), nil
	}
	return nil, nil
}

func nonEmpty(src Source, label string, ds *catalog.Dataset) *Area {
	if ds.Empty() {
		return nil
	}
	return &Area{Source: src, Label: label, Features: ds}
}
