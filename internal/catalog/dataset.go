package catalog

import (
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/livingwales/areaselect/internal/crs"
	"github.com/livingwales/areaselect/internal/geomio"
)

// IDProperty is the feature property carrying the synthetic identifier when
// features are handed to map widgets.
const IDProperty = "fid"

// Feature is one row of a dataset.
//
// ID is the row position at load time. It is unique within one load and is
// regenerated on every load, so it must not be persisted; anything durable has
// to key on attribute values or geometry instead.
type Feature struct {
	ID         int
	Attributes map[string]string
	// Geometry is in WGS84 lon/lat. Nil for null shapes.
	Geometry geom.T
}

// Dataset is an in-memory table of features loaded from one shapefile.
type Dataset struct {
	Path    string
	Columns []string
	// NameColumn is the attribute holding site names, or "" if none was found.
	NameColumn string
	// SourceCRS is the reference system the file was stored in.
	SourceCRS crs.CRS
	Features  []Feature
}

// Len returns the number of features.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Features)
}

// Empty reports whether the dataset has no features.
func (d *Dataset) Empty() bool { return d.Len() == 0 }

// ByID returns the feature with the given synthetic identifier.
func (d *Dataset) ByID(id int) (Feature, bool) {
	if d == nil {
		return Feature{}, false
	}
	// IDs are row positions, but subsets keep the original IDs.
	if id >= 0 && id < len(d.Features) && d.Features[id].ID == id {
		return d.Features[id], true
	}
	for _, f := range d.Features {
		if f.ID == id {
			return f, true
		}
	}
	return Feature{}, false
}

// Name returns the feature's value in the detected name column.
func (d *Dataset) Name(f Feature) string {
	if d == nil || d.NameColumn == "" {
		return ""
	}
	return f.Attributes[d.NameColumn]
}

// FilterByName returns the features whose name column equals value. Without
// a name column the result is empty.
func (d *Dataset) FilterByName(value string) *Dataset {
	return d.filter(func(f Feature) bool {
		return d.NameColumn != "" && f.Attributes[d.NameColumn] == value
	})
}

// Subset returns a dataset restricted to the given identifiers.
func (d *Dataset) Subset(ids ...int) *Dataset {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return d.filter(func(f Feature) bool { return want[f.ID] })
}

func (d *Dataset) filter(keep func(Feature) bool) *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{
		Path:       d.Path,
		Columns:    d.Columns,
		NameColumn: d.NameColumn,
		SourceCRS:  d.SourceCRS,
	}
	for _, f := range d.Features {
		if keep(f) {
			out.Features = append(out.Features, f)
		}
	}
	return out
}

// Names returns the distinct values of the name column in first-seen order.
func (d *Dataset) Names() []string {
	if d == nil || d.NameColumn == "" {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, f := range d.Features {
		n := f.Attributes[d.NameColumn]
		if seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	return names
}

// FirstGeometry returns the geometry of the first feature that has one.
func (d *Dataset) FirstGeometry() (geom.T, bool) {
	if d == nil {
		return nil, false
	}
	for _, f := range d.Features {
		if f.Geometry != nil {
			return f.Geometry, true
		}
	}
	return nil, false
}

// Geometries returns all non-null geometries.
func (d *Dataset) Geometries() []geom.T {
	if d == nil {
		return nil
	}
	out := make([]geom.T, 0, len(d.Features))
	for _, f := range d.Features {
		if f.Geometry != nil {
			out = append(out, f.Geometry)
		}
	}
	return out
}

// Bounds returns the WGS84 bounds of all features.
func (d *Dataset) Bounds() *geom.Bounds {
	return geomio.Bounds(d.Geometries()...)
}

// FeatureCollection renders the dataset as GeoJSON features. Each feature
// carries its attributes plus the synthetic identifier under IDProperty.
func (d *Dataset) FeatureCollection() *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	if d == nil {
		return fc
	}
	for _, f := range d.Features {
		if f.Geometry == nil {
			continue
		}
		props := make(map[string]any, len(f.Attributes)+1)
		for k, v := range f.Attributes {
			props[k] = v
		}
		props[IDProperty] = f.ID
		fc.Features = append(fc.Features, geomio.Feature(f.ID, props, f.Geometry))
	}
	return fc
}

// detectNameColumn picks the attribute holding site names: an exact "name"
// column first, otherwise the first column containing "name" in any case.
func detectNameColumn(columns []string) string {
	for _, c := range columns {
		if c == "name" {
			return c
		}
	}
	for _, c := range columns {
		if strings.Contains(strings.ToLower(c), "name") {
			return c
		}
	}
	return ""
}
