// Package display describes what the selection tools want shown: messages,
// interactive maps, static plots and progress bars. Rendering is left to a
// Sink implementation.
package display

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Style is a Leaflet path style.
type Style struct {
	Color       string  `json:"color"`
	FillColor   string  `json:"fillColor"`
	Opacity     float64 `json:"opacity"`
	Weight      float64 `json:"weight"`
	DashArray   string  `json:"dashArray,omitempty"`
	FillOpacity float64 `json:"fillOpacity"`
}

// Layer styles.
var (
	FeatureStyle  = Style{Color: "black", FillColor: "#3366cc", Opacity: 0.05, Weight: 1.9, DashArray: "2", FillOpacity: 0.6}
	SelectedStyle = Style{Color: "black", FillColor: "orange", Opacity: 0.8, Weight: 2, DashArray: "2", FillOpacity: 0.6}
	AreaStyle     = Style{Color: "black", FillColor: "#3366cc", Opacity: 0.5, Weight: 1.9, DashArray: "2", FillOpacity: 0.3}
	BoundaryStyle = Style{Color: "red", FillColor: "none", Opacity: 1, Weight: 2}
	IncludeStyle  = Style{Color: "black", FillColor: "#ffcc00", Opacity: 0.5, Weight: 1.9, DashArray: "2", FillOpacity: 0.3}
	ExcludeStyle  = Style{Color: "black", FillColor: "#00cc66", Opacity: 0.5, Weight: 1.9, DashArray: "2", FillOpacity: 0.3}
	HoverStyle    = Style{FillColor: "red", FillOpacity: 0.2}
	DrawShape     = Style{Color: "#ff0000", Weight: 4}
)

// Layer is one GeoJSON overlay.
type Layer struct {
	Name       string                     `json:"name"`
	Style      Style                      `json:"style"`
	HoverStyle *Style                     `json:"hover_style,omitempty"`
	Features   *geojson.FeatureCollection `json:"features"`
	// Clickable layers report feature clicks back to the session.
	Clickable bool `json:"clickable,omitempty"`
}

// LatLng is a map position.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MapView is an interactive map.
type MapView struct {
	Title        string   `json:"title,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
	Center       LatLng   `json:"center"`
	Zoom         int      `json:"zoom"`
	SouthWest    *LatLng  `json:"south_west,omitempty"`
	NorthEast    *LatLng  `json:"north_east,omitempty"`
	Basemap      string   `json:"basemap"`
	Layers       []Layer  `json:"layers"`
	DrawControl  bool     `json:"draw_control,omitempty"`
	DrawShapes   *Style   `json:"draw_shapes,omitempty"`
	Buttons      []string `json:"buttons,omitempty"`
	Footer       string   `json:"footer,omitempty"`
}

// DefaultBasemap is the imagery basemap the maps use.
const DefaultBasemap = "Esri.WorldImagery"

// Wales is where maps centre when there is nothing to fit.
var Wales = LatLng{Lat: 52.4, Lng: -3.8}

// NewMapView builds a map fitted to the bounds of its layers.
func NewMapView(title string, zoom int, layers ...Layer) MapView {
	v := MapView{
		Title:   title,
		Center:  Wales,
		Zoom:    zoom,
		Basemap: DefaultBasemap,
		Layers:  layers,
	}
	var gs []geom.T
	for _, l := range layers {
		if l.Features == nil {
			continue
		}
		for _, f := range l.Features.Features {
			if f.Geometry != nil {
				gs = append(gs, f.Geometry)
			}
		}
	}
	v.Fit(boundsOf(gs))
	return v
}

// Fit centres the view on b and records the corners to fit. A nil b leaves
// the view unchanged.
func (v *MapView) Fit(b *geom.Bounds) {
	if b == nil {
		return
	}
	sw := LatLng{Lat: b.Min(1), Lng: b.Min(0)}
	ne := LatLng{Lat: b.Max(1), Lng: b.Max(0)}
	v.SouthWest, v.NorthEast = &sw, &ne
	v.Center = LatLng{Lat: (sw.Lat + ne.Lat) / 2, Lng: (sw.Lng + ne.Lng) / 2}
}

func boundsOf(gs []geom.T) *geom.Bounds {
	if len(gs) == 0 {
		return nil
	}
	b := geom.NewBounds(geom.XY)
	for _, g := range gs {
		b.Extend(g)
	}
	return b
}

// PlotView is a static plot of features with their total area.
type PlotView struct {
	Title        string                     `json:"title"`
	XLabel       string                     `json:"x_label"`
	YLabel       string                     `json:"y_label"`
	Style        Style                      `json:"style"`
	Features     *geojson.FeatureCollection `json:"features"`
	AreaHectares float64                    `json:"area_hectares"`
	NorthArrow   bool                       `json:"north_arrow"`
}

// ProgressBar is a 0..100 indicator. Set may be called from a background
// goroutine.
type ProgressBar interface {
	Set(percent int)
}

// Sink shows things to the user.
type Sink interface {
	Message(text string)
	Map(v MapView)
	Plot(v PlotView)
	Progress(label string) ProgressBar
}

// Discard is a Sink that shows nothing.
var Discard Sink = discard{}

type discard struct{}

func (discard) Message(string)              {}
func (discard) Map(MapView)                 {}
func (discard) Plot(PlotView)               {}
func (discard) Progress(string) ProgressBar { return nopBar{} }

type nopBar struct{}

func (nopBar) Set(int) {}
