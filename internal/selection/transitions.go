package selection

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/livingwales/areaselect/internal/catalog"
	"github.com/livingwales/areaselect/internal/geomio"
)

// ErrInvalidTransition is returned when an event does not apply to the
// current mode. The state passed in is returned unchanged.
var ErrInvalidTransition = eris.New("selection: invalid transition")

// FeatureClick is the payload of a click on a rendered feature.
type FeatureClick struct {
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry,omitempty"`
}

// ID extracts the synthetic identifier from the click properties. Map widgets
// round-trip properties through JSON, so numbers may arrive as float64 or
// json.Number, and some widgets stringify them.
func (c FeatureClick) ID() (int, bool) {
	switch v := c.Properties[catalog.IDProperty].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func invalid(s State, event string) (State, error) {
	return s, eris.Wrapf(ErrInvalidTransition, "selection: %s in %s mode", event, s.Mode)
}

// StartSelection enters mode at the start of a map selection. Entering draw
// mode clears any select-mode scope. Other fields persist until overwritten.
func StartSelection(s State, mode Mode) (State, error) {
	if mode != ModeDraw && mode != ModeSelect {
		return invalid(s, "start "+mode.String())
	}
	if mode == ModeDraw {
		return PickDrawTool(s)
	}
	next := s.Clone()
	next.Mode = ModeSelect
	return next, nil
}

// PickDrawTool switches to draw mode. Modes are exclusive, so the select-mode
// scope and clicked feature are cleared.
func PickDrawTool(s State) (State, error) {
	next := s.Clone()
	next.Mode = ModeDraw
	next.Scope = ScopeUnset
	next.FeatureID = nil
	next.FeatureProperties = nil
	next.FeatureGeometry = nil
	return next, nil
}

// ClickFeature records a clicked feature and narrows the scope to it. The
// identifier comes from the fid property; a click without one still sets the
// scope, and resolution then falls back to the dropdown value.
func ClickFeature(s State, click FeatureClick) (State, error) {
	if s.Mode != ModeSelect {
		return invalid(s, "feature click")
	}
	next := s.Clone()
	next.Scope = ScopeSingle
	next.FeatureID = nil
	if id, ok := click.ID(); ok {
		next.FeatureID = &id
	}
	next.FeatureProperties = make(map[string]any, len(click.Properties))
	for k, v := range click.Properties {
		next.FeatureProperties[k] = v
	}
	next.FeatureGeometry = nil
	if len(click.Geometry) > 0 {
		next.FeatureGeometry = append(json.RawMessage(nil), click.Geometry...)
	}
	return next, nil
}

// UseAll widens the scope to every feature shown.
func UseAll(s State) (State, error) {
	if s.Mode != ModeSelect {
		return invalid(s, "use all")
	}
	next := s.Clone()
	next.Scope = ScopeAll
	next.FeatureID = nil
	next.FeatureProperties = nil
	next.FeatureGeometry = nil
	return next, nil
}

// FinishDrawing stores a drawn shape verbatim. The geometry is assumed to be
// WGS84, as the drawing tool produces it.
func FinishDrawing(s State, g *geojson.Geometry) (State, error) {
	if s.Mode != ModeDraw {
		return invalid(s, "finish drawing")
	}
	if _, err := geomio.FromGeoJSON(g); err != nil {
		return s, err
	}
	next := s.Clone()
	drawn := *g
	next.DrawnGeometry = &drawn
	return next, nil
}

// ChooseGroup records the selected dataset group. The polygon dropdown
// belongs to the previous group's dataset, so it is cleared.
func ChooseGroup(s State, group string) (State, error) {
	next := s.Clone()
	next.Group = group
	next.DropdownValue = nil
	return next, nil
}

// ChooseDropdown records the polygon name picked in the selector. Nil clears
// it.
func ChooseDropdown(s State, value *string) (State, error) {
	next := s.Clone()
	next.DropdownValue = nil
	if value != nil {
		v := *value
		next.DropdownValue = &v
	}
	return next, nil
}

// SelectBufferDistance sets the pending buffer distance in meters. Values are
// validated when a buffer is applied, not here.
func SelectBufferDistance(s State, meters float64) (State, error) {
	if math.IsNaN(meters) {
		return invalid(s, "NaN buffer distance")
	}
	next := s.Clone()
	next.BufferDistance = meters
	return next, nil
}

// KmRange bounds custom buffer entries, in kilometers.
type KmRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// DefaultKmRange matches the custom entry box offered to users.
var DefaultKmRange = KmRange{Min: 0.001, Max: 100}

// Clamp limits km to the range. A zero range leaves km as is.
func (r KmRange) Clamp(km float64) float64 {
	if r.Max <= 0 {
		return km
	}
	return math.Max(r.Min, math.Min(r.Max, km))
}

// SetCustomBufferKm sets the pending buffer distance from a custom entry in
// kilometers, clamped to bounds.
func SetCustomBufferKm(s State, km float64, bounds KmRange) (State, error) {
	if math.IsNaN(km) {
		return invalid(s, "NaN custom buffer")
	}
	return SelectBufferDistance(s, bounds.Clamp(km)*1000)
}

// ConfirmBufferDistance freezes the pending buffer distance.
func ConfirmBufferDistance(s State) (State, error) {
	next := s.Clone()
	d := s.BufferDistance
	next.ConfirmedBufferDistance = &d
	return next, nil
}

// ConfirmBuffer replaces the drawn geometry with a buffered one. Buffers are
// only offered for drawn areas.
func ConfirmBuffer(s State, g *geojson.Geometry) (State, error) {
	if s.Mode != ModeDraw {
		return invalid(s, "confirm buffer")
	}
	if _, err := geomio.FromGeoJSON(g); err != nil {
		return s, err
	}
	next := s.Clone()
	buffered := *g
	next.DrawnGeometry = &buffered
	return next, nil
}
