// Package selection holds the area-selection state machine and the resolver
// that turns the current state into a concrete area.
//
// State is a plain value. Transitions take the current state plus an event
// payload and return the next state, so they can be exercised without a map
// widget. The session layer persists state in a results.Store between
// callbacks.
package selection

import (
	"encoding/json"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/livingwales/areaselect/internal/results"
)

// Mode is how the user chose to define an area.
type Mode int

const (
	ModeUnset Mode = iota
	ModeDraw
	ModeSelect
)

func (m Mode) String() string {
	switch m {
	case ModeDraw:
		return "draw"
	case ModeSelect:
		return "select"
	default:
		return "unset"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Scope is whether a Select-mode selection spans the dataset or one feature.
type Scope int

const (
	ScopeUnset Scope = iota
	ScopeAll
	ScopeSingle
)

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeSingle:
		return "single"
	default:
		return "unset"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Scope) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// DefaultBufferDistance is the buffer distance in meters before the user picks
// one.
const DefaultBufferDistance = 100.0

// State is a snapshot of one session's selection.
//
// Scope and the Feature fields only mean something in ModeSelect.
// DrawnGeometry only means something in ModeDraw or after a buffer has been
// confirmed.
type State struct {
	Mode  Mode  `json:"mode"`
	Scope Scope `json:"scope"`

	// FeatureID is the synthetic identifier of the clicked feature. It is
	// authoritative over FeatureProperties and FeatureGeometry.
	FeatureID         *int            `json:"feature_id,omitempty"`
	FeatureProperties map[string]any  `json:"feature_properties,omitempty"`
	FeatureGeometry   json.RawMessage `json:"feature_geometry,omitempty"`

	// DrawnGeometry is WGS84, as produced by the drawing tool or by a
	// confirmed buffer.
	DrawnGeometry *geojson.Geometry `json:"drawn_geometry,omitempty"`

	// BufferDistance is in meters.
	BufferDistance          float64  `json:"buffer_distance"`
	ConfirmedBufferDistance *float64 `json:"confirmed_buffer_distance,omitempty"`

	// DropdownValue is the polygon name picked in the selector, if any.
	DropdownValue *string `json:"dropdown_value,omitempty"`
	// Group is the display name of the selected dataset group.
	Group string `json:"group,omitempty"`
}

// NewState returns the state of a fresh session.
func NewState() State {
	return State{BufferDistance: DefaultBufferDistance}
}

// Clone returns a copy that shares no mutable data with s.
func (s State) Clone() State {
	out := s
	if s.FeatureID != nil {
		id := *s.FeatureID
		out.FeatureID = &id
	}
	if s.FeatureProperties != nil {
		out.FeatureProperties = make(map[string]any, len(s.FeatureProperties))
		for k, v := range s.FeatureProperties {
			out.FeatureProperties[k] = v
		}
	}
	if s.FeatureGeometry != nil {
		out.FeatureGeometry = append(json.RawMessage(nil), s.FeatureGeometry...)
	}
	if s.DrawnGeometry != nil {
		g := *s.DrawnGeometry
		out.DrawnGeometry = &g
	}
	if s.ConfirmedBufferDistance != nil {
		d := *s.ConfirmedBufferDistance
		out.ConfirmedBufferDistance = &d
	}
	if s.DropdownValue != nil {
		v := *s.DropdownValue
		out.DropdownValue = &v
	}
	return out
}

// Store keys for the state fields.
const (
	KeyMode                    results.Key = "area_selection_mode"
	KeyScope                   results.Key = "selection_scope"
	KeyFeatureID               results.Key = "selected_feature_id"
	KeyFeatureProperties       results.Key = "selected_feature_properties"
	KeyFeatureGeometry         results.Key = "selected_feature_geometry"
	KeyDrawnGeometry           results.Key = "selected_area"
	KeyBufferDistance          results.Key = "buffer_distance"
	KeyConfirmedBufferDistance results.Key = "confirmed_buffer_distance"
	KeyDropdownValue           results.Key = "dropdown_value"
	KeyGroup                   results.Key = "area_selection_group"
)

// Load reads a State from the store. Missing keys take their fresh-session
// defaults.
func Load(store *results.Store) State {
	s := NewState()
	if v, ok := results.Typed[Mode](store, KeyMode); ok {
		s.Mode = v
	}
	if v, ok := results.Typed[Scope](store, KeyScope); ok {
		s.Scope = v
	}
	if v, ok := results.Typed[int](store, KeyFeatureID); ok {
		s.FeatureID = &v
	}
	if v, ok := results.Typed[map[string]any](store, KeyFeatureProperties); ok {
		s.FeatureProperties = v
	}
	if v, ok := results.Typed[json.RawMessage](store, KeyFeatureGeometry); ok {
		s.FeatureGeometry = v
	}
	if v, ok := results.Typed[*geojson.Geometry](store, KeyDrawnGeometry); ok {
		s.DrawnGeometry = v
	}
	if v, ok := results.Typed[float64](store, KeyBufferDistance); ok {
		s.BufferDistance = v
	}
	if v, ok := results.Typed[float64](store, KeyConfirmedBufferDistance); ok {
		s.ConfirmedBufferDistance = &v
	}
	if v, ok := results.Typed[string](store, KeyDropdownValue); ok {
		s.DropdownValue = &v
	}
	if v, ok := results.Typed[string](store, KeyGroup); ok {
		s.Group = v
	}
	return s.Clone()
}

// Save writes s to the store. Unset optional fields are deleted so that Get
// reports them as absent.
func Save(store *results.Store, s State) {
	s = s.Clone()
	store.Set(KeyMode, s.Mode)
	store.Set(KeyScope, s.Scope)
	store.Set(KeyBufferDistance, s.BufferDistance)

	if s.FeatureID != nil {
		store.Set(KeyFeatureID, *s.FeatureID)
	} else {
		store.Delete(KeyFeatureID)
	}
	if s.FeatureProperties != nil {
		store.Set(KeyFeatureProperties, s.FeatureProperties)
	} else {
		store.Delete(KeyFeatureProperties)
	}
	if s.FeatureGeometry != nil {
		store.Set(KeyFeatureGeometry, s.FeatureGeometry)
	} else {
		store.Delete(KeyFeatureGeometry)
	}
	if s.DrawnGeometry != nil {
		store.Set(KeyDrawnGeometry, s.DrawnGeometry)
	} else {
		store.Delete(KeyDrawnGeometry)
	}
	if s.ConfirmedBufferDistance != nil {
		store.Set(KeyConfirmedBufferDistance, *s.ConfirmedBufferDistance)
	} else {
		store.Delete(KeyConfirmedBufferDistance)
	}
	if s.DropdownValue != nil {
		store.Set(KeyDropdownValue, *s.DropdownValue)
	} else {
		store.Delete(KeyDropdownValue)
	}
	if s.Group != "" {
		store.Set(KeyGroup, s.Group)
	} else {
		store.Delete(KeyGroup)
	}
}
