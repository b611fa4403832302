package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/livingwales/areaselect/internal/buffer"
	"github.com/livingwales/areaselect/internal/display"
	"github.com/livingwales/areaselect/internal/geomio"
	"github.com/livingwales/areaselect/internal/progress"
	"github.com/livingwales/areaselect/internal/selection"
)

// ErrNoBufferPreview is returned when there is no buffer to confirm.
var ErrNoBufferPreview = eris.New("session: no buffer preview to confirm")

// Buffer messages.
const (
	MsgBufferDrawOnly    = "Buffers can only be applied on map-drawn areas. Draw an area on the map with StartMapSelection to apply a buffer."
	MsgNoAreaOrBuffer    = "No area or buffer selection set"
	MsgBufferConfirmed   = "The buffered area has been confirmed as the selected area."
	MsgIncludeHelp       = "If the buffer applied to the site selection is good, click 'CONFIRM BUFFER' below. If more buffer is needed change the distance with ShowBufferControls."
	MsgExcludeHelp       = "If the buffer applied excluding the site selection is good, click 'CONFIRM BUFFER' below. If more buffer is needed change the distance with ShowBufferControls."
	MsgBufferNotSelected = "Not Selected"
)

// BufferControls are the buffer distance options offered to the user.
type BufferControls struct {
	PresetsMeters []float64         `json:"presets_meters"`
	Selected      float64           `json:"selected_meters"`
	Confirmed     *float64          `json:"confirmed_meters,omitempty"`
	CustomKm      selection.KmRange `json:"custom_km"`
}

// ShowBufferControls offers the buffer distances. Buffers only apply to drawn
// areas, so a select-mode session gets a message and nil.
func (s *Session) ShowBufferControls() *BufferControls {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := selection.Load(s.store)
	if state.Mode != selection.ModeUnset && state.Mode != selection.ModeDraw {
		s.sink.Message(MsgBufferDrawOnly)
		return nil
	}

	labels := make([]string, 0, len(s.opts.BufferPresets)+1)
	for _, m := range s.opts.BufferPresets {
		labels = append(labels, presetLabel(m))
	}
	labels = append(labels, fmt.Sprintf("CUSTOM (km, maximum %gkm)", s.opts.CustomKm.Max))
	s.sink.Message("Buffer Distance: " + strings.Join(labels, ", "))

	return &BufferControls{
		PresetsMeters: append([]float64(nil), s.opts.BufferPresets...),
		Selected:      state.BufferDistance,
		Confirmed:     state.ConfirmedBufferDistance,
		CustomKm:      s.opts.CustomKm,
	}
}

func presetLabel(m float64) string {
	if m >= 1000 {
		return strconv.FormatFloat(m/1000, 'f', -1, 64) + "km"
	}
	return strconv.FormatFloat(m, 'f', -1, 64) + "m"
}

// SelectBufferDistance handles picking a preset distance in meters.
func (s *Session) SelectBufferDistance(meters float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.transition("select buffer distance", func(st selection.State) (selection.State, error) {
		return selection.SelectBufferDistance(st, meters)
	})
	return err
}

// SetCustomBufferKm handles a custom distance entry in kilometers.
func (s *Session) SetCustomBufferKm(km float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.transition("custom buffer distance", func(st selection.State) (selection.State, error) {
		return selection.SetCustomBufferKm(st, km, s.opts.CustomKm)
	})
	return err
}

// ConfirmBufferDistance handles the "confirm buffer distance" button.
func (s *Session) ConfirmBufferDistance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.transition("confirm buffer distance", selection.ConfirmBufferDistance)
	return err
}

// ShowActiveBufferDistance reports the buffer distance currently set.
func (s *Session) ShowActiveBufferDistance() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	text := MsgBufferNotSelected
	if d := selection.Load(s.store).BufferDistance; d != 0 {
		text = fmt.Sprintf("%s km (%s meters)",
			strconv.FormatFloat(d/1000, 'f', -1, 64),
			strconv.FormatFloat(d, 'f', -1, 64),
		)
	}
	msg := "Buffer distance: " + text
	s.sink.Message(msg)
	return msg
}

// BufferPreview is a buffered geometry awaiting confirmation. It does not
// change the selection until confirmed.
type BufferPreview struct {
	Mode     buffer.Mode
	Distance float64
	// Geometry is WGS84.
	Geometry geom.T

	session *Session
}

// Confirm makes the buffered geometry the drawn selection.
func (p *BufferPreview) Confirm() error {
	if p == nil || p.session == nil {
		return ErrNoBufferPreview
	}
	p.session.mu.Lock()
	defer p.session.mu.Unlock()
	return p.session.confirm(p)
}

// ApplyBufferIncluding buffers the drawn area, keeping the area itself.
func (s *Session) ApplyBufferIncluding(ctx context.Context) (*BufferPreview, error) {
	return s.applyBuffer(ctx, buffer.Include)
}

// ApplyBufferExcluding buffers the drawn area and removes the area itself,
// leaving a ring.
func (s *Session) ApplyBufferExcluding(ctx context.Context) (*BufferPreview, error) {
	return s.applyBuffer(ctx, buffer.Exclude)
}

// ConfirmBuffer confirms the most recent buffer preview.
func (s *Session) ConfirmBuffer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preview == nil {
		return ErrNoBufferPreview
	}
	return s.confirm(s.preview)
}

// Preview returns the most recent unconfirmed buffer preview, or nil.
func (s *Session) Preview() *BufferPreview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview
}

func (s *Session) applyBuffer(ctx context.Context, mode buffer.Mode) (*BufferPreview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := selection.Load(s.store)
	area, err := selection.Resolve(state, s.catalog.Active())
	if err != nil {
		return nil, err
	}
	if area == nil {
		s.sink.Message(MsgNoAreaOrBuffer)
		return nil, nil
	}
	if state.Mode != selection.ModeDraw {
		s.sink.Message(MsgBufferDrawOnly)
		return nil, nil
	}
	g, ok := area.FirstGeometry()
	if !ok {
		s.sink.Message(MsgNoArea)
		return nil, nil
	}

	var preview *BufferPreview
	bar := s.sink.Progress("Generating Buffer Map ...")
	err = progress.Run(ctx, bar, s.opts.ProgressInterval, func(context.Context) error {
		out, err := s.engine.Apply(g, state.BufferDistance, mode)
		if err != nil {
			return err
		}
		preview = &BufferPreview{Mode: mode, Distance: state.BufferDistance, Geometry: out, session: s}
		s.sink.Map(bufferMap(area, preview))
		return nil
	})
	if err != nil {
		s.sink.Message("Buffer not applied: " + err.Error())
		return nil, err
	}

	s.preview = preview
	zap.L().Info("session: buffer previewed",
		zap.Stringer("mode", mode),
		zap.Float64("meters", state.BufferDistance),
	)
	return preview, nil
}

func bufferMap(area *selection.Area, p *BufferPreview) display.MapView {
	hover := display.HoverStyle
	var layers []display.Layer
	if p.Mode == buffer.Include {
		layers = append(layers, display.Layer{
			Name:       "Selected Area",
			Style:      display.FeatureStyle,
			HoverStyle: &hover,
			Features:   area.FeatureCollection(),
		})
	}
	style, name, help := display.IncludeStyle, "Buffer Area", MsgIncludeHelp
	if p.Mode == buffer.Exclude {
		style, name, help = display.ExcludeStyle, "Buffer B Area", MsgExcludeHelp
	}
	layers = append(layers, display.Layer{
		Name:       name,
		Style:      style,
		HoverStyle: &hover,
		Features:   geomio.Collection(p.Geometry),
	})

	v := display.NewMapView("", 10, layers...)
	v.Instructions = help
	v.Buttons = []string{ButtonConfirmBuffer}
	return v
}

func (s *Session) confirm(p *BufferPreview) error {
	if p.session != s {
		return eris.Wrap(ErrNoBufferPreview, "session: preview belongs to another session")
	}
	enc, err := geomio.ToGeoJSON(p.Geometry)
	if err != nil {
		return err
	}
	if _, err := s.transition("confirm buffer", func(st selection.State) (selection.State, error) {
		return selection.ConfirmBuffer(st, enc)
	}); err != nil {
		return err
	}
	if s.preview == p {
		s.preview = nil
	}
	s.sink.Message(MsgBufferConfirmed)
	return nil
}
