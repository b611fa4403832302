package session

import (
	"context"
	"fmt"

	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/livingwales/areaselect/internal/catalog"
	"github.com/livingwales/areaselect/internal/display"
	"github.com/livingwales/areaselect/internal/progress"
	"github.com/livingwales/areaselect/internal/selection"
)

// User-facing messages.
const (
	MsgNoDataset        = "No dataset loaded. Choose a shapefile first."
	MsgNoArea           = "No area selected."
	MsgUnknownGroup     = "Unidentified Area Selection Type"
	MsgAllSelected      = "All polygons currently selected"
	MsgSelectMapHelp    = "To use entire areas shown, please click 'USE ALL POLYGONS'. If you want to select a specific polygon please click on the map and wait for the 'Selected Polygon' confirmation."
	MsgDrawMapHelp      = "Draw an area on the map below within the highlighted boundary, to select it."
	MsgConfirmAreaHelp  = "If you are happy with this AREA please confirm before continuing"
	ButtonUseAll        = "USE ALL POLYGONS"
	ButtonConfirmBuffer = "CONFIRM BUFFER"
)

// GetSelectedDataset returns the features of the loaded shapefile matching
// the selector's polygon name, or all of them when no name is chosen.
func (s *Session) GetSelectedDataset(sel Selector) *catalog.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedDataset(sel)
}

func (s *Session) selectedDataset(sel Selector) *catalog.Dataset {
	ds := s.catalog.Active()
	if ds == nil {
		s.sink.Message(MsgNoDataset)
		return nil
	}
	if sel.Polygon != nil {
		return ds.FilterByName(*sel.Polygon)
	}
	return ds
}

// PlotSelection shows a static plot of the selector's features and reports
// their total area.
func (s *Session) PlotSelection(ctx context.Context, sel Selector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds := s.selectedDataset(sel)
	if ds == nil {
		return nil
	}
	bar := s.sink.Progress("Generating Plot ...")
	return progress.Run(ctx, bar, s.opts.ProgressInterval, func(context.Context) error {
		area := &selection.Area{Source: selection.SourceAll, Label: sel.PolygonName(), Features: ds}
		ha, err := area.AreaHectares()
		if err != nil {
			return err
		}
		s.sink.Plot(display.PlotView{
			Title:        fmt.Sprintf("Site Visualization (%s)", sel.PolygonName()),
			XLabel:       "Longitude",
			YLabel:       "Latitude",
			Style:        display.Style{Color: "black", FillColor: "blue", Opacity: 1, Weight: 1, FillOpacity: 1},
			Features:     ds.FeatureCollection(),
			AreaHectares: ha,
			NorthArrow:   true,
		})
		s.sink.Message(fmt.Sprintf("Total area: %.2f ha", ha))
		return nil
	})
}

// StartMapSelection shows an interactive map for the selector's features.
// Groups whose name ends with the draw suffix open a drawing map; others open
// a map whose features can be clicked. Starting again abandons any
// in-progress interaction; state is not rolled back.
func (s *Session) StartMapSelection(ctx context.Context, sel Selector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := selection.Load(s.store)
	if state.Group == "" {
		s.sink.Message(MsgUnknownGroup)
		return nil
	}

	draw := s.catalog.IsDrawGroup(state.Group)
	var ds *catalog.Dataset
	if s.catalog.Active() != nil {
		ds = s.selectedDataset(sel)
	}
	if !draw && ds.Empty() {
		s.sink.Message(MsgNoDataset)
		return nil
	}

	mode := selection.ModeSelect
	if draw {
		mode = selection.ModeDraw
	}
	if _, err := s.transition("start map selection", func(st selection.State) (selection.State, error) {
		return selection.StartSelection(st, mode)
	}); err != nil {
		return err
	}
	s.preview = nil

	zap.L().Info("session: map selection started",
		zap.String("group", state.Group),
		zap.Stringer("mode", mode),
		zap.Int("features", ds.Len()),
	)

	bar := s.sink.Progress("Generating Interactive Map ...")
	return progress.Run(ctx, bar, s.opts.ProgressInterval, func(context.Context) error {
		if draw {
			s.sink.Map(drawMap(ds))
		} else {
			s.sink.Map(selectMap(ds))
		}
		return nil
	})
}

func selectMap(ds *catalog.Dataset) display.MapView {
	hover := display.HoverStyle
	v := display.NewMapView("", 10, display.Layer{
		Name:       "Boundary",
		Style:      display.FeatureStyle,
		HoverStyle: &hover,
		Features:   ds.FeatureCollection(),
		Clickable:  true,
	})
	v.Instructions = MsgSelectMapHelp
	v.Buttons = []string{ButtonUseAll}
	v.Footer = MsgAllSelected
	return v
}

func drawMap(ds *catalog.Dataset) display.MapView {
	var layers []display.Layer
	if !ds.Empty() {
		layers = append(layers, display.Layer{
			Name:     "Boundary",
			Style:    display.BoundaryStyle,
			Features: ds.FeatureCollection(),
		})
	}
	v := display.NewMapView("", 8, layers...)
	v.Instructions = MsgDrawMapHelp
	v.DrawControl = true
	shape := display.DrawShape
	v.DrawShapes = &shape
	return v
}

// PickDrawTool handles the user picking a drawing tool on the map.
func (s *Session) PickDrawTool() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.transition("pick draw tool", selection.PickDrawTool)
	return err
}

// ClickFeature handles a click on a rendered feature.
func (s *Session) ClickFeature(click selection.FeatureClick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.transition("click feature", func(st selection.State) (selection.State, error) {
		return selection.ClickFeature(st, click)
	})
	if err != nil {
		return err
	}
	s.sink.Message(fmt.Sprintf("Selected Polygon: %v", next.FeatureProperties))
	return nil
}

// UseAll handles the "use all polygons" button.
func (s *Session) UseAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.transition("use all", selection.UseAll); err != nil {
		return err
	}
	s.sink.Message(MsgAllSelected)
	return nil
}

// FinishDrawing handles a completed shape from the drawing tool.
func (s *Session) FinishDrawing(g *geojson.Geometry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.transition("finish drawing", func(st selection.State) (selection.State, error) {
		return selection.FinishDrawing(st, g)
	}); err != nil {
		return err
	}
	s.sink.Message("Selected area: " + g.Type)
	return nil
}

// GetConfirmedSelection resolves the current selection. A nil area means
// nothing is selected; the user is told how to select one.
func (s *Session) GetConfirmedSelection() (*selection.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolve()
}

func (s *Session) resolve() (*selection.Area, error) {
	area, err := selection.Resolve(selection.Load(s.store), s.catalog.Active())
	if err != nil {
		return nil, err
	}
	if area == nil {
		s.sink.Message(selection.HintNothingSelected)
	}
	return area, nil
}

// ShowSelectionOnMap maps the current selection for visual confirmation.
func (s *Session) ShowSelectionOnMap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	area, err := selection.Resolve(selection.Load(s.store), s.catalog.Active())
	if err != nil {
		return err
	}
	if area == nil || area.Len() == 0 {
		s.sink.Message(MsgNoArea)
		return nil
	}

	bar := s.sink.Progress("Generating Map ...")
	return progress.Run(ctx, bar, s.opts.ProgressInterval, func(context.Context) error {
		hover := display.HoverStyle
		if area.Source == selection.SourceDrawn {
			ha, err := area.AreaHectares()
			if err != nil {
				return err
			}
			v := display.NewMapView("", 10, display.Layer{
				Name:       "Selected Area",
				Style:      display.FeatureStyle,
				HoverStyle: &hover,
				Features:   area.FeatureCollection(),
			})
			v.Instructions = MsgConfirmAreaHelp
			v.Footer = fmt.Sprintf("Selected area: %.2f hectares", ha)
			s.sink.Map(v)
			return nil
		}
		s.sink.Map(display.NewMapView(area.Label, 10, display.Layer{
			Name:       "AREA Selection",
			Style:      display.AreaStyle,
			HoverStyle: &hover,
			Features:   area.FeatureCollection(),
		}))
		return nil
	})
}
