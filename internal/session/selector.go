package session

import (
	"errors"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/livingwales/areaselect/internal/catalog"
	"github.com/livingwales/areaselect/internal/selection"
)

// ErrUnknownOption is returned when a selector choice is not one of the
// options on offer.
var ErrUnknownOption = eris.New("session: unknown option")

// Selector is the cascade of dropdowns: dataset group, shapefile within it,
// polygon name within the loaded shapefile.
type Selector struct {
	Groups     []catalog.Group     `json:"groups"`
	Group      string              `json:"group"`
	Shapefiles []catalog.Shapefile `json:"shapefiles"`
	Shapefile  string              `json:"shapefile"`
	Polygons   []string            `json:"polygons"`
	// Polygon is the chosen polygon name; nil means all polygons.
	Polygon *string `json:"polygon"`
}

func (sel Selector) clone() Selector {
	out := sel
	out.Groups = append([]catalog.Group(nil), sel.Groups...)
	out.Shapefiles = append([]catalog.Shapefile(nil), sel.Shapefiles...)
	out.Polygons = append([]string(nil), sel.Polygons...)
	if sel.Polygon != nil {
		p := *sel.Polygon
		out.Polygon = &p
	}
	return out
}

// PolygonName returns the chosen polygon name or "All".
func (sel Selector) PolygonName() string {
	if sel.Polygon == nil {
		return "All"
	}
	return *sel.Polygon
}

// Selector returns a snapshot of the dropdown state.
func (s *Session) Selector() Selector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSelector()
}

func (s *Session) currentSelector() Selector {
	if s.selector == nil {
		return Selector{}
	}
	return s.selector.clone()
}

// StartAreaSelection offers the dataset groups, selects the first one (the
// uploads group) and loads its first shapefile. Problems are reported as
// messages; the returned selector always holds whatever options are usable.
func (s *Session) StartAreaSelection() Selector {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups, err := s.catalog.ListDatasetGroups()
	if err != nil {
		var cfgErr *catalog.ConfigurationError
		if errors.As(err, &cfgErr) {
			zap.L().Warn("session: dataset root unavailable", zap.String("root", cfgErr.Root), zap.Error(err))
			s.sink.Message("No dataset groups found: " + err.Error())
		}
		opts := s.catalog.Options()
		groups = []catalog.Group{{Name: opts.UploadsLabel, Path: opts.UploadsDir, Uploads: true}}
	}

	s.selector = &Selector{Groups: groups}
	s.preview = nil
	// The uploads group is always first.
	_ = s.chooseGroup(groups[0].Name)
	return s.currentSelector()
}

// ChooseGroup selects a dataset group and loads its first shapefile.
func (s *Session) ChooseGroup(name string) (Selector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selector == nil {
		return Selector{}, eris.Wrap(ErrUnknownOption, "session: area selection not started")
	}
	err := s.chooseGroup(name)
	return s.currentSelector(), err
}

// ChooseShapefile loads a shapefile of the current group by display name.
func (s *Session) ChooseShapefile(name string) (Selector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selector == nil {
		return Selector{}, eris.Wrap(ErrUnknownOption, "session: area selection not started")
	}
	err := s.chooseShapefile(name)
	return s.currentSelector(), err
}

// ChoosePolygon picks a polygon name from the loaded shapefile. Nil selects
// all polygons.
func (s *Session) ChoosePolygon(name *string) (Selector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selector == nil {
		return Selector{}, eris.Wrap(ErrUnknownOption, "session: area selection not started")
	}
	if name != nil && !slices.Contains(s.selector.Polygons, *name) {
		return s.currentSelector(), eris.Wrapf(ErrUnknownOption, "session: polygon %q", *name)
	}
	if _, err := s.transition("choose polygon", func(st selection.State) (selection.State, error) {
		return selection.ChooseDropdown(st, name)
	}); err != nil {
		return s.currentSelector(), err
	}
	s.selector.Polygon = nil
	if name != nil {
		v := *name
		s.selector.Polygon = &v
	}
	return s.currentSelector(), nil
}

// ResetSelector returns the dropdowns to the uploads group.
func (s *Session) ResetSelector() Selector {
	return s.StartAreaSelection()
}

func (s *Session) chooseGroup(name string) error {
	var group *catalog.Group
	for i := range s.selector.Groups {
		if s.selector.Groups[i].Name == name {
			group = &s.selector.Groups[i]
			break
		}
	}
	if group == nil {
		return eris.Wrapf(ErrUnknownOption, "session: group %q", name)
	}

	if _, err := s.transition("choose group", func(st selection.State) (selection.State, error) {
		return selection.ChooseGroup(st, group.Name)
	}); err != nil {
		return err
	}
	s.selector.Group = group.Name
	s.selector.Shapefiles = nil
	s.selector.Shapefile = ""
	s.selector.Polygons = nil
	s.selector.Polygon = nil
	s.catalog.Clear()

	files, err := s.catalog.ListShapefiles(group.Path)
	if err != nil {
		s.sink.Message("Could not list shapefiles: " + err.Error())
		return err
	}
	s.selector.Shapefiles = files
	if len(files) == 0 {
		return nil
	}
	return s.chooseShapefile(files[0].Name)
}

func (s *Session) chooseShapefile(name string) error {
	var file *catalog.Shapefile
	for i := range s.selector.Shapefiles {
		if s.selector.Shapefiles[i].Name == name {
			file = &s.selector.Shapefiles[i]
			break
		}
	}
	if file == nil {
		return eris.Wrapf(ErrUnknownOption, "session: shapefile %q", name)
	}

	s.selector.Shapefile = file.Name
	s.selector.Polygons = nil
	s.selector.Polygon = nil
	if _, err := s.transition("choose shapefile", func(st selection.State) (selection.State, error) {
		return selection.ChooseDropdown(st, nil)
	}); err != nil {
		return err
	}

	ds, err := s.catalog.Activate(file.Path)
	if err != nil {
		zap.L().Warn("session: shapefile failed to load", zap.String("path", file.Path), zap.Error(err))
		s.sink.Message("Could not load " + file.Name + ": " + err.Error())
		return err
	}
	s.selector.Polygons = ds.Names()
	return nil
}
