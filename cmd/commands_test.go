package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/livingwales/areaselect/internal/buffer"
	"github.com/livingwales/areaselect/internal/catalog"
	"github.com/livingwales/areaselect/internal/catalog/catalogtest"
)

const drawnPolygon = `{"type":"Polygon","coordinates":[[[-4.0,52.0],[-4.0,52.01],[-3.99,52.01],[-3.99,52.0],[-4.0,52.0]]]}`

type fixture struct {
	root    string
	uploads string
	siteA   string
	drawn   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	f := fixture{
		root:    filepath.Join(base, "welsh_areas"),
		uploads: filepath.Join(base, "uploads"),
		drawn:   filepath.Join(base, "drawn.geojson"),
	}
	f.siteA = catalogtest.SiteA(t, f.uploads)
	catalogtest.WritePolygons(t, filepath.Join(f.root, "1_Local_authorities"), "ceredigion.shp", "NAME", []catalogtest.Row{
		{Name: "Ceredigion", Ring: catalogtest.Square(-4.5, 52.0, 0.5)},
	})
	require.NoError(t, os.MkdirAll(filepath.Join(f.root, "3_Draw_an_area"), 0o755))
	require.NoError(t, os.WriteFile(f.drawn, []byte(drawnPolygon), 0o644))
	return f
}

func (f fixture) args(args ...string) []string {
	return append(args, "--root", f.root, "--uploads", f.uploads)
}

type areaJSON struct {
	Source       string  `json:"source"`
	Label        string  `json:"label"`
	Count        int     `json:"count"`
	AreaHectares float64 `json:"area_hectares"`
}

// ---------------------------------------------------------------------------
// groups / shapefiles / features
// ---------------------------------------------------------------------------

func TestGroupsCommand_JSON(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, f.args("groups", "-o", "json")...)
	require.NoError(t, err)

	var groups []catalog.Group
	require.NoError(t, json.Unmarshal([]byte(out), &groups))
	require.Len(t, groups, 3)
	assert.Equal(t, "User uploads", groups[0].Name)
	assert.True(t, groups[0].Uploads)

	names := []string{groups[1].Name, groups[2].Name}
	assert.ElementsMatch(t, []string{"1 Local authorities", "3 Draw an area"}, names)
}

func TestGroupsCommand_Table(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, f.args("groups")...)
	require.NoError(t, err)
	assert.Contains(t, out, "GROUP")
	assert.Contains(t, out, "User uploads")
	assert.Contains(t, out, "3 Draw an area")
}

func TestShapefilesCommand(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, f.args("shapefiles", "User uploads")...)
	require.NoError(t, err)
	assert.Contains(t, out, "site a")
	assert.Contains(t, out, f.siteA)

	_, err = execute(t, f.args("shapefiles", "Nowhere")...)
	assert.Error(t, err)
}

func TestFeaturesCommand_NameFilter(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "features", f.siteA, "--name", "North", "-o", "json")
	require.NoError(t, err)

	var fc struct {
		Features []struct {
			ID         string         `json:"id"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &fc))
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "0", fc.Features[0].ID)
	assert.Equal(t, "2", fc.Features[1].ID)
	assert.Equal(t, "North", fc.Features[1].Properties["name"])
}

func TestFeaturesCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "features", filepath.Join(t.TempDir(), "nope.shp"))
	var loadErr *catalog.DataLoadError
	assert.ErrorAs(t, err, &loadErr)
}

// ---------------------------------------------------------------------------
// resolve
// ---------------------------------------------------------------------------

func TestResolveCommand_ByID(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "resolve", "--shapefile", f.siteA, "--id", "2", "-o", "json")
	require.NoError(t, err)

	var area areaJSON
	require.NoError(t, json.Unmarshal([]byte(out), &area))
	assert.Equal(t, "feature", area.Source)
	assert.Equal(t, "North", area.Label)
	assert.Equal(t, 1, area.Count)
}

func TestResolveCommand_AllWithName(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "resolve", "--shapefile", f.siteA, "--all", "--name", "North", "-o", "json")
	require.NoError(t, err)

	var area areaJSON
	require.NoError(t, json.Unmarshal([]byte(out), &area))
	assert.Equal(t, "all", area.Source)
	assert.Equal(t, 2, area.Count)
}

func TestResolveCommand_DrawnYAML(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "resolve", "--geojson", f.drawn, "-o", "yaml")
	require.NoError(t, err)

	var area map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &area))
	assert.Equal(t, "drawn", area["source"])
	assert.Equal(t, 1, area["count"])
	assert.Contains(t, area, "features")
}

func TestResolveCommand_NothingSelected(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "resolve", "--shapefile", f.siteA, "-o", "json")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestResolveCommand_RequiresInput(t *testing.T) {
	_, err := execute(t, "resolve")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// buffer
// ---------------------------------------------------------------------------

func TestBufferCommand_Exclude(t *testing.T) {
	f := newFixture(t)

	drawnOut, err := execute(t, "resolve", "--geojson", f.drawn, "-o", "json")
	require.NoError(t, err)
	var drawn areaJSON
	require.NoError(t, json.Unmarshal([]byte(drawnOut), &drawn))
	resetFlags(rootCmd)

	out, err := execute(t, "buffer", "--geojson", f.drawn, "--km", "1", "--mode", "exclude", "-o", "json")
	require.NoError(t, err)

	var ring areaJSON
	require.NoError(t, json.Unmarshal([]byte(out), &ring))
	assert.Equal(t, "drawn", ring.Source)
	assert.Equal(t, "exclude buffer 1000 m", ring.Label)
	assert.Greater(t, ring.AreaHectares, drawn.AreaHectares)
}

func TestBufferCommand_NegativeDistance(t *testing.T) {
	f := newFixture(t)

	_, err := execute(t, "buffer", "--geojson", f.drawn, "--meters=-10")
	assert.ErrorIs(t, err, buffer.ErrInvalidParameter)
}

func TestBufferCommand_UnknownMode(t *testing.T) {
	f := newFixture(t)

	_, err := execute(t, "buffer", "--geojson", f.drawn, "--mode", "sideways")
	assert.ErrorIs(t, err, buffer.ErrInvalidParameter)
}
