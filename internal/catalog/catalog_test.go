package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/livingwales/areaselect/internal/catalog/catalogtest"
	"github.com/livingwales/areaselect/internal/crs"
	"github.com/livingwales/areaselect/internal/geomio"
)

func newTestCatalog(t *testing.T) (*Catalog, string, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "welsh_areas")
	uploads := filepath.Join(t.TempDir(), "uploads")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.MkdirAll(uploads, 0o755))
	return New(Options{Root: root, UploadsDir: uploads}), root, uploads
}

// ---------------------------------------------------------------------------
// ListDatasetGroups
// ---------------------------------------------------------------------------

func TestListDatasetGroups_UploadsFirst(t *testing.T) {
	c, root, uploads := newTestCatalog(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "national_parks"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sssi_sites"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.txt"), []byte("x"), 0o644))

	groups, err := c.ListDatasetGroups()
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, Group{Name: "User uploads", Path: uploads, Uploads: true}, groups[0])

	names := []string{groups[1].Name, groups[2].Name}
	assert.ElementsMatch(t, []string{"national parks", "sssi sites"}, names)
	for _, g := range groups[1:] {
		assert.Equal(t, root, filepath.Dir(g.Path))
		assert.False(t, g.Uploads)
	}
}

func TestListDatasetGroups_MissingRoot(t *testing.T) {
	c := New(Options{Root: filepath.Join(t.TempDir(), "missing")})

	groups, err := c.ListDatasetGroups()
	require.Error(t, err)
	assert.Nil(t, groups)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Root, "missing")
}

func TestListDatasetGroups_EmptyRoot(t *testing.T) {
	c, _, _ := newTestCatalog(t)

	groups, err := c.ListDatasetGroups()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].Uploads)
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{})
	assert.Equal(t, DefaultUploadsLabel, c.Options().UploadsLabel)
	assert.True(t, c.IsDrawGroup("3. Draw an area"))
	assert.False(t, c.IsDrawGroup("national parks"))
}

// ---------------------------------------------------------------------------
// ListShapefiles
// ---------------------------------------------------------------------------

func TestListShapefiles_DisplayNames(t *testing.T) {
	c, _, uploads := newTestCatalog(t)
	catalogtest.SiteA(t, uploads)
	catalogtest.WritePolygons(t, uploads, "Coastal_Zones.shp", "NAME", []catalogtest.Row{
		{Name: "Bay", Ring: catalogtest.Square(-4.2, 52.3, 0.01)},
	})

	files, err := c.ListShapefiles(uploads)
	require.NoError(t, err)
	require.Len(t, files, 2)

	byName := map[string]string{}
	for _, f := range files {
		byName[f.Name] = f.Path
	}
	assert.Equal(t, filepath.Join(uploads, "site_a.shp"), byName["site a"])
	assert.Equal(t, filepath.Join(uploads, "Coastal_Zones.shp"), byName["coastal zones"])
}

func TestListShapefiles_EmptyAndMissing(t *testing.T) {
	c, root, _ := newTestCatalog(t)

	files, err := c.ListShapefiles(root)
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = c.ListShapefiles(filepath.Join(root, "nope"))
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = c.ListShapefiles("")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestShapefileDisplayName(t *testing.T) {
	assert.Equal(t, "site a", ShapefileDisplayName("/x/site_a.shp"))
	assert.Equal(t, "national park boundaries", ShapefileDisplayName("National_Park_Boundaries.shp"))
}

// ---------------------------------------------------------------------------
// LoadDataset
// ---------------------------------------------------------------------------

func TestLoadDataset_AssignsRowOrderIDs(t *testing.T) {
	dir := t.TempDir()
	path := catalogtest.SiteA(t, dir)

	ds, err := LoadDataset(path)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	for i, f := range ds.Features {
		assert.Equal(t, i, f.ID)
	}
	assert.Equal(t, "North", ds.Features[0].Attributes["name"])
	assert.Equal(t, "South", ds.Features[1].Attributes["name"])
	assert.Equal(t, "North", ds.Features[2].Attributes["name"])
	assert.Equal(t, "name", ds.NameColumn)
	assert.Equal(t, crs.WGS84, ds.SourceCRS)
}

func TestLoadDataset_RepeatedLoadsAreIdentical(t *testing.T) {
	path := catalogtest.SiteA(t, t.TempDir())

	first, err := LoadDataset(path)
	require.NoError(t, err)
	second, err := LoadDataset(path)
	require.NoError(t, err)

	require.Equal(t, first.Len(), second.Len())
	for i := range first.Features {
		assert.Equal(t, first.Features[i].ID, second.Features[i].ID)
		assert.Equal(t, first.Features[i].Attributes, second.Features[i].Attributes)
		assert.Equal(t, first.Features[i].Geometry.FlatCoords(), second.Features[i].Geometry.FlatCoords())
	}
}

func TestLoadDataset_GeometryIsPolygon(t *testing.T) {
	path := catalogtest.SiteA(t, t.TempDir())

	ds, err := LoadDataset(path)
	require.NoError(t, err)

	poly, ok := ds.Features[0].Geometry.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, 1, poly.NumLinearRings())
	assert.InDelta(t, -4.10, poly.FlatCoords()[0], 1e-12)
	assert.InDelta(t, 52.42, poly.FlatCoords()[1], 1e-12)
}

func TestLoadDataset_AreasArePositive(t *testing.T) {
	path := catalogtest.SiteA(t, t.TempDir())

	ds, err := LoadDataset(path)
	require.NoError(t, err)

	for _, f := range ds.Features {
		poly := f.Geometry.(*geom.Polygon)
		assert.Greater(t, poly.Area(), 0.0, "feature %d shell is not counter-clockwise", f.ID)

		ha, err := geomio.AreaHectares(f.Geometry)
		require.NoError(t, err)
		assert.InDelta(t, 203, ha, 2)
	}
}

func TestLoadDataset_NameColumnFallback(t *testing.T) {
	path := catalogtest.WritePolygons(t, t.TempDir(), "sites.shp", "SITE_NAME", []catalogtest.Row{
		{Name: "Cors Fochno", Ring: catalogtest.Square(-4.0, 52.5, 0.01)},
	})

	ds, err := LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, "SITE_NAME", ds.NameColumn)
	assert.Equal(t, []string{"Cors Fochno"}, ds.Names())
}

func TestLoadDataset_NoNameColumn(t *testing.T) {
	path := catalogtest.WritePolygons(t, t.TempDir(), "codes.shp", "CODE", []catalogtest.Row{
		{Name: "A1", Ring: catalogtest.Square(-4.0, 52.5, 0.01)},
	})

	ds, err := LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, "", ds.NameColumn)
	assert.Nil(t, ds.Names())
	assert.True(t, ds.FilterByName("A1").Empty())
}

func TestLoadDataset_BritishNationalGrid(t *testing.T) {
	dir := t.TempDir()
	path := catalogtest.WritePolygons(t, dir, "cardiff.shp", "name", []catalogtest.Row{
		{Name: "Cardiff", Ring: catalogtest.Square(318000, 176000, 1000)},
	})
	catalogtest.WritePRJ(t, path, catalogtest.BritishNationalGridPRJ)

	ds, err := LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, crs.BritishNationalGrid, ds.SourceCRS)

	b := ds.Bounds()
	require.NotNil(t, b)
	assert.InDelta(t, -3.18, b.Min(0), 0.05)
	assert.InDelta(t, 51.48, b.Min(1), 0.05)
}

func TestLoadDataset_UnsupportedPRJ(t *testing.T) {
	path := catalogtest.SiteA(t, t.TempDir())
	catalogtest.WritePRJ(t, path, `PROJCS["RGF93_Lambert_93"]`)

	_, err := LoadDataset(path)
	var loadErr *DataLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, path, loadErr.Path)
}

func TestLoadDataset_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.shp")
	require.NoError(t, os.WriteFile(path, []byte("not a shapefile"), 0o644))

	ds, err := LoadDataset(path)
	assert.Nil(t, ds)
	var loadErr *DataLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, err.Error(), "broken.shp")
}

func TestLoadDataset_Missing(t *testing.T) {
	_, err := LoadDataset(filepath.Join(t.TempDir(), "gone.shp"))
	var loadErr *DataLoadError
	assert.True(t, errors.As(err, &loadErr))
}

// ---------------------------------------------------------------------------
// Activate
// ---------------------------------------------------------------------------

func TestActivate_ReplacesWholesale(t *testing.T) {
	c, _, uploads := newTestCatalog(t)
	a := catalogtest.SiteA(t, uploads)
	b := catalogtest.WritePolygons(t, uploads, "other.shp", "name", []catalogtest.Row{
		{Name: "Only", Ring: catalogtest.Square(-3.0, 52.0, 0.01)},
	})

	_, err := c.Activate(a)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Active().Len())

	_, err = c.Activate(b)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Active().Len())
	assert.Equal(t, 0, c.Active().Features[0].ID)
}

func TestActivate_FailureClearsActive(t *testing.T) {
	c, _, uploads := newTestCatalog(t)
	_, err := c.Activate(catalogtest.SiteA(t, uploads))
	require.NoError(t, err)

	bad := filepath.Join(uploads, "bad.shp")
	require.NoError(t, os.WriteFile(bad, []byte("junk"), 0o644))

	_, err = c.Activate(bad)
	require.Error(t, err)
	assert.Nil(t, c.Active())
}
