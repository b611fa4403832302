// Package catalogtest writes shapefile fixtures for tests.
package catalogtest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
)

// BritishNationalGridPRJ is the ESRI WKT for EPSG:27700.
const BritishNationalGridPRJ = `PROJCS["British_National_Grid",GEOGCS["GCS_OSGB_1936",DATUM["D_OSGB_1936",SPHEROID["Airy_1830",6377563.396,299.3249646]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],PARAMETER["False_Easting",400000.0],PARAMETER["False_Northing",-100000.0],PARAMETER["Central_Meridian",-2.0],PARAMETER["Scale_Factor",0.9996012717],PARAMETER["Latitude_Of_Origin",49.0],UNIT["Meter",1.0]]`

// Row is one polygon feature with a name attribute.
type Row struct {
	Name string
	// Ring is a closed, clockwise outer ring.
	Ring []shp.Point
}

// Square returns a clockwise closed ring for the axis-aligned square with
// lower-left corner (x, y).
func Square(x, y, size float64) []shp.Point {
	return []shp.Point{
		{X: x, Y: y},
		{X: x, Y: y + size},
		{X: x + size, Y: y + size},
		{X: x + size, Y: y},
		{X: x, Y: y},
	}
}

// WritePolygons writes a polygon shapefile with a single string attribute
// column and returns its path.
func WritePolygons(t *testing.T, dir, file, column string, rows []Row) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, file)

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField(column, 32)}))

	for _, r := range rows {
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{r.Ring}))
		n := w.Write(&poly)
		require.NoError(t, w.WriteAttribute(int(n), 0, r.Name))
	}
	w.Close()

	// The writer names the attribute table "<base>dbf", without the dot.
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if _, err := os.Stat(base + "dbf"); err == nil {
		require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	}
	require.FileExists(t, base+".dbf")
	return path
}

// WritePRJ writes the .prj sidecar for a shapefile path.
func WritePRJ(t *testing.T, shpPath, wkt string) {
	t.Helper()
	prj := shpPath[:len(shpPath)-len(filepath.Ext(shpPath))] + ".prj"
	require.NoError(t, os.WriteFile(prj, []byte(wkt), 0o644))
}

// SiteA writes the "site_a.shp" fixture: three polygons named North, South,
// North near Aberystwyth.
func SiteA(t *testing.T, dir string) string {
	t.Helper()
	return WritePolygons(t, dir, "site_a.shp", "name", []Row{
		{Name: "North", Ring: Square(-4.10, 52.42, 0.01)},
		{Name: "South", Ring: Square(-4.10, 52.40, 0.01)},
		{Name: "North", Ring: Square(-4.08, 52.42, 0.01)},
	})
}
