package catalog

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/livingwales/areaselect/internal/crs"
)

// LoadDataset reads a shapefile into memory. Features get identifiers 0..n-1
// in row order; geometries are reprojected to WGS84 according to the .prj
// sidecar (no sidecar means WGS84). Any read failure is a *DataLoadError and no
// partial dataset is returned.
func LoadDataset(path string) (*Dataset, error) {
	source, err := readPRJ(path)
	if err != nil {
		return nil, &DataLoadError{Path: path, Err: err}
	}
	toWGS84, err := crs.Transformer(source, crs.WGS84)
	if err != nil {
		return nil, &DataLoadError{Path: path, Err: err}
	}

	if err := checkHeader(path); err != nil {
		return nil, &DataLoadError{Path: path, Err: err}
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, &DataLoadError{Path: path, Err: eris.Wrap(err, "open shapefile")}
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = strings.TrimRight(f.String(), "\x00")
	}

	ds := &Dataset{
		Path:       path,
		Columns:    columns,
		NameColumn: detectNameColumn(columns),
		SourceCRS:  source,
	}

	var nullShapes int
	for reader.Next() {
		_, shape := reader.Shape()

		attrs := make(map[string]string, len(columns))
		for i, col := range columns {
			val := strings.TrimRight(reader.Attribute(i), "\x00")
			attrs[col] = strings.TrimSpace(val)
		}

		g := shapeToGeom(shape)
		if g == nil {
			nullShapes++
		} else if source != crs.WGS84 {
			g, err = crs.Apply(g, toWGS84.Flat)
			if err != nil {
				return nil, &DataLoadError{Path: path, Err: eris.Wrapf(err, "reproject row %d", len(ds.Features))}
			}
		}

		ds.Features = append(ds.Features, Feature{
			ID:         len(ds.Features),
			Attributes: attrs,
			Geometry:   g,
		})
	}
	if err := reader.Err(); err != nil {
		return nil, &DataLoadError{Path: path, Err: eris.Wrap(err, "read shapefile")}
	}

	zap.L().Info("catalog: loaded dataset",
		zap.String("path", path),
		zap.Int("features", len(ds.Features)),
		zap.String("name_column", ds.NameColumn),
		zap.Stringer("crs", source),
		zap.Int("null_shapes", nullShapes),
	)
	return ds, nil
}

// readPRJ reads the .prj sidecar next to a shapefile.
func readPRJ(shpPath string) (crs.CRS, error) {
	base := strings.TrimSuffix(shpPath, filepath.Ext(shpPath))
	for _, ext := range []string{".prj", ".PRJ"} {
		data, err := os.ReadFile(base + ext)
		if err == nil {
			return crs.FromPRJ(string(data))
		}
		if !os.IsNotExist(err) {
			return 0, eris.Wrap(err, "read prj")
		}
	}
	return crs.WGS84, nil
}

// Main file header: big-endian file code 9994 followed by a 100 byte header.
const (
	shpFileCode   = 9994
	shpHeaderSize = 100
)

// checkHeader rejects files that are not shapefiles before go-shp reads them,
// since its reader does not report header errors.
func checkHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrap(err, "open shapefile")
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, shpHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return eris.Wrap(err, "read shapefile header")
	}
	if code := binary.BigEndian.Uint32(header[:4]); code != shpFileCode {
		return eris.Errorf("bad shapefile file code %d", code)
	}

	dbf := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{".dbf", ".DBF"} {
		if _, err := os.Stat(dbf + ext); err == nil {
			return nil
		}
	}
	return eris.Errorf("missing attribute table %s.dbf", filepath.Base(dbf))
}
