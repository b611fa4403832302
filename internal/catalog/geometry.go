package catalog

import (
	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// shapeToGeom converts a go-shp shape to a go-geom geometry in the file's own
// coordinates. Returns nil for null or unsupported shapes.
func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.PointZ:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.MultiPoint:
		return multiPoint(s.Points)
	case *shp.PolyLine:
		return lines(s.Parts, s.Points)
	case *shp.Polygon:
		return polygons(s.Parts, s.Points)
	case *shp.PolygonZ:
		return polygons(s.Parts, s.Points)
	case *shp.PolygonM:
		return polygons(s.Parts, s.Points)
	default:
		return nil
	}
}

func multiPoint(points []shp.Point) geom.T {
	if len(points) == 0 {
		return nil
	}
	flat := make([]float64, 0, 2*len(points))
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return geom.NewMultiPointFlat(geom.XY, flat)
}

// partRange returns the point index range of part i.
func partRange(parts []int32, points []shp.Point, i int) (int, int) {
	start := int(parts[i])
	end := len(points)
	if i+1 < len(parts) {
		end = int(parts[i+1])
	}
	if start < 0 || end > len(points) || start > end {
		return 0, 0
	}
	return start, end
}

func flatCoords(points []shp.Point) []float64 {
	flat := make([]float64, 0, 2*len(points))
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}

// lines converts a PolyLine to a LineString, or a MultiLineString when it has
// several parts.
func lines(parts []int32, points []shp.Point) geom.T {
	if len(parts) == 0 || len(points) == 0 {
		return nil
	}
	mls := geom.NewMultiLineString(geom.XY)
	for i := range parts {
		start, end := partRange(parts, points, i)
		if end-start < 2 {
			zap.L().Debug("catalog: skipping short linestring part", zap.Int("part", i))
			continue
		}
		ls := geom.NewLineStringFlat(geom.XY, flatCoords(points[start:end]))
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("catalog: skipping malformed linestring part", zap.Int("part", i), zap.Error(err))
		}
	}
	switch mls.NumLineStrings() {
	case 0:
		return nil
	case 1:
		return mls.LineString(0)
	default:
		return mls
	}
}

// polygons groups shapefile rings into polygons. Shapefile outer rings are
// clockwise and holes counter-clockwise; a hole attaches to the most recent
// outer ring. Rings are rewound to the GeoJSON convention (counter-clockwise
// shells, clockwise holes). A single polygon comes back as a Polygon, several
// as a MultiPolygon.
func polygons(parts []int32, points []shp.Point) geom.T {
	if len(parts) == 0 || len(points) == 0 {
		return nil
	}

	var polys []*geom.Polygon
	for i := range parts {
		start, end := partRange(parts, points, i)
		if end-start < 4 {
			zap.L().Debug("catalog: skipping degenerate ring", zap.Int("part", i))
			continue
		}
		ring := points[start:end]
		area := signedArea(ring)
		shell := area <= 0 || len(polys) == 0
		flat := flatCoords(ring)
		if shell == (area < 0) {
			reverseFlat(flat)
		}
		lr := geom.NewLinearRingFlat(geom.XY, flat)

		if shell {
			p := geom.NewPolygon(geom.XY)
			if err := p.Push(lr); err != nil {
				zap.L().Debug("catalog: skipping malformed ring", zap.Int("part", i), zap.Error(err))
				continue
			}
			polys = append(polys, p)
			continue
		}
		if err := polys[len(polys)-1].Push(lr); err != nil {
			zap.L().Debug("catalog: skipping malformed hole", zap.Int("part", i), zap.Error(err))
		}
	}

	switch len(polys) {
	case 0:
		return nil
	case 1:
		return polys[0]
	}
	mp := geom.NewMultiPolygon(geom.XY)
	for i, p := range polys {
		if err := mp.Push(p); err != nil {
			zap.L().Debug("catalog: skipping malformed polygon part", zap.Int("part", i), zap.Error(err))
		}
	}
	return mp
}

// reverseFlat reverses the order of XY coordinates in place.
func reverseFlat(flat []float64) {
	for i, j := 0, len(flat)-2; i < j; i, j = i+2, j-2 {
		flat[i], flat[j] = flat[j], flat[i]
		flat[i+1], flat[j+1] = flat[j+1], flat[i+1]
	}
}

// signedArea is the shoelace area; positive for counter-clockwise rings.
func signedArea(ring []shp.Point) float64 {
	var sum float64
	for i := 0; i+1 < len(ring); i++ {
		sum += ring[i].X*ring[i+1].Y - ring[i+1].X*ring[i].Y
	}
	return sum / 2
}
