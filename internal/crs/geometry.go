package crs

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// Func transforms flat coordinates in place.
type Func func(flat []float64, stride int) error

// Apply returns a copy of g with its coordinates passed through fn. The input
// geometry is never modified.
func Apply(g geom.T, fn Func) (geom.T, error) {
	if g == nil {
		return nil, eris.New("crs: nil geometry")
	}

	if gc, ok := g.(*geom.GeometryCollection); ok {
		out := geom.NewGeometryCollection()
		for i, member := range gc.Geoms() {
			moved, err := Apply(member, fn)
			if err != nil {
				return nil, eris.Wrapf(err, "crs: collection member %d", i)
			}
			if err := out.Push(moved); err != nil {
				return nil, eris.Wrap(err, "crs: rebuild collection")
			}
		}
		return out, nil
	}

	data, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "crs: copy geometry")
	}
	cp, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "crs: copy geometry")
	}

	if err := fn(cp.FlatCoords(), cp.Stride()); err != nil {
		return nil, err
	}
	return cp, nil
}

// Reproject transforms g from src to dst.
func Reproject(g geom.T, src, dst CRS) (geom.T, error) {
	t, err := Transformer(src, dst)
	if err != nil {
		return nil, err
	}
	return Apply(g, t.Flat)
}
