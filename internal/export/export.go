// Package export converts the layer model into GIS feature formats.
package export

import (
	"errors"

	"github.com/dyuri/dxfconv/internal/model"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrNoFeatures is returned when the selected layers hold no records.
var ErrNoFeatures = errors.New("export: no features to write")

// Feature kinds, stored in the "kind" property
const (
	KindText    = "text"
	KindPoint   = "point"
	KindLine    = "line"
	KindPolygon = "polygon"
)

// Options configures feature conversion
type Options struct {
	ForceMulti bool     // Write polygons as MultiPolygon
	Layers     []string // Only export these layers (all if empty)
	Name       string   // Dataset name (FlatGeobuf header)
	Index      bool     // Include a spatial index (FlatGeobuf)
}

// DefaultOptions returns the default export options
func DefaultOptions() *Options {
	return &Options{Index: true}
}

func (o *Options) wants(layer string) bool {
	if len(o.Layers) == 0 {
		return true
	}
	for _, l := range o.Layers {
		if l == layer {
			return true
		}
	}
	return false
}

// Features converts a drawing into a feature collection. Records are emitted
// layer by layer in the order texts, points, lines, polygons. Z is dropped.
func Features(d *model.Drawing, opts *Options) *geojson.FeatureCollection {
	if opts == nil {
		opts = DefaultOptions()
	}

	fc := geojson.NewFeatureCollection()
	for _, l := range d.Layers {
		if !opts.wants(l.Name) {
			continue
		}
		for _, t := range l.Texts {
			f := newFeature(orb.Point{t.X, t.Y}, l.Name, KindText, t.Attrs)
			f.Properties["label"] = t.Label
			f.Properties["rotation"] = t.Rotation
			f.Properties["height"] = t.Height
			fc.Append(f)
		}
		for _, p := range l.Points {
			fc.Append(newFeature(orb.Point{p.X, p.Y}, l.Name, KindPoint, p.Attrs))
		}
		for _, pl := range l.Lines {
			fc.Append(newFeature(lineString(pl.Points), l.Name, KindLine, pl.Attrs))
		}
		for _, pl := range l.Polygons {
			var g orb.Geometry = polygon(pl)
			if opts.ForceMulti {
				g = orb.MultiPolygon{polygon(pl)}
			}
			fc.Append(newFeature(g, l.Name, KindPolygon, pl.Attrs))
		}
	}
	return fc
}

// newFeature creates a feature with the common properties. Extra attributes
// never override layer or kind.
func newFeature(g orb.Geometry, layer, kind string, attrs []model.Attribute) *geojson.Feature {
	f := geojson.NewFeature(g)
	f.Properties["layer"] = layer
	f.Properties["kind"] = kind
	for _, a := range attrs {
		if _, reserved := f.Properties[a.Key]; reserved {
			continue
		}
		f.Properties[a.Key] = a.Value
	}
	return f
}

func lineString(pts []model.Point) orb.LineString {
	ls := make(orb.LineString, len(pts))
	for i, p := range pts {
		ls[i] = orb.Point{p.X, p.Y}
	}
	return ls
}

func ring(pts []model.Point) orb.Ring {
	return orb.Ring(lineString(pts))
}

func polygon(pl model.Polyline) orb.Polygon {
	poly := make(orb.Polygon, 0, 1+len(pl.Holes))
	poly = append(poly, ring(pl.Points))
	for _, h := range pl.Holes {
		poly = append(poly, ring(h.Points))
	}
	return poly
}
