package export

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/dyuri/dxfconv/internal/model"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// column is one FlatGeobuf property column
type column struct {
	name string
	typ  flattypes.ColumnType
}

// Fixed columns; extra attribute keys follow as string columns.
var baseColumns = []column{
	{"layer", flattypes.ColumnTypeString},
	{"kind", flattypes.ColumnTypeString},
	{"label", flattypes.ColumnTypeString},
	{"rotation", flattypes.ColumnTypeDouble},
	{"height", flattypes.ColumnTypeDouble},
}

// WriteFlatGeobuf writes the drawing as a FlatGeobuf dataset.
func WriteFlatGeobuf(w io.Writer, d *model.Drawing, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	fc := Features(d, opts)
	if len(fc.Features) == 0 {
		return ErrNoFeatures
	}

	cols := schema(fc.Features)

	builder := flatbuffers.NewBuilder(4096)
	header := writer.NewHeader(builder)
	header.SetGeometryType(geometryType(fc.Features))
	if opts.Name != "" {
		header.SetName(opts.Name)
	}

	fgbCols := make([]*writer.Column, 0, len(cols))
	for _, c := range cols {
		col := writer.NewColumn(builder)
		col.SetName(c.name)
		col.SetTitle(c.name)
		col.SetType(c.typ)
		col.SetNullable(true)
		fgbCols = append(fgbCols, col)
	}
	header.SetColumns(fgbCols)

	gen := &featureGenerator{features: fc.Features, columns: cols}
	if _, err := writer.NewWriter(header, opts.Index, gen, nil).Write(w); err != nil {
		return fmt.Errorf("write FlatGeobuf: %w", err)
	}
	return nil
}

// schema returns the base columns followed by every extra attribute key in
// first-seen order.
func schema(features []*geojson.Feature) []column {
	cols := append([]column(nil), baseColumns...)
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c.name] = true
	}
	for _, f := range features {
		for _, key := range extraKeys(f) {
			if !seen[key] {
				seen[key] = true
				cols = append(cols, column{key, flattypes.ColumnTypeString})
			}
		}
	}
	return cols
}

// extraKeys returns the feature's non-base property keys in a stable order.
func extraKeys(f *geojson.Feature) []string {
	var keys []string
	for key := range f.Properties {
		if !isBase(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func isBase(name string) bool {
	for _, c := range baseColumns {
		if c.name == name {
			return true
		}
	}
	return false
}

// geometryType is the common geometry type, or Unknown for mixed layers.
func geometryType(features []*geojson.Feature) flattypes.GeometryType {
	t := fgbType(features[0].Geometry)
	for _, f := range features[1:] {
		if fgbType(f.Geometry) != t {
			return flattypes.GeometryTypeUnknown
		}
	}
	return t
}

func fgbType(g orb.Geometry) flattypes.GeometryType {
	switch g.(type) {
	case orb.Point:
		return flattypes.GeometryTypePoint
	case orb.LineString:
		return flattypes.GeometryTypeLineString
	case orb.Polygon:
		return flattypes.GeometryTypePolygon
	case orb.MultiPolygon:
		return flattypes.GeometryTypeMultiPolygon
	default:
		return flattypes.GeometryTypeUnknown
	}
}

// featureGenerator feeds features to the FlatGeobuf writer
type featureGenerator struct {
	features []*geojson.Feature
	columns  []column
	next     int
}

func (g *featureGenerator) Generate() *writer.Feature {
	for g.next < len(g.features) {
		f := g.features[g.next]
		g.next++

		builder := flatbuffers.NewBuilder(1024)
		geom := toFGB(f.Geometry, builder)
		if geom == nil {
			continue
		}
		feature := writer.NewFeature(builder)
		feature.SetGeometry(geom)
		if props := g.properties(f.Properties); len(props) > 0 {
			feature.SetProperties(props)
		}
		return feature
	}
	return nil
}

// properties encodes values as [uint16 column index][value], in column
// order. Strings are null terminated; doubles are little-endian.
func (g *featureGenerator) properties(props geojson.Properties) []byte {
	var buf bytes.Buffer
	for i, c := range g.columns {
		v, ok := props[c.name]
		if !ok || v == nil {
			continue
		}

		var idx [2]byte
		binary.LittleEndian.PutUint16(idx[:], uint16(i))

		switch c.typ {
		case flattypes.ColumnTypeDouble:
			f, ok := v.(float64)
			if !ok {
				continue
			}
			buf.Write(idx[:])
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
			buf.Write(b[:])
		default:
			buf.Write(idx[:])
			buf.WriteString(fmt.Sprint(v))
			buf.WriteByte(0)
		}
	}
	return buf.Bytes()
}

// toFGB converts the geometries produced by Features.
func toFGB(g orb.Geometry, builder *flatbuffers.Builder) *writer.Geometry {
	fg := writer.NewGeometry(builder)
	switch v := g.(type) {
	case orb.Point:
		fg.SetType(flattypes.GeometryTypePoint)
		fg.SetXY([]float64{v[0], v[1]})
	case orb.LineString:
		fg.SetType(flattypes.GeometryTypeLineString)
		xy, _ := flatten(orb.Polygon{orb.Ring(v)})
		fg.SetXY(xy)
	case orb.Polygon:
		fg.SetType(flattypes.GeometryTypePolygon)
		xy, ends := flatten(v)
		fg.SetXY(xy)
		fg.SetEnds(ends)
	case orb.MultiPolygon:
		fg.SetType(flattypes.GeometryTypeMultiPolygon)
		parts := make([]writer.Geometry, 0, len(v))
		for _, poly := range v {
			pg := writer.NewGeometry(builder)
			pg.SetType(flattypes.GeometryTypePolygon)
			xy, ends := flatten(poly)
			pg.SetXY(xy)
			pg.SetEnds(ends)
			parts = append(parts, *pg)
		}
		fg.SetParts(parts)
	default:
		return nil
	}
	return fg
}

// flatten returns interleaved XY and the cumulative end index of each ring.
func flatten(poly orb.Polygon) ([]float64, []uint32) {
	n := 0
	for _, r := range poly {
		n += len(r)
	}
	xy := make([]float64, 0, n*2)
	ends := make([]uint32, 0, len(poly))
	for _, r := range poly {
		for _, p := range r {
			xy = append(xy, p[0], p[1])
		}
		ends = append(ends, uint32(len(xy)/2))
	}
	return xy, ends
}
