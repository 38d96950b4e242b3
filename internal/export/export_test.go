package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dyuri/dxfconv/internal/model"
	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func square(x, y, size float64) []model.Point {
	return []model.Point{
		{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size}, {X: x, Y: y},
	}
}

func testDrawing() *model.Drawing {
	d := model.NewDrawing()
	d.AddText("Labels", model.Text{Label: "Main St", X: 1, Y: 2, Rotation: 90, Height: 2.5})
	d.AddPoint("Wells", model.PointEntity{X: 3, Y: 4, Attrs: []model.Attribute{
		{Key: "DEPTH", Value: "12"},
		{Key: "layer", Value: "ignored"},
	}})
	d.AddPolyline("Roads", model.Polyline{Points: []model.Point{{X: 0}, {X: 5}, {X: 5, Y: 5}}})
	d.AddPolyline("Parcels", model.Polyline{
		Closed: true,
		Points: square(0, 0, 10),
		Holes:  []model.Hole{{Points: square(2, 2, 2)}},
	})
	return d
}

func TestFeatures(t *testing.T) {
	fc := Features(testDrawing(), nil)
	if len(fc.Features) != 4 {
		t.Fatalf("Got %d features, want 4", len(fc.Features))
	}

	text := fc.Features[0]
	if text.Properties["kind"] != KindText || text.Properties["label"] != "Main St" || text.Properties["rotation"] != 90.0 {
		t.Errorf("text properties = %v", text.Properties)
	}

	well := fc.Features[1]
	if well.Properties["layer"] != "Wells" {
		t.Errorf("layer = %v, want Wells (extra attribute must not override)", well.Properties["layer"])
	}
	if well.Properties["DEPTH"] != "12" {
		t.Errorf("DEPTH = %v, want 12", well.Properties["DEPTH"])
	}

	if _, ok := fc.Features[2].Geometry.(orb.LineString); !ok {
		t.Errorf("line geometry = %T, want orb.LineString", fc.Features[2].Geometry)
	}

	poly, ok := fc.Features[3].Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("polygon geometry = %T, want orb.Polygon", fc.Features[3].Geometry)
	}
	if len(poly) != 2 {
		t.Errorf("Got %d rings, want 2", len(poly))
	}
}

func TestFeaturesOptions(t *testing.T) {
	fc := Features(testDrawing(), &Options{ForceMulti: true, Layers: []string{"Parcels"}})
	if len(fc.Features) != 1 {
		t.Fatalf("Got %d features, want 1", len(fc.Features))
	}
	mp, ok := fc.Features[0].Geometry.(orb.MultiPolygon)
	if !ok || len(mp) != 1 {
		t.Errorf("geometry = %#v, want a one-part MultiPolygon", fc.Features[0].Geometry)
	}
}

func TestWriteGeoJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGeoJSON(&buf, testDrawing(), nil); err != nil {
		t.Fatalf("WriteGeoJSON failed: %v", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	if err != nil {
		t.Fatalf("UnmarshalFeatureCollection failed: %v", err)
	}
	if len(fc.Features) != 4 {
		t.Fatalf("Got %d features, want 4", len(fc.Features))
	}
	if got := fc.Features[0].Properties["height"]; got != 2.5 {
		t.Errorf("height = %v, want 2.5", got)
	}
	if got := fc.Features[3].Geometry.GeoJSONType(); got != "Polygon" {
		t.Errorf("type = %s, want Polygon", got)
	}
}

func TestWriteFlatGeobuf(t *testing.T) {
	var buf bytes.Buffer
	opts := &Options{Name: "parcels", Index: true, Layers: []string{"Parcels"}}
	if err := WriteFlatGeobuf(&buf, testDrawing(), opts); err != nil {
		t.Fatalf("WriteFlatGeobuf failed: %v", err)
	}

	fgb, err := flatgeobuf.NewWithData(buf.Bytes())
	if err != nil {
		t.Fatalf("NewWithData failed: %v", err)
	}
	h := fgb.Header()
	if got := string(h.Name()); got != "parcels" {
		t.Errorf("Name = %q, want %q", got, "parcels")
	}
	if h.GeometryType() != flattypes.GeometryTypePolygon {
		t.Errorf("GeometryType = %v, want Polygon", h.GeometryType())
	}
	if h.ColumnsLength() != len(baseColumns) {
		t.Errorf("Got %d columns, want %d", h.ColumnsLength(), len(baseColumns))
	}
}

func TestWriteFlatGeobufMixed(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFlatGeobuf(&buf, testDrawing(), nil); err != nil {
		t.Fatalf("WriteFlatGeobuf failed: %v", err)
	}
	fgb, err := flatgeobuf.NewWithData(buf.Bytes())
	if err != nil {
		t.Fatalf("NewWithData failed: %v", err)
	}
	h := fgb.Header()
	if h.GeometryType() != flattypes.GeometryTypeUnknown {
		t.Errorf("GeometryType = %v, want Unknown", h.GeometryType())
	}
	if h.ColumnsLength() != len(baseColumns)+1 {
		t.Errorf("Got %d columns, want %d", h.ColumnsLength(), len(baseColumns)+1)
	}
}

func TestWriteFlatGeobufEmpty(t *testing.T) {
	err := WriteFlatGeobuf(&bytes.Buffer{}, model.NewDrawing(), nil)
	if !errors.Is(err, ErrNoFeatures) {
		t.Errorf("err = %v, want ErrNoFeatures", err)
	}
}

func TestSchema(t *testing.T) {
	fc := Features(testDrawing(), nil)
	cols := schema(fc.Features)
	if len(cols) != len(baseColumns)+1 || cols[len(cols)-1].name != "DEPTH" {
		t.Errorf("schema = %v, want base columns plus DEPTH", cols)
	}
}
