package text

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dyuri/dxfconv/internal/model"
)

func TestWriteRoundTrip(t *testing.T) {
	d := model.NewDrawing()
	d.EnsureLayer("Empty")
	d.AddText("Labels", model.Text{Label: "Šibenik", X: 1, Y: 2, Rotation: 30, Height: 1.5})
	d.AddPoint("Wells", model.PointEntity{X: 3, Y: 4, Z: 5, Attrs: []model.Attribute{{Key: "DEPTH", Value: "12"}}})
	d.AddPolyline("Roads", model.Polyline{Points: pts(0, 0, 5, 0, 5, 5)})
	d.AddPolyline("Parcels", model.Polyline{
		Closed: true,
		Points: pts(0, 0, 10, 0, 10, 10, 0, 10, 0, 0),
		Holes:  []model.Hole{{Points: pts(2, 2, 4, 2, 4, 4, 2, 4, 2, 2)}},
	})

	var buf bytes.Buffer
	if err := NewWriter(&buf).Write(d); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := NewReader(&buf).Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if got.Codepage != DefaultCodepage {
		t.Errorf("Codepage = %q, want %q", got.Codepage, DefaultCodepage)
	}
	if len(got.Layers) != len(d.Layers) {
		t.Fatalf("Got %d layers, want %d", len(got.Layers), len(d.Layers))
	}
	for i, l := range d.Layers {
		if got.Layers[i].Name != l.Name {
			t.Errorf("Layers[%d] = %q, want %q", i, got.Layers[i].Name, l.Name)
		}
	}

	txt := got.Layer("Labels").Texts[0]
	if txt.Label != "Šibenik" || txt.Rotation != 30 || txt.Height != 1.5 || txt.X != 1 || txt.Y != 2 {
		t.Errorf("Text = %+v", txt)
	}

	wells := got.Layer("Wells")
	if p := wells.Points[0]; p.Z != 5 || len(p.Attrs) != 1 || p.Attrs[0].Value != "12" {
		t.Errorf("Point = %+v", p)
	}
	if !wells.PointFlags.Is3D || !wells.PointFlags.HasExtra {
		t.Errorf("PointFlags = %+v, want 3D with extra", wells.PointFlags)
	}

	if n := len(got.Layer("Roads").Lines); n != 1 {
		t.Errorf("Got %d lines, want 1", n)
	}

	parcels := got.Layer("Parcels").Polygons
	if len(parcels) != 1 {
		t.Fatalf("Got %d polygons, want 1", len(parcels))
	}
	if len(parcels[0].Points) != 5 || len(parcels[0].Holes) != 1 {
		t.Errorf("Polygon has %d points and %d holes, want 5 and 1", len(parcels[0].Points), len(parcels[0].Holes))
	}
}

func TestWriteDrawingCodepage(t *testing.T) {
	d := model.NewDrawing()
	d.Codepage = "ANSI_1251"
	d.AddText("Города", model.Text{Label: "Москва"})

	var buf bytes.Buffer
	if err := NewWriter(&buf).Write(d); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("\nANSI_1251\n")) {
		t.Errorf("header does not declare ANSI_1251:\n%s", buf.String())
	}
	if bytes.Contains(buf.Bytes(), []byte("Москва")) {
		t.Error("label written as UTF-8")
	}

	got, err := NewReader(&buf).Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	l := got.Layer("Города")
	if l == nil || len(l.Texts) != 1 || l.Texts[0].Label != "Москва" {
		t.Errorf("round trip lost text: %+v", l)
	}

	// An explicit codepage wins over the declared one
	buf.Reset()
	if err := NewWriter(&buf).WithCodepage("UTF8").Write(d); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Москва")) {
		t.Error("label not written as UTF-8")
	}
}

func TestWriteRetracedRing(t *testing.T) {
	pl := model.Polyline{
		Closed: true,
		Points: pts(0, 0, 10, 0, 10, 10, 0, 0),
		Holes:  []model.Hole{{Points: pts(5, 2, 8, 5, 7, 2, 5, 2)}},
	}
	got := retracedRing(pl)
	want := pts(0, 0, 10, 0, 10, 10, 0, 0, 5, 2, 8, 5, 7, 2, 5, 2, 0, 0)
	if len(got) != len(want) {
		t.Fatalf("Got %d points, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("Points[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if len(pl.Points) != 4 {
		t.Error("retracedRing modified the polygon")
	}
}

func TestWritePairs(t *testing.T) {
	d := model.NewDrawing()
	d.AddPoint("A", model.PointEntity{X: 0.1, Y: -2})

	var buf bytes.Buffer
	if err := NewWriter(&buf).Write(d); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"  0\nPOINT\n  8\nA\n", " 10\n0.1\n 20\n-2\n", "  0\nEOF\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if !strings.HasSuffix(out, "EOF\n") {
		t.Error("output does not end with EOF")
	}
}
