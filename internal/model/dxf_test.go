package model

import "testing"

func TestPolylineClose(t *testing.T) {
	p := &Polyline{Points: []Point{{X: 0}, {X: 1}, {X: 1, Y: 1}}}
	p.Close()
	if !p.Closed {
		t.Error("Closed = false")
	}
	if len(p.Points) != 4 || !p.Points[3].Equal(p.Points[0]) {
		t.Errorf("Points = %v, want first point repeated", p.Points)
	}

	p.Close()
	if len(p.Points) != 4 {
		t.Errorf("second Close appended again: %v", p.Points)
	}
}

func TestPolylineIsRing(t *testing.T) {
	tests := []struct {
		pts  []Point
		want bool
	}{
		{[]Point{{X: 0}, {X: 1}, {Y: 1}, {X: 0}}, true},
		{[]Point{{X: 0}, {X: 1}, {X: 0}}, false},
		{[]Point{{X: 0}, {X: 1}, {Y: 1}, {X: 0, Z: 1}}, false},
		{[]Point{{X: 0}, {X: 1}, {Y: 1}, {X: 1e-12}}, false},
	}
	for i, tt := range tests {
		p := &Polyline{Points: tt.pts}
		if got := p.IsRing(); got != tt.want {
			t.Errorf("case %d: IsRing = %v, want %v", i, got, tt.want)
		}
	}
}

func TestPolylineClone(t *testing.T) {
	p := &Polyline{
		Points: []Point{{X: 1}},
		Holes:  []Hole{{Points: []Point{{X: 2}}}},
		Attrs:  []Attribute{{Key: "K", Value: "V"}},
	}
	c := p.Clone()
	c.Points[0].X = 9
	c.Holes[0].Points[0].X = 9
	c.Attrs[0].Value = "changed"

	if p.Points[0].X != 1 || p.Holes[0].Points[0].X != 2 || p.Attrs[0].Value != "V" {
		t.Errorf("Clone shares storage with the original: %+v", p)
	}
}

func TestDrawingLayers(t *testing.T) {
	d := NewDrawing()
	if _, created := d.EnsureLayer("B"); !created {
		t.Error("EnsureLayer(B) created = false")
	}
	if _, created := d.EnsureLayer("B"); created {
		t.Error("EnsureLayer(B) created twice")
	}

	d.AddText("A", Text{Label: "x", Z: 2})
	d.AddPoint("B", PointEntity{Attrs: []Attribute{{Key: "k", Value: "v"}}})
	d.AddPolyline("A", Polyline{Points: []Point{{X: 0}, {X: 1}}})
	d.AddPolyline("A", Polyline{Closed: true, Points: []Point{{X: 0}, {X: 1}, {Y: 1}, {X: 0}},
		Holes: []Hole{{Points: []Point{{Z: 3}}}}})

	if d.Layers[0].Name != "B" || d.Layers[1].Name != "A" {
		t.Errorf("layer order = %s, %s, want B, A", d.Layers[0].Name, d.Layers[1].Name)
	}

	texts, points, lines, polygons := d.Counts()
	if texts != 1 || points != 1 || lines != 1 || polygons != 1 {
		t.Errorf("Counts = %d, %d, %d, %d, want 1, 1, 1, 1", texts, points, lines, polygons)
	}

	a := d.Layer("A")
	if !a.TextFlags.Is3D {
		t.Error("TextFlags.Is3D = false")
	}
	if a.LineFlags.Is3D {
		t.Error("LineFlags.Is3D = true")
	}
	if !a.PolygonFlags.Is3D {
		t.Error("PolygonFlags.Is3D = false for a 3D hole")
	}
	if !d.Layer("B").PointFlags.HasExtra {
		t.Error("PointFlags.HasExtra = false")
	}
	if d.Layer("missing") != nil {
		t.Error("Layer(missing) != nil")
	}
}
