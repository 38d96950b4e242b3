package relate

import (
	"testing"

	"github.com/dyuri/dxfconv/internal/model"
)

func square(x, y, size float64) []model.Point {
	return []model.Point{
		{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size}, {X: x, Y: y},
	}
}

func TestEngine(t *testing.T) {
	outer := square(0, 0, 10)
	inner := square(2, 2, 3)
	overlap := square(8, 8, 5)
	apart := square(20, 20, 1)

	tests := []struct {
		name     string
		a, b     []model.Point
		contains bool
		within   bool
		crosses  bool
	}{
		{"outer/inner", outer, inner, true, false, false},
		{"inner/outer", inner, outer, false, true, false},
		{"overlapping", outer, overlap, false, false, true},
		{"disjoint", outer, apart, false, false, false},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, err := e.Contains(tt.a, tt.b); err != nil || got != tt.contains {
				t.Errorf("Contains = %v (%v), want %v", got, err, tt.contains)
			}
			if got, err := e.Within(tt.a, tt.b); err != nil || got != tt.within {
				t.Errorf("Within = %v (%v), want %v", got, err, tt.within)
			}
			if got, err := e.Crosses(tt.a, tt.b); err != nil || got != tt.crosses {
				t.Errorf("Crosses = %v (%v), want %v", got, err, tt.crosses)
			}
		})
	}
}

func TestSimple(t *testing.T) {
	tests := []struct {
		name string
		ring []model.Point
		want bool
	}{
		{"square", square(0, 0, 10), true},
		{"figure eight", []model.Point{{X: 0, Y: 0}, {X: 2, Y: 2}, {X: 2, Y: 0}, {X: 0, Y: 2}, {X: 0, Y: 0}}, false},
		{"open", []model.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}}, false},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Simple(tt.ring)
			if err != nil {
				t.Fatalf("Simple failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Simple = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWKT(t *testing.T) {
	ring := []model.Point{{X: 0.1, Y: -2}, {X: 3, Y: 1e-7}, {X: 0.1, Y: -2}}
	if got, want := polygonWKT(ring), "POLYGON((0.1 -2,3 0.0000001,0.1 -2))"; got != want {
		t.Errorf("polygonWKT = %q, want %q", got, want)
	}
	if got, want := lineStringWKT(ring), "LINESTRING(0.1 -2,3 0.0000001,0.1 -2)"; got != want {
		t.Errorf("lineStringWKT = %q, want %q", got, want)
	}
}
