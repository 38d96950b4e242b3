package topology

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dyuri/dxfconv/internal/model"
	"github.com/dyuri/dxfconv/internal/relate"
)

func TestSplitRepeated(t *testing.T) {
	tests := []struct {
		name  string
		pts   []model.Point
		sizes []int
	}{
		{"two rings", polyline(0, 0, 1, 0, 1, 1, 0, 0, 5, 5, 6, 5, 6, 6, 5, 5).Points, []int{4, 4}},
		{"trailing tail", polyline(0, 0, 1, 0, 1, 1, 0, 0, 9, 9).Points, []int{4}},
		{"short recurrence skipped", polyline(0, 0, 1, 0, 0, 0, 2, 2, 3, 0, 0, 0).Points, []int{6}},
		{"no recurrence", polyline(0, 0, 1, 0, 1, 1).Points, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frags := splitRepeated(tt.pts)
			if len(frags) != len(tt.sizes) {
				t.Fatalf("Got %d fragments, want %d", len(frags), len(tt.sizes))
			}
			for i, f := range frags {
				if len(f) != tt.sizes[i] {
					t.Errorf("fragment %d has %d points, want %d", i, len(f), tt.sizes[i])
				}
				if !f[0].Equal(f[len(f)-1]) {
					t.Errorf("fragment %d not closed: %v", i, f)
				}
			}
		})
	}
}

func TestSplitConcatenatedRings(t *testing.T) {
	ring := polyline(
		0, 0, 10, 0, 10, 10, 0, 10, 0, 0,
		2, 2, 4, 2, 4, 4, 2, 4, 2, 2,
		6, 6, 8, 6, 8, 8, 6, 8, 6, 6,
	)
	if err := Split(ring, relate.New()); err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if !ring.Closed {
		t.Error("Closed = false after repair")
	}
	if len(ring.Points) != 5 {
		t.Errorf("exterior has %d points, want 5", len(ring.Points))
	}
	if len(ring.Holes) != 2 {
		t.Errorf("Got %d holes, want 2", len(ring.Holes))
	}
}

func TestSplitDeclines(t *testing.T) {
	tests := []struct {
		name string
		ring *model.Polyline
		want error
	}{
		{"single ring", polyline(0, 0, 4, 0, 4, 4, 0, 0), ErrNoRepeatedVertex},
		{"disjoint rings", polyline(0, 0, 1, 0, 1, 1, 0, 0, 5, 5, 6, 5, 6, 6, 5, 5), ErrNotSingleHoled},
		{"crossing rings", polyline(0, 0, 4, 0, 4, 4, 0, 4, 0, 0, 2, 2, 6, 2, 6, 6, 2, 6, 2, 2), ErrCrossingRings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := tt.ring.Clone()
			err := Split(tt.ring, relate.New())
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if !reflect.DeepEqual(tt.ring, orig) {
				t.Errorf("ring modified: %+v", tt.ring)
			}
		})
	}
}
