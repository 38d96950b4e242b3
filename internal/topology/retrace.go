package topology

import (
	"errors"
	"fmt"

	"github.com/dyuri/dxfconv/internal/model"
)

// Heuristic declines. The ring is left untouched whenever one is returned.
var (
	ErrNoRetrace        = errors.New("topology: no retraced segment")
	ErrNoRepeatedVertex = errors.New("topology: fewer than two closed sub-rings")
	ErrNotSingleHoled   = errors.New("topology: result is not one polygon with holes")
)

// Segment is a unit edge of a polyline. Valid is cleared when the edge is
// traced twice.
type Segment struct {
	A, B  model.Point
	Valid bool
}

// matches reports whether s and o share both endpoints in either orientation.
func (s Segment) matches(o Segment) bool {
	return (s.A.Equal(o.A) && s.B.Equal(o.B)) || (s.A.Equal(o.B) && s.B.Equal(o.A))
}

// segments decomposes pts into its N-1 edges. Zero-length edges are dropped.
func segments(pts []model.Point) []Segment {
	if len(pts) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		if pts[i-1].Equal(pts[i]) {
			continue
		}
		segs = append(segs, Segment{A: pts[i-1], B: pts[i], Valid: true})
	}
	return segs
}

// Retrace cancels edges traced twice in ring's vertex chain and rebuilds the
// remaining edges into an exterior ring with holes. The ring is replaced only
// when exactly one polygon with at least one hole results.
func Retrace(ring *model.Polyline, pred Predicates) error {
	segs := segments(ring.Points)

	matched := false
	for i := range segs {
		for j := i + 1; j < len(segs); j++ {
			if segs[i].matches(segs[j]) {
				segs[i].Valid = false
				segs[j].Valid = false
				matched = true
			}
		}
	}
	if !matched {
		return ErrNoRetrace
	}

	var g Geometry
	for _, s := range segs {
		if s.Valid {
			g.Lines = append(g.Lines, []model.Point{s.A, s.B})
		}
	}
	return accept(ring, g, pred)
}

// accept assembles g and, if it yields one polygon with holes, installs it
// into ring.
func accept(ring *model.Polyline, g Geometry, pred Predicates) error {
	res, err := Assemble(g, pred, Options{})
	if err != nil {
		return err
	}
	if len(res.Polygons) != 1 || len(res.Polygons[0].Holes) == 0 {
		return fmt.Errorf("%w: %d polygons", ErrNotSingleHoled, len(res.Polygons))
	}

	poly := res.Polygons[0]
	ring.Points = poly.Exterior
	ring.Holes = make([]model.Hole, len(poly.Holes))
	for i, h := range poly.Holes {
		ring.Holes[i] = model.Hole{Points: h}
	}
	ring.Closed = true
	return nil
}
