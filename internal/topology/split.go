package topology

import "github.com/dyuri/dxfconv/internal/model"

// Split cuts ring's flat vertex list into closed sub-rings wherever the point
// at the current start index recurs later, then assembles them. A recurrence
// that would produce fewer than four points does not close a sub-ring.
// Scanning stops at the first start point with no recurrence.
//
// The ring is replaced only when exactly one polygon with at least one hole
// results.
func Split(ring *model.Polyline, pred Predicates) error {
	frags := splitRepeated(ring.Points)
	if len(frags) < 2 {
		return ErrNoRepeatedVertex
	}
	return accept(ring, Geometry{Lines: frags}, pred)
}

func splitRepeated(pts []model.Point) [][]model.Point {
	var frags [][]model.Point
	start := 0
	for start < len(pts) {
		end := -1
		for k := start + 3; k < len(pts); k++ {
			if pts[k].Equal(pts[start]) {
				end = k
				break
			}
		}
		if end < 0 {
			break
		}
		frags = append(frags, append([]model.Point(nil), pts[start:end+1]...))
		start = end + 1
	}
	return frags
}
