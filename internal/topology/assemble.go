// Package topology rebuilds polygon rings (exterior plus holes) from line
// fragments and repairs DXF polylines whose boundaries are retraced or
// concatenated.
//
// All point comparisons are exact. Geometric relationships between rings are
// delegated to a Predicates implementation.
package topology

import (
	"errors"
	"fmt"
	"math"

	"github.com/dyuri/dxfconv/internal/model"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/peterstace/simplefeatures/rtree"
)

// Assembler failures. Callers test with errors.Is.
var (
	ErrDisallowedElement = errors.New("topology: input contains point or polygon elements")
	ErrUnclosedChain     = errors.New("topology: fragments do not chain into closed rings")
	ErrDegenerateRing    = errors.New("topology: ring has fewer than four points")
	ErrCrossingRings     = errors.New("topology: rings cross")
	ErrAmbiguousNesting  = errors.New("topology: ambiguous ring containment")
	ErrNoRings           = errors.New("topology: no rings produced")
)

// Predicates is the geometry relationship service used to classify rings.
// Each ring is a closed point sequence (first point equals last point).
type Predicates interface {
	Contains(a, b []model.Point) (bool, error)
	Within(a, b []model.Point) (bool, error)
	Crosses(a, b []model.Point) (bool, error)
	Simple(ring []model.Point) (bool, error)
}

// Geometry is an assembler input. Only Lines may be populated.
type Geometry struct {
	Points   []model.Point
	Lines    [][]model.Point
	Polygons [][]model.Point
}

// Polygon is an exterior ring with zero or more holes.
type Polygon struct {
	Exterior []model.Point
	Holes    [][]model.Point
}

// Result is the polygon collection produced by Assemble.
type Result struct {
	Polygons []Polygon
	Multi    bool // Collection should be treated as a multi-polygon
}

// Options configures Assemble.
type Options struct {
	ForceMulti bool
}

// Assemble chains the line fragments of g into closed rings and nests them
// into polygons. A ring's container is the smallest ring containing it; rings
// at even nesting depth become exteriors and rings at odd depth become holes
// of their container.
//
// The input is never modified.
func Assemble(g Geometry, pred Predicates, opts Options) (*Result, error) {
	if len(g.Points) > 0 || len(g.Polygons) > 0 {
		return nil, ErrDisallowedElement
	}

	rings, err := buildRings(g.Lines)
	if err != nil {
		return nil, err
	}
	if len(rings) == 0 {
		return nil, ErrNoRings
	}

	for i, r := range rings {
		simple, err := pred.Simple(r)
		if err != nil {
			return nil, fmt.Errorf("simple(%d): %w", i, err)
		}
		if !simple {
			return nil, fmt.Errorf("%w: ring %d crosses itself", ErrCrossingRings, i)
		}
	}

	container, err := classify(rings, pred)
	if err != nil {
		return nil, err
	}

	depth := make([]int, len(rings))
	for i := range rings {
		for c := container[i]; c >= 0; c = container[c] {
			depth[i]++
			if depth[i] > len(rings) {
				return nil, fmt.Errorf("%w: containment cycle at ring %d", ErrAmbiguousNesting, i)
			}
		}
	}

	res := &Result{}
	slot := make(map[int]int) // exterior ring index -> polygon index
	for i, ring := range rings {
		if depth[i]%2 == 0 {
			slot[i] = len(res.Polygons)
			res.Polygons = append(res.Polygons, Polygon{Exterior: ring})
		}
	}
	for i, ring := range rings {
		if depth[i]%2 == 1 {
			p := &res.Polygons[slot[container[i]]]
			p.Holes = append(p.Holes, ring)
		}
	}

	res.Multi = opts.ForceMulti || len(res.Polygons) > 1
	return res, nil
}

// buildRings separates closed fragments from open ones and chains the open
// fragments into rings.
func buildRings(lines [][]model.Point) ([][]model.Point, error) {
	var rings, open [][]model.Point
	for _, l := range lines {
		if len(l) > 0 && l[0].Equal(l[len(l)-1]) {
			rings = append(rings, append([]model.Point(nil), l...))
		} else {
			open = append(open, l)
		}
	}

	used := make([]bool, len(open))
	for seed := range open {
		if used[seed] {
			continue
		}
		used[seed] = true
		if len(open[seed]) < 2 {
			return nil, ErrDegenerateRing
		}

		c := newChain(open[seed])
		for !c.closed() {
			attached := false
			for i, frag := range open {
				if used[i] || !c.attach(frag) {
					continue
				}
				used[i] = true
				attached = true
				if c.closed() {
					break
				}
			}
			if !attached {
				return nil, fmt.Errorf("%w: chain of %d points left open", ErrUnclosedChain, c.len())
			}
		}
		rings = append(rings, c.points())
	}

	for _, r := range rings {
		if len(r) < 4 {
			return nil, ErrDegenerateRing
		}
	}
	return rings, nil
}

// classify returns, per ring, the index of its direct container or -1.
func classify(rings [][]model.Point, pred Predicates) ([]int, error) {
	n := len(rings)
	boxes := make([]rtree.Box, n)
	items := make([]rtree.BulkItem, n)
	areas := make([]float64, n)
	for i, r := range rings {
		ls := toOrb(r)
		b := ls.Bound()
		boxes[i] = rtree.Box{MinX: b.Min[0], MinY: b.Min[1], MaxX: b.Max[0], MaxY: b.Max[1]}
		items[i] = rtree.BulkItem{Box: boxes[i], RecordID: i}
		areas[i] = math.Abs(planar.Area(orb.Ring(ls)))
	}
	// BulkLoad reorders items.
	index := rtree.BulkLoad(items)

	candidates := make([][]int, n)
	for i := 0; i < n; i++ {
		err := index.RangeSearch(boxes[i], func(j int) error {
			if j <= i {
				return nil
			}
			crosses, err := pred.Crosses(rings[i], rings[j])
			if err != nil {
				return fmt.Errorf("crosses(%d, %d): %w", i, j, err)
			}
			if crosses {
				return fmt.Errorf("%w: rings %d and %d", ErrCrossingRings, i, j)
			}
			contains, err := pred.Contains(rings[i], rings[j])
			if err != nil {
				return fmt.Errorf("contains(%d, %d): %w", i, j, err)
			}
			within, err := pred.Within(rings[i], rings[j])
			if err != nil {
				return fmt.Errorf("within(%d, %d): %w", i, j, err)
			}
			switch {
			case contains && within:
				return fmt.Errorf("%w: rings %d and %d are equal", ErrAmbiguousNesting, i, j)
			case contains:
				candidates[j] = append(candidates[j], i)
			case within:
				candidates[i] = append(candidates[i], j)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	// The direct container is the smallest candidate.
	container := make([]int, n)
	for r, cs := range candidates {
		container[r] = -1
		tie := false
		for _, c := range cs {
			cur := container[r]
			switch {
			case cur < 0 || areas[c] < areas[cur]:
				container[r] = c
				tie = false
			case areas[c] == areas[cur]:
				tie = true
			}
		}
		if tie {
			return nil, fmt.Errorf("%w: ring %d has two containers of equal area", ErrAmbiguousNesting, r)
		}
	}
	return container, nil
}

func toOrb(pts []model.Point) orb.LineString {
	ls := make(orb.LineString, len(pts))
	for i, p := range pts {
		ls[i] = orb.Point{p.X, p.Y}
	}
	return ls
}
