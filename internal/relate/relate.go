// Package relate answers ring relationship queries for the topology package
// using the simplefeatures DE-9IM predicates.
package relate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dyuri/dxfconv/internal/model"
	"github.com/peterstace/simplefeatures/geom"
)

// Engine evaluates contains, within and crosses between closed rings, and
// whether a single ring is simple.
// Containment is evaluated on the areas bounded by the rings, crossing on the
// rings themselves. Z is ignored.
type Engine struct{}

// New creates an Engine
func New() *Engine {
	return &Engine{}
}

// Contains reports whether the area of ring a contains the area of ring b.
func (e *Engine) Contains(a, b []model.Point) (bool, error) {
	ga, gb, err := polygons(a, b)
	if err != nil {
		return false, err
	}
	return geom.Contains(ga, gb)
}

// Within reports whether the area of ring a lies within the area of ring b.
func (e *Engine) Within(a, b []model.Point) (bool, error) {
	ga, gb, err := polygons(a, b)
	if err != nil {
		return false, err
	}
	return geom.Within(ga, gb)
}

// Crosses reports whether the two rings cross each other.
func (e *Engine) Crosses(a, b []model.Point) (bool, error) {
	ga, err := geom.UnmarshalWKT(lineStringWKT(a))
	if err != nil {
		return false, fmt.Errorf("ring a: %w", err)
	}
	gb, err := geom.UnmarshalWKT(lineStringWKT(b))
	if err != nil {
		return false, fmt.Errorf("ring b: %w", err)
	}
	return geom.Crosses(ga, gb)
}

// Simple reports whether ring is closed and does not cross or touch itself.
func (e *Engine) Simple(ring []model.Point) (bool, error) {
	g, err := geom.UnmarshalWKT(lineStringWKT(ring))
	if err != nil {
		return false, fmt.Errorf("ring: %w", err)
	}
	return g.MustAsLineString().IsRing(), nil
}

func polygons(a, b []model.Point) (geom.Geometry, geom.Geometry, error) {
	ga, err := geom.UnmarshalWKT(polygonWKT(a))
	if err != nil {
		return geom.Geometry{}, geom.Geometry{}, fmt.Errorf("ring a: %w", err)
	}
	gb, err := geom.UnmarshalWKT(polygonWKT(b))
	if err != nil {
		return geom.Geometry{}, geom.Geometry{}, fmt.Errorf("ring b: %w", err)
	}
	return ga, gb, nil
}

// polygonWKT renders a ring as POLYGON WKT. Coordinates are written with the
// shortest exact decimal so parsing returns identical float64 values.
func polygonWKT(ring []model.Point) string {
	var sb strings.Builder
	sb.WriteString("POLYGON((")
	writeCoords(&sb, ring)
	sb.WriteString("))")
	return sb.String()
}

func lineStringWKT(ring []model.Point) string {
	var sb strings.Builder
	sb.WriteString("LINESTRING(")
	writeCoords(&sb, ring)
	sb.WriteString(")")
	return sb.String()
}

func writeCoords(sb *strings.Builder, pts []model.Point) {
	for i, p := range pts {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(p.X, 'f', -1, 64))
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(p.Y, 'f', -1, 64))
	}
}
