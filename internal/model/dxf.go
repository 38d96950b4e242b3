package model

// Drawing represents a parsed DXF drawing in a format-agnostic way.
// This is the layer model handed to exporters and writers.
type Drawing struct {
	Codepage string   // Declared $DWGCODEPAGE (e.g. "ANSI_1252"), empty if absent
	Layers   []*Layer // Layers in first-reference order

	index map[string]*Layer
}

// Point is an immutable coordinate triple.
type Point struct {
	X, Y, Z float64
}

// Equal reports exact coordinate equality. No tolerance is applied.
func (p Point) Equal(o Point) bool {
	return p.X == o.X && p.Y == o.Y && p.Z == o.Z
}

// Attribute is an extra key/value pair (op-codes 1001/1000) attached to an entity
type Attribute struct {
	Key   string
	Value string
}

// Text is a TEXT entity
type Text struct {
	Label    string      // Text string (op-code 1)
	X, Y, Z  float64     // Insertion point
	Rotation float64     // Degrees (op-code 50)
	Height   float64     // Text height (op-code 40)
	Attrs    []Attribute // Extra attributes
}

// PointEntity is a POINT entity
type PointEntity struct {
	X, Y, Z float64
	Attrs   []Attribute
}

// Hole is an interior ring of a closed Polyline
type Hole struct {
	Points []Point
}

// Polyline is a POLYLINE, LWPOLYLINE or LINE entity. A closed Polyline is a
// ring and may carry holes once topology repair has run.
type Polyline struct {
	Closed bool
	Points []Point
	Holes  []Hole
	Attrs  []Attribute
}

// IsRing reports whether the first and last points are exactly equal.
func (p *Polyline) IsRing() bool {
	n := len(p.Points)
	return n >= 4 && p.Points[0].Equal(p.Points[n-1])
}

// Close appends the first point if the chain does not already end on it and
// marks the polyline closed.
func (p *Polyline) Close() {
	p.Closed = true
	n := len(p.Points)
	if n == 0 {
		return
	}
	if !p.Points[0].Equal(p.Points[n-1]) {
		p.Points = append(p.Points, p.Points[0])
	}
}

// Clone returns a deep copy.
func (p *Polyline) Clone() *Polyline {
	c := &Polyline{
		Closed: p.Closed,
		Points: append([]Point(nil), p.Points...),
		Attrs:  append([]Attribute(nil), p.Attrs...),
	}
	if len(p.Holes) > 0 {
		c.Holes = make([]Hole, len(p.Holes))
		for i, h := range p.Holes {
			c.Holes[i] = Hole{Points: append([]Point(nil), h.Points...)}
		}
	}
	return c
}

// TypeFlags describes one entity kind within a layer
type TypeFlags struct {
	Is3D     bool // At least one record has a non-zero Z
	HasExtra bool // At least one record carries extra attributes
}

// Layer groups the entities of one DXF layer by kind
type Layer struct {
	Name     string
	Texts    []Text
	Points   []PointEntity
	Lines    []Polyline // Open polylines
	Polygons []Polyline // Closed polylines (rings, possibly with holes)

	TextFlags    TypeFlags
	PointFlags   TypeFlags
	LineFlags    TypeFlags
	PolygonFlags TypeFlags
}

// Count returns the total number of records in the layer.
func (l *Layer) Count() int {
	return len(l.Texts) + len(l.Points) + len(l.Lines) + len(l.Polygons)
}

// Block is a named template defined in the BLOCKS section. It holds at most
// one of Text, Point or Line.
type Block struct {
	Layer string
	ID    string
	Base  Point // Block base point (op-codes 10/20/30 of BLOCK)

	Text  *Text
	Point *PointEntity
	Line  *Polyline
}

// Empty reports whether the block holds no template entity.
func (b *Block) Empty() bool {
	return b.Text == nil && b.Point == nil && b.Line == nil
}

// NewDrawing creates a new empty drawing
func NewDrawing() *Drawing {
	return &Drawing{
		Layers: make([]*Layer, 0),
		index:  make(map[string]*Layer),
	}
}

// Layer returns the named layer, or nil.
func (d *Drawing) Layer(name string) *Layer {
	return d.index[name]
}

// EnsureLayer returns the named layer, creating it if needed. The second
// result reports whether the layer was created.
func (d *Drawing) EnsureLayer(name string) (*Layer, bool) {
	if l, ok := d.index[name]; ok {
		return l, false
	}
	l := &Layer{Name: name}
	d.Layers = append(d.Layers, l)
	d.index[name] = l
	return l, true
}

// AddText appends a text to the named layer.
func (d *Drawing) AddText(layer string, t Text) {
	l, _ := d.EnsureLayer(layer)
	l.Texts = append(l.Texts, t)
	if t.Z != 0 {
		l.TextFlags.Is3D = true
	}
	if len(t.Attrs) > 0 {
		l.TextFlags.HasExtra = true
	}
}

// AddPoint appends a point to the named layer.
func (d *Drawing) AddPoint(layer string, p PointEntity) {
	l, _ := d.EnsureLayer(layer)
	l.Points = append(l.Points, p)
	if p.Z != 0 {
		l.PointFlags.Is3D = true
	}
	if len(p.Attrs) > 0 {
		l.PointFlags.HasExtra = true
	}
}

// AddPolyline appends a polyline to the named layer, as a polygon when it is
// closed and as a line otherwise.
func (d *Drawing) AddPolyline(layer string, p Polyline) {
	l, _ := d.EnsureLayer(layer)
	flags := &l.LineFlags
	if p.Closed {
		l.Polygons = append(l.Polygons, p)
		flags = &l.PolygonFlags
	} else {
		l.Lines = append(l.Lines, p)
	}
	if p.is3D() {
		flags.Is3D = true
	}
	if len(p.Attrs) > 0 {
		flags.HasExtra = true
	}
}

func (p *Polyline) is3D() bool {
	for _, pt := range p.Points {
		if pt.Z != 0 {
			return true
		}
	}
	for _, h := range p.Holes {
		for _, pt := range h.Points {
			if pt.Z != 0 {
				return true
			}
		}
	}
	return false
}

// Counts returns record totals across all layers.
func (d *Drawing) Counts() (texts, points, lines, polygons int) {
	for _, l := range d.Layers {
		texts += len(l.Texts)
		points += len(l.Points)
		lines += len(l.Lines)
		polygons += len(l.Polygons)
	}
	return
}
