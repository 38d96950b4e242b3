package text

import (
	"math"

	"github.com/charmbracelet/log"
	"github.com/dyuri/dxfconv/internal/model"
)

// blockKey identifies a block template
type blockKey struct {
	layer string
	id    string
}

// blockStore holds block templates defined in the BLOCKS section
type blockStore struct {
	blocks map[blockKey]*model.Block
}

func newBlockStore() *blockStore {
	return &blockStore{blocks: make(map[blockKey]*model.Block)}
}

// put stores a finished block. A later definition with the same key
// replaces the earlier one.
func (s *blockStore) put(b *model.Block, logger *log.Logger) {
	key := blockKey{layer: b.Layer, id: b.ID}
	if _, exists := s.blocks[key]; exists {
		logger.Debug("block redefined", "layer", b.Layer, "block", b.ID)
	}
	s.blocks[key] = b
}

func (s *blockStore) get(layer, id string) (*model.Block, bool) {
	b, ok := s.blocks[blockKey{layer: layer, id: id}]
	return b, ok
}

// The first entity of a block becomes its template; later ones are dropped.

func (s *blockStore) addText(b *model.Block, t model.Text, logger *log.Logger) {
	if !b.Empty() {
		logger.Debug("block already has a template, ignoring text", "block", b.ID)
		return
	}
	b.Text = &t
}

func (s *blockStore) addPoint(b *model.Block, p model.PointEntity, logger *log.Logger) {
	if !b.Empty() {
		logger.Debug("block already has a template, ignoring point", "block", b.ID)
		return
	}
	b.Point = &p
}

func (s *blockStore) addLine(b *model.Block, pl model.Polyline, logger *log.Logger) {
	if !b.Empty() {
		logger.Debug("block already has a template, ignoring polyline", "block", b.ID)
		return
	}
	b.Line = &pl
}

// transform maps block coordinates to drawing coordinates:
// insert + R(rotation) * S(scale) * (p - base)
type transform struct {
	base, insert, scale model.Point
	sin, cos            float64
	rotate              bool
}

func newTransform(base, insert, scale model.Point, rotation float64) transform {
	t := transform{base: base, insert: insert, scale: scale, cos: 1}
	if rotation != 0 {
		rad := rotation * math.Pi / 180
		t.sin, t.cos = math.Sin(rad), math.Cos(rad)
		t.rotate = true
	}
	return t
}

func (t transform) apply(p model.Point) model.Point {
	x := (p.X - t.base.X) * t.scale.X
	y := (p.Y - t.base.Y) * t.scale.Y
	z := (p.Z - t.base.Z) * t.scale.Z
	if t.rotate {
		x, y = x*t.cos-y*t.sin, x*t.sin+y*t.cos
	}
	return model.Point{X: t.insert.X + x, Y: t.insert.Y + y, Z: t.insert.Z + z}
}

// insert materializes the block referenced by an INSERT record into the
// INSERT's layer. Unknown blocks are ignored.
func (r *Reader) insert(ins record) {
	b, ok := r.blocks.get(ins.layer, ins.name)
	if !ok || b.Empty() {
		r.logger.Debug("insert references undefined block", "layer", ins.layer, "block", ins.name)
		return
	}

	xf := newTransform(b.Base, ins.point, ins.scale, ins.rotation)
	extra := ins.attrs.list

	switch {
	case b.Text != nil:
		t := *b.Text
		p := xf.apply(model.Point{X: t.X, Y: t.Y, Z: t.Z})
		t.X, t.Y, t.Z = p.X, p.Y, p.Z
		t.Rotation += ins.rotation
		t.Height *= math.Abs(ins.scale.Y)
		t.Attrs = cloneAttrs(b.Text.Attrs, extra)
		r.emitText(ins.layer, t)

	case b.Point != nil:
		p := xf.apply(model.Point{X: b.Point.X, Y: b.Point.Y, Z: b.Point.Z})
		r.emitPoint(ins.layer, model.PointEntity{X: p.X, Y: p.Y, Z: p.Z, Attrs: cloneAttrs(b.Point.Attrs, extra)})

	case b.Line != nil:
		pl := b.Line.Clone()
		for i, p := range pl.Points {
			pl.Points[i] = xf.apply(p)
		}
		for _, h := range pl.Holes {
			for i, p := range h.Points {
				h.Points[i] = xf.apply(p)
			}
		}
		pl.Attrs = cloneAttrs(b.Line.Attrs, extra)
		r.emitPolyline(ins.layer, *pl)
	}
}

func cloneAttrs(template, extra []model.Attribute) []model.Attribute {
	if len(template)+len(extra) == 0 {
		return nil
	}
	out := make([]model.Attribute, 0, len(template)+len(extra))
	out = append(out, template...)
	return append(out, extra...)
}
