package text

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dyuri/dxfconv/internal/model"
	"github.com/dyuri/dxfconv/internal/relate"
	"github.com/dyuri/dxfconv/internal/topology"
	"golang.org/x/text/encoding"
)

// section is the DXF section being read
type section int

const (
	sectionNone section = iota
	sectionPending // SECTION seen, name not yet read
	sectionHeader
	sectionTables
	sectionBlocks
	sectionEntities
	sectionOther
)

// recordKind tags the record being accumulated
type recordKind int

const (
	recordNone recordKind = iota
	recordLayer
	recordBlock
	recordText
	recordPoint
	recordPolyline
	recordLWPolyline
	recordVertex
	recordInsert
	recordLine
	recordIgnored
)

// record is the entity under construction. It is replaced as a whole when
// the next op-code 0 keyword arrives.
type record struct {
	kind  recordKind
	layer string
	name  string // Layer declaration name or block id

	text  model.Text
	point model.Point
	end   model.Point // LINE end point
	line  model.Polyline
	flags int

	// LWPOLYLINE vertex in progress
	pending    model.Point
	hasPending bool
	elevation  float64

	// INSERT parameters
	scale    model.Point
	rotation float64

	attrs attrs
}

// attrs accumulates extra attributes. A pair commits once both its key
// (1001) and its value (1000) have been seen since the last commit.
type attrs struct {
	key, value       string
	hasKey, hasValue bool
	list             []model.Attribute
}

func (a *attrs) setKey(k string) {
	a.key, a.hasKey = k, true
	a.commit()
}

func (a *attrs) setValue(v string) {
	a.value, a.hasValue = v, true
	a.commit()
}

func (a *attrs) commit() {
	if a.hasKey && a.hasValue {
		a.list = append(a.list, model.Attribute{Key: a.key, Value: a.value})
		a.key, a.value = "", ""
		a.hasKey, a.hasValue = false, false
	}
}

// Reader reads an ASCII DXF drawing into the layer model
type Reader struct {
	sc       *scanner
	drawing  *model.Drawing
	repairer *topology.Repairer
	logger   *log.Logger

	section   section
	inSection bool
	done      bool

	cur  record
	open *record // POLYLINE awaiting VERTEX/SEQEND

	blocks *blockStore
	block  *model.Block // Block being defined

	// Header state
	headerVar string
	codepage  string
	acadver   string
	fallback  string
	decoder   *encoding.Decoder
}

// NewReader creates a new DXF reader. Closed polylines are repaired with a
// Repairer backed by the relate engine unless WithRepairer overrides it.
func NewReader(r io.Reader) *Reader {
	logger := log.New(io.Discard)
	rd := &Reader{
		sc:       newScanner(r),
		drawing:  model.NewDrawing(),
		repairer: topology.NewRepairer(relate.New(), logger),
		logger:   logger,
		blocks:   newBlockStore(),
	}
	rd.setCodepage(DefaultCodepage)
	return rd
}

// WithLogger sets the logger used for diagnostics.
func (r *Reader) WithLogger(l *log.Logger) *Reader {
	if l != nil {
		r.logger = l
		r.repairer.Logger = l
	}
	return r
}

// WithRepairer replaces the polyline repairer. A nil repairer disables
// topology repair entirely.
func (r *Reader) WithRepairer(rep *topology.Repairer) *Reader {
	r.repairer = rep
	return r
}

// WithCodepage sets the codepage assumed when the drawing declares none.
func (r *Reader) WithCodepage(name string) *Reader {
	if _, ok := newDecoder(name); ok {
		r.fallback = name
		r.setCodepage(name)
	}
	return r
}

// Repairer returns the repairer in use, or nil.
func (r *Reader) Repairer() *topology.Repairer {
	return r.repairer
}

// Read parses the entire stream and returns the drawing. Any FormatError
// aborts the import and no drawing is returned.
func (r *Reader) Read() (*model.Drawing, error) {
	for !r.done {
		p, ok, err := r.sc.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if p.code == 0 {
			err = r.keyword(p)
		} else {
			err = r.attribute(p)
		}
		if err != nil {
			return nil, err
		}
	}

	if r.done {
		// Anything but blank lines after EOF is an error
		if _, ok, err := r.sc.next(); err != nil {
			return nil, err
		} else if ok {
			return nil, &FormatError{Line: r.sc.line, Msg: "attempting to read past EOF"}
		}
	} else {
		if r.inSection {
			return nil, &FormatError{Line: r.sc.line, Msg: "unterminated SECTION"}
		}
		r.closeRecord("")
	}

	if r.codepage != "" {
		r.drawing.Codepage = r.codepage
	}
	return r.drawing, nil
}

// keyword handles an op-code 0 line: the current record is flushed and a new
// one begins.
func (r *Reader) keyword(p pair) error {
	kw := p.value
	r.closeRecord(kw)

	switch kw {
	case "SECTION":
		if r.inSection {
			return &FormatError{Line: p.line, Msg: "SECTION inside an open SECTION"}
		}
		r.inSection = true
		r.section = sectionPending
		return nil

	case "ENDSEC":
		if !r.inSection {
			return &FormatError{Line: p.line, Msg: "ENDSEC without SECTION"}
		}
		if r.section == sectionHeader {
			r.endHeader()
		}
		r.inSection = false
		r.section = sectionNone
		return nil

	case "EOF":
		if r.inSection {
			return &FormatError{Line: p.line, Msg: "EOF inside an open SECTION"}
		}
		r.done = true
		r.sc.eof = true
		return nil
	}

	switch r.section {
	case sectionTables:
		if kw == "LAYER" {
			r.cur = record{kind: recordLayer}
			return nil
		}

	case sectionBlocks:
		switch kw {
		case "BLOCK":
			r.cur = record{kind: recordBlock, layer: "0"}
			return nil
		case "ENDBLK":
			r.endBlock()
			r.cur = record{kind: recordIgnored}
			return nil
		}
		if r.beginEntity(kw) {
			return nil
		}

	case sectionEntities:
		if r.beginEntity(kw) {
			return nil
		}
	}

	r.cur = record{kind: recordIgnored}
	return nil
}

// beginEntity starts an entity record for kw, reporting whether kw is a
// supported entity keyword.
func (r *Reader) beginEntity(kw string) bool {
	switch kw {
	case "TEXT":
		r.cur = record{kind: recordText, layer: "0"}
	case "POINT":
		r.cur = record{kind: recordPoint, layer: "0"}
	case "POLYLINE":
		r.cur = record{kind: recordPolyline, layer: "0"}
	case "LWPOLYLINE":
		r.cur = record{kind: recordLWPolyline, layer: "0"}
	case "LINE":
		r.cur = record{kind: recordLine, layer: "0"}
	case "INSERT":
		r.cur = record{kind: recordInsert, layer: "0", scale: model.Point{X: 1, Y: 1, Z: 1}}
	case "VERTEX":
		if r.open == nil {
			return false
		}
		r.cur = record{kind: recordVertex}
	default:
		return false
	}
	return true
}

// closeRecord flushes the current record. next is the keyword that closed
// it; VERTEX keeps a POLYLINE open.
func (r *Reader) closeRecord(next string) {
	cur := r.cur
	r.cur = record{}

	switch cur.kind {
	case recordLayer:
		if cur.name != "" {
			if _, created := r.drawing.EnsureLayer(cur.name); created {
				r.logger.Debug("layer declared", "layer", cur.name)
			}
		}

	case recordBlock:
		r.block = &model.Block{Layer: cur.layer, ID: cur.name, Base: cur.point}

	case recordText:
		t := cur.text
		t.Attrs = cur.attrs.list
		r.emitText(cur.layer, t)

	case recordPoint:
		r.emitPoint(cur.layer, model.PointEntity{X: cur.point.X, Y: cur.point.Y, Z: cur.point.Z, Attrs: cur.attrs.list})

	case recordPolyline:
		if next == "VERTEX" {
			r.open = &cur
			return
		}
		r.emitPolyline(cur.layer, r.finishPolyline(cur))

	case recordVertex:
		if r.open != nil {
			r.open.line.Points = append(r.open.line.Points, cur.point)
			r.open.attrs.list = append(r.open.attrs.list, cur.attrs.list...)
		}

	case recordLWPolyline:
		if cur.hasPending {
			cur.line.Points = append(cur.line.Points, cur.pending)
		}
		for i := range cur.line.Points {
			cur.line.Points[i].Z = cur.elevation
		}
		r.emitPolyline(cur.layer, r.finishPolyline(cur))

	case recordLine:
		cur.line.Points = []model.Point{cur.point, cur.end}
		r.emitPolyline(cur.layer, r.finishPolyline(cur))

	case recordInsert:
		r.insert(cur)
	}

	if r.open != nil && next != "VERTEX" {
		open := *r.open
		r.open = nil
		r.emitPolyline(open.layer, r.finishPolyline(open))
	}
}

func (r *Reader) finishPolyline(rec record) model.Polyline {
	pl := rec.line
	pl.Closed = rec.flags&1 == 1
	pl.Attrs = rec.attrs.list
	return pl
}

// attribute interprets a non-zero op-code for the current record.
func (r *Reader) attribute(p pair) error {
	if r.section == sectionPending {
		if p.code == 2 {
			r.section = sectionByName(p.value)
		}
		return nil
	}
	if r.section == sectionHeader {
		r.headerValue(p)
		return nil
	}

	cur := &r.cur
	switch cur.kind {
	case recordNone, recordIgnored:
		return nil

	case recordLayer:
		if p.code == 2 {
			cur.name = r.decode(p.value)
		}
		return nil
	}

	switch p.code {
	case 1:
		if cur.kind == recordText {
			cur.text.Label = r.decode(p.value)
		}
	case 2:
		if cur.kind == recordBlock || cur.kind == recordInsert {
			cur.name = r.decode(p.value)
		}
	case 8:
		cur.layer = r.decode(p.value)
	case 1000:
		cur.attrs.setValue(r.decode(p.value))
	case 1001:
		cur.attrs.setKey(r.decode(p.value))
	case 70:
		v, err := parseInt(p)
		if err != nil {
			return err
		}
		cur.flags = v
	default:
		return r.numeric(cur, p)
	}
	return nil
}

// numeric handles coordinate and numeric op-codes.
func (r *Reader) numeric(cur *record, p pair) error {
	switch p.code {
	case 10, 20, 30, 11, 21, 31, 38, 40, 41, 42, 43, 50:
	default:
		return nil
	}
	v, err := parseFloat(p)
	if err != nil {
		return err
	}

	if cur.kind == recordLWPolyline {
		switch p.code {
		case 10:
			if cur.hasPending {
				cur.line.Points = append(cur.line.Points, cur.pending)
			}
			cur.pending = model.Point{X: v}
			cur.hasPending = true
		case 20:
			cur.pending.Y = v
		case 38:
			cur.elevation = v
		}
		return nil
	}

	switch p.code {
	case 10:
		cur.point.X = v
	case 20:
		cur.point.Y = v
	case 30:
		cur.point.Z = v
	case 11:
		cur.end.X = v
	case 21:
		cur.end.Y = v
	case 31:
		cur.end.Z = v
	case 40:
		cur.text.Height = v
	case 41:
		cur.scale.X = v
	case 42:
		cur.scale.Y = v
	case 43:
		cur.scale.Z = v
	case 50:
		cur.text.Rotation = v
		cur.rotation = v
	}
	if cur.kind == recordText {
		cur.text.X, cur.text.Y, cur.text.Z = cur.point.X, cur.point.Y, cur.point.Z
	}
	return nil
}

func (r *Reader) headerValue(p pair) {
	switch p.code {
	case 9:
		r.headerVar = p.value
	case 1:
		if r.headerVar == "$ACADVER" {
			r.acadver = p.value
		}
	case 3:
		if r.headerVar == "$DWGCODEPAGE" {
			r.codepage = p.value
		}
	}
}

// endHeader selects the text decoder once the header has been read.
func (r *Reader) endHeader() {
	switch {
	case utf8Version(r.acadver):
		r.decoder = nil
	case r.codepage != "":
		if _, ok := newDecoder(r.codepage); ok {
			r.setCodepage(r.codepage)
		} else {
			r.logger.Debug("unknown codepage, using fallback", "codepage", r.codepage, "fallback", r.fallbackCodepage())
			r.setCodepage(r.fallbackCodepage())
		}
	}
}

func (r *Reader) fallbackCodepage() string {
	if r.fallback != "" {
		return r.fallback
	}
	return DefaultCodepage
}

func (r *Reader) setCodepage(name string) {
	r.decoder, _ = newDecoder(name)
}

// decode converts a raw value from the drawing's codepage to UTF-8
func (r *Reader) decode(s string) string {
	if r.decoder == nil {
		return s
	}
	out, err := r.decoder.String(s)
	if err != nil {
		return s
	}
	return out
}

func (r *Reader) emitText(layer string, t model.Text) {
	if r.block != nil {
		r.blocks.addText(r.block, t, r.logger)
		return
	}
	r.ensureLayer(layer)
	r.drawing.AddText(layer, t)
}

func (r *Reader) emitPoint(layer string, p model.PointEntity) {
	if r.block != nil {
		r.blocks.addPoint(r.block, p, r.logger)
		return
	}
	r.ensureLayer(layer)
	r.drawing.AddPoint(layer, p)
}

// emitPolyline stores pl, reconciling its topology first unless it is a
// block template.
func (r *Reader) emitPolyline(layer string, pl model.Polyline) {
	if len(pl.Points) < 2 {
		r.logger.Debug("dropping polyline with fewer than two points", "layer", layer)
		return
	}
	if r.block != nil {
		r.blocks.addLine(r.block, pl, r.logger)
		return
	}
	if r.repairer != nil {
		r.repairer.Reconcile(&pl)
	} else if pl.Closed || pl.IsRing() {
		pl.Close()
	}
	r.ensureLayer(layer)
	r.drawing.AddPolyline(layer, pl)
}

func (r *Reader) ensureLayer(name string) {
	if _, created := r.drawing.EnsureLayer(name); created {
		r.logger.Debug("layer created on first reference", "layer", name)
	}
}

func (r *Reader) endBlock() {
	if r.block == nil {
		return
	}
	r.blocks.put(r.block, r.logger)
	r.block = nil
}

func sectionByName(name string) section {
	switch strings.TrimSpace(name) {
	case "HEADER":
		return sectionHeader
	case "TABLES":
		return sectionTables
	case "BLOCKS":
		return sectionBlocks
	case "ENTITIES":
		return sectionEntities
	default:
		return sectionOther
	}
}

func parseFloat(p pair) (float64, error) {
	v, err := strconv.ParseFloat(p.value, 64)
	if err != nil {
		return 0, &FormatError{Line: p.line + 1, Msg: fmt.Sprintf("invalid numeric value %q for op-code %d", p.value, p.code)}
	}
	return v, nil
}

func parseInt(p pair) (int, error) {
	v, err := strconv.Atoi(p.value)
	if err != nil {
		f, ferr := strconv.ParseFloat(p.value, 64)
		if ferr != nil {
			return 0, &FormatError{Line: p.line + 1, Msg: fmt.Sprintf("invalid integer value %q for op-code %d", p.value, p.code)}
		}
		v = int(f)
	}
	return v, nil
}
