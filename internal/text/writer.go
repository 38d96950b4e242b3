package text

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/dyuri/dxfconv/internal/model"
	"golang.org/x/text/encoding"
)

// Writer handles writing a drawing as ASCII DXF (R12 entity set)
type Writer struct {
	w        *bufio.Writer
	codepage string
	explicit bool // codepage chosen with WithCodepage
	encoder  *encoding.Encoder
	err      error
}

// NewWriter creates a new DXF writer. Strings are encoded in the drawing's
// declared codepage, or DefaultCodepage if it declares none.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:        bufio.NewWriter(w),
		codepage: DefaultCodepage,
		encoder:  newEncoder(DefaultCodepage),
	}
}

// WithCodepage selects the output codepage ($DWGCODEPAGE).
func (w *Writer) WithCodepage(name string) *Writer {
	w.codepage = name
	w.explicit = true
	w.encoder = newEncoder(name)
	return w
}

// Write outputs the drawing. Polygons with holes are written as one closed
// POLYLINE that walks the exterior and retraces a bridge edge to each hole,
// which the reader's retrace cancellation turns back into holes.
func (w *Writer) Write(d *model.Drawing) error {
	if !w.explicit && d.Codepage != "" {
		w.codepage = d.Codepage
		w.encoder = newEncoder(d.Codepage)
	}

	w.writeHeader()
	w.writeLayerTable(d)

	w.pair(0, "SECTION")
	w.pair(2, "ENTITIES")
	for _, l := range d.Layers {
		for _, t := range l.Texts {
			w.writeText(l.Name, t)
		}
		for _, p := range l.Points {
			w.writePoint(l.Name, p)
		}
		for _, pl := range l.Lines {
			w.writePolyline(l.Name, pl.Points, false, pl.Attrs)
		}
		for _, pl := range l.Polygons {
			w.writePolyline(l.Name, retracedRing(pl), true, pl.Attrs)
		}
	}
	w.pair(0, "ENDSEC")
	w.pair(0, "EOF")

	if w.err != nil {
		return fmt.Errorf("write DXF: %w", w.err)
	}
	return w.w.Flush()
}

func (w *Writer) writeHeader() {
	w.pair(0, "SECTION")
	w.pair(2, "HEADER")
	w.pair(9, "$ACADVER")
	w.pair(1, "AC1009")
	w.pair(9, "$DWGCODEPAGE")
	w.pair(3, w.codepage)
	w.pair(0, "ENDSEC")
}

func (w *Writer) writeLayerTable(d *model.Drawing) {
	w.pair(0, "SECTION")
	w.pair(2, "TABLES")
	w.pair(0, "TABLE")
	w.pair(2, "LAYER")
	w.pair(70, strconv.Itoa(len(d.Layers)))
	for _, l := range d.Layers {
		w.pair(0, "LAYER")
		w.str(2, l.Name)
		w.pair(70, "0")
		w.pair(62, "7")
		w.pair(6, "CONTINUOUS")
	}
	w.pair(0, "ENDTAB")
	w.pair(0, "ENDSEC")
}

func (w *Writer) writeText(layer string, t model.Text) {
	w.pair(0, "TEXT")
	w.str(8, layer)
	w.xyz(10, model.Point{X: t.X, Y: t.Y, Z: t.Z})
	w.float(40, t.Height)
	w.str(1, t.Label)
	if t.Rotation != 0 {
		w.float(50, t.Rotation)
	}
	w.attrs(t.Attrs)
}

func (w *Writer) writePoint(layer string, p model.PointEntity) {
	w.pair(0, "POINT")
	w.str(8, layer)
	w.xyz(10, model.Point{X: p.X, Y: p.Y, Z: p.Z})
	w.attrs(p.Attrs)
}

func (w *Writer) writePolyline(layer string, pts []model.Point, closed bool, attrs []model.Attribute) {
	flags := 0
	if closed {
		flags |= 1
	}
	for _, p := range pts {
		if p.Z != 0 {
			flags |= 8 // 3D polyline
			break
		}
	}

	w.pair(0, "POLYLINE")
	w.str(8, layer)
	w.pair(66, "1")
	w.pair(70, strconv.Itoa(flags))
	w.xyz(10, model.Point{})
	w.attrs(attrs)
	for _, p := range pts {
		w.pair(0, "VERTEX")
		w.str(8, layer)
		w.xyz(10, p)
	}
	w.pair(0, "SEQEND")
	w.str(8, layer)
}

// retracedRing flattens a polygon into exterior, then for each hole the
// hole ring followed by a return to the exterior's first point.
func retracedRing(pl model.Polyline) []model.Point {
	if len(pl.Holes) == 0 {
		return pl.Points
	}
	start := pl.Points[0]
	out := append([]model.Point(nil), pl.Points...)
	for _, h := range pl.Holes {
		out = append(out, h.Points...)
		out = append(out, start)
	}
	return out
}

func (w *Writer) attrs(list []model.Attribute) {
	for _, a := range list {
		w.str(1001, a.Key)
		w.str(1000, a.Value)
	}
}

func (w *Writer) xyz(code int, p model.Point) {
	w.float(code, p.X)
	w.float(code+10, p.Y)
	w.float(code+20, p.Z)
}

func (w *Writer) float(code int, v float64) {
	w.pair(code, strconv.FormatFloat(v, 'f', -1, 64))
}

// str writes a string value encoded in the output codepage.
func (w *Writer) str(code int, s string) {
	if w.encoder != nil {
		if enc, err := w.encoder.String(s); err == nil {
			s = enc
		}
	}
	w.pair(code, s)
}

func (w *Writer) pair(code int, value string) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, "%3d\n%s\n", code, value)
}
