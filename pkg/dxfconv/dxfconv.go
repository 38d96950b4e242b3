// Package dxfconv provides functions for reading ASCII DXF drawings and
// converting them to GIS formats.
//
// Closed polylines are repaired while reading: boundaries that retrace a
// bridge edge to reach a hole, or that concatenate several closed rings in
// one vertex list, are rebuilt into polygons with holes.
//
// Example usage:
//
//	f, _ := os.Open("parcels.dxf")
//	defer f.Close()
//
//	d, err := dxfconv.ParseDXF(f, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, _ := os.Create("parcels.geojson")
//	defer out.Close()
//	dxfconv.WriteGeoJSON(out, d, nil)
package dxfconv

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/dyuri/dxfconv/internal/export"
	"github.com/dyuri/dxfconv/internal/model"
	"github.com/dyuri/dxfconv/internal/relate"
	"github.com/dyuri/dxfconv/internal/text"
	"github.com/dyuri/dxfconv/internal/topology"
)

// Options configures reading
type Options struct {
	Codepage string      // Assumed when the drawing declares none (default ANSI_1252)
	Retrace  bool        // Repair retraced boundaries
	Split    bool        // Repair concatenated boundaries
	Logger   *log.Logger // Debug diagnostics (optional)
}

// DefaultOptions enables both repairs.
func DefaultOptions() *Options {
	return &Options{
		Codepage: text.DefaultCodepage,
		Retrace:  true,
		Split:    true,
	}
}

// Result is a parsed drawing with repair statistics
type Result struct {
	Drawing *model.Drawing
	Stats   topology.Stats
}

// Parse reads an ASCII DXF drawing.
//
// Example:
//
//	f, _ := os.Open("parcels.dxf")
//	defer f.Close()
//	res, err := Parse(f, DefaultOptions())
//	fmt.Println(res.Stats.Retraced, "rings repaired")
func Parse(r io.Reader, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	rep := topology.NewRepairer(relate.New(), opts.Logger)
	rep.Retrace = opts.Retrace
	rep.Split = opts.Split

	reader := text.NewReader(r).WithRepairer(rep).WithLogger(opts.Logger)
	if opts.Codepage != "" {
		reader.WithCodepage(opts.Codepage)
	}

	d, err := reader.Read()
	if err != nil {
		var fe *text.FormatError
		if errors.As(err, &fe) {
			return nil, &Error{Code: CodeInvalidFormat, Message: "invalid DXF", Cause: err}
		}
		return nil, &Error{Code: CodeIO, Message: "read DXF", Cause: err}
	}
	return &Result{Drawing: d, Stats: rep.Stats}, nil
}

// ParseDXF reads an ASCII DXF drawing and returns the layer model.
func ParseDXF(r io.Reader, opts *Options) (*model.Drawing, error) {
	res, err := Parse(r, opts)
	if err != nil {
		return nil, err
	}
	return res.Drawing, nil
}

// WriteDXF writes the drawing as ASCII DXF.
//
// Polygons with holes are written as single closed polylines that ParseDXF
// turns back into polygons with holes. Text is encoded in the drawing's
// declared codepage.
func WriteDXF(w io.Writer, d *model.Drawing) error {
	if err := text.NewWriter(w).Write(d); err != nil {
		return &Error{Code: CodeIO, Message: "write DXF", Cause: err}
	}
	return nil
}

// WriteGeoJSON writes the drawing as a GeoJSON FeatureCollection.
func WriteGeoJSON(w io.Writer, d *model.Drawing, opts *export.Options) error {
	if err := export.WriteGeoJSON(w, d, opts); err != nil {
		return &Error{Code: CodeIO, Message: "write GeoJSON", Cause: err}
	}
	return nil
}

// WriteFlatGeobuf writes the drawing as FlatGeobuf.
func WriteFlatGeobuf(w io.Writer, d *model.Drawing, opts *export.Options) error {
	if err := export.WriteFlatGeobuf(w, d, opts); err != nil {
		if errors.Is(err, export.ErrNoFeatures) {
			return &Error{Code: CodeEmpty, Message: "nothing to write", Cause: err}
		}
		return &Error{Code: CodeIO, Message: "write FlatGeobuf", Cause: err}
	}
	return nil
}

// Write writes the drawing in the named format: geojson, fgb or dxf.
func Write(w io.Writer, d *model.Drawing, format string, opts *export.Options) error {
	switch format {
	case "geojson":
		return WriteGeoJSON(w, d, opts)
	case "fgb":
		return WriteFlatGeobuf(w, d, opts)
	case "dxf":
		return WriteDXF(w, d)
	default:
		return &Error{Code: CodeUnsupportedFormat, Message: fmt.Sprintf("unsupported output format %q", format)}
	}
}

// Error codes
const (
	CodeInvalidFormat     = "invalid_format"
	CodeUnsupportedFormat = "unsupported_format"
	CodeIO                = "io_error"
	CodeEmpty             = "empty"
)

// Common errors, for use with errors.Is
var (
	ErrInvalidFormat     = &Error{Code: CodeInvalidFormat, Message: "invalid file format"}
	ErrUnsupportedFormat = &Error{Code: CodeUnsupportedFormat, Message: "unsupported format"}
	ErrEmpty             = &Error{Code: CodeEmpty, Message: "nothing to write"}
)

// Error represents a dxfconv error
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}
