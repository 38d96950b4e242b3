package export

import (
	"fmt"
	"io"

	"github.com/dyuri/dxfconv/internal/model"
)

// WriteGeoJSON writes the drawing as a GeoJSON FeatureCollection.
func WriteGeoJSON(w io.Writer, d *model.Drawing, opts *Options) error {
	fc := Features(d, opts)
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal feature collection: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write GeoJSON: %w", err)
	}
	return nil
}
