package topology

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/dyuri/dxfconv/internal/model"
)

// Stats counts Repairer outcomes.
type Stats struct {
	Rings     int // Polylines classified as closed
	Retraced  int // Repaired by retrace cancellation
	Split     int // Repaired by repeated-vertex splitting
	Unchanged int // Closed polylines left as read
}

// Repairer reconciles polylines as they are completed by the reader.
type Repairer struct {
	Predicates Predicates
	Retrace    bool // Run retrace cancellation
	Split      bool // Run repeated-vertex splitting
	Logger     *log.Logger
	Stats      Stats
}

// NewRepairer creates a Repairer with both heuristics enabled.
func NewRepairer(pred Predicates, logger *log.Logger) *Repairer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Repairer{
		Predicates: pred,
		Retrace:    true,
		Split:      true,
		Logger:     logger,
	}
}

// Reconcile classifies p as closed when its closed flag is set or its first
// and last points coincide. Closed polylines are explicitly closed and then
// offered to the heuristics in order; open polylines pass through unchanged.
func (r *Repairer) Reconcile(p *model.Polyline) {
	if !p.Closed && !p.IsRing() {
		return
	}
	p.Close()
	r.Stats.Rings++

	if r.Predicates == nil {
		r.Stats.Unchanged++
		return
	}

	if r.Retrace {
		err := Retrace(p, r.Predicates)
		if err == nil {
			r.Stats.Retraced++
			r.logger().Debug("retraced ring repaired", "points", len(p.Points), "holes", len(p.Holes))
			return
		}
		if !errors.Is(err, ErrNoRetrace) {
			r.logger().Debug("retrace declined", "points", len(p.Points), "reason", err)
		}
	}

	if r.Split {
		err := Split(p, r.Predicates)
		if err == nil {
			r.Stats.Split++
			r.logger().Debug("concatenated ring repaired", "points", len(p.Points), "holes", len(p.Holes))
			return
		}
		if !errors.Is(err, ErrNoRepeatedVertex) {
			r.logger().Debug("split declined", "points", len(p.Points), "reason", err)
		}
	}

	r.Stats.Unchanged++
}

func (r *Repairer) logger() *log.Logger {
	if r.Logger == nil {
		r.Logger = log.New(io.Discard)
	}
	return r.Logger
}
