package layout

import (
	"github.com/koustreak/erdview/internal/errs"
)

// Direction is the flow of ranks.
type Direction string

const (
	// TopBottom stacks ranks vertically; referencing tables sit above the
	// tables they reference.
	TopBottom Direction = "TB"
	// LeftRight stacks ranks horizontally; referencing tables sit left of the
	// tables they reference.
	LeftRight Direction = "LR"
)

// Options tunes the layout.
type Options struct {
	Direction Direction `koanf:"direction"`

	// Used for nodes that carry no size of their own.
	NodeWidth  float64 `koanf:"node_width"`
	NodeHeight float64 `koanf:"node_height"`

	NodeSep float64 `koanf:"node_sep"` // gap between neighbours in a rank
	RankSep float64 `koanf:"rank_sep"` // gap between ranks
	Margin  float64 `koanf:"margin"`   // padding around the drawing

	// Iterations bounds the crossing-reduction sweeps.
	Iterations int `koanf:"iterations"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Direction:  TopBottom,
		NodeWidth:  250,
		NodeHeight: 200,
		NodeSep:    60,
		RankSep:    120,
		Margin:     40,
		Iterations: 24,
	}
}

// Validate rejects options that cannot produce a drawing.
func (o Options) Validate() error {
	switch o.Direction {
	case TopBottom, LeftRight:
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unknown layout direction %q", o.Direction)
	}
	if o.NodeWidth <= 0 || o.NodeHeight <= 0 {
		return errs.New(errs.ErrKindInvalidInput, "layout node size must be positive")
	}
	if o.NodeSep < 0 || o.RankSep < 0 || o.Margin < 0 {
		return errs.New(errs.ErrKindInvalidInput, "layout spacing must not be negative")
	}
	if o.Iterations < 0 {
		return errs.New(errs.ErrKindInvalidInput, "layout iterations must not be negative")
	}
	return nil
}
