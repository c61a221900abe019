package layout

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/insetkit/pkg/insets"
	"github.com/matzehuels/insetkit/pkg/spatial"
)

// Positioning modes.
const (
	ModeCenter  = "center"
	ModeGallery = "gallery"
)

// ValidModes is the set of supported positioning modes.
var ValidModes = map[string]bool{
	ModeCenter:  true,
	ModeGallery: true,
}

// ValidateMode checks that a positioning mode is valid.
func ValidateMode(mode string) error {
	if !ValidModes[mode] {
		return fmt.Errorf("invalid mode: %q (must be one of: center, gallery)", mode)
	}
	return nil
}

// Placement is the final position and size of one inset.
type Placement struct {
	ID     string  `json:"id"`
	Source string  `json:"source,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	OX     float64 `json:"ox"`
	OY     float64 `json:"oy"`
	HalfW  float64 `json:"half_width"`
	HalfH  float64 `json:"half_height"`

	Extent insets.Extent `json:"extent"`
}

// Box returns the view-space rectangle covered by the placement.
func (p Placement) Box() insets.Box {
	return insets.Box{MinX: p.X - p.HalfW, MinY: p.Y - p.HalfH, MaxX: p.X + p.HalfW, MaxY: p.Y + p.HalfH}
}

// PlacementOf converts a record to a placement.
func PlacementOf(r *insets.Record) Placement {
	return Placement{
		ID: r.ID, Source: r.Source,
		X: r.X, Y: r.Y, Width: r.Width, Height: r.Height,
		OX: r.OX, OY: r.OY, HalfW: r.HalfW, HalfH: r.HalfH,
		Extent: r.Extent,
	}
}

// Input is everything a strategy may read for one pipeline pass.
type Input struct {
	Width, Height float64

	// Candidates are the loci shown as insets, in arrival order.
	Candidates []insets.Locus
	// Loci are all loci of the epoch, candidates first.
	Loci []insets.Locus

	Flags  insets.EpochFlags
	Domain insets.Domain
	Sizer  insets.SizeMapper

	// Store is the persistent inset state. Strategies that keep no state
	// ignore it.
	Store *insets.Store
	// Index is the read-only spatial index of Loci.
	Index *spatial.Index
}

// SizeFunc returns a size function bound to the input's domain.
func (in Input) SizeFunc() insets.SizeFunc {
	return func(e insets.Extent) (float64, float64) { return in.Sizer.SizeFor(e, in.Domain) }
}

// Strategy positions the inset candidates of one pipeline pass.
type Strategy interface {
	Name() string
	Place(in Input) []Placement
}

// Options configures the strategies. Zero fields take defaults.
type Options struct {
	// Gallery
	Resolution float64 // edge length of a gallery slot's inset, px
	Padding    float64 // space around each slot, px
	Offset     float64 // margin between canvas edge and the slot grid, px
	Depth      float64 // how far slots reach in from the edge, px; 0 means no limit

	// Center
	Weights Weights

	Logger *log.Logger
}

func (o *Options) setDefaults() {
	if o.Resolution <= 0 {
		o.Resolution = DefaultResolution
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	if o.Depth < 0 {
		o.Depth = 0
	}
	if o.Weights == (Weights{}) {
		o.Weights = DefaultWeights
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// New returns the strategy for mode.
func New(mode string, opts Options) (Strategy, error) {
	switch strings.ToLower(mode) {
	case "", ModeCenter:
		return NewCenter(opts), nil
	case ModeGallery:
		return NewGallery(opts), nil
	default:
		return nil, ValidateMode(mode)
	}
}
