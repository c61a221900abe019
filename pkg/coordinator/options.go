package coordinator

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/insetkit/pkg/errors"
	"github.com/matzehuels/insetkit/pkg/insets"
	"github.com/matzehuels/insetkit/pkg/layout"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultThreshold is the largest view-space width and height, in px, at
	// which an annotation is shown as an inset.
	DefaultThreshold = 24.0

	// DefaultMinSize and DefaultMaxSize bound the inset pixel sizes.
	DefaultMinSize = 24.0
	DefaultMaxSize = 64.0

	// DefaultSizeStep is the distance between two allowed inset sizes.
	DefaultSizeStep = 8.0

	// DefaultEvictAfter is the number of missed passes after which the misses
	// policy drops a record.
	DefaultEvictAfter = 3
)

// =============================================================================
// Options
// =============================================================================

// Options configures a [Coordinator]. Zero fields take defaults.
type Options struct {
	// InsetsTrack is the uid of the track insets are drawn into.
	InsetsTrack string
	// AnnotationTracks are the uids of the tracks reporting annotations.
	AnnotationTracks []string

	Threshold float64
	Mode      string

	// Size mapper
	MinSize     float64
	MaxSize     float64
	SizeStep    float64
	DefaultSize float64

	// Gallery
	Resolution float64
	Padding    float64
	Offset     float64
	Depth      float64

	// Center
	Weights layout.Weights

	Eviction   insets.EvictionPolicy
	EvictAfter int

	Logger *log.Logger
}

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Mode == "" {
		o.Mode = layout.ModeCenter
	}
	if o.MinSize == 0 {
		o.MinSize = DefaultMinSize
	}
	if o.MaxSize == 0 {
		o.MaxSize = DefaultMaxSize
	}
	if o.SizeStep == 0 {
		o.SizeStep = DefaultSizeStep
	}
	if o.Resolution == 0 {
		o.Resolution = layout.DefaultResolution
	}
	if o.Eviction == "" {
		o.Eviction = insets.EvictNever
	}
	if o.EvictAfter == 0 {
		o.EvictAfter = DefaultEvictAfter
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the options. Call it after [Options.SetDefaults].
func (o *Options) Validate() error {
	if o.InsetsTrack == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "insets track is required")
	}
	if o.Threshold < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "threshold must not be negative: %v", o.Threshold)
	}
	if err := layout.ValidateMode(o.Mode); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidMode, err, "positioning mode")
	}
	if o.MinSize <= 0 || o.MaxSize <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "inset sizes must be positive: min=%v max=%v", o.MinSize, o.MaxSize)
	}
	if o.MinSize > o.MaxSize {
		return errors.New(errors.ErrCodeInvalidConfig, "min size %v exceeds max size %v", o.MinSize, o.MaxSize)
	}
	if o.SizeStep < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "size step must not be negative: %v", o.SizeStep)
	}
	if _, err := insets.ParseEvictionPolicy(string(o.Eviction)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "eviction")
	}
	if o.EvictAfter < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "evict_after must not be negative: %d", o.EvictAfter)
	}
	return nil
}

func (o *Options) layoutOptions() layout.Options {
	return layout.Options{
		Resolution: o.Resolution,
		Padding:    o.Padding,
		Offset:     o.Offset,
		Depth:      o.Depth,
		Weights:    o.Weights,
		Logger:     o.Logger,
	}
}

// Option customizes a [Coordinator] beyond its [Options].
type Option func(*Coordinator)

// WithContext sets the context passed to the host's draw calls. Cancelling
// it abandons pending draws.
func WithContext(ctx context.Context) Option {
	return func(c *Coordinator) { c.ctx = ctx }
}

// WithStrategy replaces the strategy selected by Options.Mode.
func WithStrategy(s layout.Strategy) Option {
	return func(c *Coordinator) { c.strategy = s }
}
