// Package config loads insetkit configuration files.
//
// Configuration is TOML. Every field is optional; [Default] holds the values
// used for missing ones:
//
//	[coordinator]
//	insets_track = "insets"
//	annotation_tracks = ["genes", "loops"]
//	threshold = 24
//	mode = "center"
//
//	[sizes]
//	min = 24
//	max = 64
//	step = 8
//
//	[gallery]
//	resolution = 64
//	padding = 4
//
//	[eviction]
//	policy = "misses"
//	after = 3
//
// Field constraints are declared as validator tags and checked by
// [Config.Validate].
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/insetkit/pkg/coordinator"
	"github.com/matzehuels/insetkit/pkg/errors"
	"github.com/matzehuels/insetkit/pkg/insets"
	"github.com/matzehuels/insetkit/pkg/layout"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "insetkit.toml"

var validate = newValidator()

// newValidator reports fields by their TOML keys.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		return name
	})
	return v
}

// Config is the content of a configuration file.
type Config struct {
	Coordinator Coordinator `toml:"coordinator"`
	Sizes       Sizes       `toml:"sizes"`
	Gallery     Gallery     `toml:"gallery"`
	Center      Center      `toml:"center"`
	Eviction    Eviction    `toml:"eviction"`
	Server      Server      `toml:"server"`
	Log         Log         `toml:"log"`
}

type Coordinator struct {
	InsetsTrack      string   `toml:"insets_track" validate:"omitempty,max=256"`
	AnnotationTracks []string `toml:"annotation_tracks" validate:"dive,required,max=256"`
	Threshold        float64  `toml:"threshold" validate:"gt=0"`
	Mode             string   `toml:"mode" validate:"oneof=center gallery"`
}

type Sizes struct {
	Min     float64 `toml:"min" validate:"gt=0"`
	Max     float64 `toml:"max" validate:"gt=0,gtefield=Min"`
	Step    float64 `toml:"step" validate:"gt=0"`
	Default float64 `toml:"default" validate:"gte=0"`
}

type Gallery struct {
	Resolution float64 `toml:"resolution" validate:"gt=0"`
	Padding    float64 `toml:"padding" validate:"gte=0"`
	Offset     float64 `toml:"offset" validate:"gte=0"`
	Depth      float64 `toml:"depth" validate:"gte=0"`
}

// Center holds the annealing weights. Zero values keep the defaults.
type Center struct {
	Leader      float64 `toml:"leader" validate:"gte=0"`
	LabelLabel  float64 `toml:"label_label" validate:"gte=0"`
	LabelAnchor float64 `toml:"label_anchor" validate:"gte=0"`
	Bounds      float64 `toml:"bounds" validate:"gte=0"`
	MaxMove     float64 `toml:"max_move" validate:"gte=0"`
}

type Eviction struct {
	Policy string `toml:"policy" validate:"oneof=never scale misses"`
	After  int    `toml:"after" validate:"gt=0"`
}

type Server struct {
	Addr         string `toml:"addr" validate:"required,hostname_port"`
	// CacheEntries bounds the in-memory layout response cache; 0 disables it.
	CacheEntries int `toml:"cache_entries" validate:"gte=0"`
}

type Log struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Coordinator: Coordinator{
			InsetsTrack: "insets",
			Threshold:   coordinator.DefaultThreshold,
			Mode:        layout.ModeCenter,
		},
		Sizes: Sizes{
			Min:  coordinator.DefaultMinSize,
			Max:  coordinator.DefaultMaxSize,
			Step: coordinator.DefaultSizeStep,
		},
		Gallery: Gallery{
			Resolution: layout.DefaultResolution,
			Padding:    4,
		},
		Center: Center{
			Leader:      layout.DefaultWeights.Leader,
			LabelLabel:  layout.DefaultWeights.LabelLabel,
			LabelAnchor: layout.DefaultWeights.LabelAnchor,
			Bounds:      layout.DefaultWeights.Bounds,
			MaxMove:     layout.DefaultWeights.MaxMove,
		},
		Eviction: Eviction{
			Policy: string(insets.EvictNever),
			After:  coordinator.DefaultEvictAfter,
		},
		Server: Server{Addr: "localhost:8080", CacheEntries: 128},
		Log:    Log{Level: "info"},
	}
}

// Load reads the file at path on top of [Default] and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return Parse(data)
}

// LoadOptional loads path when it exists and returns [Default] otherwise.
func LoadOptional(path string) (Config, error) {
	if _, err := os.Stat(path); stderrors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes TOML data on top of [Default] and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field constraint.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, formatValidationError(err), "invalid config")
	}
	return nil
}

// Encode writes c as TOML.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode config")
	}
	return buf.Bytes(), nil
}

// Options converts c to coordinator options.
func (c Config) Options(logger *log.Logger) coordinator.Options {
	return coordinator.Options{
		InsetsTrack:      c.Coordinator.InsetsTrack,
		AnnotationTracks: c.Coordinator.AnnotationTracks,
		Threshold:        c.Coordinator.Threshold,
		Mode:             c.Coordinator.Mode,
		MinSize:          c.Sizes.Min,
		MaxSize:          c.Sizes.Max,
		SizeStep:         c.Sizes.Step,
		DefaultSize:      c.Sizes.Default,
		Resolution:       c.Gallery.Resolution,
		Padding:          c.Gallery.Padding,
		Offset:           c.Gallery.Offset,
		Depth:            c.Gallery.Depth,
		Weights: layout.Weights{
			Leader:      c.Center.Leader,
			LabelLabel:  c.Center.LabelLabel,
			LabelAnchor: c.Center.LabelAnchor,
			Bounds:      c.Center.Bounds,
			MaxMove:     c.Center.MaxMove,
		},
		Eviction:   insets.EvictionPolicy(c.Eviction.Policy),
		EvictAfter: c.Eviction.After,
		Logger:     logger,
	}
}

// formatValidationError reports the first failed constraint by its TOML key.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	e := verrs[0]
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "required":
		return fmt.Errorf("%s: field is required", field)
	case "gt", "gte":
		return fmt.Errorf("%s: must be %s %s", field, map[string]string{"gt": ">", "gte": ">="}[e.Tag()], e.Param())
	case "gtefield":
		return fmt.Errorf("%s: must not be less than %s", field, e.Param())
	case "oneof":
		return fmt.Errorf("%s: must be one of: %s", field, e.Param())
	case "max":
		return fmt.Errorf("%s: must not exceed %s", field, e.Param())
	default:
		return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
	}
}
