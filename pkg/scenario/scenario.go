// Package scenario describes recorded draw cycles and replays them through a
// [coordinator.Coordinator].
//
// A scenario is a YAML document:
//
//	name: two tracks
//	canvas: {width: 800, height: 600}
//	insets_track: insets
//	tracks: [genes, loops]
//	fail: [g2]            # draws of these insets fail
//	frames:
//	  - annotations:
//	      - {track: genes, id: g1, view: [100, 100, 5, 5], data: [100, 200, 100, 200]}
//	      - {track: loops, id: l1, view: [300, 200, 80, 60], data: [0, 9000, 0, 9000]}
//	  - zoom: {k: 1, tx: 20, ty: 0}
//	    annotations:
//	      - {track: genes, id: g1, view: [120, 100, 5, 5], data: [100, 200, 100, 200]}
//	    complete: [genes, loops]
//
// Each frame optionally starts a new epoch with a zoom event, publishes its
// annotations and then one completion per track in complete (all tracks when
// omitted). View rectangles are [x, y, width, height]; data extents are
// [x1, x2, y1, y2].
package scenario

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/insetkit/pkg/bus"
	"github.com/matzehuels/insetkit/pkg/errors"
)

// Scenario is a recorded sequence of draw cycles.
type Scenario struct {
	Name        string   `yaml:"name,omitempty" json:"name,omitempty"`
	Canvas      Canvas   `yaml:"canvas" json:"canvas"`
	InsetsTrack string   `yaml:"insets_track,omitempty" json:"insets_track,omitempty"`
	Tracks      []string `yaml:"tracks" json:"tracks"`
	Fail        []string `yaml:"fail,omitempty" json:"fail,omitempty"`
	Frames      []Frame  `yaml:"frames" json:"frames"`
}

// Canvas is the size of the host view in px.
type Canvas struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Frame is one draw cycle.
type Frame struct {
	Zoom        *Zoom        `yaml:"zoom,omitempty" json:"zoom,omitempty"`
	Annotations []Annotation `yaml:"annotations,omitempty" json:"annotations,omitempty"`
	// Complete lists the tracks reporting completion, in order. Nil means
	// every track; an empty list means none.
	Complete []string `yaml:"complete,omitempty" json:"complete,omitempty"`
}

// Zoom is a zoom transform.
type Zoom struct {
	K  float64 `yaml:"k" json:"k"`
	TX float64 `yaml:"tx,omitempty" json:"tx,omitempty"`
	TY float64 `yaml:"ty,omitempty" json:"ty,omitempty"`
}

// Annotation is one drawn annotation.
type Annotation struct {
	Track string     `yaml:"track" json:"track"`
	ID    string     `yaml:"id" json:"id"`
	View  [4]float64 `yaml:"view,flow" json:"view"`
	Data  [4]float64 `yaml:"data,flow" json:"data"`
}

// Event returns the bus event for a.
func (a Annotation) Event() bus.AnnotationDrawn {
	return bus.AnnotationDrawn{
		Source: a.Track,
		ID:     a.ID,
		View:   bus.Rect{X: a.View[0], Y: a.View[1], Width: a.View[2], Height: a.View[3]},
		Data:   bus.DataRect{X1: a.Data[0], X2: a.Data[1], Y1: a.Data[2], Y2: a.Data[3]},
	}
}

// DefaultInsetsTrack is used when a scenario names no insets track.
const DefaultInsetsTrack = "insets"

// Read decodes a YAML scenario from r and validates it.
func Read(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "decode scenario")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads the scenario file at path.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scenario %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Validate checks the canvas, tracks and annotation identifiers. Annotations
// and completions may name undeclared tracks; the coordinator ignores them.
func (s *Scenario) Validate() error {
	if s.InsetsTrack == "" {
		s.InsetsTrack = DefaultInsetsTrack
	}
	if !(s.Canvas.Width > 0) || !(s.Canvas.Height > 0) {
		return errors.New(errors.ErrCodeInvalidScenario, "canvas must have a positive size, got %vx%v", s.Canvas.Width, s.Canvas.Height)
	}
	if len(s.Tracks) == 0 {
		return errors.New(errors.ErrCodeInvalidScenario, "at least one track is required")
	}
	tracks := make(map[string]bool, len(s.Tracks))
	for _, t := range s.Tracks {
		if err := errors.ValidateTrackID(t); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScenario, err, "track %q", t)
		}
		if tracks[t] {
			return errors.New(errors.ErrCodeInvalidScenario, "duplicate track %q", t)
		}
		tracks[t] = true
	}
	for i, f := range s.Frames {
		if f.Zoom != nil && !(f.Zoom.K > 0) {
			return errors.New(errors.ErrCodeInvalidScenario, "frame %d: zoom scale must be positive", i)
		}
		for _, a := range f.Annotations {
			if err := errors.ValidateID(a.ID); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidScenario, err, "frame %d", i)
			}
			if a.View[2] < 0 || a.View[3] < 0 {
				return errors.New(errors.ErrCodeInvalidScenario, "frame %d: annotation %s has a negative size", i, a.ID)
			}
		}
	}
	return nil
}

// Annotations returns the number of annotations over all frames.
func (s *Scenario) Annotations() int {
	n := 0
	for _, f := range s.Frames {
		n += len(f.Annotations)
	}
	return n
}
