package scenario

import (
	"context"

	"github.com/matzehuels/insetkit/pkg/bus"
	"github.com/matzehuels/insetkit/pkg/coordinator"
)

// Step is the outcome of replaying one frame.
type Step struct {
	Index int   `json:"index"`
	Frame Frame `json:"-"`
	// Drawn reports whether the frame completed a round and ran a pass.
	Drawn    bool                 `json:"drawn"`
	Snapshot coordinator.Snapshot `json:"snapshot"`
}

// Result is the outcome of a full replay.
type Result struct {
	Scenario string               `json:"scenario,omitempty"`
	Steps    []Step               `json:"steps"`
	Final    coordinator.Snapshot `json:"final"`
	Redraws  int                  `json:"redraws"`
	Failed   int                  `json:"failed"`
}

// Replayer feeds the frames of a scenario to a coordinator one at a time.
type Replayer struct {
	scenario *Scenario
	bus      *bus.Bus
	host     *MemoryHost
	coord    *coordinator.Coordinator
	next     int
}

// NewReplayer creates a coordinator for s on a fresh bus and in-memory host.
// The insets track always comes from s; annotation tracks come from s unless
// opts names some.
func NewReplayer(ctx context.Context, s *Scenario, opts coordinator.Options) (*Replayer, error) {
	opts.InsetsTrack = s.InsetsTrack
	if len(opts.AnnotationTracks) == 0 {
		opts.AnnotationTracks = s.Tracks
	}
	b := bus.New()
	host := NewMemoryHost(s)
	c, err := coordinator.New(host, b, opts, coordinator.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return &Replayer{scenario: s, bus: b, host: host, coord: c}, nil
}

// Len returns the number of frames.
func (r *Replayer) Len() int { return len(r.scenario.Frames) }

// Done reports whether every frame was replayed.
func (r *Replayer) Done() bool { return r.next >= len(r.scenario.Frames) }

// Host returns the in-memory host.
func (r *Replayer) Host() *MemoryHost { return r.host }

// Coordinator returns the coordinator under replay.
func (r *Replayer) Coordinator() *coordinator.Coordinator { return r.coord }

// Next replays the next frame. It returns false once every frame was replayed.
func (r *Replayer) Next() (Step, bool) {
	if r.Done() {
		return Step{}, false
	}
	i := r.next
	r.next++
	f := r.scenario.Frames[i]
	before := len(r.host.Draws())

	if f.Zoom != nil {
		bus.Publish(r.bus, bus.ZoomTopic(r.scenario.InsetsTrack), bus.Zoom{K: f.Zoom.K, TX: f.Zoom.TX, TY: f.Zoom.TY})
	}
	for _, a := range f.Annotations {
		bus.Publish(r.bus, bus.AnnotationDrawnTopic(a.Track), a.Event())
	}
	complete := f.Complete
	if complete == nil {
		complete = r.scenario.Tracks
	}
	for _, t := range complete {
		bus.Publish(r.bus, bus.TilesDrawnEnd, bus.TilesDrawn{Source: t})
	}

	return Step{
		Index:    i,
		Frame:    f,
		Drawn:    len(r.host.Draws()) > before,
		Snapshot: r.coord.Snapshot(),
	}, true
}

// Close tears the coordinator down.
func (r *Replayer) Close() { r.coord.Remove() }

// Replay runs every frame of s and returns the collected steps.
func Replay(ctx context.Context, s *Scenario, opts coordinator.Options) (*Result, error) {
	r, err := NewReplayer(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	res := &Result{Scenario: s.Name}
	for {
		step, ok := r.Next()
		if !ok {
			break
		}
		res.Steps = append(res.Steps, step)
	}
	res.Final = r.coord.Snapshot()
	res.Redraws = r.host.Redraws()
	res.Failed = r.host.Failed()
	return res, nil
}
