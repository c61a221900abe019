package coordinator

import (
	"bytes"
	"context"
	"math"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/insetkit/pkg/bus"
	"github.com/matzehuels/insetkit/pkg/errors"
	"github.com/matzehuels/insetkit/pkg/insets"
	"github.com/matzehuels/insetkit/pkg/layout"
	"github.com/matzehuels/insetkit/pkg/observability"
)

type fakeHost struct {
	tracks        map[string]string
	width, height float64

	fail  map[string]bool
	block bool

	draws   []Snapshot
	redraws int
}

func newFakeHost(tracks ...string) *fakeHost {
	h := &fakeHost{tracks: map[string]string{}, width: 400, height: 300}
	for _, t := range tracks {
		h.tracks[t] = t
	}
	return h
}

func (h *fakeHost) ResolveTrack(uid string) (string, bool) {
	id, ok := h.tracks[uid]
	return id, ok
}

func (h *fakeHost) Dimensions() (float64, float64) { return h.width, h.height }

func (h *fakeHost) DrawInsets(_ context.Context, s Snapshot) []<-chan error {
	h.draws = append(h.draws, s)
	out := make([]<-chan error, 0, len(s.Placements))
	for _, p := range s.Placements {
		ch := make(chan error, 1)
		switch {
		case h.block:
		case h.fail[p.ID]:
			ch <- errors.New(errors.ErrCodeDrawFailed, "cannot draw %s", p.ID)
		default:
			close(ch)
		}
		out = append(out, ch)
	}
	return out
}

func (h *fakeHost) Redraw() { h.redraws++ }

func newTestCoordinator(t *testing.T, host *fakeHost, opts Options, options ...Option) (*Coordinator, *bus.Bus) {
	t.Helper()
	b := bus.New()
	if opts.InsetsTrack == "" {
		opts.InsetsTrack = "insets"
	}
	host.tracks[opts.InsetsTrack] = opts.InsetsTrack
	c, err := New(host, b, opts, options...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c, b
}

func annotate(b *bus.Bus, source, id string, x, y, w, h float64, data bus.DataRect) {
	bus.Publish(b, bus.AnnotationDrawnTopic(source), bus.AnnotationDrawn{
		Source: source,
		ID:     id,
		View:   bus.Rect{X: x, Y: y, Width: w, Height: h},
		Data:   data,
	})
}

func complete(b *bus.Bus, sources ...string) {
	for _, s := range sources {
		bus.Publish(b, bus.TilesDrawnEnd, bus.TilesDrawn{Source: s})
	}
}

func TestBarrierFiresOncePerRound(t *testing.T) {
	host := newFakeHost("a", "b", "c")
	_, b := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"a", "b", "c"}})

	annotate(b, "a", "a1", 10, 10, 5, 5, bus.DataRect{X2: 10, Y2: 10})

	complete(b, "a")
	complete(b, "b")
	if len(host.draws) != 0 {
		t.Fatalf("draws after 2 of 3 completions = %d, want 0", len(host.draws))
	}
	complete(b, "c")
	if len(host.draws) != 1 {
		t.Fatalf("draws after 3 completions = %d, want 1", len(host.draws))
	}

	complete(b, "a", "a", "b")
	if len(host.draws) != 1 {
		t.Fatalf("repeated completions must not count twice, draws = %d", len(host.draws))
	}
	complete(b, "c")
	if len(host.draws) != 2 {
		t.Fatalf("draws after second round = %d, want 2", len(host.draws))
	}
}

func TestTwoSourceScenario(t *testing.T) {
	host := newFakeHost("A", "B")
	_, b := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"A", "B"}, Threshold: 10})

	annotate(b, "A", "small", 100, 100, 5, 5, bus.DataRect{X1: 100, X2: 200, Y1: 100, Y2: 200})
	annotate(b, "B", "large", 200, 150, 50, 50, bus.DataRect{X1: 0, X2: 5000, Y1: 0, Y2: 5000})
	complete(b, "A", "B")

	if len(host.draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(host.draws))
	}
	s := host.draws[0]
	if len(s.Placements) != 1 || s.Placements[0].ID != "small" {
		t.Fatalf("placements = %+v, want exactly the small annotation", s.Placements)
	}
	if !slices.Equal(s.IDs, []string{"small"}) {
		t.Errorf("IDs = %v, want [small]", s.IDs)
	}
	if len(s.Loci) != 2 || s.Loci[0].ID != "small" {
		t.Errorf("loci must list candidates first, got %+v", s.Loci)
	}
	if host.redraws != 1 {
		t.Errorf("redraws = %d, want 1", host.redraws)
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name       string
		x, y, w, h float64
		candidate  bool
	}{
		{"small inside", 10, 10, 5, 5, true},
		{"at threshold", 10, 10, 10, 10, true},
		{"too wide", 10, 10, 11, 5, false},
		{"too tall", 10, 10, 5, 11, false},
		{"off canvas", 1000, 1000, 5, 5, false},
		{"touching edge", -5, 10, 5, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := newFakeHost("a")
			c, b := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"a"}, Threshold: 10})
			annotate(b, "a", "x", tt.x, tt.y, tt.w, tt.h, bus.DataRect{X2: 1, Y2: 1})

			if got := len(c.candidates) == 1; got != tt.candidate {
				t.Errorf("candidate = %v, want %v", got, tt.candidate)
			}
			if len(c.candidates)+len(c.anchors) != 1 {
				t.Errorf("locus must be exactly one of candidate or anchor")
			}
		})
	}
}

func TestDuplicateAnnotationIgnored(t *testing.T) {
	host := newFakeHost("a", "b")
	c, b := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"a", "b"}})

	annotate(b, "a", "x", 10, 10, 5, 5, bus.DataRect{X2: 1})
	annotate(b, "b", "x", 10, 10, 5, 5, bus.DataRect{X2: 1})
	if len(c.candidates) != 1 {
		t.Errorf("candidates = %d, want 1", len(c.candidates))
	}
}

func TestUnknownSourceIgnored(t *testing.T) {
	var logs bytes.Buffer
	host := newFakeHost("a")
	c, _ := newTestCoordinator(t, host, Options{
		AnnotationTracks: []string{"a"},
		Logger:           log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel}),
	})

	c.OnAnnotationDrawn(bus.AnnotationDrawn{Source: "ghost", ID: "g", View: bus.Rect{Width: 1, Height: 1}})
	c.OnTilesDrawn(bus.TilesDrawn{Source: "ghost"})

	if len(c.candidates)+len(c.anchors) != 0 {
		t.Error("annotation from unknown source was recorded")
	}
	if len(c.completed) != 0 {
		t.Error("completion from unknown source was counted")
	}
	if n := strings.Count(logs.String(), string(errors.ErrCodeUnknownSource)); n != 2 {
		t.Errorf("logged %d UNKNOWN_SOURCE errors, want 2:\n%s", n, logs.String())
	}
}

func TestSkipsEmptyPass(t *testing.T) {
	host := newFakeHost("a")
	_, b := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"a"}})

	complete(b, "a", "a")
	if len(host.draws) != 0 || host.redraws != 0 {
		t.Errorf("empty epoch drew %d times, redrew %d times", len(host.draws), host.redraws)
	}
}

func TestMissingTracks(t *testing.T) {
	host := newFakeHost("a")
	c, _ := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"a", "missing"}})
	if got := c.Sources(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Sources() = %v, want [a]", got)
	}

	_, err := New(newFakeHost("a"), bus.New(), Options{InsetsTrack: "nope", AnnotationTracks: []string{"a"}})
	if !errors.Is(err, errors.ErrCodeTrackNotFound) {
		t.Errorf("New() with unknown insets track error = %v, want TRACK_NOT_FOUND", err)
	}
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no insets track", Options{}, errors.ErrCodeInvalidConfig},
		{"bad mode", Options{InsetsTrack: "i", Mode: "spiral"}, errors.ErrCodeInvalidMode},
		{"sizes reversed", Options{InsetsTrack: "i", MinSize: 80, MaxSize: 20}, errors.ErrCodeInvalidConfig},
		{"bad eviction", Options{InsetsTrack: "i", Eviction: "sometimes"}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(newFakeHost("i"), bus.New(), tt.opts)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	host := newFakeHost("a", "b")
	c, b := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"a", "b"}})
	if b.Len() == 0 {
		t.Fatal("no subscriptions after New")
	}

	c.Remove()
	c.Remove()
	if b.Len() != 0 {
		t.Errorf("subscriptions after Remove = %d, want 0", b.Len())
	}

	annotate(b, "a", "x", 10, 10, 5, 5, bus.DataRect{X2: 1})
	complete(b, "a", "b")
	if len(host.draws) != 0 {
		t.Error("removed coordinator still handles events")
	}
}

func TestDrawFailureStillRedraws(t *testing.T) {
	host := newFakeHost("a")
	host.fail = map[string]bool{"x": true}
	_, b := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"a"}})

	rec := &recordingHooks{}
	observability.SetEngineHooks(rec)
	defer observability.Reset()

	annotate(b, "a", "x", 10, 10, 5, 5, bus.DataRect{X2: 1})
	annotate(b, "a", "y", 100, 100, 5, 5, bus.DataRect{X2: 2})
	complete(b, "a")

	if host.redraws != 1 {
		t.Errorf("redraws = %d, want 1", host.redraws)
	}
	if rec.drawn != 2 || rec.failed != 1 {
		t.Errorf("draw hook got drawn=%d failed=%d, want 2 and 1", rec.drawn, rec.failed)
	}
}

func TestCancelledContextAbandonsDraws(t *testing.T) {
	host := newFakeHost("a")
	host.block = true
	ctx, cancel := context.WithCancel(context.Background())
	_, b := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"a"}}, WithContext(ctx))

	annotate(b, "a", "x", 10, 10, 5, 5, bus.DataRect{X2: 1})
	time.AfterFunc(10*time.Millisecond, cancel)
	complete(b, "a")

	if host.redraws != 1 {
		t.Errorf("redraws = %d, want 1", host.redraws)
	}
}

func TestEpochStability(t *testing.T) {
	host := newFakeHost("a", "b")
	c, b := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"a", "b"}})

	round := func(dx, dy float64) Snapshot {
		annotate(b, "a", "x", 100+dx, 100+dy, 5, 5, bus.DataRect{X1: 0, X2: 100})
		annotate(b, "a", "y", 104+dx, 100+dy, 5, 5, bus.DataRect{X1: 0, X2: 400})
		annotate(b, "b", "big", 90+dx, 90+dy, 60, 60, bus.DataRect{X1: 0, X2: 9000})
		complete(b, "a", "b")
		return c.Snapshot()
	}

	first := round(0, 0)
	bus.Publish(b, bus.ZoomTopic("insets"), bus.Zoom{K: 1})
	second := round(0, 0)
	for _, p := range first.Placements {
		q, ok := second.Placement(p.ID)
		if !ok || q.X != p.X || q.Y != p.Y {
			t.Errorf("%s moved from (%v, %v) to (%v, %v) without any change", p.ID, p.X, p.Y, q.X, q.Y)
		}
	}

	bus.Publish(b, bus.ZoomTopic("insets"), bus.Zoom{K: 1, TX: 30, TY: -20})
	third := round(30, -20)
	for _, p := range first.Placements {
		q, _ := third.Placement(p.ID)
		if math.Abs(q.X-p.X-30) > 1e-9 || math.Abs(q.Y-p.Y+20) > 1e-9 {
			t.Errorf("%s did not follow the pan: (%v, %v) -> (%v, %v)", p.ID, p.X, p.Y, q.X, q.Y)
		}
	}
	if third.Epoch != 2 {
		t.Errorf("epoch = %d, want 2", third.Epoch)
	}
}

func TestScaleChangeReheats(t *testing.T) {
	host := newFakeHost("a")
	c, b := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"a"}})

	annotate(b, "a", "x", 100, 100, 5, 5, bus.DataRect{X2: 10})
	complete(b, "a")

	bus.Publish(b, bus.ZoomTopic("insets"), bus.Zoom{K: 2})
	if !c.scaleChanged {
		t.Fatal("scale change not flagged")
	}
	annotate(b, "a", "x", 200, 200, 5, 5, bus.DataRect{X2: 10})
	complete(b, "a")
	if c.scaleChanged {
		t.Error("scale change flag must be cleared after a pass")
	}
	if s := c.Snapshot(); s.Scale != 2 {
		t.Errorf("snapshot scale = %v, want 2", s.Scale)
	}
}

func TestEvictionPolicies(t *testing.T) {
	t.Run("never", func(t *testing.T) {
		host := newFakeHost("a")
		c, b := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"a"}})
		annotate(b, "a", "x", 10, 10, 5, 5, bus.DataRect{X2: 1})
		complete(b, "a")
		for k := 2.0; k < 6; k++ {
			bus.Publish(b, bus.ZoomTopic("insets"), bus.Zoom{K: k})
			annotate(b, "a", "y", 10, 10, 5, 5, bus.DataRect{X2: 1})
			complete(b, "a")
		}
		if _, ok := c.Store().Get("x"); !ok {
			t.Error("never policy evicted a record")
		}
	})

	t.Run("scale", func(t *testing.T) {
		host := newFakeHost("a")
		c, b := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"a"}, Eviction: insets.EvictOnScale})
		annotate(b, "a", "x", 10, 10, 5, 5, bus.DataRect{X2: 1})
		complete(b, "a")

		bus.Publish(b, bus.ZoomTopic("insets"), bus.Zoom{K: 1, TX: 5})
		if c.Store().Len() != 1 {
			t.Error("pan cleared the store")
		}
		bus.Publish(b, bus.ZoomTopic("insets"), bus.Zoom{K: 3})
		if c.Store().Len() != 0 {
			t.Error("scale change kept the store")
		}
	})

	t.Run("misses", func(t *testing.T) {
		host := newFakeHost("a")
		c, b := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"a"}, Eviction: insets.EvictOnMisses, EvictAfter: 2})
		annotate(b, "a", "x", 10, 10, 5, 5, bus.DataRect{X2: 1})
		annotate(b, "a", "y", 50, 50, 5, 5, bus.DataRect{X2: 1})
		complete(b, "a")

		for range 2 {
			bus.Publish(b, bus.ZoomTopic("insets"), bus.Zoom{K: 1})
			annotate(b, "a", "x", 10, 10, 5, 5, bus.DataRect{X2: 1})
			complete(b, "a")
		}
		if _, ok := c.Store().Get("y"); ok {
			t.Error("y survived two missed passes")
		}
		if _, ok := c.Store().Get("x"); !ok {
			t.Error("x was evicted while drawn")
		}
	})
}

func TestIndexRebuiltOnlyForNewIDs(t *testing.T) {
	host := newFakeHost("a")
	c, b := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"a"}})

	annotate(b, "a", "x", 10, 10, 5, 5, bus.DataRect{X2: 1})
	complete(b, "a")
	bus.Publish(b, bus.ZoomTopic("insets"), bus.Zoom{K: 1})
	annotate(b, "a", "x", 10, 10, 5, 5, bus.DataRect{X2: 1})
	complete(b, "a")
	if got := c.Index().Builds(); got != 1 {
		t.Errorf("builds after unchanged redraw = %d, want 1", got)
	}

	bus.Publish(b, bus.ZoomTopic("insets"), bus.Zoom{K: 1})
	annotate(b, "a", "x", 10, 10, 5, 5, bus.DataRect{X2: 1})
	annotate(b, "a", "z", 40, 40, 50, 50, bus.DataRect{X2: 1})
	complete(b, "a")
	if got := c.Index().Builds(); got != 2 {
		t.Errorf("builds after new id = %d, want 2", got)
	}
	if !c.Index().Has("z") {
		t.Error("index lacks the new anchor")
	}
}

func TestGalleryMode(t *testing.T) {
	host := newFakeHost("a")
	c, b := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"a"}, Mode: layout.ModeGallery, Resolution: 40, Padding: 5})
	if c.Strategy().Name() != layout.ModeGallery {
		t.Fatalf("strategy = %s, want gallery", c.Strategy().Name())
	}

	annotate(b, "a", "x", 10, 10, 5, 5, bus.DataRect{X2: 1})
	annotate(b, "a", "y", 20, 20, 5, 5, bus.DataRect{X2: 4})
	complete(b, "a")

	s := c.Snapshot()
	if len(s.Placements) != 2 {
		t.Fatalf("placements = %d, want 2", len(s.Placements))
	}
	if s.Placements[0].X == s.Placements[1].X && s.Placements[0].Y == s.Placements[1].Y {
		t.Error("gallery assigned the same slot twice")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	host := newFakeHost("a")
	c, b := newTestCoordinator(t, host, Options{AnnotationTracks: []string{"a"}})
	annotate(b, "a", "x", 10, 10, 5, 5, bus.DataRect{X2: 1})
	complete(b, "a")

	s := c.Snapshot()
	s.Placements[0].X = -999
	s.IDs[0] = "changed"
	if got := c.Snapshot(); got.Placements[0].X == -999 || got.IDs[0] != "x" {
		t.Error("Snapshot shares memory with the coordinator")
	}
	if host.draws[0].Placements[0].X == -999 {
		t.Error("drawn snapshot shares memory with the returned one")
	}
}

type recordingHooks struct {
	observability.NoopEngineHooks
	drawn, failed int
}

func (r *recordingHooks) OnDrawComplete(_ context.Context, drawn, failed int, _ time.Duration) {
	r.drawn += drawn
	r.failed += failed
}
