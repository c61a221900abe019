// Package coordinator turns the draw events of a set of annotation tracks
// into inset layouts.
//
// A [Coordinator] subscribes to three topic families on a [bus.Bus]:
//
//   - "<track>.annotationDrawn" for every resolved annotation track: each
//     annotation is classified as an inset candidate or a plain anchor.
//   - "tilesDrawnEnd": once every annotation track reported completion, one
//     pipeline pass runs (index rebuild, layout, draw).
//   - "<insetsTrack>.zoom": starts a new epoch.
//
// All handlers must be called from one goroutine. The only concurrent step
// is the draw fan-out, which receives an immutable [Snapshot] and is awaited
// before the handler returns.
package coordinator

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/insetkit/pkg/bus"
	"github.com/matzehuels/insetkit/pkg/errors"
	"github.com/matzehuels/insetkit/pkg/insets"
	"github.com/matzehuels/insetkit/pkg/layout"
	"github.com/matzehuels/insetkit/pkg/observability"
	"github.com/matzehuels/insetkit/pkg/spatial"
)

// Coordinator synchronizes the draw cycles of its annotation sources and
// places insets once per completed round.
type Coordinator struct {
	host     Host
	bus      *bus.Bus
	opts     Options
	ctx      context.Context
	logger   *log.Logger
	strategy layout.Strategy
	sizer    insets.SizeMapper
	store    *insets.Store
	index    spatial.Index

	insetsTrack string
	sources     map[string]bool
	subs        []bus.Subscription

	// Epoch state, reset by OnZoomChanged.
	epoch        uint64
	scale        float64
	scaleChanged bool
	candidates   []insets.Locus
	anchors      []insets.Locus
	seen         map[string]bool
	completed    map[string]bool
	domain       insets.Domain

	// State carried across passes.
	pass       int
	lastDomain insets.Domain
	last       Snapshot
}

// New resolves the configured tracks through host and subscribes to their
// topics on b. Annotation tracks that cannot be resolved are logged and
// left out; an unresolved insets track is an error.
func New(host Host, b *bus.Bus, opts Options, options ...Option) (*Coordinator, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	c := &Coordinator{
		host:   host,
		bus:    b,
		opts:   opts,
		ctx:    context.Background(),
		logger: opts.Logger,
		sizer:  insets.NewSizeMapper(opts.MinSize, opts.MaxSize, opts.SizeStep, opts.DefaultSize),
		store:  insets.NewStore(),
		scale:  1,
	}
	for _, o := range options {
		o(c)
	}
	if c.strategy == nil {
		s, err := layout.New(opts.Mode, opts.layoutOptions())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidMode, err, "positioning mode")
		}
		c.strategy = s
	}

	id, ok := host.ResolveTrack(opts.InsetsTrack)
	if !ok {
		c.logger.Warn("Insets track not found", "uid", opts.InsetsTrack)
		return nil, errors.New(errors.ErrCodeTrackNotFound, "insets track %q not found", opts.InsetsTrack)
	}
	c.insetsTrack = id

	c.sources = make(map[string]bool, len(opts.AnnotationTracks))
	for _, uid := range opts.AnnotationTracks {
		src, ok := host.ResolveTrack(uid)
		if !ok {
			c.logger.Warn("Annotation track not found", "uid", uid)
			continue
		}
		if c.sources[src] {
			continue
		}
		c.sources[src] = true
		c.subs = append(c.subs, bus.Subscribe(b, bus.AnnotationDrawnTopic(src), c.OnAnnotationDrawn))
	}
	c.subs = append(c.subs,
		bus.Subscribe(b, bus.TilesDrawnEnd, c.OnTilesDrawn),
		bus.Subscribe(b, bus.ZoomTopic(c.insetsTrack), func(z bus.Zoom) { c.OnZoomChanged(z.K) }),
	)

	c.resetEpoch()
	c.logger.Debug("Coordinator ready", "insets", c.insetsTrack, "sources", len(c.sources), "mode", c.strategy.Name())
	return c, nil
}

// Sources returns the resolved annotation source ids, sorted.
func (c *Coordinator) Sources() []string {
	return slices.Sorted(maps.Keys(c.sources))
}

// Strategy returns the active layout strategy.
func (c *Coordinator) Strategy() layout.Strategy { return c.strategy }

// Store returns the inset state store.
func (c *Coordinator) Store() *insets.Store { return c.store }

// Index returns the spatial index of the last pass. It must not be modified.
func (c *Coordinator) Index() *spatial.Index { return &c.index }

// Snapshot returns the result of the last pass.
func (c *Coordinator) Snapshot() Snapshot { return c.last.clone() }

// Epoch returns the current epoch number. The first epoch is 0.
func (c *Coordinator) Epoch() uint64 { return c.epoch }

// Remove unsubscribes every handler. It is safe to call more than once.
func (c *Coordinator) Remove() {
	for _, s := range c.subs {
		c.bus.Unsubscribe(s)
	}
	c.subs = nil
}

// =============================================================================
// Event handlers
// =============================================================================

// OnAnnotationDrawn records one drawn annotation. An annotation whose view
// width and height are both at most the threshold and that intersects the
// canvas becomes an inset candidate; any other is an anchor.
func (c *Coordinator) OnAnnotationDrawn(ev bus.AnnotationDrawn) {
	if !c.sources[ev.Source] {
		c.ignoreSource(ev.Source, "annotationDrawn")
		return
	}
	if c.seen[ev.ID] {
		return
	}
	c.seen[ev.ID] = true

	l := insets.Locus{
		ID:     ev.ID,
		Source: ev.Source,
		Box: insets.Box{
			MinX: ev.View.X,
			MinY: ev.View.Y,
			MaxX: ev.View.X + ev.View.Width,
			MaxY: ev.View.Y + ev.View.Height,
		},
		Extent: insets.Extent{X1: ev.Data.X1, X2: ev.Data.X2, Y1: ev.Data.Y1, Y2: ev.Data.Y2},
	}
	if c.isCandidate(l) {
		c.candidates = append(c.candidates, l)
		c.domain.Observe(l.Extent.Size())
		return
	}
	c.anchors = append(c.anchors, l)
}

func (c *Coordinator) isCandidate(l insets.Locus) bool {
	if l.Box.Width() > c.opts.Threshold || l.Box.Height() > c.opts.Threshold {
		return false
	}
	w, h := c.host.Dimensions()
	return l.Box.Intersects(insets.Box{MaxX: w, MaxY: h})
}

// ignoreSource reports an event from a source that is not a resolved
// annotation track.
func (c *Coordinator) ignoreSource(source, event string) {
	err := errors.New(errors.ErrCodeUnknownSource, "source %q is not an annotation track", source)
	c.logger.Debug("Ignoring event", "event", event, "err", err)
	observability.Engine().OnSourceIgnored(c.ctx, source, event)
}

// OnTilesDrawn records that a source finished drawing. When every source
// finished, the pipeline runs once and the round starts over.
func (c *Coordinator) OnTilesDrawn(ev bus.TilesDrawn) {
	if !c.sources[ev.Source] {
		c.ignoreSource(ev.Source, bus.TilesDrawnEnd.Name())
		return
	}
	c.completed[ev.Source] = true
	if len(c.completed) < len(c.sources) {
		return
	}
	clear(c.completed)
	c.run()
}

// OnZoomChanged starts a new epoch at scale k.
func (c *Coordinator) OnZoomChanged(k float64) {
	c.scaleChanged = k != c.scale
	c.scale = k
	c.epoch++
	c.resetEpoch()

	if c.scaleChanged && c.opts.Eviction == insets.EvictOnScale {
		c.store.Reset()
	}
	c.logger.Debug("Zoom changed", "epoch", c.epoch, "k", k, "scaleChanged", c.scaleChanged)
	observability.Engine().OnEpoch(c.ctx, c.epoch, c.scaleChanged)
}

func (c *Coordinator) resetEpoch() {
	c.candidates = nil
	c.anchors = nil
	c.seen = make(map[string]bool)
	c.completed = make(map[string]bool)
	c.domain = insets.Domain{}
}

// =============================================================================
// Pipeline
// =============================================================================

func (c *Coordinator) run() {
	if len(c.candidates) == 0 && len(c.anchors) == 0 {
		c.logger.Debug("Nothing drawn, skipping pass", "epoch", c.epoch)
		return
	}
	hooks := observability.Engine()
	hooks.OnPipelineStart(c.ctx, c.epoch, len(c.candidates), len(c.anchors))
	start := time.Now()

	loci := make([]insets.Locus, 0, len(c.candidates)+len(c.anchors))
	loci = append(loci, c.candidates...)
	loci = append(loci, c.anchors...)

	if c.needsRebuild(loci) {
		t0 := time.Now()
		c.index.Rebuild(loci)
		hooks.OnIndexRebuild(c.ctx, c.index.Len(), time.Since(t0))
	}

	w, h := c.host.Dimensions()
	flags := insets.EpochFlags{
		ScaleChanged:  c.scaleChanged,
		DomainChanged: !c.domain.Equal(c.lastDomain),
	}
	placements := c.strategy.Place(layout.Input{
		Width:      w,
		Height:     h,
		Candidates: c.candidates,
		Loci:       loci,
		Flags:      flags,
		Domain:     c.domain,
		Sizer:      c.sizer,
		Store:      c.store,
		Index:      &c.index,
	})

	c.lastDomain = c.domain
	c.scaleChanged = false
	c.pass++

	ids := make([]string, 0, len(c.candidates))
	drawn := make(map[string]bool, len(c.candidates))
	for _, l := range c.candidates {
		ids = append(ids, l.ID)
		drawn[l.ID] = true
	}
	slices.Sort(ids)

	if c.opts.Eviction == insets.EvictOnMisses {
		if n := c.store.Sweep(drawn, c.opts.EvictAfter); n > 0 {
			c.logger.Debug("Evicted insets", "count", n)
		}
	}

	c.last = Snapshot{
		Epoch:      c.epoch,
		Pass:       c.pass,
		Scale:      c.scale,
		Mode:       c.strategy.Name(),
		Width:      w,
		Height:     h,
		Placements: placements,
		IDs:        ids,
		Loci:       loci,
	}
	hooks.OnPipelineComplete(c.ctx, c.strategy.Name(), len(placements), time.Since(start))

	c.draw(c.last.clone())
}

// needsRebuild reports whether loci holds an identifier the index lacks.
func (c *Coordinator) needsRebuild(loci []insets.Locus) bool {
	if c.index.Len() == 0 {
		return true
	}
	for _, l := range loci {
		if !c.index.Has(l.ID) {
			return true
		}
	}
	return false
}

// draw hands s to the host, waits for every draw and then asks the host to
// re-render, whether or not the draws succeeded.
func (c *Coordinator) draw(s Snapshot) {
	start := time.Now()
	pending := c.host.DrawInsets(c.ctx, s)

	var (
		mu     sync.Mutex
		failed int
		wg     sync.WaitGroup
	)
	for i, ch := range pending {
		if ch == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			select {
			case err = <-ch:
			case <-c.ctx.Done():
				err = c.ctx.Err()
			}
			if err == nil {
				return
			}
			mu.Lock()
			failed++
			mu.Unlock()
			c.logger.Error("Inset draw failed", "index", i, "epoch", s.Epoch, "err", errors.Wrap(errors.ErrCodeDrawFailed, err, "draw %d", i))
		}()
	}
	wg.Wait()

	observability.Engine().OnDrawComplete(c.ctx, len(pending), failed, time.Since(start))
	c.host.Redraw()
}
