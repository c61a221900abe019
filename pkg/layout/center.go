package layout

import (
	"cmp"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/matzehuels/insetkit/pkg/insets"
)

// Weights scale the terms of the annealing energy.
type Weights struct {
	Leader      float64 // per px of distance between inset and origin
	LabelLabel  float64 // per px² of overlap between two insets
	LabelAnchor float64 // per px² of overlap between an inset and an anchor
	Bounds      float64 // per px an inset extends past the canvas
	MaxMove     float64 // largest step of a fully hot inset, px
}

// DefaultWeights follow the classic label annealing energy: overlaps cost far
// more than long leader lines.
var DefaultWeights = Weights{
	Leader:      0.2,
	LabelLabel:  30,
	LabelAnchor: 30,
	Bounds:      100,
	MaxMove:     24,
}

// sweepBudget is the number of moves shared by all hot insets of one pass.
const sweepBudget = 100

// minSweeps is the fewest sweeps a pass runs regardless of inset count.
const minSweeps = 2

// Sweeps returns the number of annealing sweeps for n hot insets. More insets
// get fewer sweeps each, never less than two.
func Sweeps(n int) int {
	if n <= 0 {
		return 0
	}
	return max(minSweeps, sweepBudget/n)
}

// Center positions insets near their origins by simulated annealing against a
// set of anchors. Settled insets (temperature 0) keep their position and act
// as anchors for the others.
type Center struct {
	opts Options
}

// NewCenter creates a Center strategy.
func NewCenter(opts Options) *Center {
	opts.setDefaults()
	if opts.Weights.MaxMove <= 0 {
		opts.Weights.MaxMove = DefaultWeights.MaxMove
	}
	return &Center{opts: opts}
}

// Name implements [Strategy].
func (c *Center) Name() string { return ModeCenter }

// Place implements [Strategy]. Records are upserted into in.Store; when the
// store is nil a throwaway store is used and every inset is placed fresh.
func (c *Center) Place(in Input) []Placement {
	if len(in.Candidates) == 0 {
		return nil
	}
	store := in.Store
	if store == nil {
		store = insets.NewStore()
	}

	size := in.SizeFunc()
	records := make([]*insets.Record, 0, len(in.Candidates))
	seen := make(map[string]bool, len(in.Candidates))
	for _, l := range in.Candidates {
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		records = append(records, store.Upsert(l, in.Flags, size))
	}

	anchors := make([]insets.Anchor, 0, len(in.Loci)+len(records))
	for _, l := range in.Loci {
		anchors = append(anchors, insets.AnchorOf(l))
	}
	var hot []*insets.Record
	for _, r := range records {
		if r.T > 0 {
			hot = append(hot, r)
			continue
		}
		// Cooled down, i.e. already positioned: it becomes an anchor.
		anchors = append(anchors, r.Anchor())
	}

	if len(hot) > 0 {
		start := time.Now()
		sweeps := Sweeps(len(hot))
		c.anneal(hot, anchors, in.Width, in.Height, sweeps)
		c.opts.Logger.Debug("Labeling done", "insets", len(hot), "anchors", len(anchors), "sweeps", sweeps, "took", time.Since(start))
	}

	out := make([]Placement, len(records))
	for i, r := range records {
		out[i] = PlacementOf(r)
	}
	return out
}

func (c *Center) anneal(labels []*insets.Record, anchors []insets.Anchor, width, height float64, sweeps int) {
	slices.SortFunc(labels, func(a, b *insets.Record) int { return cmp.Compare(a.ID, b.ID) })

	rngs := make([]*rand.Rand, len(labels))
	for i, l := range labels {
		rngs[i] = seededRand(l.ID)
	}

	e := energy{labels: labels, anchors: anchors, width: width, height: height, w: c.opts.Weights}
	temp, cool := 1.0, 1.0/float64(sweeps)

	for range sweeps {
		for i, l := range labels {
			rng := rngs[i]
			before := e.label(i)
			x, y := l.X, l.Y

			step := c.opts.Weights.MaxMove * l.T
			l.X += (rng.Float64() - 0.5) * step
			l.Y += (rng.Float64() - 0.5) * step

			delta := e.label(i) - before
			u := rng.Float64()
			if delta > 0 && u >= math.Exp(-delta/temp) {
				l.X, l.Y = x, y
			}
		}
		temp = max(temp-cool, 1e-6)
	}

	for _, l := range labels {
		l.X = clampCenter(l.X, l.HalfW, width)
		l.Y = clampCenter(l.Y, l.HalfH, height)
		l.T = insets.TempSettled
	}
}

// seededRand returns a generator seeded from the inset identifier so a given
// inset always draws the same sequence.
func seededRand(id string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// clampCenter keeps [c-half, c+half] inside [0, limit]. Insets larger than the
// canvas are centered.
func clampCenter(c, half, limit float64) float64 {
	if limit <= 0 {
		return c
	}
	if 2*half >= limit {
		return limit / 2
	}
	return max(half, min(c, limit-half))
}

type energy struct {
	labels        []*insets.Record
	anchors       []insets.Anchor
	width, height float64
	w             Weights
}

// label returns the energy terms involving label i.
func (e energy) label(i int) float64 {
	l := e.labels[i]

	en := e.w.Leader * math.Hypot(l.X-l.OX, l.Y-l.OY)

	for j, o := range e.labels {
		if j != i {
			en += e.w.LabelLabel * overlap(l.X, l.Y, l.HalfW, l.HalfH, o.X, o.Y, o.HalfW, o.HalfH)
		}
	}
	for _, a := range e.anchors {
		en += e.w.LabelAnchor * overlap(l.X, l.Y, l.HalfW, l.HalfH, a.X, a.Y, a.HalfW, a.HalfH)
	}

	if e.width > 0 && e.height > 0 {
		out := max(0, l.HalfW-l.X) + max(0, l.X+l.HalfW-e.width) +
			max(0, l.HalfH-l.Y) + max(0, l.Y+l.HalfH-e.height)
		en += e.w.Bounds * out
	}
	return en
}

// overlap returns the intersection area of two center/half-extent rectangles.
func overlap(x1, y1, hw1, hh1, x2, y2, hw2, hh2 float64) float64 {
	dx := min(x1+hw1, x2+hw2) - max(x1-hw1, x2-hw2)
	dy := min(y1+hh1, y2+hh2) - max(y1-hh1, y2-hh2)
	if dx <= 0 || dy <= 0 {
		return 0
	}
	return dx * dy
}
