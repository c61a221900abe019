package layout

import "math"

// DefaultResolution is the gallery inset edge length in pixels.
const DefaultResolution = 64.0

// Slot is a gallery cell, given by its center.
type Slot struct {
	Index  int
	Ring   int
	Col    int
	Row    int
	X, Y   float64
	Extent float64 // edge length of the cell
}

// Gallery places insets in fixed slots walking the canvas border inwards.
//
// The canvas, minus Offset on each side, is split into square cells of
// Resolution+2*Padding. Cells are visited ring by ring from the outside: a
// forward run along the top edge left to right and down the right edge, then
// the mirrored return run along the bottom edge right to left and up the left
// edge. Slot 0, the top-left corner, is reserved. Candidates take the next
// slot in that order, so assignments never collide by construction.
type Gallery struct {
	opts Options
}

// NewGallery creates a Gallery strategy.
func NewGallery(opts Options) *Gallery {
	opts.setDefaults()
	return &Gallery{opts: opts}
}

// Name implements [Strategy].
func (g *Gallery) Name() string { return ModeGallery }

// Slots returns the usable slots of a width×height canvas in assignment
// order. The reserved slot 0 is not included.
func (g *Gallery) Slots(width, height float64) []Slot {
	cell := g.opts.Resolution + 2*g.opts.Padding
	off := g.opts.Offset
	cols := int(math.Floor((width - 2*off) / cell))
	rows := int(math.Floor((height - 2*off) / cell))
	if cols <= 0 || rows <= 0 {
		return nil
	}

	var slots []Slot
	index := 0
	add := func(ring, col, row int) {
		if index > 0 {
			slots = append(slots, Slot{
				Index:  index,
				Ring:   ring,
				Col:    col,
				Row:    row,
				X:      off + float64(col)*cell + cell/2,
				Y:      off + float64(row)*cell + cell/2,
				Extent: cell,
			})
		}
		index++
	}

	for r := 0; cols-2*r > 0 && rows-2*r > 0; r++ {
		if g.opts.Depth > 0 && float64(r+1)*cell > g.opts.Depth {
			break
		}
		c0, c1 := r, cols-1-r
		r0, r1 := r, rows-1-r

		// forward: top edge, then down the right edge
		for c := c0; c <= c1; c++ {
			add(r, c, r0)
		}
		for row := r0 + 1; row <= r1; row++ {
			add(r, c1, row)
		}

		// return: bottom edge, then up the left edge
		if r1 > r0 {
			for c := c1 - 1; c >= c0; c-- {
				add(r, c, r1)
			}
		}
		if c1 > c0 {
			for row := r1 - 1; row > r0; row-- {
				add(r, c0, row)
			}
		}
	}
	return slots
}

// Place implements [Strategy]. Candidates beyond the available slots are
// dropped and logged.
func (g *Gallery) Place(in Input) []Placement {
	if len(in.Candidates) == 0 {
		return nil
	}
	slots := g.Slots(in.Width, in.Height)
	size := in.SizeFunc()

	out := make([]Placement, 0, min(len(in.Candidates), len(slots)))
	seen := make(map[string]bool, len(in.Candidates))
	dropped := 0
	for _, l := range in.Candidates {
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		if len(out) == len(slots) {
			dropped++
			continue
		}
		s := slots[len(out)]
		w, h := g.fit(size(l.Extent))
		ox, oy := l.Box.Center()
		out = append(out, Placement{
			ID: l.ID, Source: l.Source,
			X: s.X, Y: s.Y, Width: w, Height: h,
			OX: ox, OY: oy, HalfW: w / 2, HalfH: h / 2,
			Extent: l.Extent,
		})
	}
	if dropped > 0 {
		g.opts.Logger.Warn("Gallery full, insets dropped", "slots", len(slots), "dropped", dropped)
	}
	return out
}

// fit scales a size to a resolution-sized square, keeping the aspect ratio.
func (g *Gallery) fit(w, h float64) (float64, float64) {
	major := math.Max(w, h)
	if !(major > 0) {
		return g.opts.Resolution, g.opts.Resolution
	}
	return w * g.opts.Resolution / major, h * g.opts.Resolution / major
}
