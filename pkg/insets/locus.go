package insets

import "math"

// Box is an axis-aligned view-space rectangle.
type Box struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns the horizontal size of b.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical size of b.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Center returns the midpoint of b.
func (b Box) Center() (x, y float64) {
	return (b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2
}

// Intersects reports whether b and o share any point.
func (b Box) Intersects(o Box) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX && b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// Extent is the data-space range an annotation represents.
type Extent struct {
	X1 float64 `json:"x1"`
	X2 float64 `json:"x2"`
	Y1 float64 `json:"y1"`
	Y2 float64 `json:"y2"`
}

// Size returns the larger of the two data-space dimensions, the "remote size".
func (e Extent) Size() float64 {
	return math.Max(math.Abs(e.X2-e.X1), math.Abs(e.Y2-e.Y1))
}

// Locus is one drawn annotation in the current epoch.
type Locus struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Box    Box    `json:"box"`
	Extent Extent `json:"extent"`
}

// Anchor is a fixed point with half extents that moving insets are repelled by.
type Anchor struct {
	X, Y         float64
	HalfW, HalfH float64
}

// AnchorOf returns the anchor occupying the locus box.
func AnchorOf(l Locus) Anchor {
	x, y := l.Box.Center()
	return Anchor{X: x, Y: y, HalfW: l.Box.Width() / 2, HalfH: l.Box.Height() / 2}
}
