package insets

import "math"

// SizeMapper maps remote sizes onto a discrete set of pixel sizes.
type SizeMapper struct {
	sizes    []float64
	fallback float64
}

// NewSizeMapper creates a mapper with sizes min, min+step, ... up to max.
// max is always included. A non-positive step yields the two sizes min and max.
// fallback is used when the domain has no width.
func NewSizeMapper(minSize, maxSize, step, fallback float64) SizeMapper {
	if maxSize < minSize {
		minSize, maxSize = maxSize, minSize
	}
	var sizes []float64
	if step > 0 {
		for s := minSize; s <= maxSize; s += step {
			sizes = append(sizes, s)
		}
	} else {
		sizes = append(sizes, minSize)
	}
	if sizes[len(sizes)-1] < maxSize {
		sizes = append(sizes, maxSize)
	}
	if fallback <= 0 {
		fallback = maxSize
	}
	return SizeMapper{sizes: sizes, fallback: fallback}
}

// Sizes returns the allowed pixel sizes in increasing order.
func (m SizeMapper) Sizes() []float64 {
	return append([]float64(nil), m.sizes...)
}

// Quantize maps v onto one of the allowed sizes by splitting [d.Min, d.Max]
// into equal segments. Values outside the domain clamp to the ends.
func (m SizeMapper) Quantize(v float64, d Domain) float64 {
	span := d.Max - d.Min
	if d.Empty() || !(span > 0) || math.IsNaN(v) {
		return m.fallback
	}
	n := len(m.sizes)
	i := int(math.Floor((v - d.Min) * float64(n) / span))
	return m.sizes[max(0, min(i, n-1))]
}

// SizeFor returns the pixel width and height for an inset of extent e.
// The dominant data dimension receives the quantized size, the other one is
// scaled to keep the aspect ratio.
func (m SizeMapper) SizeFor(e Extent, d Domain) (width, height float64) {
	w, h := math.Abs(e.X2-e.X1), math.Abs(e.Y2-e.Y1)
	major := math.Max(w, h)
	if !(major > 0) {
		return m.fallback, m.fallback
	}
	size := m.Quantize(major, d)
	minor := size * math.Min(w, h) / major
	if w >= h {
		return size, minor
	}
	return minor, size
}
