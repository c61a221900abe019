package insets

import "math"

// Domain is the min/max remote size observed among inset candidates.
// The zero value is empty.
type Domain struct {
	Min, Max float64
	set      bool
}

// Observe widens the domain to include v. A domain never shrinks until it is
// replaced by a fresh one.
func (d *Domain) Observe(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if !d.set {
		d.Min, d.Max, d.set = v, v, true
		return
	}
	d.Min = math.Min(d.Min, v)
	d.Max = math.Max(d.Max, v)
}

// Empty reports whether nothing was observed.
func (d Domain) Empty() bool { return !d.set }

// Equal reports whether d and o have the same bounds.
func (d Domain) Equal(o Domain) bool {
	return d.set == o.set && d.Min == o.Min && d.Max == o.Max
}
