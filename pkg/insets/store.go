package insets

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Temperatures assigned by [Store.Upsert].
const (
	TempNew      = 1.0
	TempRescaled = 0.5
	TempResized  = 0.25
	TempSettled  = 0.0
)

// Record is the persistent placement state of one inset.
type Record struct {
	ID     string
	Source string

	X, Y   float64 // current center
	OX, OY float64 // origin the inset is pinned to

	Width, Height float64
	HalfW, HalfH  float64

	// T is the temperature; see the package documentation.
	T float64

	Extent Extent

	// Misses counts consecutive pipeline passes the inset was not drawn in.
	Misses int
}

// SetSize updates the size and the derived half extents.
func (r *Record) SetSize(width, height float64) {
	r.Width, r.Height = width, height
	r.HalfW, r.HalfH = width/2, height/2
}

// Box returns the view-space rectangle currently covered by the inset.
func (r *Record) Box() Box {
	return Box{MinX: r.X - r.HalfW, MinY: r.Y - r.HalfH, MaxX: r.X + r.HalfW, MaxY: r.Y + r.HalfH}
}

// Anchor returns the record as a fixed anchor.
func (r *Record) Anchor() Anchor {
	return Anchor{X: r.X, Y: r.Y, HalfW: r.HalfW, HalfH: r.HalfH}
}

// EpochFlags describes what changed since the previous pipeline pass.
type EpochFlags struct {
	ScaleChanged  bool
	DomainChanged bool
}

// SizeFunc computes the pixel size of an inset for an extent.
type SizeFunc func(Extent) (width, height float64)

// Store maps inset identifiers to their placement state. It has a single
// writer, the coordinator's draw cycle, and performs no locking.
type Store struct {
	records map[string]*Record
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

// Upsert creates or updates the record for l.
//
// A new record is centered on the locus with temperature [TempNew]. A known
// record follows its origin: its position moves by the same delta, so the
// offset chosen by an earlier layout is kept. It is then cooled to
// [TempSettled], or [TempRescaled] after a scale change. When the size domain
// or the record's own extent changed its size is recomputed and it is set to
// [TempResized].
func (s *Store) Upsert(l Locus, flags EpochFlags, size SizeFunc) *Record {
	ox, oy := l.Box.Center()

	r, ok := s.records[l.ID]
	if !ok {
		r = &Record{ID: l.ID, Source: l.Source, X: ox, Y: oy, OX: ox, OY: oy, T: TempNew, Extent: l.Extent}
		r.SetSize(size(l.Extent))
		s.records[l.ID] = r
		return r
	}

	dx, dy := ox-r.OX, oy-r.OY
	r.OX, r.OY = ox, oy
	r.X += dx
	r.Y += dy
	r.Source = l.Source
	r.Misses = 0

	if flags.ScaleChanged {
		r.T = TempRescaled
	} else {
		r.T = TempSettled
	}
	if flags.DomainChanged || r.Extent != l.Extent {
		r.Extent = l.Extent
		r.SetSize(size(l.Extent))
		r.T = TempResized
	}
	return r
}

// Get returns the record for id.
func (s *Store) Get(id string) (*Record, bool) {
	r, ok := s.records[id]
	return r, ok
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// IDs returns the record identifiers in sorted order.
func (s *Store) IDs() []string {
	return slices.Sorted(maps.Keys(s.records))
}

// Reset drops every record.
func (s *Store) Reset() {
	clear(s.records)
}

// Sweep increments the miss counter of every record not in seen and drops
// records that reached maxMisses. A non-positive maxMisses never drops.
// It returns the number of dropped records.
func (s *Store) Sweep(seen map[string]bool, maxMisses int) int {
	dropped := 0
	for id, r := range s.records {
		if seen[id] {
			continue
		}
		r.Misses++
		if maxMisses > 0 && r.Misses >= maxMisses {
			delete(s.records, id)
			dropped++
		}
	}
	return dropped
}

// EvictionPolicy decides when records leave the store short of process exit.
type EvictionPolicy string

const (
	// EvictNever keeps records for the lifetime of the store.
	EvictNever EvictionPolicy = "never"
	// EvictOnScale clears the store when the zoom scale changes.
	EvictOnScale EvictionPolicy = "scale"
	// EvictOnMisses drops records unseen for a number of consecutive passes.
	EvictOnMisses EvictionPolicy = "misses"
)

// ParseEvictionPolicy parses a policy name. The empty string means [EvictNever].
func ParseEvictionPolicy(s string) (EvictionPolicy, error) {
	switch p := EvictionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return EvictNever, nil
	case EvictNever, EvictOnScale, EvictOnMisses:
		return p, nil
	default:
		return "", fmt.Errorf("invalid eviction policy: %q (must be one of: never, scale, misses)", s)
	}
}
