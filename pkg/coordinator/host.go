package coordinator

import (
	"context"
	"slices"

	"github.com/matzehuels/insetkit/pkg/insets"
	"github.com/matzehuels/insetkit/pkg/layout"
)

// Host is the view the coordinator works for. It resolves track uids, owns
// the canvas and draws insets.
type Host interface {
	// ResolveTrack returns the source id of the track with the given uid.
	ResolveTrack(uid string) (id string, ok bool)
	// Dimensions returns the canvas size in px.
	Dimensions() (width, height float64)
	// DrawInsets starts drawing every placement of s. Each returned channel
	// yields the outcome of one draw; a closed channel counts as success.
	DrawInsets(ctx context.Context, s Snapshot) []<-chan error
	// Redraw asks the host to re-render after a draw batch.
	Redraw()
}

// Snapshot is the result of one pipeline pass. It shares no memory with the
// coordinator and stays valid after later passes.
type Snapshot struct {
	Epoch uint64  `json:"epoch"`
	Pass  int     `json:"pass"`
	Scale float64 `json:"scale"`
	Mode  string  `json:"mode"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Placements []layout.Placement `json:"placements"`
	// IDs are the inset candidates of the pass, sorted.
	IDs []string `json:"ids"`
	// Loci are every annotation of the pass, candidates first.
	Loci []insets.Locus `json:"loci,omitempty"`
}

// Placement returns the placement for id.
func (s Snapshot) Placement(id string) (layout.Placement, bool) {
	for _, p := range s.Placements {
		if p.ID == id {
			return p, true
		}
	}
	return layout.Placement{}, false
}

// Empty reports whether the snapshot places nothing.
func (s Snapshot) Empty() bool { return len(s.Placements) == 0 }

func (s Snapshot) clone() Snapshot {
	s.Placements = slices.Clone(s.Placements)
	s.IDs = slices.Clone(s.IDs)
	s.Loci = slices.Clone(s.Loci)
	return s
}
