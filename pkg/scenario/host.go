package scenario

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/insetkit/pkg/coordinator"
	"github.com/matzehuels/insetkit/pkg/errors"
)

// MemoryHost is an in-memory [coordinator.Host]. It records every draw batch
// and fails the draws of configured inset ids.
type MemoryHost struct {
	width, height float64
	tracks        map[string]bool
	fail          map[string]bool

	mu      sync.Mutex
	draws   []coordinator.Snapshot
	redraws int
	failed  int
}

var _ coordinator.Host = (*MemoryHost)(nil)

// NewMemoryHost creates a host for the canvas and tracks of s.
func NewMemoryHost(s *Scenario) *MemoryHost {
	h := &MemoryHost{
		width:  s.Canvas.Width,
		height: s.Canvas.Height,
		tracks: map[string]bool{s.InsetsTrack: true},
		fail:   make(map[string]bool, len(s.Fail)),
	}
	for _, t := range s.Tracks {
		h.tracks[t] = true
	}
	for _, id := range s.Fail {
		h.fail[id] = true
	}
	return h
}

// ResolveTrack implements [coordinator.Host]. Track uids are their own ids.
func (h *MemoryHost) ResolveTrack(uid string) (string, bool) {
	return uid, h.tracks[uid]
}

// Dimensions implements [coordinator.Host].
func (h *MemoryHost) Dimensions() (float64, float64) { return h.width, h.height }

// DrawInsets implements [coordinator.Host]. Every placement is drawn on its
// own goroutine.
func (h *MemoryHost) DrawInsets(ctx context.Context, s coordinator.Snapshot) []<-chan error {
	h.mu.Lock()
	h.draws = append(h.draws, s)
	h.mu.Unlock()

	out := make([]<-chan error, len(s.Placements))
	for i, p := range s.Placements {
		ch := make(chan error, 1)
		out[i] = ch
		go func() {
			defer close(ch)
			if err := ctx.Err(); err != nil {
				ch <- err
				return
			}
			if h.fail[p.ID] {
				h.mu.Lock()
				h.failed++
				h.mu.Unlock()
				ch <- errors.New(errors.ErrCodeDrawFailed, "inset %s cannot be drawn", p.ID)
			}
		}()
	}
	return out
}

// Redraw implements [coordinator.Host].
func (h *MemoryHost) Redraw() {
	h.mu.Lock()
	h.redraws++
	h.mu.Unlock()
}

// Draws returns the recorded draw batches.
func (h *MemoryHost) Draws() []coordinator.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.draws)
}

// Redraws returns how often a re-render was requested.
func (h *MemoryHost) Redraws() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.redraws
}

// Failed returns the number of failed inset draws.
func (h *MemoryHost) Failed() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failed
}
