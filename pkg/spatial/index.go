// Package spatial indexes the annotation boxes drawn in an epoch.
//
// [Index] wraps an R-tree from github.com/peterstace/simplefeatures/rtree. It
// is bulk loaded once per pipeline pass and is read-only everywhere else; it
// performs no collision resolution itself.
package spatial

import (
	"errors"

	"github.com/peterstace/simplefeatures/rtree"

	"github.com/matzehuels/insetkit/pkg/insets"
)

// Index is a rectangle index over loci keyed by their identifiers.
// The zero value is an empty index.
type Index struct {
	tree  *rtree.RTree
	loci  []insets.Locus
	byID  map[string]int
	built int
}

// Rebuild replaces the index contents with loci. Later loci with an already
// seen identifier are ignored.
func (x *Index) Rebuild(loci []insets.Locus) {
	x.loci = make([]insets.Locus, 0, len(loci))
	x.byID = make(map[string]int, len(loci))

	items := make([]rtree.BulkItem, 0, len(loci))
	for _, l := range loci {
		if _, dup := x.byID[l.ID]; dup {
			continue
		}
		x.byID[l.ID] = len(x.loci)
		items = append(items, rtree.BulkItem{Box: toBox(l.Box), RecordID: len(x.loci)})
		x.loci = append(x.loci, l)
	}
	x.tree = rtree.BulkLoad(items)
	x.built++
}

// Len returns the number of indexed loci.
func (x *Index) Len() int { return len(x.loci) }

// Builds returns how many times the index was rebuilt.
func (x *Index) Builds() int { return x.built }

// Has reports whether id is indexed.
func (x *Index) Has(id string) bool {
	_, ok := x.byID[id]
	return ok
}

// Search returns the loci whose boxes intersect b, in index order.
func (x *Index) Search(b insets.Box) []insets.Locus {
	if x.tree == nil {
		return nil
	}
	var out []insets.Locus
	_ = x.tree.RangeSearch(toBox(b), func(recordID int) error {
		out = append(out, x.loci[recordID])
		return nil
	})
	return out
}

// Overlapping returns the identifiers of loci intersecting b, excluding skip.
func (x *Index) Overlapping(b insets.Box, skip string) []string {
	var ids []string
	for _, l := range x.Search(b) {
		if l.ID != skip {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// Any reports whether any locus intersects b.
func (x *Index) Any(b insets.Box) bool {
	if x.tree == nil {
		return false
	}
	found := false
	err := x.tree.RangeSearch(toBox(b), func(int) error {
		found = true
		return rtree.Stop
	})
	return found && (err == nil || errors.Is(err, rtree.Stop))
}

// Extent returns the bounding box of all indexed loci.
func (x *Index) Extent() (insets.Box, bool) {
	if x.tree == nil {
		return insets.Box{}, false
	}
	b, ok := x.tree.Extent()
	return insets.Box{MinX: b.MinX, MinY: b.MinY, MaxX: b.MaxX, MaxY: b.MaxY}, ok
}

func toBox(b insets.Box) rtree.Box {
	return rtree.Box{MinX: b.MinX, MinY: b.MinY, MaxX: b.MaxX, MaxY: b.MaxY}
}
