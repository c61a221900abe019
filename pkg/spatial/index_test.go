package spatial

import (
	"slices"
	"testing"

	"github.com/matzehuels/insetkit/pkg/insets"
)

func box(minX, minY, maxX, maxY float64) insets.Box {
	return insets.Box{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

func TestEmptyIndex(t *testing.T) {
	var x Index
	if got := x.Search(box(0, 0, 100, 100)); len(got) != 0 {
		t.Errorf("Search() on empty index = %v, want none", got)
	}
	if x.Any(box(0, 0, 1, 1)) {
		t.Error("Any() on empty index should be false")
	}
	if _, ok := x.Extent(); ok {
		t.Error("Extent() on empty index should not be ok")
	}
}

func TestRebuildAndSearch(t *testing.T) {
	var x Index
	x.Rebuild([]insets.Locus{
		{ID: "a", Box: box(0, 0, 10, 10)},
		{ID: "b", Box: box(20, 20, 30, 30)},
		{ID: "c", Box: box(5, 5, 25, 25)},
		{ID: "a", Box: box(90, 90, 95, 95)},
	})

	if x.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (duplicate id ignored)", x.Len())
	}

	var ids []string
	for _, l := range x.Search(box(8, 8, 12, 12)) {
		ids = append(ids, l.ID)
	}
	slices.Sort(ids)
	if !slices.Equal(ids, []string{"a", "c"}) {
		t.Errorf("Search() ids = %v, want [a c]", ids)
	}

	got := x.Overlapping(box(22, 22, 24, 24), "c")
	if !slices.Equal(got, []string{"b"}) {
		t.Errorf("Overlapping() = %v, want [b]", got)
	}

	if !x.Any(box(29, 29, 40, 40)) {
		t.Error("Any() should find b")
	}
	if x.Any(box(50, 50, 60, 60)) {
		t.Error("Any() should find nothing in empty region")
	}

	ext, ok := x.Extent()
	if !ok || ext != box(0, 0, 30, 30) {
		t.Errorf("Extent() = %+v, %v, want (0,0)-(30,30)", ext, ok)
	}
}

func TestRebuildReplaces(t *testing.T) {
	var x Index
	x.Rebuild([]insets.Locus{{ID: "a", Box: box(0, 0, 10, 10)}})
	x.Rebuild([]insets.Locus{{ID: "b", Box: box(50, 50, 60, 60)}})

	if x.Has("a") {
		t.Error("old loci should be gone after Rebuild")
	}
	if !x.Has("b") {
		t.Error("new loci should be indexed")
	}
	if x.Builds() != 2 {
		t.Errorf("Builds() = %d, want 2", x.Builds())
	}
}
