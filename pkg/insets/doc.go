// Package insets holds the persistent placement state of insets.
//
// An inset is a small rendered snippet standing in for an annotation that is
// too small to read at the current zoom level. For every annotation drawn in
// an epoch the coordinator records a [Locus]; loci small enough to be shown as
// insets are turned into [Record] values by the [Store], which keeps them
// across frames so repositioning is incremental.
//
// # Temperature
//
// Each record carries a temperature T that tells the layout how much it may
// move:
//
//   - 1.0  new inset, must be placed
//   - 0.5  known inset after a scale change
//   - 0.25 known inset whose pixel size was re-bucketed
//   - 0    settled; treated as a fixed anchor
//
// # Sizes
//
// [SizeMapper] quantizes the data-space extent of an inset into one of a fixed
// set of pixel sizes, relative to the [Domain] of extents observed in the
// current epoch.
package insets
