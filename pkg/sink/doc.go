// Package sink renders coordinator snapshots.
//
// [RenderSVG] draws the canvas with every annotation box, each inset and a
// leader line from the inset to its origin. [RenderJSON] writes the snapshot
// as a placement list for other tools. [Render] dispatches on a format name.
package sink
