// Package pkg provides the core libraries of insetkit, an engine placing
// insets over annotation canvases.
//
// # Overview
//
// Annotation tracks draw their annotations onto a shared canvas and report
// each one on a [bus]. Small annotations become inset candidates; large ones
// are anchors that insets should avoid. Once every track reports a finished
// draw cycle, the [coordinator] indexes the annotations, runs a positioning
// strategy and hands the placements to the host for drawing.
//
//	annotation tracks
//	        ↓  bus.AnnotationDrawn, bus.TilesDrawnEnd
//	  [coordinator] (draw-cycle barrier, classification)
//	        ↓
//	  [spatial] index  +  [insets] store and size mapper
//	        ↓
//	  [layout] strategy (center or gallery)
//	        ↓
//	  coordinator.Snapshot → Host.DrawInsets → Host.Redraw
//
// # Packages
//
//   - [bus] typed publish/subscribe with unsubscribe tokens
//   - [coordinator] the draw-cycle coordinator and its host contract
//   - [insets] loci, data-domain tracking, size mapping and inset state
//   - [spatial] R-tree over annotation rectangles
//   - [layout] the center and gallery positioning strategies
//   - [scenario] recorded draw cycles and their replay
//   - [sink] SVG and JSON rendering of snapshots
//   - [cache] in-memory layout response cache
//   - [config] TOML configuration
//   - [errors] coded errors
//   - [observability] engine and HTTP hooks, with a Prometheus implementation
//
// [bus]: github.com/matzehuels/insetkit/pkg/bus
// [coordinator]: github.com/matzehuels/insetkit/pkg/coordinator
// [insets]: github.com/matzehuels/insetkit/pkg/insets
// [spatial]: github.com/matzehuels/insetkit/pkg/spatial
// [layout]: github.com/matzehuels/insetkit/pkg/layout
// [scenario]: github.com/matzehuels/insetkit/pkg/scenario
// [sink]: github.com/matzehuels/insetkit/pkg/sink
// [cache]: github.com/matzehuels/insetkit/pkg/cache
// [config]: github.com/matzehuels/insetkit/pkg/config
// [errors]: github.com/matzehuels/insetkit/pkg/errors
// [observability]: github.com/matzehuels/insetkit/pkg/observability
package pkg
