package sink

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"slices"

	"github.com/matzehuels/insetkit/pkg/coordinator"
	"github.com/matzehuels/insetkit/pkg/insets"
	"github.com/matzehuels/insetkit/pkg/layout"
)

const insetCSS = `
    .anchor { fill: none; stroke: #94a3b8; stroke-width: 1; }
    .candidate { fill: #f1f5f9; stroke: #64748b; stroke-width: 1; }
    .inset { fill: #ffffff; stroke-width: 1.5; }
    .leader { stroke-width: 1; stroke-dasharray: 3 2; }
    .inset-label { font: 9px sans-serif; fill: #334155; }`

// palette colors insets by source track.
var palette = []string{"#2563eb", "#dc2626", "#16a34a", "#9333ea", "#ea580c", "#0891b2", "#ca8a04", "#db2777"}

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	loci    bool
	leaders bool
	labels  bool
}

// WithoutLoci hides annotation boxes.
func WithoutLoci() SVGOption { return func(r *svgRenderer) { r.loci = false } }

// WithoutLeaders hides the lines between insets and their origins.
func WithoutLeaders() SVGOption { return func(r *svgRenderer) { r.leaders = false } }

// WithLabels writes each inset's id below it.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// RenderSVG draws s as a standalone SVG document.
func RenderSVG(s coordinator.Snapshot, opts ...SVGOption) []byte {
	r := svgRenderer{loci: true, leaders: true}
	for _, opt := range opts {
		opt(&r)
	}

	placements := slices.Clone(s.Placements)
	slices.SortFunc(placements, func(a, b layout.Placement) int { return cmp.Compare(a.ID, b.ID) })
	colors := sourceColors(s)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		s.Width, s.Height, s.Width, s.Height)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", insetCSS)
	fmt.Fprintf(&buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="#ffffff" stroke="#e2e8f0"/>`+"\n", s.Width, s.Height)

	if r.loci {
		candidates := make(map[string]bool, len(s.IDs))
		for _, id := range s.IDs {
			candidates[id] = true
		}
		for _, l := range s.Loci {
			class := "anchor"
			if candidates[l.ID] {
				class = "candidate"
			}
			renderBox(&buf, class, l.ID, l.Box)
		}
	}
	for _, p := range placements {
		color := colors[p.Source]
		if r.leaders {
			fmt.Fprintf(&buf, `  <line class="leader" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s"/>`+"\n",
				p.OX, p.OY, p.X, p.Y, color)
		}
		b := p.Box()
		fmt.Fprintf(&buf, `  <rect class="inset" id="inset-%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f" stroke="%s"/>`+"\n",
			escape(p.ID), b.MinX, b.MinY, p.Width, p.Height, color)
		if r.labels {
			fmt.Fprintf(&buf, `  <text class="inset-label" x="%.2f" y="%.2f" text-anchor="middle">%s</text>`+"\n",
				p.X, b.MaxY+10, escape(p.ID))
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderBox(buf *bytes.Buffer, class, id string, b insets.Box) {
	fmt.Fprintf(buf, `  <rect class="%s" data-id="%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f"/>`+"\n",
		class, escape(id), b.MinX, b.MinY, b.Width(), b.Height())
}

// sourceColors assigns palette colors to sources in sorted order.
func sourceColors(s coordinator.Snapshot) map[string]string {
	var sources []string
	for _, p := range s.Placements {
		sources = append(sources, p.Source)
	}
	slices.Sort(sources)
	sources = slices.Compact(sources)

	colors := make(map[string]string, len(sources))
	for i, src := range sources {
		colors[src] = palette[i%len(palette)]
	}
	return colors
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
