package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/khulnasoft-bot/aegis/internal/graph"
	"github.com/khulnasoft-bot/aegis/internal/view"
)

// Hub fills by category; indicator fills by confidence tier.
var (
	categoryColors = map[graph.Category]string{
		graph.CategoryMalware: "#8e44ad",
		graph.CategoryFormat:  "#2980b9",
		graph.CategorySource:  "#27ae60",
	}
	tierColors = map[graph.ConfidenceTier]string{
		graph.TierHigh:   "#e74c3c",
		graph.TierMedium: "#f39c12",
		graph.TierLow:    "#95a5a6",
	}
)

// FillFor picks the paint color for one placed node.
func FillFor(n view.PlacedNode) string {
	if n.Category == graph.CategoryIndicator {
		return tierColors[graph.TierFor(n.Confidence)]
	}
	return categoryColors[n.Category]
}

// SVG renders the placement as a standalone SVG document. Edges are drawn
// first so nodes paint over them; hubs get visible labels, indicators only a
// tooltip title to keep dense graphs readable.
func SVG(p view.Placement) []byte {
	pos := make(map[string]view.PlacedNode, len(p.Nodes))
	for _, n := range p.Nodes {
		pos[n.ID] = n
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`,
		view.Width, view.Height, view.Width, view.Height)
	b.WriteString("\n")
	fmt.Fprintf(&b, `<rect width="%.0f" height="%.0f" fill="#111827"/>`, view.Width, view.Height)
	b.WriteString("\n")

	for _, e := range p.Edges {
		s, okS := pos[e.Source]
		t, okT := pos[e.Target]
		if !okS || !okT {
			continue
		}
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#4b5563" stroke-width="1" stroke-opacity="0.7"/>`,
			s.X, s.Y, t.X, t.Y)
		b.WriteString("\n")
	}

	for _, n := range p.Nodes {
		stroke := "#1f2937"
		if n.Held {
			stroke = "#fbbf24"
		}
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" stroke="%s" stroke-width="1.5">`,
			n.X, n.Y, n.Radius, FillFor(n), stroke)
		fmt.Fprintf(&b, `<title>%s</title></circle>`, html.EscapeString(n.Label))
		b.WriteString("\n")
		if n.Category != graph.CategoryIndicator {
			fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-size="11" fill="#e5e7eb" text-anchor="middle" font-family="sans-serif">%s</text>`,
				n.X, n.Y-n.Radius-4, html.EscapeString(n.Label))
			b.WriteString("\n")
		}
	}

	b.WriteString("</svg>\n")
	return []byte(b.String())
}
