package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/khulnasoft-bot/aegis/internal/view"
)

// Page renders the dashboard as one self-contained HTML document: inline SVG
// scene, a legend, and the placement JSON in a data script for tooling. The
// page refreshes itself while the layout is still settling; no client-side
// script is required.
func Page(title string, p view.Placement, feedSource string) ([]byte, error) {
	svg := SVG(p)
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal placement: %w", err)
	}
	var buf bytes.Buffer
	err = pageTmpl.Execute(&buf, pageData{
		Title:      title,
		FeedSource: feedSource,
		NodeCount:  len(p.Nodes),
		EdgeCount:  len(p.Edges),
		Scene:      template.HTML(svg),
		Placement:  template.JS(data),
	})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

type pageData struct {
	Title      string
	FeedSource string
	NodeCount  int
	EdgeCount  int
	Scene      template.HTML
	Placement  template.JS
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="2">
<title>{{.Title}}</title>
<style>
body { margin: 0; background: #0b0f19; color: #e5e7eb; font-family: sans-serif; }
header { display: flex; align-items: baseline; gap: 1rem; padding: 0.6rem 1rem; }
header h1 { font-size: 1.1rem; margin: 0; }
header .meta { color: #9ca3af; font-size: 0.8rem; }
.legend { display: flex; gap: 1rem; padding: 0 1rem 0.6rem; font-size: 0.75rem; color: #9ca3af; }
.legend span::before { content: "\25CF "; }
.mal::before { color: #8e44ad; } .fmt::before { color: #2980b9; }
.src::before { color: #27ae60; } .hi::before { color: #e74c3c; }
.med::before { color: #f39c12; } .low::before { color: #95a5a6; }
main { display: flex; justify-content: center; }
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
<span class="meta">{{.NodeCount}} nodes, {{.EdgeCount}} edges, feed: {{.FeedSource}}</span>
</header>
<div class="legend">
<span class="mal">malware family</span>
<span class="fmt">indicator format</span>
<span class="src">source</span>
<span class="hi">high confidence</span>
<span class="med">medium</span>
<span class="low">low</span>
</div>
<main>{{.Scene}}</main>
<script type="application/json" id="placement">{{.Placement}}</script>
</body>
</html>
`))
