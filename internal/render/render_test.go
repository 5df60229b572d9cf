package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/khulnasoft-bot/aegis/internal/graph"
	"github.com/khulnasoft-bot/aegis/internal/view"
)

func samplePlacement() view.Placement {
	return view.Placement{
		Nodes: []view.PlacedNode{
			{Node: graph.Node{ID: "indicator-r1", Label: "1.2.3.4:443", Category: graph.CategoryIndicator, Confidence: 90}, X: 100, Y: 100, Radius: 6, Tier: graph.TierHigh},
			{Node: graph.Node{ID: "malware-Emotet", Label: "Emotet", Category: graph.CategoryMalware}, X: 200, Y: 150, Radius: 14},
			{Node: graph.Node{ID: "source-ThreatFox", Label: "ThreatFox", Category: graph.CategorySource}, X: 50, Y: 220, Radius: 10},
		},
		Edges: []graph.Edge{
			{Source: "indicator-r1", Target: "malware-Emotet"},
			{Source: "indicator-r1", Target: "source-ThreatFox"},
		},
	}
}

func TestSVGDrawsEverything(t *testing.T) {
	out := SVG(samplePlacement())
	if !bytes.HasPrefix(out, []byte("<svg ")) {
		t.Fatal("output is not an SVG document")
	}
	if got := bytes.Count(out, []byte("<circle ")); got != 3 {
		t.Fatalf("circle count = %d, want 3", got)
	}
	if got := bytes.Count(out, []byte("<line ")); got != 2 {
		t.Fatalf("line count = %d, want 2", got)
	}
	// hubs labeled, indicators not
	if got := bytes.Count(out, []byte("<text ")); got != 2 {
		t.Fatalf("text label count = %d, want 2 hub labels", got)
	}
}

func TestSVGEdgesBeforeNodes(t *testing.T) {
	out := string(SVG(samplePlacement()))
	lastLine := strings.LastIndex(out, "<line ")
	firstCircle := strings.Index(out, "<circle ")
	if lastLine > firstCircle {
		t.Fatal("edges drawn after nodes, nodes would be painted over")
	}
}

func TestSVGEscapesLabels(t *testing.T) {
	p := samplePlacement()
	p.Nodes[1].Label = `<script>"x"</script>`
	out := string(SVG(p))
	if strings.Contains(out, "<script>") {
		t.Fatal("label injected raw markup into the SVG")
	}
}

func TestFillFor(t *testing.T) {
	cases := []struct {
		node view.PlacedNode
		want string
	}{
		{view.PlacedNode{Node: graph.Node{Category: graph.CategoryIndicator, Confidence: 90}}, tierColors[graph.TierHigh]},
		{view.PlacedNode{Node: graph.Node{Category: graph.CategoryIndicator, Confidence: 50}}, tierColors[graph.TierMedium]},
		{view.PlacedNode{Node: graph.Node{Category: graph.CategoryIndicator, Confidence: 10}}, tierColors[graph.TierLow]},
		{view.PlacedNode{Node: graph.Node{Category: graph.CategoryMalware}}, categoryColors[graph.CategoryMalware]},
		{view.PlacedNode{Node: graph.Node{Category: graph.CategorySource}}, categoryColors[graph.CategorySource]},
	}
	for _, c := range cases {
		if got := FillFor(c.node); got != c.want {
			t.Errorf("FillFor(%s/%d) = %s, want %s", c.node.Category, c.node.Confidence, got, c.want)
		}
	}
}

func TestPage(t *testing.T) {
	out, err := Page("Aegis Threat Graph", samplePlacement(), "simulated")
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	body := string(out)
	for _, want := range []string{
		"<!DOCTYPE html>",
		"Aegis Threat Graph",
		"feed: simulated",
		"<svg ",
		`id="placement"`,
		"malware-Emotet",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}
