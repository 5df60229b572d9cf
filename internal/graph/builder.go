package graph

import (
	"github.com/khulnasoft-bot/aegis/internal/intel"
)

// ID prefixes keep the four categories in disjoint namespaces: a malware
// family named "unknown" can never collide with a source labeled "unknown".
const (
	prefixIndicator = "indicator-"
	prefixMalware   = "malware-"
	prefixFormat    = "format-"
	prefixSource    = "source-"
)

// Build derives the deduplicated node set and edge list from an ordered
// record sequence. Pure function: same input, same topology. Each record
// contributes one indicator node (keyed on its record ID, so distinct records
// never collapse) and connects it to three hub nodes shared across records:
// malware family, indicator format, and reporting source. Hubs are created
// on first sight and reused afterwards so related indicators converge.
//
// Empty input yields an empty graph, not an error. Records with missing
// fields get sentinel hubs instead of being dropped.
func Build(records []intel.IndicatorRecord) Graph {
	g := Graph{
		Nodes: make([]Node, 0, len(records)*4),
		Edges: make([]Edge, 0, len(records)*3),
	}
	seen := make(map[string]struct{}, len(records)*4)

	add := func(n Node) {
		if _, ok := seen[n.ID]; ok {
			return
		}
		seen[n.ID] = struct{}{}
		g.Nodes = append(g.Nodes, n)
	}

	for _, rec := range records {
		malwareKey, malwareLabel := malwareIdentity(rec)
		formatKey := nonEmpty(rec.IOCTypeDesc, intel.UnknownKey)
		sourceKey := nonEmpty(rec.Source, intel.UnknownKey)

		indicatorID := prefixIndicator + nonEmpty(rec.ID, rec.IOC)
		malwareID := prefixMalware + malwareKey
		formatID := prefixFormat + formatKey
		sourceID := prefixSource + sourceKey

		add(Node{ID: indicatorID, Label: rec.IOC, Category: CategoryIndicator, Confidence: rec.Confidence})
		add(Node{ID: malwareID, Label: malwareLabel, Category: CategoryMalware})
		add(Node{ID: formatID, Label: formatKey, Category: CategoryFormat})
		add(Node{ID: sourceID, Label: sourceKey, Category: CategorySource})

		g.Edges = append(g.Edges,
			Edge{Source: indicatorID, Target: malwareID},
			Edge{Source: indicatorID, Target: formatID},
			Edge{Source: indicatorID, Target: sourceID},
		)
	}
	return g
}

// malwareIdentity returns the hub key and display label for a record's
// malware family. Absent family collapses to the shared unknown hub.
func malwareIdentity(rec intel.IndicatorRecord) (key, label string) {
	label = rec.MalwarePrintable
	if label == "" || label == intel.UnknownMalwareLabel {
		return intel.UnknownKey, intel.UnknownMalwareLabel
	}
	return label, label
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
