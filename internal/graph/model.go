package graph

// Category is one of the four clustering dimensions of the threat graph.
type Category string

const (
	CategoryIndicator Category = "indicator"
	CategoryMalware   Category = "malware_family"
	CategoryFormat    Category = "indicator_format"
	CategorySource    Category = "source"
)

// ConfidenceTier buckets a 0-100 confidence score for color coding.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"   // > 75
	TierMedium ConfidenceTier = "medium" // > 40
	TierLow    ConfidenceTier = "low"
)

// TierFor maps a confidence score to its tier.
func TierFor(confidence int) ConfidenceTier {
	switch {
	case confidence > 75:
		return TierHigh
	case confidence > 40:
		return TierMedium
	default:
		return TierLow
	}
}

// Node is one vertex of the threat graph. ID is deterministic:
// "<category prefix>-<key>", so rebuilding from the same records yields the
// same IDs. Confidence is meaningful only for indicator-category nodes.
type Node struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Category   Category `json:"category"`
	Confidence int      `json:"confidence,omitempty"`
}

// Tier returns the node's confidence tier; hub nodes report TierLow but
// renderers color them by category instead.
func (n Node) Tier() ConfidenceTier { return TierFor(n.Confidence) }

// Edge is an unordered connection between two node IDs. Both endpoints are
// guaranteed to exist in the node set of the same Build output.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is one immutable build output: nodes in first-seen insertion order
// plus three edges per input record.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
