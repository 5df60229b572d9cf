package intel

import (
	"strings"
	"time"
)

// Sentinels substituted for absent fields. The graph builder keys hub nodes
// on these so partial records still cluster instead of being dropped.
const (
	UnknownKey          = "unknown"
	UnknownMalwareLabel = "Unknown Malware"
)

// feed timestamps look like "2024-03-01 08:15:42 UTC"; some sources drop the
// zone suffix or use RFC3339.
var timeLayouts = []string{
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Normalize converts a raw feed entry into a typed IndicatorRecord. Missing
// fields become sentinels; unparseable timestamps become zero times. Never
// returns an error: a malformed record degrades, it does not reject.
func Normalize(raw RawIndicator) IndicatorRecord {
	rec := IndicatorRecord{
		ID:               strings.TrimSpace(raw.ID),
		IOC:              strings.TrimSpace(raw.IOC),
		ThreatType:       raw.ThreatType,
		ThreatTypeDesc:   raw.ThreatTypeDesc,
		IOCType:          raw.IOCType,
		IOCTypeDesc:      raw.IOCTypeDesc,
		Malware:          raw.Malware,
		MalwarePrintable: strings.TrimSpace(raw.MalwarePrintable),
		Confidence:       clampConfidence(raw.Confidence),
		FirstSeen:        parseFeedTime(raw.FirstSeen),
		LastSeen:         parseFeedTime(raw.LastSeen),
		Reference:        raw.Reference,
		Reporter:         raw.Reporter,
		Source:           strings.TrimSpace(raw.Source),
	}
	if rec.MalwarePrintable == "" {
		rec.MalwarePrintable = UnknownMalwareLabel
	}
	if rec.IOCTypeDesc == "" {
		if rec.IOCType != "" {
			rec.IOCTypeDesc = rec.IOCType
		} else {
			rec.IOCTypeDesc = UnknownKey
		}
	}
	if rec.Source == "" {
		rec.Source = UnknownKey
	}
	for _, rr := range raw.Relationships {
		kind := RelationKind(rr.Kind)
		switch kind {
		case RelationDownloadedFrom, RelationContainedIn, RelationPEParent, RelationDNSMapping:
		default:
			continue // unsupported kind
		}
		rec.Relationships = append(rec.Relationships, Relationship{
			Kind:      kind,
			Target:    rr.Target,
			Timestamp: parseFeedTime(rr.Timestamp),
		})
	}
	return rec
}

// NormalizeAll maps a raw data array in order; order is significant because
// graph node insertion order follows first-seen record order.
func NormalizeAll(raws []RawIndicator) []IndicatorRecord {
	out := make([]IndicatorRecord, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r))
	}
	return out
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

func parseFeedTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
