package intel

import "time"

// RelationKind enumerates forensic relationship tags carried by a record.
type RelationKind string

const (
	RelationDownloadedFrom RelationKind = "downloaded_from"
	RelationContainedIn    RelationKind = "contained_in"
	RelationPEParent       RelationKind = "pe_parent"
	RelationDNSMapping     RelationKind = "dns_mapping"
)

// Relationship links an indicator to another artifact (URL, archive, parent
// binary, resolved domain). Timestamp is zero when the feed omitted it.
type Relationship struct {
	Kind      RelationKind `json:"kind"`
	Target    string       `json:"target"`
	Timestamp time.Time    `json:"timestamp,omitempty"`
}

// IndicatorRecord is a normalized threat indicator as consumed by the graph
// builder. Produced by Normalize from the raw feed shape; missing fields are
// filled with sentinels, never rejected.
type IndicatorRecord struct {
	ID               string         `json:"id"`
	IOC              string         `json:"ioc"`
	ThreatType       string         `json:"threat_type"`
	ThreatTypeDesc   string         `json:"threat_type_desc"`
	IOCType          string         `json:"ioc_type"`
	IOCTypeDesc      string         `json:"ioc_type_desc"`
	Malware          string         `json:"malware"`
	MalwarePrintable string         `json:"malware_printable"`
	Confidence       int            `json:"confidence_level"` // 0-100
	FirstSeen        time.Time      `json:"first_seen"`
	LastSeen         time.Time      `json:"last_seen"`
	Reference        string         `json:"reference"`
	Reporter         string         `json:"reporter"`
	Source           string         `json:"source"`
	Relationships    []Relationship `json:"relationships,omitempty"`
}

// RawIndicator mirrors one entry of the upstream feed's data array.
// Timestamps arrive as strings; Normalize parses them tolerantly.
type RawIndicator struct {
	ID               string            `json:"id"`
	IOC              string            `json:"ioc"`
	ThreatType       string            `json:"threat_type"`
	ThreatTypeDesc   string            `json:"threat_type_desc"`
	IOCType          string            `json:"ioc_type"`
	IOCTypeDesc      string            `json:"ioc_type_desc"`
	Malware          string            `json:"malware"`
	MalwarePrintable string            `json:"malware_printable"`
	Confidence       int               `json:"confidence_level"`
	FirstSeen        string            `json:"first_seen"`
	LastSeen         string            `json:"last_seen"`
	Reference        string            `json:"reference"`
	Reporter         string            `json:"reporter"`
	Source           string            `json:"source,omitempty"`
	Relationships    []RawRelationship `json:"relationships,omitempty"`
}

type RawRelationship struct {
	Kind      string `json:"kind"`
	Target    string `json:"target"`
	Timestamp string `json:"timestamp,omitempty"`
}

// FeedSource labels where a FeedResponse came from.
const (
	SourceLive      = "live"
	SourceSimulated = "simulated"
)

// FeedResponse is the envelope served to clients: the indicator data plus
// whether it came from the live upstream or the built-in fallback.
type FeedResponse struct {
	QueryStatus  string            `json:"query_status"`
	Data         []IndicatorRecord `json:"data"`
	Source       string            `json:"source"`
	ErrorContext string            `json:"error_context,omitempty"`
}

// rawFeedEnvelope is the upstream wire shape before normalization.
type rawFeedEnvelope struct {
	QueryStatus string         `json:"query_status"`
	Data        []RawIndicator `json:"data"`
}
