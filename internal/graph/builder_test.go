package graph

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/khulnasoft-bot/aegis/internal/intel"
)

func emotetRecords() []intel.IndicatorRecord {
	return []intel.IndicatorRecord{
		{
			ID:               "r1",
			IOC:              "185.220.101.5:443",
			IOCTypeDesc:      "ip:port",
			MalwarePrintable: "Emotet",
			Confidence:       90,
			Source:           "ThreatFox",
		},
		{
			ID:               "r2",
			IOC:              "badhost.example.com",
			IOCTypeDesc:      "domain",
			MalwarePrintable: "Emotet",
			Confidence:       60,
			Source:           "OTX",
		},
	}
}

func TestBuildEmpty(t *testing.T) {
	g := Build(nil)
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Fatalf("Build(nil) = %d nodes, %d edges, want empty", len(g.Nodes), len(g.Edges))
	}
}

func TestBuildDeterministic(t *testing.T) {
	records := emotetRecords()
	first := Build(records)
	second := Build(records)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two builds over the same records differ")
	}
}

func TestBuildSharedMalwareHub(t *testing.T) {
	g := Build(emotetRecords())

	// 2 indicators + 1 shared malware hub + 2 formats + 2 sources
	if len(g.Nodes) != 7 {
		t.Fatalf("node count = %d, want 7", len(g.Nodes))
	}
	if len(g.Edges) != 6 {
		t.Fatalf("edge count = %d, want 6", len(g.Edges))
	}

	malware := 0
	for _, n := range g.Nodes {
		if n.Category == CategoryMalware {
			malware++
			if n.ID != "malware-Emotet" || n.Label != "Emotet" {
				t.Fatalf("malware hub = %+v, want malware-Emotet", n)
			}
		}
	}
	if malware != 1 {
		t.Fatalf("malware hub count = %d, want 1 shared hub", malware)
	}

	// both indicators link to the same hub
	hubEdges := 0
	for _, e := range g.Edges {
		if e.Target == "malware-Emotet" {
			hubEdges++
		}
	}
	if hubEdges != 2 {
		t.Fatalf("edges into malware-Emotet = %d, want 2", hubEdges)
	}
}

func TestBuildThreeEdgesPerRecord(t *testing.T) {
	records := emotetRecords()
	g := Build(records)
	if got, want := len(g.Edges), 3*len(records); got != want {
		t.Fatalf("edge count = %d, want %d", got, want)
	}
	for i, rec := range records {
		if src := g.Edges[3*i].Source; src != "indicator-"+rec.ID {
			t.Fatalf("edge %d source = %s, want indicator-%s", 3*i, src, rec.ID)
		}
	}
}

func TestBuildEdgeEndpointsExist(t *testing.T) {
	g := Build(append(emotetRecords(), intel.IndicatorRecord{
		ID: "r3", IOC: "deadbeef", IOCTypeDesc: "sha256_hash",
		MalwarePrintable: "Cobalt Strike", Source: "MalwareBazaar",
	}))
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	for _, e := range g.Edges {
		if !ids[e.Source] || !ids[e.Target] {
			t.Fatalf("edge %s -> %s references missing node", e.Source, e.Target)
		}
	}
}

func TestBuildSentinels(t *testing.T) {
	g := Build([]intel.IndicatorRecord{{ID: "sparse", IOC: "1.2.3.4"}})

	want := map[string]string{
		"malware-unknown": intel.UnknownMalwareLabel,
		"format-unknown":  intel.UnknownKey,
		"source-unknown":  intel.UnknownKey,
	}
	found := 0
	for _, n := range g.Nodes {
		if label, ok := want[n.ID]; ok {
			found++
			if n.Label != label {
				t.Fatalf("node %s label = %q, want %q", n.ID, n.Label, label)
			}
		}
	}
	if found != len(want) {
		t.Fatalf("found %d sentinel hubs, want %d", found, len(want))
	}
}

func TestBuildUnknownHubsAreShared(t *testing.T) {
	g := Build([]intel.IndicatorRecord{
		{ID: "s1", IOC: "1.2.3.4"},
		{ID: "s2", IOC: "5.6.7.8"},
	})
	// 2 indicators + one unknown hub per category
	if len(g.Nodes) != 5 {
		t.Fatalf("node count = %d, want 5", len(g.Nodes))
	}
}

func TestBuildDistinctRecordsSameIOC(t *testing.T) {
	g := Build([]intel.IndicatorRecord{
		{ID: "a1", IOC: "1.2.3.4", MalwarePrintable: "Emotet", Source: "ThreatFox"},
		{ID: "a2", IOC: "1.2.3.4", MalwarePrintable: "Emotet", Source: "OTX"},
	})
	indicators := 0
	for _, n := range g.Nodes {
		if n.Category == CategoryIndicator {
			indicators++
		}
	}
	if indicators != 2 {
		t.Fatalf("indicator count = %d, want 2 distinct records", indicators)
	}
}

func BenchmarkBuild(b *testing.B) {
	records := make([]intel.IndicatorRecord, 0, 400)
	families := []string{"Emotet", "Cobalt Strike", "Agent Tesla", "QakBot", ""}
	for i := 0; i < 400; i++ {
		records = append(records, intel.IndicatorRecord{
			ID:               "r" + strconv.Itoa(i),
			IOC:              "10.0.0.1:443",
			IOCTypeDesc:      "ip:port",
			MalwarePrintable: families[i%len(families)],
			Source:           "ThreatFox",
			Confidence:       i % 101,
		})
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Build(records)
	}
}

func TestTierFor(t *testing.T) {
	cases := []struct {
		confidence int
		want       ConfidenceTier
	}{
		{100, TierHigh},
		{76, TierHigh},
		{75, TierMedium},
		{41, TierMedium},
		{40, TierLow},
		{0, TierLow},
	}
	for _, c := range cases {
		if got := TierFor(c.confidence); got != c.want {
			t.Errorf("TierFor(%d) = %s, want %s", c.confidence, got, c.want)
		}
	}
}
