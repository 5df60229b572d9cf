package review

import (
	"errors"
	"testing"

	"github.com/khulnasoft-bot/aegis/internal/intel"
)

func sampleRecords() []intel.IndicatorRecord {
	return []intel.IndicatorRecord{
		{ID: "r1", IOC: "1.2.3.4:443", MalwarePrintable: "Emotet", Confidence: 90},
		{ID: "r2", IOC: "low.example.com", MalwarePrintable: "Agent Tesla", Confidence: 25},
		{ID: "r3", IOC: "5.6.7.8", MalwarePrintable: "Unknown Malware", Confidence: 10},
	}
}

func TestIngestQueuesOnlyLowConfidence(t *testing.T) {
	q := NewQueue()
	if added := q.Ingest(sampleRecords()); added != 2 {
		t.Fatalf("Ingest queued %d items, want 2 low-tier", added)
	}
	pending := q.List(StatusPending)
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].RecordID != "r2" || pending[1].RecordID != "r3" {
		t.Fatalf("queue order = %s, %s, want r2, r3", pending[0].RecordID, pending[1].RecordID)
	}
	for _, item := range pending {
		if item.Status != StatusPending || item.ID == "" || item.QueuedAt.IsZero() {
			t.Fatalf("malformed pending item: %+v", item)
		}
	}
}

func TestIngestIdempotentAcrossRefreshes(t *testing.T) {
	q := NewQueue()
	q.Ingest(sampleRecords())
	if added := q.Ingest(sampleRecords()); added != 0 {
		t.Fatalf("second Ingest queued %d items, want 0", added)
	}

	item := q.List(StatusPending)[0]
	if _, err := q.Decide(item.ID, DecisionReject, "scanner noise"); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	// a refresh must not resurrect the decided record as pending
	if added := q.Ingest(sampleRecords()); added != 0 {
		t.Fatalf("Ingest after decision queued %d items, want 0", added)
	}
	if got := len(q.List(StatusPending)); got != 1 {
		t.Fatalf("pending after decision = %d, want 1", got)
	}
}

func TestDecideOneWay(t *testing.T) {
	q := NewQueue()
	q.Ingest(sampleRecords())
	item := q.List(StatusPending)[0]

	decided, err := q.Decide(item.ID, DecisionApprove, "confirmed C2")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.Status != StatusApproved || decided.Note != "confirmed C2" || decided.DecidedAt.IsZero() {
		t.Fatalf("decided item = %+v", decided)
	}

	if _, err := q.Decide(item.ID, DecisionApprove, ""); !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("re-approve error = %v, want ErrAlreadyDecided", err)
	}
	if _, err := q.Decide(item.ID, DecisionReject, ""); !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("flip error = %v, want ErrAlreadyDecided", err)
	}
}

func TestDecideErrors(t *testing.T) {
	q := NewQueue()
	q.Ingest(sampleRecords())
	if _, err := q.Decide("missing", DecisionApprove, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown item error = %v, want ErrNotFound", err)
	}
	item := q.List(StatusPending)[0]
	if _, err := q.Decide(item.ID, Decision("shrug"), ""); !errors.Is(err, ErrBadDecision) {
		t.Fatalf("bad decision error = %v, want ErrBadDecision", err)
	}
	if got, _ := q.Get(item.ID); got.Status != StatusPending {
		t.Fatalf("bad decision mutated status to %s", got.Status)
	}
}

func TestRejectedAndStats(t *testing.T) {
	q := NewQueue()
	q.Ingest(sampleRecords())
	pending := q.List(StatusPending)
	q.Decide(pending[0].ID, DecisionReject, "")
	q.Decide(pending[1].ID, DecisionApprove, "")

	rejected := q.Rejected()
	if len(rejected) != 1 || rejected[0] != pending[0].RecordID {
		t.Fatalf("Rejected() = %v, want [%s]", rejected, pending[0].RecordID)
	}

	stats := q.Stats()
	if stats[StatusPending] != 0 || stats[StatusApproved] != 1 || stats[StatusRejected] != 1 {
		t.Fatalf("Stats() = %v", stats)
	}
}

func TestListFilter(t *testing.T) {
	q := NewQueue()
	q.Ingest(sampleRecords())
	if got := len(q.List("")); got != 2 {
		t.Fatalf("unfiltered list = %d, want 2", got)
	}
	if got := len(q.List(StatusApproved)); got != 0 {
		t.Fatalf("approved list = %d, want 0", got)
	}
}
