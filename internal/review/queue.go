package review

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khulnasoft-bot/aegis/internal/graph"
	"github.com/khulnasoft-bot/aegis/internal/intel"
)

// Status of a review item. Transitions are one-way: pending moves to approved
// or rejected exactly once.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Decision is an analyst verdict on a queued indicator.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

var (
	ErrNotFound       = errors.New("review item not found")
	ErrAlreadyDecided = errors.New("review item already decided")
	ErrBadDecision    = errors.New("unknown decision")
)

// Item is one indicator awaiting analyst judgment. Low-confidence feed
// records are queued automatically; everything above the low tier is trusted
// as-is.
type Item struct {
	ID         string    `json:"id"`
	RecordID   string    `json:"record_id"`
	IOC        string    `json:"ioc"`
	Malware    string    `json:"malware"`
	Confidence int       `json:"confidence"`
	Status     Status    `json:"status"`
	Note       string    `json:"note,omitempty"`
	QueuedAt   time.Time `json:"queued_at"`
	DecidedAt  time.Time `json:"decided_at"`
}

// Queue holds review items across feed refreshes. Verdicts are keyed by the
// upstream record ID so a re-ingested record does not come back as pending.
type Queue struct {
	mu      sync.RWMutex
	items   map[string]*Item  // by item ID
	byRec   map[string]string // record ID -> item ID
	ordered []string          // item IDs in queue order

	now func() time.Time
}

func NewQueue() *Queue {
	return &Queue{
		items: make(map[string]*Item),
		byRec: make(map[string]string),
		now:   time.Now,
	}
}

// Ingest queues every low-tier record that has no item yet. Records already
// queued or decided keep their existing item untouched. Returns the number of
// newly queued items.
func (q *Queue) Ingest(records []intel.IndicatorRecord) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	added := 0
	for _, rec := range records {
		if graph.TierFor(rec.Confidence) != graph.TierLow {
			continue
		}
		if _, ok := q.byRec[rec.ID]; ok {
			continue
		}
		item := &Item{
			ID:         uuid.NewString(),
			RecordID:   rec.ID,
			IOC:        rec.IOC,
			Malware:    rec.MalwarePrintable,
			Confidence: rec.Confidence,
			Status:     StatusPending,
			QueuedAt:   q.now().UTC(),
		}
		q.items[item.ID] = item
		q.byRec[rec.ID] = item.ID
		q.ordered = append(q.ordered, item.ID)
		added++
	}
	return added
}

// List returns items in queue order, optionally filtered by status.
func (q *Queue) List(status Status) []Item {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]Item, 0, len(q.ordered))
	for _, id := range q.ordered {
		item := q.items[id]
		if status != "" && item.Status != status {
			continue
		}
		out = append(out, *item)
	}
	return out
}

// Get returns one item by ID.
func (q *Queue) Get(id string) (Item, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	item, ok := q.items[id]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

// Decide applies a verdict to a pending item. Deciding twice fails with
// ErrAlreadyDecided regardless of whether the verdict matches.
func (q *Queue) Decide(id string, d Decision, note string) (Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item, ok := q.items[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if item.Status != StatusPending {
		return *item, fmt.Errorf("%w: %s is %s", ErrAlreadyDecided, id, item.Status)
	}
	switch d {
	case DecisionApprove:
		item.Status = StatusApproved
	case DecisionReject:
		item.Status = StatusRejected
	default:
		return *item, fmt.Errorf("%w: %q", ErrBadDecision, d)
	}
	item.Note = note
	item.DecidedAt = q.now().UTC()
	return *item, nil
}

// Rejected reports the record IDs of rejected items, sorted, for filtering
// rejected indicators out of downstream views.
func (q *Queue) Rejected() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	var out []string
	for _, item := range q.items {
		if item.Status == StatusRejected {
			out = append(out, item.RecordID)
		}
	}
	sort.Strings(out)
	return out
}

// Stats counts items per status.
func (q *Queue) Stats() map[Status]int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := map[Status]int{StatusPending: 0, StatusApproved: 0, StatusRejected: 0}
	for _, item := range q.items {
		out[item.Status]++
	}
	return out
}
