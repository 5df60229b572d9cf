package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Note is one analyst annotation kept alongside the threat graph. Keys hold
// the node IDs or IOC values the note is about.
type Note struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"` // e.g. "observation", "triage", "pivot"
	Content   string    `json:"content"`
	Keys      []string  `json:"keys,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Bucket names. The time index maps "<unixnano>:<id>" to the note ID so a
// reverse cursor scan yields newest-first without sorting.
var (
	bucketNotes     = []byte("notes")
	bucketTimeIndex = []byte("notes_by_time")
)

// Store is a lock-striped in-memory note store backed by BoltDB. Reads serve
// from the shards; writes go through BoltDB first so a crash never loses an
// acknowledged note.
type Store struct {
	db     *bbolt.DB
	shards []shard
	mask   uint64

	writeCounter metric.Int64Counter
	readLatency  metric.Float64Histogram
}

type shard struct {
	mu sync.RWMutex
	m  map[string]Note
}

// Open opens (or creates) the note database at path and warms the shards.
func Open(path string, shardPow uint8) (*Store, error) {
	if shardPow > 10 {
		shardPow = 10
	} // cap 1024 shards
	n := 1 << shardPow

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open note db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketNotes, bucketTimeIndex} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	meter := otel.Meter("aegis-go")
	writes, _ := meter.Int64Counter("aegis_memory_writes_total")
	readLatency, _ := meter.Float64Histogram("aegis_memory_read_ms")

	s := &Store{
		db:           db,
		mask:         uint64(n - 1),
		shards:       make([]shard, n),
		writeCounter: writes,
		readLatency:  readLatency,
	}
	for i := 0; i < n; i++ {
		s.shards[i].m = make(map[string]Note)
	}
	if err := s.warm(); err != nil {
		db.Close()
		return nil, fmt.Errorf("warm note cache: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) shardFor(id string) *shard {
	return &s.shards[uint64(fnv32(id))&s.mask]
}

// Put persists a note and makes it visible to reads. A missing ID gets a
// fresh UUID; a missing timestamp gets the current time. Returns the stored
// note.
func (s *Store) Put(ctx context.Context, n Note) (Note, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Kind == "" {
		n.Kind = "observation"
	}

	data, err := json.Marshal(n)
	if err != nil {
		return Note{}, fmt.Errorf("marshal note: %w", err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		notes := tx.Bucket(bucketNotes)
		index := tx.Bucket(bucketTimeIndex)
		// re-put of an existing ID must not leave a second index entry behind
		if prev := notes.Get([]byte(n.ID)); prev != nil {
			var old Note
			if err := json.Unmarshal(prev, &old); err == nil {
				if err := index.Delete(timeKey(old)); err != nil {
					return err
				}
			}
		}
		if err := notes.Put([]byte(n.ID), data); err != nil {
			return err
		}
		return index.Put(timeKey(n), []byte(n.ID))
	})
	if err != nil {
		return Note{}, fmt.Errorf("write note: %w", err)
	}

	sh := s.shardFor(n.ID)
	sh.mu.Lock()
	sh.m[n.ID] = n
	sh.mu.Unlock()

	s.writeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", n.Kind)))
	return n, nil
}

// Get returns one note by ID.
func (s *Store) Get(id string) (Note, bool) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	n, ok := sh.m[id]
	return n, ok
}

// List returns up to limit notes, newest first. limit <= 0 means no cap.
func (s *Store) List(ctx context.Context, limit int) ([]Note, error) {
	start := time.Now()
	defer func() {
		s.readLatency.Record(ctx, float64(time.Since(start).Microseconds())/1000,
			metric.WithAttributes(attribute.String("operation", "list")))
	}()

	var out []Note
	err := s.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(bucketTimeIndex).Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			n, ok := s.Get(string(v))
			if !ok {
				continue
			}
			out = append(out, n)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return out, nil
}

// Search scans the shards for notes whose content or keys contain the query,
// case-insensitively, and returns them newest first.
func (s *Store) Search(ctx context.Context, query string) []Note {
	start := time.Now()
	defer func() {
		s.readLatency.Record(ctx, float64(time.Since(start).Microseconds())/1000,
			metric.WithAttributes(attribute.String("operation", "search")))
	}()

	q := strings.ToLower(query)
	var out []Note
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for _, n := range sh.m {
			if noteMatches(n, q) {
				out = append(out, n)
			}
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func noteMatches(n Note, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(n.Content), q) {
		return true
	}
	for _, k := range n.Keys {
		if strings.Contains(strings.ToLower(k), q) {
			return true
		}
	}
	return false
}

// Delete removes a note from the database and the shards.
func (s *Store) Delete(id string) error {
	n, ok := s.Get(id)
	if !ok {
		return nil
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketNotes).Delete([]byte(id)); err != nil {
			return err
		}
		return tx.Bucket(bucketTimeIndex).Delete(timeKey(n))
	})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	sh := s.shardFor(id)
	sh.mu.Lock()
	delete(sh.m, id)
	sh.mu.Unlock()
	return nil
}

// Count reports the number of stored notes.
func (s *Store) Count() int {
	total := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		total += len(sh.m)
		sh.mu.RUnlock()
	}
	return total
}

func (s *Store) warm() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketNotes).ForEach(func(k, v []byte) error {
			var n Note
			if err := json.Unmarshal(v, &n); err != nil {
				return nil // skip corrupt entries
			}
			sh := s.shardFor(n.ID)
			sh.m[n.ID] = n
			return nil
		})
	})
}

// timeKey builds the time-index key for a note. Zero-padded so the cursor's
// byte order matches chronological order.
func timeKey(n Note) []byte {
	return []byte(fmt.Sprintf("%020d:%s", n.CreatedAt.UnixNano(), n.ID))
}

func fnv32(s string) uint32 {
	var h uint32 = 2166136261
	const prime = 16777619
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}
