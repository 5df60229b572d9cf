package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "notes.db"), 4)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAssignsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)
	n, err := s.Put(context.Background(), Note{Content: "Emotet C2 rotation observed"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n.ID == "" {
		t.Fatal("Put left ID empty")
	}
	if n.CreatedAt.IsZero() {
		t.Fatal("Put left CreatedAt zero")
	}
	if n.Kind != "observation" {
		t.Fatalf("default kind = %q, want observation", n.Kind)
	}

	got, ok := s.Get(n.ID)
	if !ok {
		t.Fatal("Get missed a stored note")
	}
	if got.Content != n.Content {
		t.Fatalf("Get content = %q, want %q", got.Content, n.Content)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"first", "second", "third"} {
		_, err := s.Put(ctx, Note{Content: content, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		if err != nil {
			t.Fatalf("Put %q: %v", content, err)
		}
	}

	notes, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("List returned %d notes, want 3", len(notes))
	}
	for i, want := range []string{"third", "second", "first"} {
		if notes[i].Content != want {
			t.Fatalf("notes[%d] = %q, want %q", i, notes[i].Content, want)
		}
	}

	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 2 || limited[0].Content != "third" {
		t.Fatalf("limited list = %+v, want newest 2", limited)
	}
}

func TestRePutSameIDKeepsOneListEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Put(ctx, Note{ID: "n1", Content: "initial"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	// zero CreatedAt on the re-put forces a fresh timestamp, which must
	// replace the old index entry, not sit next to it
	updated, err := s.Put(ctx, Note{ID: "n1", Content: "revised"})
	if err != nil {
		t.Fatalf("re-Put: %v", err)
	}
	if updated.CreatedAt.Before(first.CreatedAt) {
		t.Fatalf("re-put moved CreatedAt backwards: %v -> %v", first.CreatedAt, updated.CreatedAt)
	}

	notes, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("List after re-put = %d entries, want 1", len(notes))
	}
	if notes[0].Content != "revised" {
		t.Fatalf("List content = %q, want revised", notes[0].Content)
	}
	if s.Count() != 1 {
		t.Fatalf("Count after re-put = %d, want 1", s.Count())
	}

	// the stale index key is gone from the database too, not just masked
	if err := s.Delete("n1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	notes, err = s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List after delete: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("List after delete = %d entries, want 0", len(notes))
	}
}

func TestSearchContentAndKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Put(ctx, Note{Content: "pivoted from Emotet hub", Keys: []string{"malware-Emotet"}})
	s.Put(ctx, Note{Content: "benign scanner", Keys: []string{"indicator-r9"}})

	if got := s.Search(ctx, "emotet"); len(got) != 1 {
		t.Fatalf("Search(emotet) = %d notes, want 1", len(got))
	}
	if got := s.Search(ctx, "indicator-r9"); len(got) != 1 {
		t.Fatalf("Search by key = %d notes, want 1", len(got))
	}
	if got := s.Search(ctx, "cobalt"); len(got) != 0 {
		t.Fatalf("Search(cobalt) = %d notes, want 0", len(got))
	}
	if got := s.Search(ctx, ""); len(got) != 2 {
		t.Fatalf("empty query = %d notes, want all", len(got))
	}
}

func TestNotesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.db")
	ctx := context.Background()

	s, err := Open(path, 4)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	stored, err := s.Put(ctx, Note{Content: "persisted"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	s.Close()

	reopened, err := Open(path, 4)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, ok := reopened.Get(stored.ID)
	if !ok || got.Content != "persisted" {
		t.Fatalf("note lost across reopen: %+v, ok=%v", got, ok)
	}
	if reopened.Count() != 1 {
		t.Fatalf("Count after reopen = %d, want 1", reopened.Count())
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	n, _ := s.Put(ctx, Note{Content: "to remove"})
	if err := s.Delete(n.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := s.Get(n.ID); ok {
		t.Fatal("note still readable after Delete")
	}
	notes, _ := s.List(ctx, 0)
	if len(notes) != 0 {
		t.Fatalf("List after delete = %d notes, want 0", len(notes))
	}
	if err := s.Delete("missing"); err != nil {
		t.Fatalf("Delete of missing note errored: %v", err)
	}
}
