package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/khulnasoft-bot/aegis/internal/intel"
	"github.com/khulnasoft-bot/aegis/internal/memory"
	"github.com/khulnasoft-bot/aegis/internal/otelinit"
	"github.com/khulnasoft-bot/aegis/internal/render"
	"github.com/khulnasoft-bot/aegis/internal/review"
	"github.com/khulnasoft-bot/aegis/internal/view"
)

const pageTitle = "Aegis Threat Graph"

// Server owns the dashboard state: the last feed pull, the live view session,
// analyst notes and the review queue. It exposes everything over a stdlib mux.
type Server struct {
	feed    *intel.FeedClient
	session *view.Session
	notes   *memory.Store
	reviews *review.Queue

	mu          sync.RWMutex
	lastFeed    intel.FeedResponse
	lastRefresh time.Time

	// invoked after every successful refresh, e.g. to publish a bus event
	onRefresh func(ctx context.Context, resp intel.FeedResponse)

	refreshCounter metric.Int64Counter
}

func New(feed *intel.FeedClient, session *view.Session, notes *memory.Store, reviews *review.Queue) *Server {
	meter := otel.Meter("aegis-go")
	refreshes, _ := meter.Int64Counter("aegis_refreshes_total")
	return &Server{
		feed:           feed,
		session:        session,
		notes:          notes,
		reviews:        reviews,
		refreshCounter: refreshes,
	}
}

// OnRefresh registers a post-refresh hook. Must be called before Serve.
func (s *Server) OnRefresh(fn func(ctx context.Context, resp intel.FeedResponse)) {
	s.onRefresh = fn
}

// Refresh pulls the feed, queues low-confidence records for review, and
// rebuilds the view session from everything not rejected.
func (s *Server) Refresh(ctx context.Context) intel.FeedResponse {
	ctx, end := otelinit.WithSpan(ctx, "intel.refresh")
	defer end()

	resp := s.feed.Fetch(ctx)
	queued := s.reviews.Ingest(resp.Data)

	s.mu.Lock()
	s.lastFeed = resp
	s.lastRefresh = time.Now().UTC()
	s.mu.Unlock()

	s.rebuildSession()
	s.refreshCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("source", resp.Source)))
	slog.Info("intel refreshed", "source", resp.Source, "records", len(resp.Data), "queued_for_review", queued)

	if s.onRefresh != nil {
		s.onRefresh(ctx, resp)
	}
	return resp
}

// rebuildSession feeds the last pull, minus rejected records, into the layout.
func (s *Server) rebuildSession() {
	s.mu.RLock()
	data := s.lastFeed.Data
	s.mu.RUnlock()

	rejected := make(map[string]bool)
	for _, id := range s.reviews.Rejected() {
		rejected[id] = true
	}
	kept := make([]intel.IndicatorRecord, 0, len(data))
	for _, rec := range data {
		if !rejected[rec.ID] {
			kept = append(kept, rec)
		}
	}
	s.session.SetRecords(kept)
}

// Mux returns the full route table.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/intel", s.handleIntel)
	mux.HandleFunc("/v1/intel/refresh", s.handleRefresh)
	mux.HandleFunc("/v1/graph", s.handleGraph)
	mux.HandleFunc("/v1/graph/drag", s.handleDrag)
	mux.HandleFunc("/v1/graph/svg", s.handleSVG)
	mux.HandleFunc("/v1/graph/html", s.handleHTML)
	mux.HandleFunc("/v1/memory", s.handleMemory)
	mux.HandleFunc("/v1/memory/search", s.handleMemorySearch)
	mux.HandleFunc("/v1/review", s.handleReviewList)
	mux.HandleFunc("/v1/review/", s.handleReviewDecision)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleIntel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.mu.RLock()
	resp := s.lastFeed
	last := s.lastRefresh
	s.mu.RUnlock()
	if last.IsZero() {
		resp = s.Refresh(r.Context())
	}
	writeJSON(w, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp := s.Refresh(r.Context())
	writeJSON(w, map[string]any{
		"source":  resp.Source,
		"records": len(resp.Data),
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.session.Placement())
}

type dragRequest struct {
	NodeID string  `json:"node_id"`
	Phase  string  `json:"phase"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req dragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NodeID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	phase := view.DragPhase(req.Phase)
	switch phase {
	case view.DragPhaseStart, view.DragPhaseMove, view.DragPhaseEnd:
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if !s.session.Drag(req.NodeID, phase, req.X, req.Y) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	x, y, _ := s.sessionPosition(req.NodeID)
	writeJSON(w, map[string]any{"node_id": req.NodeID, "phase": req.Phase, "x": x, "y": y})
}

func (s *Server) sessionPosition(nodeID string) (float64, float64, bool) {
	for _, n := range s.session.Placement().Nodes {
		if n.ID == nodeID {
			return n.X, n.Y, true
		}
	}
	return 0, 0, false
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(render.SVG(s.session.Placement()))
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.mu.RLock()
	source := s.lastFeed.Source
	s.mu.RUnlock()
	if source == "" {
		source = "none"
	}
	page, err := render.Page(pageTitle, s.session.Placement(), source)
	if err != nil {
		slog.Error("page render failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			limit = n
		}
		notes, err := s.notes.List(r.Context(), limit)
		if err != nil {
			slog.Error("note list failed", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"notes": notes, "count": len(notes)})
	case http.MethodPost:
		var n memory.Note
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil || n.Content == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		stored, err := s.notes.Put(r.Context(), n)
		if err != nil {
			slog.Error("note write failed", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSONStatus(w, http.StatusCreated, stored)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleMemorySearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	notes := s.notes.Search(r.Context(), r.URL.Query().Get("q"))
	writeJSON(w, map[string]any{"notes": notes, "count": len(notes)})
}

func (s *Server) handleReviewList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	status := review.Status(r.URL.Query().Get("status"))
	switch status {
	case "", review.StatusPending, review.StatusApproved, review.StatusRejected:
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"items": s.reviews.List(status), "stats": s.reviews.Stats()})
}

type decisionRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

func (s *Server) handleReviewDecision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/review/")
	id, ok := strings.CutSuffix(rest, "/decision")
	if !ok || id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	item, err := s.reviews.Decide(id, review.Decision(req.Decision), req.Note)
	switch {
	case errors.Is(err, review.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
		return
	case errors.Is(err, review.ErrAlreadyDecided):
		writeJSONStatus(w, http.StatusConflict, item)
		return
	case errors.Is(err, review.ErrBadDecision):
		w.WriteHeader(http.StatusBadRequest)
		return
	case err != nil:
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	// a rejection removes the record from the graph immediately
	if item.Status == review.StatusRejected {
		s.rebuildSession()
	}
	writeJSON(w, item)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
