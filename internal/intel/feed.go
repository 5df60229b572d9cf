package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/khulnasoft-bot/aegis/internal/resilience"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// FeedClient pulls recent IOCs from a ThreatFox-style upstream. Every failure
// path degrades to the simulated dataset: callers always get a usable
// FeedResponse and inspect Source to tell live from fallback.
type FeedClient struct {
	client   *http.Client
	breaker  *resilience.CircuitBreaker
	settings atomic.Pointer[Settings]

	fetchCounter    metric.Int64Counter
	fallbackCounter metric.Int64Counter
}

// Settings is the hot-reloadable feed configuration (see Watch).
type Settings struct {
	URL     string `json:"url"`
	AuthKey string `json:"auth_key"`
	Days    int    `json:"days"` // recency window of the IOC query
}

func NewFeedClient(s Settings) *FeedClient {
	if s.Days <= 0 {
		s.Days = 1
	}
	meter := otel.Meter("aegis-go")
	fetches, _ := meter.Int64Counter("aegis_feed_fetches_total")
	fallbacks, _ := meter.Int64Counter("aegis_feed_fallbacks_total")
	fc := &FeedClient{
		client:          &http.Client{Timeout: 15 * time.Second},
		breaker:         resilience.NewCircuitBreaker(3, 2*time.Minute, 1),
		fetchCounter:    fetches,
		fallbackCounter: fallbacks,
	}
	fc.settings.Store(&s)
	return fc
}

// UpdateSettings swaps the active settings; in-flight fetches keep the old ones.
func (fc *FeedClient) UpdateSettings(s Settings) {
	if s.Days <= 0 {
		s.Days = 1
	}
	fc.settings.Store(&s)
	slog.Info("feed settings updated", "url", s.URL, "days", s.Days)
}

func (fc *FeedClient) Settings() Settings { return *fc.settings.Load() }

// Fetch queries the upstream feed and normalizes its records. On breaker-open,
// transport error, bad status, or a non-ok query_status it returns the
// simulated fallback instead of an error.
func (fc *FeedClient) Fetch(ctx context.Context) FeedResponse {
	s := fc.Settings()
	if s.URL == "" {
		return SimulatedResponse("no feed URL configured")
	}
	if !fc.breaker.Allow() {
		fc.fallbackCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "circuit_open")))
		return SimulatedResponse("feed circuit open")
	}

	env, err := resilience.Retry(ctx, 2, 500*time.Millisecond, func() (rawFeedEnvelope, error) {
		return fc.query(ctx, s)
	})
	fc.breaker.RecordResult(err == nil)
	if err != nil {
		slog.Warn("feed fetch failed, serving simulated dataset", "error", err)
		fc.fallbackCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "fetch_error")))
		return SimulatedResponse(err.Error())
	}

	fc.fetchCounter.Add(ctx, 1)
	return FeedResponse{
		QueryStatus: env.QueryStatus,
		Data:        NormalizeAll(env.Data),
		Source:      SourceLive,
	}
}

func (fc *FeedClient) query(ctx context.Context, s Settings) (rawFeedEnvelope, error) {
	var env rawFeedEnvelope
	payload, _ := json.Marshal(map[string]any{"query": "get_iocs", "days": s.Days})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return env, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.AuthKey != "" {
		req.Header.Set("Auth-Key", s.AuthKey)
	}

	resp, err := fc.client.Do(req)
	if err != nil {
		return env, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return env, fmt.Errorf("feed status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return env, fmt.Errorf("decode feed: %w", err)
	}
	if env.QueryStatus != "ok" {
		return env, fmt.Errorf("feed query_status %q", env.QueryStatus)
	}
	return env, nil
}
