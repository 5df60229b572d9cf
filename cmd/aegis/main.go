package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	nats "github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"

	"github.com/khulnasoft-bot/aegis/internal/intel"
	"github.com/khulnasoft-bot/aegis/internal/logging"
	"github.com/khulnasoft-bot/aegis/internal/memory"
	"github.com/khulnasoft-bot/aegis/internal/natsbus"
	"github.com/khulnasoft-bot/aegis/internal/otelinit"
	"github.com/khulnasoft-bot/aegis/internal/review"
	"github.com/khulnasoft-bot/aegis/internal/server"
	"github.com/khulnasoft-bot/aegis/internal/view"
)

func main() {
	service := "aegis"
	logging.Init(service)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	shutdownTrace := otelinit.InitTracer(ctx, service)
	shutdownMetrics, _ := otelinit.InitMetrics(ctx, service)

	addr := envOr("AEGIS_ADDR", ":8080")
	dataDir := envOr("AEGIS_DATA_DIR", "data")
	settingsPath := envOr("AEGIS_FEED_SETTINGS", filepath.Join(dataDir, "feed_settings.json"))
	refreshSpec := envOr("AEGIS_REFRESH_CRON", "@every 5m")

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		slog.Error("data dir unavailable", "dir", dataDir, "error", err)
		os.Exit(1)
	}

	settings, err := intel.LoadSettings(settingsPath)
	if err != nil {
		slog.Warn("feed settings unreadable, starting with defaults", "path", settingsPath, "error", err)
	}
	if url := os.Getenv("AEGIS_FEED_URL"); url != "" {
		settings.URL = url
	}
	feed := intel.NewFeedClient(settings)
	go func() {
		if err := intel.Watch(ctx, settingsPath, feed); err != nil && ctx.Err() == nil {
			slog.Warn("settings watcher stopped", "error", err)
		}
	}()

	notes, err := memory.Open(filepath.Join(dataDir, "notes.db"), 5) // 32 shards
	if err != nil {
		slog.Error("note store unavailable", "error", err)
		os.Exit(1)
	}
	defer notes.Close()

	session := view.NewSession(ctx)
	srv := server.New(feed, session, notes, review.NewQueue())

	// optional event bus: refresh notifications for downstream consumers
	if natsURL := os.Getenv("AEGIS_NATS_URL"); natsURL != "" {
		nc, err := nats.Connect(natsURL, nats.Name(service), nats.MaxReconnects(-1))
		if err != nil {
			slog.Warn("nats unavailable, refresh events disabled", "url", natsURL, "error", err)
		} else {
			defer nc.Drain()
			srv.OnRefresh(func(ctx context.Context, resp intel.FeedResponse) {
				payload, _ := json.Marshal(map[string]any{
					"source":  resp.Source,
					"records": len(resp.Data),
				})
				if err := natsbus.Publish(ctx, nc, natsbus.SubjectIntelRefreshed, payload); err != nil {
					slog.Warn("refresh event publish failed", "error", err)
				}
			})
			slog.Info("nats connected", "url", natsURL)
		}
	}

	srv.Refresh(ctx)

	sched := cron.New()
	if _, err := sched.AddFunc(refreshSpec, func() { srv.Refresh(ctx) }); err != nil {
		slog.Error("bad refresh schedule", "spec", refreshSpec, "error", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	httpSrv := &http.Server{Addr: addr, Handler: srv.Mux()}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()
	slog.Info("service started", "addr", addr, "refresh", refreshSpec)

	<-ctx.Done()
	slog.Info("shutdown initiated")
	ctxSd, c2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer c2()
	_ = httpSrv.Shutdown(ctxSd)
	otelinit.Flush(ctxSd, shutdownTrace)
	_ = shutdownMetrics(ctxSd)
	slog.Info("shutdown complete")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
