package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samirrijal/trackcluster/internal/adapters/export"
	"github.com/samirrijal/trackcluster/internal/adapters/postgres"
	"github.com/samirrijal/trackcluster/internal/adapters/valkey"
	"github.com/samirrijal/trackcluster/internal/core/ports"
	"github.com/samirrijal/trackcluster/internal/pkg/config"
	"github.com/samirrijal/trackcluster/internal/pkg/logging"
	"github.com/samirrijal/trackcluster/internal/pkg/metrics"
)

// ingestor loads a sport activity export and upserts its sessions, with
// their track bounds, into Postgres so the API can serve them without
// re-reading GPS files.
func main() {
	cfg, err := config.Load("trackcluster-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	path := cfg.Export.Path
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path == "" {
		log.Fatal("usage: ingestor <export> (or set export.path)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	opts := []export.Option{export.WithWorkers(cfg.Export.Workers)}
	if cache, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("bounds cache unavailable", "error", err)
	} else {
		defer cache.Close()
		opts = append(opts, export.WithBoundsCache(cache, cfg.Valkey.BoundsTTL))
	}

	loader, err := export.New(path, opts...)
	if err != nil {
		log.Fatalf("export: %v", err)
	}

	start := time.Now()
	slog.Info("loading export", "path", loader.Dir())
	res, err := loader.Load(ctx)
	if err != nil {
		log.Fatalf("load: %v", err)
	}
	for _, e := range res.Errors {
		slog.Warn("session skipped", "error", e)
	}

	var repo ports.SessionRepository = postgres.NewSessionRepo(db, cfg.Database.Host+"/"+cfg.Database.DBName)
	if err := repo.UpsertBatch(ctx, res.Sessions); err != nil {
		log.Fatalf("upsert: %v", err)
	}
	total, err := repo.Count(ctx)
	if err != nil {
		slog.Warn("count sessions", "error", err)
	}

	if cfg.Metrics.Pushgateway != "" {
		if err := metrics.Push(ctx, cfg.Metrics.Pushgateway, "trackcluster-ingestor"); err != nil {
			slog.Warn("metrics push failed", "error", err)
		}
	}

	slog.Info("ingestion complete",
		"sessions", len(res.Sessions),
		"skipped", len(res.Errors),
		"stored", total,
		"duration", time.Since(start).Round(time.Millisecond))
}
