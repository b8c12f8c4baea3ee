package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/samirrijal/trackcluster/internal/adapters/export"
	"github.com/samirrijal/trackcluster/internal/adapters/http"
	natsadapter "github.com/samirrijal/trackcluster/internal/adapters/nats"
	"github.com/samirrijal/trackcluster/internal/adapters/postgres"
	"github.com/samirrijal/trackcluster/internal/adapters/valkey"
	"github.com/samirrijal/trackcluster/internal/core/ports"
	"github.com/samirrijal/trackcluster/internal/core/usecases"
	"github.com/samirrijal/trackcluster/internal/pkg/config"
	"github.com/samirrijal/trackcluster/internal/pkg/logging"
	"github.com/samirrijal/trackcluster/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("trackcluster-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database is optional when an export path is configured.
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		if cfg.Export.Path == "" {
			log.Fatalf("database: %v", err)
		}
		slog.Warn("database unavailable, serving export only", "error", err)
		db = nil
	} else {
		defer db.Close()
	}

	// Cache
	var sessionCache ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		sessionCache = cache
	}

	// Session source: an export directory wins over the database.
	var source ports.SessionSource
	if cfg.Export.Path != "" {
		opts := []export.Option{export.WithWorkers(cfg.Export.Workers)}
		if cache != nil {
			opts = append(opts, export.WithBoundsCache(cache, cfg.Valkey.BoundsTTL))
		}
		loader, err := export.New(cfg.Export.Path, opts...)
		if err != nil {
			log.Fatalf("export: %v", err)
		}
		source = loader
		slog.Info("serving sessions from export", "path", loader.Dir())
	} else {
		source = postgres.NewSessionRepo(db, cfg.Database.Host+"/"+cfg.Database.DBName)
		slog.Info("serving sessions from database", "host", cfg.Database.Host)
	}

	// NATS
	var publisher ports.ReportPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	var defaultTolerance decimal.NullDecimal
	if cfg.Analysis.Tolerance != "" {
		tol, err := cfg.Analysis.ToleranceValue()
		if err != nil {
			log.Fatalf("analysis.tolerance: %v", err)
		}
		defaultTolerance = decimal.NewNullDecimal(tol)
	}

	deps := &http.Dependencies{
		Analysis:         usecases.NewAnalysisService(source, publisher),
		Sessions:         usecases.NewSessionService(source, sessionCache),
		DefaultTolerance: defaultTolerance,
		DefaultCompound:  cfg.Analysis.Compound,
		NATS:             natsConn,
		DB:               db,
		Cache:            cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    8 * 1024 * 1024, // submitted session batches
		AppName:      "trackcluster API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
