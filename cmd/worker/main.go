package main

import (
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	natsadapter "github.com/samirrijal/trackcluster/internal/adapters/nats"
	"github.com/samirrijal/trackcluster/internal/adapters/valkey"
	"github.com/samirrijal/trackcluster/internal/pkg/config"
	"github.com/samirrijal/trackcluster/internal/pkg/logging"
	"github.com/samirrijal/trackcluster/internal/workflows"
)

func main() {
	cfg, err := config.Load("trackcluster-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	activities := &workflows.AnalysisActivities{
		Workers:  cfg.Export.Workers,
		CacheTTL: cfg.Valkey.BoundsTTL,
		Logger:   slog.Default(),
	}
	if cache, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("bounds cache unavailable", "error", err)
	} else {
		defer cache.Close()
		activities.Cache = cache
	}
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, reports will not be published", "error", err)
	} else {
		defer pub.Close()
		activities.Publisher = pub
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(workflows.AnalysisWorkflow, workflow.RegisterOptions{
		Name: workflows.AnalysisWorkflowName,
	})
	w.RegisterActivity(activities)

	slog.Info("analysis worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
