package workflows

import (
	"context"
	"log/slog"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/trackcluster/internal/adapters/export"
	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/core/ports"
	"github.com/samirrijal/trackcluster/internal/core/usecases"
	"github.com/samirrijal/trackcluster/internal/pkg/config"
)

// AnalysisActivities holds the activity implementations for the analysis workflow.
type AnalysisActivities struct {
	Workers   int
	Cache     ports.CacheService
	CacheTTL  int
	Publisher ports.ReportPublisher
	Logger    *slog.Logger
}

func (a *AnalysisActivities) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// AnalyzeExport loads the export and clusters it. Bad input is not retried.
func (a *AnalysisActivities) AnalyzeExport(ctx context.Context, input AnalysisInput) (*domain.Report, error) {
	tol, err := config.ParseTolerance(input.Tolerance)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidTolerance", err)
	}

	opts := []export.Option{export.WithWorkers(a.Workers), export.WithLogger(a.logger())}
	if a.Cache != nil {
		opts = append(opts, export.WithBoundsCache(a.Cache, a.CacheTTL))
	}
	loader, err := export.New(input.ExportPath, opts...)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidExport", err)
	}

	activity.RecordHeartbeat(ctx, "loading")
	res, err := usecases.NewAnalysisService(loader, nil).
		WithLogger(a.logger()).
		Analyze(ctx, usecases.AnalysisRequest{Tolerance: tol, Compound: input.Compound})
	if err != nil {
		return nil, err
	}
	return res.Report, nil
}

// PublishReport sends the report to subscribers. Without a publisher it
// only logs.
func (a *AnalysisActivities) PublishReport(ctx context.Context, report *domain.Report) error {
	if a.Publisher == nil {
		a.logger().Info("report not published, no publisher configured", "sessions", report.Sessions)
		return nil
	}
	return a.Publisher.PublishReport(ctx, report)
}
