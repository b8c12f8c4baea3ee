package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/trackcluster/internal/core/domain"
)

// AnalysisWorkflowName is the registered workflow type name.
const AnalysisWorkflowName = "AnalysisWorkflow"

// AnalysisInput is the input for the analysis workflow.
type AnalysisInput struct {
	ExportPath string
	// Tolerance is a decimal string in degrees.
	Tolerance string
	Compound  bool
	Publish   bool
}

// AnalysisWorkflow clusters one export and, when asked, publishes the
// report. A failed publish is logged; the analysis result still stands.
func AnalysisWorkflow(ctx workflow.Context, input AnalysisInput) (*domain.Report, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting analysis workflow", "export", input.ExportPath, "tolerance", input.Tolerance)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var report domain.Report
	if err := workflow.ExecuteActivity(ctx, "AnalyzeExport", input).Get(ctx, &report); err != nil {
		return nil, err
	}

	if input.Publish {
		pubCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			StartToCloseTimeout: 30 * time.Second,
			RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 5},
		})
		if err := workflow.ExecuteActivity(pubCtx, "PublishReport", &report).Get(pubCtx, nil); err != nil {
			logger.Warn("publish report failed", "error", err)
		}
	}

	logger.Info("Analysis finished", "sessions", report.Sessions, "groups", len(report.MultiSessions))
	return &report, nil
}
