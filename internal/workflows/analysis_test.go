package workflows

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/trackcluster/internal/core/domain"
)

type mockPublisher struct {
	published []*domain.Report
	err       error
}

func (m *mockPublisher) PublishReport(ctx context.Context, r *domain.Report) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, r)
	return nil
}

func writeExport(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := []struct{ name, body string }{
		{"Sport-sessions/a.json", `{"id":"a","start_time":1433145600000,"distance":1000}`},
		{"Sport-sessions/b.json", `{"id":"b","start_time":1433232000000,"distance":2000}`},
		{"Sport-sessions/GPS-data/a.json", `[{"latitude":47.0,"longitude":8.0},{"latitude":47.1,"longitude":8.1}]`},
		{"Sport-sessions/GPS-data/b.json", `[{"latitude":47.0001,"longitude":8.0001},{"latitude":47.1001,"longitude":8.1001}]`},
	}
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f.name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(f.body), 0o644))
	}
	return root
}

func TestAnalysisWorkflow_PublishesReport(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	env.RegisterActivity(&AnalysisActivities{})

	report := &domain.Report{Sessions: 2, Tolerance: decimal.RequireFromString("0.001")}
	env.OnActivity("AnalyzeExport", mock.Anything, mock.Anything).Return(report, nil).Once()
	env.OnActivity("PublishReport", mock.Anything, mock.Anything).Return(nil).Once()

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{ExportPath: "/x", Tolerance: "0.001", Publish: true})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var got domain.Report
	require.NoError(t, env.GetWorkflowResult(&got))
	assert.Equal(t, 2, got.Sessions)
	assert.True(t, got.Tolerance.Equal(report.Tolerance))
	env.AssertExpectations(t)
}

func TestAnalysisWorkflow_PublishFailureIsNotFatal(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	env.RegisterActivity(&AnalysisActivities{})

	env.OnActivity("AnalyzeExport", mock.Anything, mock.Anything).Return(&domain.Report{Sessions: 1}, nil)
	env.OnActivity("PublishReport", mock.Anything, mock.Anything).Return(errors.New("nats down"))

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{ExportPath: "/x", Tolerance: "0.1", Publish: true})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
}

func TestAnalysisWorkflow_AnalyzeFailure(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	env.RegisterActivity(&AnalysisActivities{})

	env.OnActivity("AnalyzeExport", mock.Anything, mock.Anything).Return(nil, errors.New("disk gone"))

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{ExportPath: "/x", Tolerance: "0.1"})

	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
}

func TestAnalyzeExportActivity(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()
	acts := &AnalysisActivities{Workers: 2}
	env.RegisterActivity(acts)

	val, err := env.ExecuteActivity(acts.AnalyzeExport, AnalysisInput{ExportPath: writeExport(t), Tolerance: "0.001"})
	require.NoError(t, err)

	var report domain.Report
	require.NoError(t, val.Get(&report))
	assert.Equal(t, 2, report.Sessions)
	require.Len(t, report.MultiSessions, 1)
	assert.Equal(t, []string{"b"}, report.MultiSessions[0].Members)
}

func TestAnalyzeExportActivity_InvalidTolerance(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()
	acts := &AnalysisActivities{}
	env.RegisterActivity(acts)

	_, err := env.ExecuteActivity(acts.AnalyzeExport, AnalysisInput{ExportPath: writeExport(t), Tolerance: ""})
	assert.Error(t, err)
}

func TestPublishReportActivity(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()
	pub := &mockPublisher{}
	acts := &AnalysisActivities{Publisher: pub}
	env.RegisterActivity(acts)

	_, err := env.ExecuteActivity(acts.PublishReport, &domain.Report{Sessions: 3})
	require.NoError(t, err)
	require.Len(t, pub.published, 1)
	assert.Equal(t, 3, pub.published[0].Sessions)
}
