package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/core/ports"
	"github.com/samirrijal/trackcluster/internal/core/usecases"
)

// --- Mock ReportPublisher ---

type mockPublisher struct {
	published []*domain.Report
	err       error
}

func (m *mockPublisher) PublishReport(ctx context.Context, r *domain.Report) error {
	m.published = append(m.published, r)
	return m.err
}

func bounds(t *testing.T, maxLat, minLat, maxLon, minLon string) *domain.GeoBounds {
	t.Helper()
	b, err := domain.ParseGeoBounds(maxLat, minLat, maxLon, minLon)
	if err != nil {
		t.Fatalf("parse bounds: %v", err)
	}
	return b
}

func sampleSessions(t *testing.T) []domain.Session {
	return []domain.Session{
		{ID: "a", Distance: 5000, Bounds: bounds(t, "50.0000", "20.0000", "40.0000", "30.0000")},
		{ID: "b", Distance: 5100, Bounds: bounds(t, "50.0002", "20.0002", "40.0002", "30.0002")},
		{ID: "c", Distance: 3000, Bounds: bounds(t, "48.0000", "22.0000", "44.0000", "40.0000"), HeartRate: true},
		{ID: "d", Distance: 0},
		{ID: "e", Distance: 800, Bounds: bounds(t, "10", "5", "10", "5"), PhotoIDs: []string{"p1", "p2"}},
	}
}

func TestAnalysisService_AnalyzeSessions(t *testing.T) {
	svc := usecases.NewAnalysisService(nil, nil)

	res, err := svc.AnalyzeSessions(context.Background(), sampleSessions(t), usecases.AnalysisRequest{
		Tolerance: decimal.RequireFromString("0.0005"),
		Compound:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, ok := res.Analysis.Get("a")
	if !ok {
		t.Fatal("session a missing from analysis")
	}
	if len(a.Overlap) != 1 || a.Overlap[0] != "b" {
		t.Errorf("expected a to overlap b, got %v", a.Overlap)
	}
	if len(a.Compound) != 1 || a.Compound[0] != "c" {
		t.Errorf("expected a to be compound with c, got %v", a.Compound)
	}

	r := res.Report
	if r.Sessions != 5 {
		t.Errorf("expected 5 sessions, got %d", r.Sessions)
	}
	if len(r.MultiSessions) != 1 || r.MultiSessions[0].SessionID != "a" {
		t.Errorf("expected one group reported from a, got %+v", r.MultiSessions)
	}
	if r.TotalOverlaps != 2 || r.MinClusterSize != 1 || r.MaxClusterSize != 1 {
		t.Errorf("unexpected overlap counters: total=%d min=%d max=%d", r.TotalOverlaps, r.MinClusterSize, r.MaxClusterSize)
	}
	if len(r.SingleSessions) != 2 {
		t.Errorf("expected c and e as single sessions, got %v", r.SingleSessions)
	}
	if len(r.Mismatches) != 0 {
		t.Errorf("expected no mismatches, got %v", r.Mismatches)
	}
	if r.ProcessingDuration <= 0 {
		t.Error("processing duration not recorded")
	}
}

func TestAnalysisService_AnalyzeSessions_RejectsNegativeTolerance(t *testing.T) {
	svc := usecases.NewAnalysisService(nil, nil)
	_, err := svc.AnalyzeSessions(context.Background(), nil, usecases.AnalysisRequest{
		Tolerance: decimal.RequireFromString("-1"),
	})
	if !errors.Is(err, domain.ErrInvalidTolerance) {
		t.Errorf("expected ErrInvalidTolerance, got %v", err)
	}
}

func TestAnalysisService_AnalyzeSessions_RejectsDuplicateIDs(t *testing.T) {
	svc := usecases.NewAnalysisService(nil, nil)
	_, err := svc.AnalyzeSessions(context.Background(), []domain.Session{{ID: "x"}, {ID: "x"}}, usecases.AnalysisRequest{
		Tolerance: decimal.RequireFromString("0.001"),
	})
	if !errors.Is(err, domain.ErrInvalidSessions) {
		t.Errorf("expected ErrInvalidSessions, got %v", err)
	}
}

func TestAnalysisService_Analyze_NoSource(t *testing.T) {
	svc := usecases.NewAnalysisService(nil, nil)
	if _, err := svc.Analyze(context.Background(), usecases.AnalysisRequest{}); !errors.Is(err, domain.ErrNoSource) {
		t.Errorf("expected ErrNoSource, got %v", err)
	}
}

func TestAnalysisService_Analyze_LoadsAndPublishes(t *testing.T) {
	src := &mockSource{
		loadFn: func(ctx context.Context) (*ports.LoadResult, error) {
			return &ports.LoadResult{
				Sessions: sampleSessions(t),
				Errors:   []error{errors.New("GPS-data/zz.gpx: unexpected EOF")},
				Origin:   "/exports/runtastic/Sport-sessions",
			}, nil
		},
	}
	pub := &mockPublisher{err: errors.New("broker down")}
	svc := usecases.NewAnalysisService(src, pub)

	res, err := svc.Analyze(context.Background(), usecases.AnalysisRequest{
		Tolerance: decimal.RequireFromString("0.0005"),
	})
	if err != nil {
		t.Fatalf("publish failure must not fail the analysis: %v", err)
	}
	if len(pub.published) != 1 || pub.published[0] != res.Report {
		t.Fatalf("expected the report to be published once, got %d", len(pub.published))
	}
	if res.Report.Stats.LoadedFromPath != "/exports/runtastic/Sport-sessions" {
		t.Errorf("unexpected origin: %s", res.Report.Stats.LoadedFromPath)
	}
	if len(res.Report.Stats.LoadErrors) != 1 {
		t.Errorf("expected 1 load error, got %v", res.Report.Stats.LoadErrors)
	}
	if res.Report.CompoundGroups != nil {
		t.Errorf("compound groups must be absent when compound is off, got %v", res.Report.CompoundGroups)
	}
}

func TestAnalysisService_Analyze_LoadError(t *testing.T) {
	boom := errors.New("permission denied")
	src := &mockSource{
		loadFn: func(ctx context.Context) (*ports.LoadResult, error) { return nil, boom },
	}
	svc := usecases.NewAnalysisService(src, nil)

	_, err := svc.Analyze(context.Background(), usecases.AnalysisRequest{Tolerance: decimal.RequireFromString("0.001")})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped load error, got %v", err)
	}
}
