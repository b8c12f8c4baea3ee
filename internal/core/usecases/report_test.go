package usecases_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/core/usecases"
)

func TestBuildStats(t *testing.T) {
	st := usecases.BuildStats(sampleSessions(t))

	if st.Total != 5 || st.WithBounds != 4 {
		t.Errorf("expected 5 total, 4 with bounds, got %d/%d", st.Total, st.WithBounds)
	}
	if len(st.WithoutBounds) != 1 || st.WithoutBounds[0] != "d" {
		t.Errorf("expected d without bounds, got %v", st.WithoutBounds)
	}
	if len(st.ZeroDistance) != 1 || st.ZeroDistance[0] != "d" {
		t.Errorf("expected d with zero distance, got %v", st.ZeroDistance)
	}
	if st.WithHeartRate != 1 || st.WithPhotos != 1 || st.Photos != 2 {
		t.Errorf("unexpected hr/photo counts: %+v", st)
	}
	if st.TotalDistance != 13900 || st.MinDistance != 0 || st.MaxDistance != 5100 {
		t.Errorf("unexpected distances: total=%d min=%d max=%d", st.TotalDistance, st.MinDistance, st.MaxDistance)
	}
}

func TestBuildStats_Empty(t *testing.T) {
	st := usecases.BuildStats(nil)
	if st.Total != 0 || st.MinDistance != 0 || st.MaxDistance != 0 {
		t.Errorf("unexpected stats for no sessions: %+v", st)
	}
}

func TestBuildReport_CompoundGroupsAreDeduplicated(t *testing.T) {
	a := domain.NewAnalysis(decimal.RequireFromString("0.0005"), true, 4)
	a.Add(domain.SessionClusters{SessionID: "a", Overlap: []string{}, Compound: []string{"b"}})
	a.Add(domain.SessionClusters{SessionID: "b", Overlap: []string{}, Compound: []string{"a"}})
	a.Add(domain.SessionClusters{SessionID: "c", Overlap: []string{}, Compound: []string{}})

	sessions := []domain.Session{
		{ID: "a", Bounds: domain.NewGeoBounds(1, 0, 1, 0)},
		{ID: "b", Bounds: domain.NewGeoBounds(1, 0, 2, 1)},
		{ID: "c", Bounds: domain.NewGeoBounds(9, 8, 9, 8)},
	}

	r := usecases.BuildReport(a, sessions, nil)

	if len(r.CompoundGroups) != 1 {
		t.Fatalf("expected 1 compound group, got %+v", r.CompoundGroups)
	}
	if r.CompoundGroups[0].SessionID != "a" {
		t.Errorf("expected group reported from a, got %s", r.CompoundGroups[0].SessionID)
	}
	if len(r.SingleSessions) != 3 {
		t.Errorf("sessions without overlap are single, got %v", r.SingleSessions)
	}
	if r.MinClusterSize != 0 || r.MaxClusterSize != 0 {
		t.Errorf("cluster sizes must be zero without groups, got %d/%d", r.MinClusterSize, r.MaxClusterSize)
	}
}

func TestToleranceKm(t *testing.T) {
	got := usecases.ToleranceKm(decimal.RequireFromString("0.007"))
	if math.Abs(got-0.778) > 0.001 {
		t.Errorf("expected ~0.778 km, got %f", got)
	}
	if usecases.ToleranceKm(decimal.Zero) != 0 {
		t.Error("zero tolerance must be zero km")
	}
}
