package usecases

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/pkg/geospatial"
)

// ToleranceKm expresses a tolerance in degrees as kilometres of longitude
// on the equator.
func ToleranceKm(tolerance decimal.Decimal) float64 {
	return geospatial.DegreesToKm(tolerance.InexactFloat64())
}

// BuildReport summarises an analysis. sessions must be the input the
// analysis was computed from; mismatches come from cluster.Verify.
func BuildReport(a *domain.Analysis, sessions []domain.Session, mismatches []domain.Mismatch) *domain.Report {
	r := &domain.Report{
		GeneratedAt:    time.Now().UTC(),
		Tolerance:      a.Tolerance,
		ToleranceKm:    ToleranceKm(a.Tolerance),
		Sessions:       len(a.Sessions),
		SingleSessions: []string{},
		MultiSessions:  []domain.Group{},
		Mismatches:     mismatches,
		Stats:          BuildStats(sessions),
	}

	withBounds := make(map[string]bool, len(sessions))
	for i := range sessions {
		withBounds[sessions[i].ID] = sessions[i].HasBounds()
	}

	seen := make(map[string]bool)
	for _, s := range a.Sessions {
		if !withBounds[s.SessionID] {
			continue
		}
		size := len(s.Overlap)
		if size == 0 {
			r.SingleSessions = append(r.SingleSessions, s.SessionID)
			continue
		}

		r.TotalOverlaps += size
		if r.MinClusterSize == 0 || size < r.MinClusterSize {
			r.MinClusterSize = size
		}
		if size > r.MaxClusterSize {
			r.MaxClusterSize = size
		}

		// One group per component, reported from its first member.
		if seen[s.SessionID] {
			continue
		}
		seen[s.SessionID] = true
		for _, m := range s.Overlap {
			seen[m] = true
		}
		r.MultiSessions = append(r.MultiSessions, domain.Group{
			SessionID:  s.SessionID,
			Members:    sortedCopy(s.Overlap),
			InnerBound: s.InnerBound,
			OuterBound: s.OuterBound,
		})
	}

	if a.Compound {
		r.CompoundGroups = compoundGroups(a)
	}
	return r
}

// compoundGroups lists each distinct compound set once. Compound sets of
// members of one group differ by their own overlap clusters, so the key is
// the session together with its compound members.
func compoundGroups(a *domain.Analysis) []domain.Group {
	groups := []domain.Group{}
	seen := make(map[string]bool)
	for _, s := range a.Sessions {
		if len(s.Compound) == 0 {
			continue
		}
		key := strings.Join(sortedCopy(append([]string{s.SessionID}, s.Compound...)), ",")
		if seen[key] {
			continue
		}
		seen[key] = true
		groups = append(groups, domain.Group{
			SessionID: s.SessionID,
			Members:   sortedCopy(s.Compound),
		})
	}
	return groups
}

// BuildStats computes the session checks shown by the check command.
func BuildStats(sessions []domain.Session) domain.SessionStats {
	st := domain.SessionStats{
		Total:         len(sessions),
		WithoutBounds: []string{},
		ZeroDistance:  []string{},
	}
	first := true
	for i := range sessions {
		s := &sessions[i]
		if s.HasBounds() {
			st.WithBounds++
		} else {
			st.WithoutBounds = append(st.WithoutBounds, s.ID)
		}
		if s.Distance == 0 {
			st.ZeroDistance = append(st.ZeroDistance, s.ID)
		}
		if s.HeartRate {
			st.WithHeartRate++
		}
		if len(s.PhotoIDs) > 0 {
			st.WithPhotos++
			st.Photos += len(s.PhotoIDs)
		}

		st.TotalDistance += s.Distance
		if first || s.Distance < st.MinDistance {
			st.MinDistance = s.Distance
		}
		if first || s.Distance > st.MaxDistance {
			st.MaxDistance = s.Distance
		}
		first = false
	}
	return st
}

func sortedCopy(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}
