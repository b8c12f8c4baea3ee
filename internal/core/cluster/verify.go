package cluster

import "github.com/samirrijal/trackcluster/internal/core/domain"

// Verify checks that every member of a session's overlap cluster reports a
// cluster of the same size. A correct normalization never produces a
// mismatch; callers surface any result as a diagnostic, not an error.
// Each unordered pair is reported at most once.
func Verify(a *domain.Analysis) []domain.Mismatch {
	var out []domain.Mismatch
	seen := make(map[[2]string]struct{})
	for _, s := range a.Sessions {
		for _, m := range s.Overlap {
			key := [2]string{s.SessionID, m}
			if m < s.SessionID {
				key = [2]string{m, s.SessionID}
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			memberSize := 0
			if mc, ok := a.Get(m); ok {
				memberSize = len(mc.Overlap)
			}
			if memberSize != len(s.Overlap) {
				out = append(out, domain.Mismatch{
					SessionID:   s.SessionID,
					SessionSize: len(s.Overlap),
					MemberID:    m,
					MemberSize:  memberSize,
				})
			}
		}
	}
	return out
}
