package cluster

import (
	"github.com/shopspring/decimal"

	"github.com/samirrijal/trackcluster/internal/core/domain"
)

// DetectOverlaps compares every session with bounds against every other
// one and records the pairs satisfying SameBox. Sessions without bounds
// are neither keys nor candidates. The result is raw and must go through
// Normalize before it is used.
func DetectOverlaps(sessions []domain.Session, eps decimal.Decimal) *Adjacency {
	adj := NewAdjacency()
	for i := range sessions {
		s := &sessions[i]
		if !s.HasBounds() {
			continue
		}
		adj.AddNode(s.ID)
		for j := range sessions {
			t := &sessions[j]
			if i == j || !t.HasBounds() || s.ID == t.ID {
				continue
			}
			if SameBox(s.Bounds, t.Bounds, eps) {
				adj.AddEdge(s.ID, t.ID)
			}
		}
	}
	return adj
}

// DetectCompounds records, for every session with bounds, the sessions
// whose bounds touch it and that are not already in its normalized
// overlap cluster. overlaps must be the output of Normalize.
func DetectCompounds(sessions []domain.Session, overlaps *Adjacency, eps decimal.Decimal) *Adjacency {
	adj := NewAdjacency()
	for i := range sessions {
		s := &sessions[i]
		if !s.HasBounds() {
			continue
		}
		adj.AddNode(s.ID)
		for j := range sessions {
			t := &sessions[j]
			if i == j || !t.HasBounds() || s.ID == t.ID {
				continue
			}
			if overlaps.Contains(s.ID, t.ID) {
				continue
			}
			if Touches(s.Bounds, t.Bounds, eps) {
				adj.AddEdge(s.ID, t.ID)
			}
		}
	}
	return adj
}
