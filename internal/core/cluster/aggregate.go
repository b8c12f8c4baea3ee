package cluster

import (
	"github.com/shopspring/decimal"

	"github.com/samirrijal/trackcluster/internal/core/domain"
)

// Aggregate computes the inner (shrinking, intersection-like) and outer
// (growing, union-like) bounds over members. Both results are freshly
// allocated; no member is modified. The inner bound may end up with
// min > max when members do not really intersect. Nil members are
// skipped; if none remain both results are nil.
func Aggregate(members []*domain.GeoBounds) (inner, outer *domain.GeoBounds) {
	for _, m := range members {
		if m == nil {
			continue
		}
		if inner == nil {
			inner = m.Copy()
			outer = m.Copy()
			continue
		}

		outer.MinLon = decimal.Min(outer.MinLon, m.MinLon)
		outer.MaxLon = decimal.Max(outer.MaxLon, m.MaxLon)
		outer.MaxLat = decimal.Max(outer.MaxLat, m.MaxLat)
		outer.MinLat = decimal.Min(outer.MinLat, m.MinLat)

		inner.MinLon = decimal.Max(inner.MinLon, m.MinLon)
		inner.MaxLon = decimal.Min(inner.MaxLon, m.MaxLon)
		inner.MaxLat = decimal.Min(inner.MaxLat, m.MaxLat)
		inner.MinLat = decimal.Max(inner.MinLat, m.MinLat)
	}
	return inner, outer
}
