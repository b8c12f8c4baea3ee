// Package cluster groups sessions whose bounding boxes describe the same
// recorded route (overlap) or adjoining routes (compound).
package cluster

import (
	"github.com/shopspring/decimal"

	"github.com/samirrijal/trackcluster/internal/core/domain"
)

// SameBox reports whether all four edges of a and b differ by strictly
// less than eps.
func SameBox(a, b *domain.GeoBounds, eps decimal.Decimal) bool {
	return within(a.MaxLat, b.MaxLat, eps) &&
		within(a.MaxLon, b.MaxLon, eps) &&
		within(a.MinLat, b.MinLat, eps) &&
		within(a.MinLon, b.MinLon, eps)
}

// Touches reports whether b adjoins a on the top, right, bottom or left
// edge. The edge distance must be strictly less than eps while the
// orthogonal ranges only need to intersect, so a shared corner counts.
func Touches(a, b *domain.GeoBounds, eps decimal.Decimal) bool {
	lonOverlap := a.MinLon.LessThanOrEqual(b.MaxLon) && a.MaxLon.GreaterThanOrEqual(b.MinLon)
	latOverlap := a.MinLat.LessThanOrEqual(b.MaxLat) && a.MaxLat.GreaterThanOrEqual(b.MinLat)

	top := within(a.MaxLat, b.MinLat, eps) && lonOverlap
	right := within(a.MaxLon, b.MinLon, eps) && latOverlap
	bottom := within(a.MinLat, b.MaxLat, eps) && lonOverlap
	left := within(a.MinLon, b.MaxLon, eps) && latOverlap

	return top || right || bottom || left
}

func within(x, y, eps decimal.Decimal) bool {
	return x.Sub(y).Abs().LessThan(eps)
}
