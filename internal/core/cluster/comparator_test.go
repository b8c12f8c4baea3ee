package cluster_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/trackcluster/internal/core/cluster"
	"github.com/samirrijal/trackcluster/internal/core/domain"
)

// box builds bounds in the order max latitude, max longitude, min longitude,
// min latitude.
func box(t *testing.T, maxLat, maxLon, minLon, minLat string) *domain.GeoBounds {
	t.Helper()
	b, err := domain.ParseGeoBounds(maxLat, minLat, maxLon, minLon)
	require.NoError(t, err)
	return b
}

func eps(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSameBox(t *testing.T) {
	a := box(t, "50.0000", "40.0000", "30.0000", "20.0000")

	tests := []struct {
		name string
		b    *domain.GeoBounds
		want bool
	}{
		{"identical", box(t, "50.0000", "40.0000", "30.0000", "20.0000"), true},
		{"all edges inside tolerance", box(t, "50.0004", "39.9996", "30.0004", "19.9996"), true},
		{"one edge exactly at tolerance", box(t, "50.0005", "40.0000", "30.0000", "20.0000"), false},
		{"one edge beyond tolerance", box(t, "50.0000", "40.0000", "30.0000", "20.0010"), false},
		{"shifted box", box(t, "52.0000", "42.0000", "32.0000", "22.0000"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cluster.SameBox(a, tt.b, eps("0.0005")))
			assert.Equal(t, tt.want, cluster.SameBox(tt.b, a, eps("0.0005")), "SameBox must be symmetric")
		})
	}
}

func TestSameBox_ZeroToleranceNeverMatches(t *testing.T) {
	a := box(t, "50", "40", "30", "20")
	assert.False(t, cluster.SameBox(a, a.Copy(), decimal.Zero))
}

func TestTouches_InsideOnRight(t *testing.T) {
	a := box(t, "50.0", "40.0", "30.0", "20.0")

	tests := []struct {
		name string
		b    *domain.GeoBounds
	}{
		{"smaller than a", box(t, "48.0", "44.0", "40.0", "22.0")},
		{"bigger than a", box(t, "55.0", "44.0", "40.0", "11.0")},
		{"corner matches top", box(t, "55.0", "44.0", "40.0", "50.0")},
		{"corner matches bottom", box(t, "20.0", "44.0", "40.0", "11.0")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, e := range []string{"0.0001", "0.0005", "0.007"} {
				assert.True(t, cluster.Touches(a, tt.b, eps(e)), "tolerance %s", e)
				assert.True(t, cluster.Touches(tt.b, a, eps(e)), "reverse, tolerance %s", e)
			}
		})
	}
}

func TestTouches_OutsideOnRight(t *testing.T) {
	a := box(t, "50.0", "40.0", "30.0", "20.0")

	tests := []struct {
		name string
		b    *domain.GeoBounds
	}{
		{"above", box(t, "66.0", "44.0", "40.0", "55.0")},
		{"below", box(t, "11.0", "44.0", "40.0", "5.0")},
		{"corner just above top", box(t, "55.0", "44.0", "40.0", "50.1")},
		{"corner just below bottom", box(t, "19.9", "44.0", "40.0", "11.0")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, cluster.Touches(a, tt.b, eps("0.0005")))
		})
	}
}

func TestTouches_AllSides(t *testing.T) {
	a := box(t, "50.0", "40.0", "30.0", "20.0")
	e := eps("0.0005")

	assert.True(t, cluster.Touches(a, box(t, "60.0", "38.0", "32.0", "50.0"), e), "top")
	assert.True(t, cluster.Touches(a, box(t, "20.0", "38.0", "32.0", "10.0"), e), "bottom")
	assert.True(t, cluster.Touches(a, box(t, "48.0", "30.0", "25.0", "22.0"), e), "left")
	assert.True(t, cluster.Touches(a, box(t, "48.0", "45.0", "40.0003", "22.0"), e), "right within tolerance")
}

func TestTouches_JustOutsideTolerance(t *testing.T) {
	a := box(t, "50", "40", "30", "20")
	e := eps("0.0005")
	// minLon = maxLon(a) + 2ε
	b := box(t, "48", "44", "40.001", "22")

	assert.False(t, cluster.Touches(a, b, e))
}

func TestTouches_EdgeExactlyAtToleranceIsOutside(t *testing.T) {
	a := box(t, "50", "40", "30", "20")
	b := box(t, "48", "44", "40.0005", "22")

	assert.False(t, cluster.Touches(a, b, eps("0.0005")))
	assert.True(t, cluster.Touches(a, b, eps("0.00051")))
}

// An exact edge contact sits at distance zero, which is not strictly less
// than a zero tolerance.
func TestTouches_ZeroTolerance(t *testing.T) {
	a := box(t, "50", "40", "30", "20")
	b := box(t, "48", "44", "40", "22")

	assert.False(t, cluster.Touches(a, b, decimal.Zero))
	assert.False(t, cluster.Touches(b, a, decimal.Zero))
	assert.True(t, cluster.Touches(a, b, eps("0.0001")))
}
