package geospatial

import (
	"math"
	"testing"
)

func TestHaversine_SamePoint(t *testing.T) {
	if d := Haversine(43.263, -2.935, 43.263, -2.935); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestDegreesToKm(t *testing.T) {
	// One degree of longitude on the equator is about 111.19 km.
	got := DegreesToKm(1)
	if math.Abs(got-111.195) > 0.01 {
		t.Errorf("expected ~111.195 km, got %f", got)
	}

	small := DegreesToKm(0.0005)
	if math.Abs(small-0.0556) > 0.001 {
		t.Errorf("expected ~0.0556 km, got %f", small)
	}
}

func TestDiagonalKm(t *testing.T) {
	got := DiagonalKm(0, 0, 0, 1)
	if math.Abs(got-DegreesToKm(1)) > 1e-9 {
		t.Errorf("diagonal along the equator should match DegreesToKm, got %f", got)
	}
}
