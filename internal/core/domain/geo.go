package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat decimal.Decimal `json:"lat"`
	Lon decimal.Decimal `json:"lon"`
}

// GeoBounds is an axis-aligned latitude/longitude rectangle describing the
// extent of a recorded track. Coordinates are decimals so tolerance
// comparisons do not drift the way binary floats do.
type GeoBounds struct {
	MaxLat decimal.Decimal `json:"max_lat"`
	MinLat decimal.Decimal `json:"min_lat"`
	MaxLon decimal.Decimal `json:"max_lon"`
	MinLon decimal.Decimal `json:"min_lon"`
}

// NewGeoBounds builds bounds from float degrees.
func NewGeoBounds(maxLat, minLat, maxLon, minLon float64) *GeoBounds {
	return &GeoBounds{
		MaxLat: decimal.NewFromFloat(maxLat),
		MinLat: decimal.NewFromFloat(minLat),
		MaxLon: decimal.NewFromFloat(maxLon),
		MinLon: decimal.NewFromFloat(minLon),
	}
}

// ParseGeoBounds builds bounds from decimal strings, in the order
// max latitude, min latitude, max longitude, min longitude.
func ParseGeoBounds(maxLat, minLat, maxLon, minLon string) (*GeoBounds, error) {
	vals := make([]decimal.Decimal, 0, 4)
	for _, s := range []string{maxLat, minLat, maxLon, minLon} {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("parse coordinate %q: %w", s, err)
		}
		vals = append(vals, d)
	}
	return &GeoBounds{MaxLat: vals[0], MinLat: vals[1], MaxLon: vals[2], MinLon: vals[3]}, nil
}

// Copy returns a new GeoBounds with the same coordinates.
func (b *GeoBounds) Copy() *GeoBounds {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// Valid reports whether min <= max on both axes. Inner bounds of a cluster
// whose members do not truly intersect are expected to be invalid.
func (b *GeoBounds) Valid() bool {
	return b != nil && b.MinLat.LessThanOrEqual(b.MaxLat) && b.MinLon.LessThanOrEqual(b.MaxLon)
}

// Contains reports whether other lies within b on both axes, edges included.
func (b *GeoBounds) Contains(other *GeoBounds) bool {
	if b == nil || other == nil {
		return false
	}
	return other.MaxLat.LessThanOrEqual(b.MaxLat) &&
		other.MinLat.GreaterThanOrEqual(b.MinLat) &&
		other.MaxLon.LessThanOrEqual(b.MaxLon) &&
		other.MinLon.GreaterThanOrEqual(b.MinLon)
}

// Extend grows the bounds so they include p.
func (b *GeoBounds) Extend(p GeoPoint) {
	b.MaxLat = decimal.Max(b.MaxLat, p.Lat)
	b.MinLat = decimal.Min(b.MinLat, p.Lat)
	b.MaxLon = decimal.Max(b.MaxLon, p.Lon)
	b.MinLon = decimal.Min(b.MinLon, p.Lon)
}

// Equal compares coordinates by value, ignoring decimal scale.
func (b *GeoBounds) Equal(other *GeoBounds) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.MaxLat.Equal(other.MaxLat) && b.MinLat.Equal(other.MinLat) &&
		b.MaxLon.Equal(other.MaxLon) && b.MinLon.Equal(other.MinLon)
}

// Center returns the midpoint of the rectangle.
func (b *GeoBounds) Center() GeoPoint {
	two := decimal.NewFromInt(2)
	return GeoPoint{
		Lat: b.MaxLat.Add(b.MinLat).Div(two),
		Lon: b.MaxLon.Add(b.MinLon).Div(two),
	}
}

func (b *GeoBounds) String() string {
	if b == nil {
		return "<none>"
	}
	return fmt.Sprintf("lat [%s, %s] lon [%s, %s]", b.MinLat, b.MaxLat, b.MinLon, b.MaxLon)
}

// BoundsOf returns the smallest bounds containing every point, or nil when
// points is empty.
func BoundsOf(points []GeoPoint) *GeoBounds {
	if len(points) == 0 {
		return nil
	}
	b := &GeoBounds{
		MaxLat: points[0].Lat, MinLat: points[0].Lat,
		MaxLon: points[0].Lon, MinLon: points[0].Lon,
	}
	for _, p := range points[1:] {
		b.Extend(p)
	}
	return b
}
