package export

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/samirrijal/trackcluster/internal/core/domain"
)

// gpxDoc is the subset of GPX 1.1 the loader reads. Namespaces are
// ignored so both 1.0 and 1.1 documents decode.
type gpxDoc struct {
	XMLName  xml.Name     `xml:"gpx"`
	Metadata *gpxMetadata `xml:"metadata"`
	Wpts     []gpxPoint   `xml:"wpt"`
	Rtes     []struct {
		Points []gpxPoint `xml:"rtept"`
	} `xml:"rte"`
	Trks []struct {
		Segs []struct {
			Points []gpxPoint `xml:"trkpt"`
		} `xml:"trkseg"`
	} `xml:"trk"`
}

type gpxMetadata struct {
	Bounds *gpxBounds `xml:"bounds"`
}

type gpxBounds struct {
	MinLat decimal.Decimal `xml:"minlat,attr"`
	MinLon decimal.Decimal `xml:"minlon,attr"`
	MaxLat decimal.Decimal `xml:"maxlat,attr"`
	MaxLon decimal.Decimal `xml:"maxlon,attr"`
}

type gpxPoint struct {
	Lat decimal.Decimal `xml:"lat,attr"`
	Lon decimal.Decimal `xml:"lon,attr"`
}

// gpxTrack is what a GPX file contributes to a session. Path holds the
// track points in file order and is not cached.
type gpxTrack struct {
	Bounds *domain.GeoBounds
	Points int
	Path   []domain.GeoPoint
}

// parseGPX reads a GPX document. Declared metadata bounds win over bounds
// computed from the points; a file without either yields nil bounds.
func parseGPX(data []byte) (*gpxTrack, error) {
	var doc gpxDoc
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode gpx: %w", err)
	}

	var points []domain.GeoPoint
	add := func(ps []gpxPoint) {
		for _, p := range ps {
			points = append(points, domain.GeoPoint{Lat: p.Lat, Lon: p.Lon})
		}
	}
	add(doc.Wpts)
	for _, r := range doc.Rtes {
		add(r.Points)
	}
	for _, t := range doc.Trks {
		for _, s := range t.Segs {
			add(s.Points)
		}
	}
	// Track points are appended last.
	path := points[len(points)-countTrackPoints(&doc):]

	track := &gpxTrack{Points: len(points), Path: path}
	if doc.Metadata != nil && doc.Metadata.Bounds != nil {
		b := doc.Metadata.Bounds
		track.Bounds = &domain.GeoBounds{MaxLat: b.MaxLat, MinLat: b.MinLat, MaxLon: b.MaxLon, MinLon: b.MinLon}
		return track, nil
	}
	track.Bounds = domain.BoundsOf(points)
	return track, nil
}

// parseGPSJSON reads an older GPS-data JSON track.
func parseGPSJSON(data []byte) (*gpxTrack, error) {
	var raw []gpsPoint
	if err := decodeJSON(data, &raw); err != nil {
		return nil, fmt.Errorf("decode gps json: %w", err)
	}
	points := make([]domain.GeoPoint, 0, len(raw))
	for _, p := range raw {
		points = append(points, domain.GeoPoint{Lat: p.Latitude, Lon: p.Longitude})
	}
	return &gpxTrack{Bounds: domain.BoundsOf(points), Points: len(points), Path: points}, nil
}

func countTrackPoints(doc *gpxDoc) int {
	n := 0
	for _, t := range doc.Trks {
		for _, s := range t.Segs {
			n += len(s.Points)
		}
	}
	return n
}
