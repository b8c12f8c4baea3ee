package export

import (
	"bytes"
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/trackcluster/internal/core/domain"
)

// writtenGPX is what the tests read back from a converted file.
type writtenGPX struct {
	Metadata struct {
		Name   string `xml:"name"`
		Time   string `xml:"time"`
		Bounds *struct {
			MinLat string `xml:"minlat,attr"`
			MaxLat string `xml:"maxlat,attr"`
			MinLon string `xml:"minlon,attr"`
			MaxLon string `xml:"maxlon,attr"`
		} `xml:"bounds"`
	} `xml:"metadata"`
	Wpts []struct {
		Lat  string `xml:"lat,attr"`
		Lon  string `xml:"lon,attr"`
		Name string `xml:"name"`
		Type string `xml:"type"`
	} `xml:"wpt"`
	Rtes []struct {
		Name   string `xml:"name"`
		Points []struct {
			Lat string `xml:"lat,attr"`
			Lon string `xml:"lon,attr"`
		} `xml:"rtept"`
	} `xml:"rte"`
	Trk struct {
		Points []struct{} `xml:"trkseg>trkpt"`
	} `xml:"trk"`
}

func decodeWritten(t *testing.T, data []byte) writtenGPX {
	t.Helper()
	var doc writtenGPX
	require.NoError(t, xml.Unmarshal(data, &doc))
	return doc
}

func countTypes(doc writtenGPX) map[string]int {
	types := make(map[string]int)
	for _, w := range doc.Wpts {
		types[w.Type]++
	}
	return types
}

func TestWriteGPX_WithClusterBounds(t *testing.T) {
	s := &domain.Session{
		ID:          "a",
		SportTypeID: "1",
		StartTime:   time.Date(2015, 6, 1, 8, 0, 0, 0, time.UTC),
		Notes:       "Lake loop",
		Bounds:      domain.NewGeoBounds(47.01, 47.0, 8.01, 8.0),
	}
	clusters := &domain.SessionClusters{
		SessionID:  "a",
		Overlap:    []string{"b"},
		InnerBound: domain.NewGeoBounds(47.01, 47.0002, 8.0098, 8.0003),
		OuterBound: domain.NewGeoBounds(47.0101, 47.0, 8.01, 8.0),
	}
	track := []domain.GeoPoint{
		{Lat: s.Bounds.MinLat, Lon: s.Bounds.MinLon},
		{Lat: s.Bounds.MaxLat, Lon: s.Bounds.MaxLon},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteGPX(&buf, s, track, clusters))
	assert.True(t, strings.HasPrefix(buf.String(), xml.Header))
	assert.Contains(t, buf.String(), `xmlns="http://www.topografix.com/GPX/1/1"`)

	doc := decodeWritten(t, buf.Bytes())
	assert.Equal(t, "a", doc.Metadata.Name)
	assert.Equal(t, "2015-06-01T08:00:00Z", doc.Metadata.Time)
	require.NotNil(t, doc.Metadata.Bounds)
	assert.Equal(t, "47", doc.Metadata.Bounds.MinLat)
	assert.Equal(t, "47.01", doc.Metadata.Bounds.MaxLat)

	assert.Equal(t, map[string]int{BoundsType: 4, InnerBoundsType: 4, OuterBoundsType: 4}, countTypes(doc))
	assert.Equal(t, "Bounds: top-right corner", doc.Wpts[0].Name)
	assert.Equal(t, "Inner bounds: top-right corner", doc.Wpts[4].Name)
	assert.Equal(t, "47.01", doc.Wpts[4].Lat)
	assert.Equal(t, "8.0098", doc.Wpts[4].Lon)

	require.Len(t, doc.Rtes, 3)
	assert.Equal(t, []string{"Bounds", "Inner bounds", "Outer bounds"},
		[]string{doc.Rtes[0].Name, doc.Rtes[1].Name, doc.Rtes[2].Name})
	for _, r := range doc.Rtes {
		require.Len(t, r.Points, 5, r.Name)
		assert.Equal(t, r.Points[0], r.Points[4], "%s route is closed", r.Name)
	}
	outer := doc.Rtes[2].Points
	assert.Equal(t, "47.0101", outer[0].Lat)
	assert.Equal(t, "47", outer[2].Lat)
	assert.Equal(t, "8", outer[2].Lon)

	assert.Len(t, doc.Trk.Points, 2)
}

func TestWriteGPX_SingleSession(t *testing.T) {
	s := &domain.Session{ID: "c", Bounds: domain.NewGeoBounds(47.02, 47.0105, 8.01, 8.0)}

	// a session outside any overlap cluster has no inner or outer bounds
	var buf bytes.Buffer
	require.NoError(t, WriteGPX(&buf, s, nil, &domain.SessionClusters{SessionID: "c"}))

	doc := decodeWritten(t, buf.Bytes())
	assert.Equal(t, map[string]int{BoundsType: 4}, countTypes(doc))
	assert.Len(t, doc.Rtes, 1)
	assert.Empty(t, doc.Metadata.Time)
	assert.NotContains(t, buf.String(), "<trk>")
}

func TestWriteGPX_NoBounds(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGPX(&buf, &domain.Session{ID: "d"}, nil, nil))

	doc := decodeWritten(t, buf.Bytes())
	assert.Nil(t, doc.Metadata.Bounds)
	assert.Empty(t, doc.Wpts)
	assert.Empty(t, doc.Rtes)
}

func TestGPXFileName(t *testing.T) {
	s := &domain.Session{ID: "s1", StartTime: time.Date(2015, 6, 1, 8, 0, 0, 0, time.UTC)}
	assert.Equal(t, "session_20150601_080000_s1.gpx", GPXFileName(s))
}

func TestLoader_Track(t *testing.T) {
	l, err := New(writeExport(t))
	require.NoError(t, err)

	points, err := l.Track("s3")
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "47.01", points[0].Lat.String())

	points, err = l.Track("s2")
	require.NoError(t, err)
	assert.Empty(t, points)

	_, err = l.Track("../s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestLoader_WriteSessionGPX(t *testing.T) {
	l, err := New(writeExport(t))
	require.NoError(t, err)
	ctx := context.Background()

	s, err := l.Get(ctx, "s1")
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := l.WriteSessionGPX(ctx, s, nil, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "session_20150601_080000_s1.gpx"), path)

	// A converted file reads back with the same bounds.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	track, err := parseGPX(data)
	require.NoError(t, err)
	assert.True(t, s.Bounds.Equal(track.Bounds), "got %s", track.Bounds)
	assert.Len(t, track.Path, 1)

	// an explicit file name is used as is
	path, err = l.WriteSessionGPX(ctx, s, nil, filepath.Join(dir, "lake.gpx"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lake.gpx"), path)
	assert.FileExists(t, path)

	_, err = l.WriteSessionGPX(ctx, s, nil, filepath.Join(dir, "missing", "x.gpx"))
	assert.Error(t, err)
}
