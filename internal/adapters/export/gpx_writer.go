package export

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/pkg/metrics"
)

const (
	gpxNamespace = "http://www.topografix.com/GPX/1/1"
	gpxCreator   = "trackcluster"
	fileStamp    = "20060102_150405"
)

// Waypoint types of the exported bound corners.
const (
	BoundsType      = "bounds"
	InnerBoundsType = "inner-bounds"
	OuterBoundsType = "outer-bounds"
)

type gpxOut struct {
	XMLName  xml.Name    `xml:"gpx"`
	Version  string      `xml:"version,attr"`
	Creator  string      `xml:"creator,attr"`
	Xmlns    string      `xml:"xmlns,attr"`
	Metadata gpxOutMeta  `xml:"metadata"`
	Wpts     []gpxOutPt  `xml:"wpt"`
	Rtes     []gpxOutRte `xml:"rte"`
	Trk      *gpxOutTrk  `xml:"trk,omitempty"`
}

// Element order follows the GPX 1.1 schema.
type gpxOutMeta struct {
	Name     string     `xml:"name,omitempty"`
	Desc     string     `xml:"desc,omitempty"`
	Time     string     `xml:"time,omitempty"`
	Keywords string     `xml:"keywords,omitempty"`
	Bounds   *gpxBounds `xml:"bounds,omitempty"`
}

type gpxOutPt struct {
	Lat  decimal.Decimal `xml:"lat,attr"`
	Lon  decimal.Decimal `xml:"lon,attr"`
	Name string          `xml:"name,omitempty"`
	Type string          `xml:"type,omitempty"`
}

type gpxOutRte struct {
	Name   string     `xml:"name"`
	Desc   string     `xml:"desc,omitempty"`
	Points []gpxOutPt `xml:"rtept"`
}

type gpxOutTrk struct {
	Name string `xml:"name,omitempty"`
	Seg  struct {
		Points []gpxOutPt `xml:"trkpt"`
	} `xml:"trkseg"`
}

type boundsLayer struct {
	bounds *domain.GeoBounds
	kind   string
	label  string
	desc   string
}

// WriteGPX writes s as a GPX 1.1 document with its track. The session
// bounds go into the metadata. Each available layer of session, inner
// and outer bounds adds four corner waypoints and a closed route.
func WriteGPX(w io.Writer, s *domain.Session, track []domain.GeoPoint, clusters *domain.SessionClusters) error {
	doc := gpxOut{
		Version: "1.1",
		Creator: gpxCreator,
		Xmlns:   gpxNamespace,
		Metadata: gpxOutMeta{
			Name:     s.ID,
			Desc:     s.Notes,
			Keywords: s.SportTypeID,
		},
	}
	if !s.StartTime.IsZero() {
		doc.Metadata.Time = s.StartTime.UTC().Format(time.RFC3339)
	}
	if s.Bounds != nil {
		doc.Metadata.Bounds = &gpxBounds{
			MinLat: s.Bounds.MinLat, MinLon: s.Bounds.MinLon,
			MaxLat: s.Bounds.MaxLat, MaxLon: s.Bounds.MaxLon,
		}
	}

	layers := []boundsLayer{{s.Bounds, BoundsType, "Bounds", "Bounds of this sport session."}}
	if clusters != nil {
		layers = append(layers,
			boundsLayer{clusters.InnerBound, InnerBoundsType, "Inner bounds", "Area shared by every overlapping session."},
			boundsLayer{clusters.OuterBound, OuterBoundsType, "Outer bounds", "Area covered by any overlapping session."},
		)
	}
	for _, layer := range layers {
		if layer.bounds == nil {
			continue
		}
		corners := cornerPoints(layer)
		doc.Wpts = append(doc.Wpts, corners...)
		// Closed ring: top-right, down-right, down-left, top-left, top-right.
		ring := []gpxOutPt{corners[0], corners[1], corners[3], corners[2], corners[0]}
		doc.Rtes = append(doc.Rtes, gpxOutRte{Name: layer.label, Desc: layer.desc, Points: ring})
	}

	if len(track) > 0 {
		doc.Trk = &gpxOutTrk{Name: s.ID}
		doc.Trk.Seg.Points = make([]gpxOutPt, 0, len(track))
		for _, p := range track {
			doc.Trk.Seg.Points = append(doc.Trk.Seg.Points, gpxOutPt{Lat: p.Lat, Lon: p.Lon})
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode gpx: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// cornerPoints returns top-right, down-right, top-left, down-left.
func cornerPoints(l boundsLayer) []gpxOutPt {
	b := l.bounds
	pt := func(lat, lon decimal.Decimal, corner string) gpxOutPt {
		return gpxOutPt{Lat: lat, Lon: lon, Name: l.label + ": " + corner + " corner", Type: l.kind}
	}
	return []gpxOutPt{
		pt(b.MaxLat, b.MaxLon, "top-right"),
		pt(b.MinLat, b.MaxLon, "down-right"),
		pt(b.MaxLat, b.MinLon, "top-left"),
		pt(b.MinLat, b.MinLon, "down-left"),
	}
}

// GPXFileName names the converted file of s, e.g.
// session_20150601_080000_a.gpx.
func GPXFileName(s *domain.Session) string {
	return fmt.Sprintf("session_%s_%s%s", s.StartTime.UTC().Format(fileStamp), s.ID, gpxFileExt)
}

// Track reads the track points of session id in file order. id names the
// session file, as for Get. The bounds cache is bypassed. A session
// without GPS data has no points.
func (l *Loader) Track(id string) ([]domain.GeoPoint, error) {
	if !validName(id) {
		return nil, fmt.Errorf("%w: %q", domain.ErrSessionNotFound, id)
	}
	for _, c := range l.trackFiles(id) {
		data, err := os.ReadFile(c.path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.path, err)
		}
		track, err := c.parse(data)
		if err != nil {
			metrics.ExportFilesFailed.WithLabelValues(c.kind).Inc()
			return nil, fmt.Errorf("%s: %w", c.path, err)
		}
		return track.Path, nil
	}
	return nil, nil
}

// WriteSessionGPX converts s into dest. When dest is an existing
// directory the file is named by GPXFileName. It returns the written path.
func (l *Loader) WriteSessionGPX(ctx context.Context, s *domain.Session, clusters *domain.SessionClusters, dest string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		dest = filepath.Join(dest, GPXFileName(s))
	}
	track, err := l.Track(s.ID)
	if err != nil {
		return "", err
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	if err := WriteGPX(f, s, track, clusters); err != nil {
		f.Close()
		return "", fmt.Errorf("%s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dest, err)
	}
	metrics.ExportFilesWritten.WithLabelValues("gpx").Inc()
	return dest, nil
}
