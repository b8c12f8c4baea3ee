// Package export reads sport activity exports from disk: one JSON document
// per session plus optional GPS, heart-rate and photo album files.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/core/ports"
	"github.com/samirrijal/trackcluster/internal/pkg/metrics"
)

// Loader reads sessions from the Sport-sessions directory of an export.
type Loader struct {
	dir      string
	workers  int
	cache    ports.CacheService
	cacheTTL int
	logger   *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithWorkers bounds the number of sessions parsed concurrently.
func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithBoundsCache caches track bounds keyed by file path, size and
// modification time, so unchanged GPS files are parsed once.
func WithBoundsCache(c ports.CacheService, ttlSeconds int) Option {
	return func(l *Loader) {
		l.cache = c
		l.cacheTTL = ttlSeconds
	}
}

// WithLogger sets the logger used for skipped files.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// New creates a loader for path, which may be the export root or its
// Sport-sessions directory.
func New(path string, opts ...Option) (*Loader, error) {
	dir, err := NormalizeExportPath(path, SessionsDir)
	if err != nil {
		return nil, err
	}
	l := &Loader{dir: dir, workers: 4, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Dir returns the Sport-sessions directory being read.
func (l *Loader) Dir() string { return l.dir }

// NormalizeExportPath resolves path to its sub directory. path may already
// point at sub. The result must be an existing directory.
func NormalizeExportPath(path, sub string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("export path is empty")
	}
	dir := filepath.Clean(path)
	if filepath.Base(dir) != sub {
		dir = filepath.Join(dir, sub)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("export path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("export path %s is not a directory", dir)
	}
	return dir, nil
}

// Load parses every session with its GPS, heart-rate and photo data.
// A session whose files cannot be read is skipped and reported in the
// result's Errors; only cancellation aborts the whole load.
func (l *Loader) Load(ctx context.Context) (*ports.LoadResult, error) {
	sessions, errs, err := l.loadAll(ctx, true)
	if err != nil {
		return nil, err
	}
	return &ports.LoadResult{Sessions: sessions, Errors: errs, Origin: l.dir}, nil
}

// List parses only the session documents. Bounds are absent.
func (l *Loader) List(ctx context.Context) ([]domain.Session, error) {
	sessions, errs, err := l.loadAll(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, e := range errs {
		l.logger.Warn("session skipped", "error", e)
	}
	return sessions, nil
}

// Get loads one session with its GPS, heart-rate and photo data.
func (l *Loader) Get(ctx context.Context, id string) (*domain.Session, error) {
	if !validName(id) {
		return nil, fmt.Errorf("%w: %q", domain.ErrSessionNotFound, id)
	}
	path := filepath.Join(l.dir, id+sessionFileExt)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return l.loadSession(ctx, path, true)
}

// validName rejects ids that would escape their directory.
func validName(id string) bool {
	return id != "" && id != "." && id != ".." && filepath.Base(id) == id
}

func (l *Loader) sessionFiles() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), sessionFileExt) {
			continue
		}
		files = append(files, filepath.Join(l.dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (l *Loader) loadAll(ctx context.Context, full bool) ([]domain.Session, []error, error) {
	files, err := l.sessionFiles()
	if err != nil {
		return nil, nil, err
	}

	loaded := make([]*domain.Session, len(files))
	fileErrs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := l.loadSession(gctx, f, full)
			if err != nil {
				// One broken file must not stop the others.
				fileErrs[i] = err
				return nil
			}
			loaded[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sessions := make([]domain.Session, 0, len(files))
	var errs []error
	seen := make(map[string]string, len(files))
	for i, s := range loaded {
		if fileErrs[i] != nil {
			errs = append(errs, fileErrs[i])
			continue
		}
		if prev, dup := seen[s.ID]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate session id %s (also in %s)", files[i], s.ID, prev))
			continue
		}
		seen[s.ID] = files[i]
		sessions = append(sessions, *s)
	}
	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].Before(&sessions[j]) })
	return sessions, errs, nil
}

func (l *Loader) loadSession(ctx context.Context, path string, full bool) (*domain.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		metrics.ExportFilesFailed.WithLabelValues("session").Inc()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var f sessionFile
	if err := decodeJSON(data, &f); err != nil {
		metrics.ExportFilesFailed.WithLabelValues("session").Inc()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	metrics.ExportFilesLoaded.WithLabelValues("session").Inc()

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if f.ID == "" {
		f.ID = base
	}
	s := f.toDomain()
	if !full {
		return &s, nil
	}

	track, err := l.readTrack(ctx, base)
	if err != nil {
		return nil, err
	}
	if track != nil {
		s.Bounds = track.Bounds
		s.TrackPoints = track.Points
	}

	if s.HeartRate, err = l.readHeartRate(base); err != nil {
		return nil, err
	}
	if s.PhotoIDs, err = l.readAlbum(base); err != nil {
		return nil, err
	}
	return &s, nil
}

// readTrack prefers GPS-data/<id>.gpx and falls back to the older
// GPS-data/<id>.json. A session without either has no track.
func (l *Loader) readTrack(ctx context.Context, base string) (*gpxTrack, error) {
	for _, c := range l.trackFiles(base) {
		info, err := os.Stat(c.path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.path, err)
		}

		key := fmt.Sprintf("bounds:%s:%d:%d", c.path, info.Size(), info.ModTime().UnixNano())
		if track, ok := l.cachedTrack(ctx, key); ok {
			return track, nil
		}

		data, err := os.ReadFile(c.path)
		if err != nil {
			metrics.ExportFilesFailed.WithLabelValues(c.kind).Inc()
			return nil, fmt.Errorf("%s: %w", c.path, err)
		}
		track, err := c.parse(data)
		if err != nil {
			metrics.ExportFilesFailed.WithLabelValues(c.kind).Inc()
			return nil, fmt.Errorf("%s: %w", c.path, err)
		}
		metrics.ExportFilesLoaded.WithLabelValues(c.kind).Inc()
		l.storeTrack(ctx, key, track)
		return track, nil
	}
	return nil, nil
}

type trackFile struct {
	path  string
	kind  string
	parse func([]byte) (*gpxTrack, error)
}

func (l *Loader) trackFiles(base string) []trackFile {
	gpsDir := filepath.Join(l.dir, GPSDataDir)
	return []trackFile{
		{filepath.Join(gpsDir, base+gpxFileExt), "gpx", parseGPX},
		{filepath.Join(gpsDir, base+sessionFileExt), "gps_json", parseGPSJSON},
	}
}

type trackCacheEntry struct {
	Bounds *domain.GeoBounds `json:"bounds"`
	Points int               `json:"points"`
}

func (l *Loader) cachedTrack(ctx context.Context, key string) (*gpxTrack, bool) {
	if l.cache == nil {
		return nil, false
	}
	data, err := l.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues("bounds").Inc()
		return nil, false
	}
	var c trackCacheEntry
	if err := json.Unmarshal(data, &c); err != nil {
		metrics.CacheMisses.WithLabelValues("bounds").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("bounds").Inc()
	return &gpxTrack{Bounds: c.Bounds, Points: c.Points}, true
}

func (l *Loader) storeTrack(ctx context.Context, key string, t *gpxTrack) {
	if l.cache == nil {
		return
	}
	data, err := json.Marshal(trackCacheEntry{Bounds: t.Bounds, Points: t.Points})
	if err != nil {
		return
	}
	if err := l.cache.Set(ctx, key, data, l.cacheTTL); err != nil {
		l.logger.Debug("bounds cache write failed", "key", key, "error", err)
	}
}

func (l *Loader) readHeartRate(base string) (bool, error) {
	path := filepath.Join(l.dir, HeartRateDir, base+sessionFileExt)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	var points []heartRatePoint
	if err := decodeJSON(data, &points); err != nil {
		metrics.ExportFilesFailed.WithLabelValues("heart_rate").Inc()
		return false, fmt.Errorf("%s: %w", path, err)
	}
	metrics.ExportFilesLoaded.WithLabelValues("heart_rate").Inc()
	return len(points) > 0, nil
}

// readAlbum looks for the photo album next to the Sport-sessions directory.
func (l *Loader) readAlbum(base string) ([]string, error) {
	path := filepath.Join(l.root(), filepath.FromSlash(PhotoAlbumsDir), base+sessionFileExt)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var album sessionAlbum
	if err := decodeJSON(data, &album); err != nil {
		metrics.ExportFilesFailed.WithLabelValues("album").Inc()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	metrics.ExportFilesLoaded.WithLabelValues("album").Inc()
	return album.PhotosIDs, nil
}
