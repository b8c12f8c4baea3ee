package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/pkg/metrics"
)

// root is the export directory holding Sport-sessions, Photos and User.
func (l *Loader) root() string { return filepath.Dir(l.dir) }

// User reads the profile in User/user.json.
func (l *Loader) User() (*User, error) {
	path := filepath.Join(l.root(), UserDir, userFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var doc userFileDoc
	if err := decodeJSON(data, &doc); err != nil {
		metrics.ExportFilesFailed.WithLabelValues("user").Inc()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	metrics.ExportFilesLoaded.WithLabelValues("user").Inc()
	return doc.toUser(), nil
}

// FindPhoto returns the photo with the given id and the session whose
// album lists it. Albums are scanned in file name order and the first
// match wins. The photo's own metadata file is optional.
func (l *Loader) FindPhoto(ctx context.Context, photoID string) (*Photo, *domain.Session, error) {
	if !validName(photoID) {
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrPhotoNotFound, photoID)
	}
	albumDir := filepath.Join(l.root(), filepath.FromSlash(PhotoAlbumsDir))
	entries, err := os.ReadDir(albumDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrPhotoNotFound, photoID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", albumDir, err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), sessionFileExt) {
			continue
		}
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		ids, err := l.readAlbum(base)
		if err != nil {
			l.logger.Warn("album skipped", "error", err)
			continue
		}
		if !slices.Contains(ids, photoID) {
			continue
		}
		session, err := l.Get(ctx, base)
		if errors.Is(err, domain.ErrSessionNotFound) {
			l.logger.Debug("album without session", "album", base)
			continue
		}
		if err != nil {
			return nil, nil, err
		}

		photo, err := l.readPhotoMeta(photoID)
		if err != nil {
			return nil, nil, err
		}
		photo.SessionID = session.ID
		return photo, session, nil
	}
	return nil, nil, fmt.Errorf("%w: %s", domain.ErrPhotoNotFound, photoID)
}

func (l *Loader) readPhotoMeta(photoID string) (*Photo, error) {
	photo := &Photo{ID: photoID}
	path := filepath.Join(l.root(), filepath.FromSlash(PhotoMetaDir), photoID+sessionFileExt)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return photo, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var meta photoMeta
	if err := decodeJSON(data, &meta); err != nil {
		metrics.ExportFilesFailed.WithLabelValues("photo").Inc()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	metrics.ExportFilesLoaded.WithLabelValues("photo").Inc()

	photo.CreatedAt = meta.CreatedAt.Time()
	photo.Description = meta.Description
	if meta.Latitude.Valid && meta.Longitude.Valid {
		photo.Location = &domain.GeoPoint{Lat: meta.Latitude.Decimal, Lon: meta.Longitude.Decimal}
	}
	return photo, nil
}
