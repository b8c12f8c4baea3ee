package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/core/ports"
)

const upsertBatchSize = 500

const sessionColumns = `
	id, sport_type_id, start_time, end_time, duration_ms, distance_m, calories,
	elevation_gain, elevation_loss, notes, start_lat, start_lon,
	max_lat, min_lat, max_lon, min_lon, track_points, heart_rate, photo_ids`

// SessionRepo implements ports.SessionRepository.
type SessionRepo struct {
	db     *DB
	origin string
}

// NewSessionRepo returns a repository over the sessions table. origin is
// reported as LoadResult.Origin.
func NewSessionRepo(db *DB, origin string) *SessionRepo {
	return &SessionRepo{db: db, origin: origin}
}

// UpsertBatch writes sessions in batches, replacing rows with the same id.
func (r *SessionRepo) UpsertBatch(ctx context.Context, sessions []domain.Session) error {
	batch := &pgx.Batch{}
	count := 0
	for i := range sessions {
		s := &sessions[i]
		var maxLat, minLat, maxLon, minLon decimal.NullDecimal
		if s.Bounds != nil {
			maxLat = decimal.NewNullDecimal(s.Bounds.MaxLat)
			minLat = decimal.NewNullDecimal(s.Bounds.MinLat)
			maxLon = decimal.NewNullDecimal(s.Bounds.MaxLon)
			minLon = decimal.NewNullDecimal(s.Bounds.MinLon)
		}
		var startLat, startLon decimal.NullDecimal
		if s.StartLocation != nil {
			startLat = decimal.NewNullDecimal(s.StartLocation.Lat)
			startLon = decimal.NewNullDecimal(s.StartLocation.Lon)
		}
		photos := s.PhotoIDs
		if photos == nil {
			photos = []string{}
		}

		batch.Queue(`
			INSERT INTO sessions (`+sessionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			ON CONFLICT (id) DO UPDATE
			SET sport_type_id = EXCLUDED.sport_type_id, start_time = EXCLUDED.start_time,
			    end_time = EXCLUDED.end_time, duration_ms = EXCLUDED.duration_ms,
			    distance_m = EXCLUDED.distance_m, calories = EXCLUDED.calories,
			    elevation_gain = EXCLUDED.elevation_gain, elevation_loss = EXCLUDED.elevation_loss,
			    notes = EXCLUDED.notes, start_lat = EXCLUDED.start_lat, start_lon = EXCLUDED.start_lon,
			    max_lat = EXCLUDED.max_lat, min_lat = EXCLUDED.min_lat,
			    max_lon = EXCLUDED.max_lon, min_lon = EXCLUDED.min_lon,
			    track_points = EXCLUDED.track_points, heart_rate = EXCLUDED.heart_rate,
			    photo_ids = EXCLUDED.photo_ids, updated_at = now()
		`, s.ID, nilIfEmpty(s.SportTypeID), nilIfZero(s.StartTime), nilIfZero(s.EndTime),
			s.Duration.Milliseconds(), s.Distance, s.Calories, s.ElevationGain, s.ElevationLoss,
			nilIfEmpty(s.Notes), startLat, startLon, maxLat, minLat, maxLon, minLon,
			s.TrackPoints, s.HeartRate, photos)
		count++

		if count >= upsertBatchSize {
			if err := r.flush(ctx, batch, count); err != nil {
				return err
			}
			batch = &pgx.Batch{}
			count = 0
		}
	}
	if count > 0 {
		return r.flush(ctx, batch, count)
	}
	return nil
}

func (r *SessionRepo) flush(ctx context.Context, batch *pgx.Batch, count int) error {
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < count; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	return nil
}

// Load returns every stored session. Rows are validated on write, so
// Errors is always empty.
func (r *SessionRepo) Load(ctx context.Context) (*ports.LoadResult, error) {
	sessions, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return &ports.LoadResult{Sessions: sessions, Origin: r.origin}, nil
}

// List returns every stored session ordered by start time, then id.
func (r *SessionRepo) List(ctx context.Context) ([]domain.Session, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+sessionColumns+`
		FROM sessions ORDER BY start_time NULLS FIRST, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Get returns one session or domain.ErrSessionNotFound.
func (r *SessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return s, err
}

// Count returns the number of stored sessions.
func (r *SessionRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM sessions`).Scan(&n)
	return n, err
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var (
		s                              domain.Session
		sportType, notes               sql.NullString
		start, end                     sql.NullTime
		durationMs                     int64
		startLat, startLon             decimal.NullDecimal
		maxLat, minLat, maxLon, minLon decimal.NullDecimal
	)
	if err := row.Scan(
		&s.ID, &sportType, &start, &end, &durationMs, &s.Distance, &s.Calories,
		&s.ElevationGain, &s.ElevationLoss, &notes, &startLat, &startLon,
		&maxLat, &minLat, &maxLon, &minLon, &s.TrackPoints, &s.HeartRate, &s.PhotoIDs,
	); err != nil {
		return nil, err
	}
	s.SportTypeID = sportType.String
	s.Notes = notes.String
	if start.Valid {
		s.StartTime = start.Time.UTC()
	}
	if end.Valid {
		s.EndTime = end.Time.UTC()
	}
	s.Duration = time.Duration(durationMs) * time.Millisecond
	if startLat.Valid && startLon.Valid {
		s.StartLocation = &domain.GeoPoint{Lat: startLat.Decimal, Lon: startLon.Decimal}
	}
	if maxLat.Valid && minLat.Valid && maxLon.Valid && minLon.Valid {
		s.Bounds = &domain.GeoBounds{
			MaxLat: maxLat.Decimal, MinLat: minLat.Decimal,
			MaxLon: maxLon.Decimal, MinLon: minLon.Decimal,
		}
	}
	if len(s.PhotoIDs) == 0 {
		s.PhotoIDs = nil
	}
	return &s, nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nilIfZero(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
