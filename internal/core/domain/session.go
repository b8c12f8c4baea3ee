package domain

import (
	"strings"
	"time"
)

// Session is a recorded sport activity as exported by the tracking app.
// Only ID and Bounds matter to clustering; the rest feeds reports.
type Session struct {
	ID            string        `json:"id"`
	SportTypeID   string        `json:"sport_type_id,omitempty"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Duration      time.Duration `json:"duration"`
	Distance      int           `json:"distance"` // meters
	Calories      int           `json:"calories,omitempty"`
	ElevationGain int           `json:"elevation_gain,omitempty"`
	ElevationLoss int           `json:"elevation_loss,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	StartLocation *GeoPoint     `json:"start_location,omitempty"`
	Bounds        *GeoBounds    `json:"bounds,omitempty"`
	TrackPoints   int           `json:"track_points"`
	HeartRate     bool          `json:"heart_rate"`
	PhotoIDs      []string      `json:"photo_ids,omitempty"`
}

// HasBounds reports whether the session carries a geographic extent.
func (s *Session) HasBounds() bool {
	return s.Bounds != nil
}

// Matches reports whether filter occurs, case-insensitively, in the
// session's id, sport type or notes. An empty filter matches everything.
func (s *Session) Matches(filter string) bool {
	if filter == "" {
		return true
	}
	f := strings.ToLower(filter)
	return strings.Contains(strings.ToLower(s.ID), f) ||
		strings.Contains(strings.ToLower(s.SportTypeID), f) ||
		strings.Contains(strings.ToLower(s.Notes), f)
}

// Before orders sessions by start time, then id.
func (s *Session) Before(o *Session) bool {
	if !s.StartTime.Equal(o.StartTime) {
		return s.StartTime.Before(o.StartTime)
	}
	return s.ID < o.ID
}
