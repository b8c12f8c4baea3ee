package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a session id is unknown to the source.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidTolerance is returned for a missing or negative tolerance.
	ErrInvalidTolerance = errors.New("invalid tolerance")
	// ErrInvalidSessions is returned when submitted sessions lack ids or repeat one.
	ErrInvalidSessions = errors.New("invalid sessions")
	// ErrPhotoNotFound is returned when no session album lists a photo id.
	ErrPhotoNotFound = errors.New("photo not found")
	// ErrUserNotFound is returned when an export carries no user profile.
	ErrUserNotFound = errors.New("user profile not found")
	// ErrNoSource is returned when no session source has been configured.
	ErrNoSource = errors.New("no session source configured")
)
