package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/samirrijal/trackcluster/internal/core/domain"
)

// Directory and file names inside a sport activity export.
const (
	SessionsDir    = "Sport-sessions"
	GPSDataDir     = "GPS-data"
	HeartRateDir   = "Heart-rate-data"
	PhotoAlbumsDir = "Photos/Images-meta-data/Sport-session-albums"
	PhotoMetaDir   = "Photos/Images-meta-data"
	UserDir        = "User"
	userFile       = "user.json"
	sessionFileExt = ".json"
	gpxFileExt     = ".gpx"
)

// epochMillis decodes a millisecond Unix timestamp. Null and missing
// values leave the zero time.
type epochMillis time.Time

func (e *epochMillis) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	ms, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("epoch millis %q: %w", b, err)
	}
	*e = epochMillis(time.UnixMilli(ms).UTC())
	return nil
}

func (e epochMillis) Time() time.Time { return time.Time(e) }

// sessionFile is one Sport-sessions/<id>.json document.
type sessionFile struct {
	ID            string              `json:"id"`
	SportTypeID   string              `json:"sport_type_id"`
	StartTime     epochMillis         `json:"start_time"`
	EndTime       epochMillis         `json:"end_time"`
	Duration      int64               `json:"duration"` // ms
	Distance      int                 `json:"distance"` // m
	Calories      int                 `json:"calories"`
	ElevationGain int                 `json:"elevation_gain"`
	ElevationLoss int                 `json:"elevation_loss"`
	Notes         string              `json:"notes"`
	Latitude      decimal.NullDecimal `json:"latitude"`
	Longitude     decimal.NullDecimal `json:"longitude"`
}

func (f *sessionFile) toDomain() domain.Session {
	s := domain.Session{
		ID:            f.ID,
		SportTypeID:   f.SportTypeID,
		StartTime:     f.StartTime.Time(),
		EndTime:       f.EndTime.Time(),
		Duration:      time.Duration(f.Duration) * time.Millisecond,
		Distance:      f.Distance,
		Calories:      f.Calories,
		ElevationGain: f.ElevationGain,
		ElevationLoss: f.ElevationLoss,
		Notes:         f.Notes,
	}
	if f.Latitude.Valid && f.Longitude.Valid {
		s.StartLocation = &domain.GeoPoint{Lat: f.Latitude.Decimal, Lon: f.Longitude.Decimal}
	}
	return s
}

// gpsPoint is one entry of an older GPS-data/<id>.json track.
type gpsPoint struct {
	Latitude  decimal.Decimal `json:"latitude"`
	Longitude decimal.Decimal `json:"longitude"`
}

// heartRatePoint only needs to be counted.
type heartRatePoint struct {
	HeartRate int `json:"heart_rate"`
}

// sessionAlbum is Photos/Images-meta-data/Sport-session-albums/<id>.json.
type sessionAlbum struct {
	ID        string   `json:"id"`
	PhotosIDs []string `json:"photos_ids"`
}

// photoMeta is Photos/Images-meta-data/<photo id>.json.
type photoMeta struct {
	CreatedAt   epochMillis         `json:"created_at"`
	Description string              `json:"description"`
	Latitude    decimal.NullDecimal `json:"latitude"`
	Longitude   decimal.NullDecimal `json:"longitude"`
}

// Photo is one image attached to a session album.
type Photo struct {
	ID          string           `json:"id"`
	SessionID   string           `json:"session_id"`
	CreatedAt   time.Time        `json:"created_at"`
	Description string           `json:"description,omitempty"`
	Location    *domain.GeoPoint `json:"location,omitempty"`
}

// zonedTime decodes the "2006-01-02 15:04:05 -0700" stamps and plain
// dates used in User/user.json.
type zonedTime time.Time

var zonedLayouts = []string{"2006-01-02 15:04:05 -0700", "2006-01-02"}

func (z *zonedTime) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*z = zonedTime(t)
			return nil
		}
	}
	return fmt.Errorf("timestamp %q: unknown layout", s)
}

func (z zonedTime) Time() time.Time { return time.Time(z) }

// userFileDoc is User/user.json. Unknown fields are ignored.
type userFileDoc struct {
	Login         string          `json:"login"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Email         string          `json:"email"`
	FbProxiedMail string          `json:"fb_proxied_e_mail"`
	Gender        string          `json:"gender"`
	Birthday      zonedTime       `json:"birthday"`
	CityName      string          `json:"city_name"`
	Height        decimal.Decimal `json:"height"`
	Weight        decimal.Decimal `json:"weight"`
	Language      string          `json:"language"`
	TimeZone      string          `json:"time_zone"`
	CreatedAt     zonedTime       `json:"created_at"`
	ConfirmedAt   zonedTime       `json:"confirmed_at"`
	LastSignInAt  zonedTime       `json:"last_sign_in_at"`
	UpdatedAt     zonedTime       `json:"updated_at"`
}

// User is the account that owns an export.
type User struct {
	Login         string          `json:"login"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Email         string          `json:"email,omitempty"`
	FbProxiedMail string          `json:"fb_proxied_email,omitempty"`
	Gender        string          `json:"gender,omitempty"`
	Birthday      time.Time       `json:"birthday"`
	CityName      string          `json:"city_name,omitempty"`
	Height        decimal.Decimal `json:"height"`
	Weight        decimal.Decimal `json:"weight"`
	Language      string          `json:"language,omitempty"`
	TimeZone      string          `json:"time_zone,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	ConfirmedAt   time.Time       `json:"confirmed_at"`
	LastSignInAt  time.Time       `json:"last_sign_in_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Name joins first and last name.
func (u *User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (f *userFileDoc) toUser() *User {
	return &User{
		Login:         f.Login,
		FirstName:     f.FirstName,
		LastName:      f.LastName,
		Email:         f.Email,
		FbProxiedMail: f.FbProxiedMail,
		Gender:        f.Gender,
		Birthday:      f.Birthday.Time(),
		CityName:      f.CityName,
		Height:        f.Height,
		Weight:        f.Weight,
		Language:      f.Language,
		TimeZone:      f.TimeZone,
		CreatedAt:     f.CreatedAt.Time(),
		ConfirmedAt:   f.ConfirmedAt.Time(),
		LastSignInAt:  f.LastSignInAt.Time(),
		UpdatedAt:     f.UpdatedAt.Time(),
	}
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	return dec.Decode(v)
}
