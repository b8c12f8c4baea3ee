package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionClusters holds the derived clustering output for one session.
// Overlap and Compound never contain the session's own id and are disjoint.
type SessionClusters struct {
	SessionID  string     `json:"session_id"`
	Overlap    []string   `json:"overlap"`
	Compound   []string   `json:"compound"`
	InnerBound *GeoBounds `json:"inner_bound,omitempty"`
	OuterBound *GeoBounds `json:"outer_bound,omitempty"`
}

// Analysis is the result of one batch clustering pass.
type Analysis struct {
	Tolerance decimal.Decimal `json:"tolerance"`
	Compound  bool            `json:"compound"`
	// Sessions keeps the input order; sessions without bounds are present
	// with empty sets.
	Sessions []SessionClusters `json:"sessions"`

	index map[string]int
}

// NewAnalysis creates an empty analysis for the given tolerance.
func NewAnalysis(tolerance decimal.Decimal, compound bool, capacity int) *Analysis {
	return &Analysis{
		Tolerance: tolerance,
		Compound:  compound,
		Sessions:  make([]SessionClusters, 0, capacity),
		index:     make(map[string]int, capacity),
	}
}

// Add appends the clusters of one session.
func (a *Analysis) Add(c SessionClusters) {
	if a.index == nil {
		a.reindex()
	}
	a.index[c.SessionID] = len(a.Sessions)
	a.Sessions = append(a.Sessions, c)
}

// Get returns the clusters for id.
func (a *Analysis) Get(id string) (*SessionClusters, bool) {
	if a.index == nil {
		a.reindex()
	}
	i, ok := a.index[id]
	if !ok {
		return nil, false
	}
	return &a.Sessions[i], true
}

func (a *Analysis) reindex() {
	a.index = make(map[string]int, len(a.Sessions))
	for i, s := range a.Sessions {
		a.index[s.SessionID] = i
	}
}

// Mismatch is a consistency violation: two members of the same overlap
// cluster report clusters of different size.
type Mismatch struct {
	SessionID   string `json:"session_id"`
	SessionSize int    `json:"session_size"`
	MemberID    string `json:"member_id"`
	MemberSize  int    `json:"member_size"`
}

// Group is a multi-session overlap cluster as seen from one session.
type Group struct {
	SessionID  string     `json:"session_id"`
	Members    []string   `json:"members"`
	InnerBound *GeoBounds `json:"inner_bound,omitempty"`
	OuterBound *GeoBounds `json:"outer_bound,omitempty"`
}

// SessionStats summarises the loaded sessions themselves.
type SessionStats struct {
	Total          int      `json:"total"`
	WithBounds     int      `json:"with_bounds"`
	WithoutBounds  []string `json:"without_bounds"`
	ZeroDistance   []string `json:"zero_distance"`
	WithHeartRate  int      `json:"with_heart_rate"`
	WithPhotos     int      `json:"with_photos"`
	Photos         int      `json:"photos"`
	TotalDistance  int      `json:"total_distance"`
	MinDistance    int      `json:"min_distance"`
	MaxDistance    int      `json:"max_distance"`
	LoadErrors     []string `json:"load_errors,omitempty"`
	LoadedFromPath string   `json:"loaded_from,omitempty"`
}

// Report is the summary of an analysis handed to consoles, HTTP clients
// and message subscribers.
type Report struct {
	GeneratedAt        time.Time       `json:"generated_at"`
	Tolerance          decimal.Decimal `json:"tolerance"`
	ToleranceKm        float64         `json:"tolerance_km"`
	Sessions           int             `json:"sessions"`
	SingleSessions     []string        `json:"single_sessions"`
	MultiSessions      []Group         `json:"multi_sessions"`
	TotalOverlaps      int             `json:"total_overlaps"`
	MinClusterSize     int             `json:"min_cluster_size"`
	MaxClusterSize     int             `json:"max_cluster_size"`
	CompoundGroups     []Group         `json:"compound_groups,omitempty"`
	Mismatches         []Mismatch      `json:"mismatches,omitempty"`
	Stats              SessionStats    `json:"stats"`
	ProcessingDuration time.Duration   `json:"processing_duration"`
}
