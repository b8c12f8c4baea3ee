package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/core/ports"
	"github.com/samirrijal/trackcluster/internal/pkg/metrics"
)

// SessionService handles session lookups.
type SessionService struct {
	source ports.SessionSource
	cache  ports.CacheService
}

// NewSessionService creates a new SessionService. cache may be nil.
func NewSessionService(source ports.SessionSource, cache ports.CacheService) *SessionService {
	return &SessionService{source: source, cache: cache}
}

// List returns sessions whose id, sport type or notes contain filter,
// ordered by start time.
func (s *SessionService) List(ctx context.Context, filter string) ([]domain.Session, error) {
	if s.source == nil {
		return nil, domain.ErrNoSource
	}
	all, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := make([]domain.Session, 0, len(all))
	for i := range all {
		if all[i].Matches(filter) {
			out = append(out, all[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Before(&out[j]) })
	return out, nil
}

// Get returns a single session with its bounds.
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	if s.source == nil {
		return nil, domain.ErrNoSource
	}

	cacheKey := "sessions:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var session domain.Session
			if err := json.Unmarshal(data, &session); err == nil {
				metrics.CacheHits.WithLabelValues("session").Inc()
				return &session, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("session").Inc()
	}

	session, err := s.source.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(session); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600) // 10 min
		}
	}

	return session, nil
}
