package ports

import (
	"context"

	"github.com/samirrijal/trackcluster/internal/core/domain"
)

// ReportPublisher publishes finished analysis reports to a message broker.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report *domain.Report) error
}

// ReportSubscriber delivers published reports.
type ReportSubscriber interface {
	SubscribeReports(ctx context.Context, handler func(ctx context.Context, report *domain.Report) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
