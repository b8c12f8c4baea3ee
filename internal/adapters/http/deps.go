package http

import (
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"

	"github.com/samirrijal/trackcluster/internal/adapters/postgres"
	"github.com/samirrijal/trackcluster/internal/adapters/valkey"
	"github.com/samirrijal/trackcluster/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Analysis *usecases.AnalysisService
	Sessions *usecases.SessionService
	// DefaultTolerance applies when a request names none. Invalid means
	// requests must pass a tolerance.
	DefaultTolerance decimal.NullDecimal
	DefaultCompound  bool
	NATS             *nats.Conn
	DB               *postgres.DB
	Cache            *valkey.Cache
}
