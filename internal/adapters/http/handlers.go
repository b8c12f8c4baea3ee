package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/core/usecases"
	"github.com/samirrijal/trackcluster/internal/pkg/config"
)

// ListSessionsHandler returns sessions matching q, without bounds.
func ListSessionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		sessions, err := deps.Sessions.List(c.UserContext(), query)
		if err != nil {
			return errFromDomain(c, err)
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		total := len(sessions)
		if offset >= total {
			sessions = []domain.Session{}
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			sessions = sessions[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: sessions, Pagination: pg})
	}
}

// GetSessionHandler returns one session with its bounds.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "session id is required")
		}

		session, err := deps.Sessions.Get(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(session)
	}
}

// AnalysisHandler clusters every session of the configured source.
// Query: tolerance (degrees), compound (bool), view=report|full.
func AnalysisHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tol, err := resolveTolerance(deps, c.Query("tolerance"))
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		req := usecases.AnalysisRequest{
			Tolerance: tol,
			Compound:  c.QueryBool("compound", deps.DefaultCompound),
		}

		res, err := deps.Analysis.Analyze(c.UserContext(), req)
		if err != nil {
			return errFromDomain(c, err)
		}
		return writeResult(c, res)
	}
}

// analyzeRequest is the body of POST /v1/analyze.
type analyzeRequest struct {
	Tolerance decimal.NullDecimal `json:"tolerance"`
	Compound  *bool               `json:"compound"`
	Sessions  []domain.Session    `json:"sessions"`
}

// AnalyzeHandler clusters the sessions posted in the body.
func AnalyzeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body analyzeRequest
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(body.Sessions) == 0 {
			return errBadRequest(c, "sessions must not be empty")
		}

		req := usecases.AnalysisRequest{Compound: deps.DefaultCompound}
		if body.Compound != nil {
			req.Compound = *body.Compound
		}
		switch {
		case body.Tolerance.Valid:
			req.Tolerance = body.Tolerance.Decimal
		case deps.DefaultTolerance.Valid:
			req.Tolerance = deps.DefaultTolerance.Decimal
		default:
			return errBadRequest(c, "tolerance is required")
		}

		res, err := deps.Analysis.AnalyzeSessions(c.UserContext(), body.Sessions, req)
		if err != nil {
			return errFromDomain(c, err)
		}
		return writeResult(c, res)
	}
}

func resolveTolerance(deps *Dependencies, raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) != "" {
		return config.ParseTolerance(raw)
	}
	if deps.DefaultTolerance.Valid {
		return deps.DefaultTolerance.Decimal, nil
	}
	return decimal.Zero, config.ErrToleranceUnset
}

func writeResult(c *fiber.Ctx, res *usecases.AnalysisResult) error {
	c.Set("Cache-Control", "no-store")
	if c.Query("view") == "report" {
		return c.JSON(res.Report)
	}
	return c.JSON(res)
}
