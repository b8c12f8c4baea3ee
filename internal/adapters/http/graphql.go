package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"github.com/shopspring/decimal"

	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/core/usecases"
)

// decimalField resolves a decimal struct value as a float.
func decimalField(get func(p graphql.ResolveParams) (decimal.Decimal, bool)) *graphql.Field {
	return &graphql.Field{
		Type: graphql.Float,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			d, ok := get(p)
			if !ok {
				return nil, nil
			}
			return d.InexactFloat64(), nil
		},
	}
}

func boundsField(pick func(*domain.GeoBounds) decimal.Decimal) *graphql.Field {
	return decimalField(func(p graphql.ResolveParams) (decimal.Decimal, bool) {
		b, ok := p.Source.(*domain.GeoBounds)
		if !ok || b == nil {
			return decimal.Zero, false
		}
		return pick(b), true
	})
}

func timeField(pick func(*domain.Session) time.Time) *graphql.Field {
	return &graphql.Field{
		Type: graphql.String,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			s, ok := p.Source.(*domain.Session)
			if !ok {
				return nil, nil
			}
			t := pick(s)
			if t.IsZero() {
				return nil, nil
			}
			return t.Format(time.RFC3339), nil
		},
	}
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoBounds",
		Fields: graphql.Fields{
			"max_lat": boundsField(func(b *domain.GeoBounds) decimal.Decimal { return b.MaxLat }),
			"min_lat": boundsField(func(b *domain.GeoBounds) decimal.Decimal { return b.MinLat }),
			"max_lon": boundsField(func(b *domain.GeoBounds) decimal.Decimal { return b.MaxLon }),
			"min_lon": boundsField(func(b *domain.GeoBounds) decimal.Decimal { return b.MinLon }),
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"sport_type_id": &graphql.Field{Type: graphql.String},
			"start_time":    timeField(func(s *domain.Session) time.Time { return s.StartTime }),
			"end_time":      timeField(func(s *domain.Session) time.Time { return s.EndTime }),
			"distance":      &graphql.Field{Type: graphql.Int},
			"calories":      &graphql.Field{Type: graphql.Int},
			"notes":         &graphql.Field{Type: graphql.String},
			"track_points":  &graphql.Field{Type: graphql.Int},
			"heart_rate":    &graphql.Field{Type: graphql.Boolean},
			"photo_ids":     &graphql.Field{Type: graphql.NewList(graphql.String)},
			"bounds":        &graphql.Field{Type: boundsType},
		},
	})

	groupType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Group",
		Fields: graphql.Fields{
			"session_id":  &graphql.Field{Type: graphql.String},
			"members":     &graphql.Field{Type: graphql.NewList(graphql.String)},
			"inner_bound": &graphql.Field{Type: boundsType},
			"outer_bound": &graphql.Field{Type: boundsType},
		},
	})

	reportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Report",
		Fields: graphql.Fields{
			"tolerance": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.Report).Tolerance.String(), nil
				},
			},
			"tolerance_km":     &graphql.Field{Type: graphql.Float},
			"sessions":         &graphql.Field{Type: graphql.Int},
			"single_sessions":  &graphql.Field{Type: graphql.NewList(graphql.String)},
			"multi_sessions":   &graphql.Field{Type: graphql.NewList(groupType)},
			"total_overlaps":   &graphql.Field{Type: graphql.Int},
			"min_cluster_size": &graphql.Field{Type: graphql.Int},
			"max_cluster_size": &graphql.Field{Type: graphql.Int},
			"compound_groups":  &graphql.Field{Type: graphql.NewList(groupType)},
			"mismatches": &graphql.Field{
				Type:        graphql.Int,
				Description: "Number of overlap cluster size mismatches",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return len(p.Source.(*domain.Report).Mismatches), nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"analysis": &graphql.Field{
				Type:        reportType,
				Description: "Cluster every session of the configured export",
				Args: graphql.FieldConfigArgument{
					"tolerance": &graphql.ArgumentConfig{Type: graphql.String},
					"compound":  &graphql.ArgumentConfig{Type: graphql.Boolean},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					raw, _ := p.Args["tolerance"].(string)
					tol, err := resolveTolerance(deps, raw)
					if err != nil {
						return nil, err
					}
					req := usecases.AnalysisRequest{Tolerance: tol, Compound: deps.DefaultCompound}
					if v, ok := p.Args["compound"].(bool); ok {
						req.Compound = v
					}
					res, err := deps.Analysis.Analyze(p.Context, req)
					if err != nil {
						return nil, err
					}
					return res.Report, nil
				},
			},
			"sessions": &graphql.Field{
				Type:        graphql.NewList(sessionType),
				Description: "List sessions whose id, sport type or notes contain filter",
				Args: graphql.FieldConfigArgument{
					"filter": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sessions, err := deps.Sessions.List(p.Context, p.Args["filter"].(string))
					if err != nil {
						return nil, err
					}
					out := make([]*domain.Session, len(sessions))
					for i := range sessions {
						out[i] = &sessions[i]
					}
					return out, nil
				},
			},
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "Get a session with its bounds",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sessions.Get(p.Context, p.Args["id"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
