package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/trackcluster/internal/core/cluster"
	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/core/ports"
	"github.com/samirrijal/trackcluster/internal/pkg/metrics"
	"github.com/samirrijal/trackcluster/internal/pkg/telemetry"
)

// AnalysisRequest parameterises one analysis.
type AnalysisRequest struct {
	Tolerance decimal.Decimal
	Compound  bool
}

// AnalysisResult bundles the per-session clusters with their summary.
type AnalysisResult struct {
	Analysis *domain.Analysis `json:"analysis"`
	Report   *domain.Report   `json:"report"`
}

// AnalysisService runs the clustering engine over a session source.
type AnalysisService struct {
	source    ports.SessionSource
	publisher ports.ReportPublisher
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewAnalysisService creates a new AnalysisService. source may be nil when
// only AnalyzeSessions is used; publisher may be nil.
func NewAnalysisService(source ports.SessionSource, publisher ports.ReportPublisher) *AnalysisService {
	return &AnalysisService{
		source:    source,
		publisher: publisher,
		tracer:    telemetry.Tracer("trackcluster/analysis"),
		logger:    slog.Default(),
	}
}

// WithLogger replaces the logger used for stage and mismatch reporting.
func (s *AnalysisService) WithLogger(l *slog.Logger) *AnalysisService {
	s.logger = l
	return s
}

// Analyze loads every session from the configured source and clusters it.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	if s.source == nil {
		return nil, domain.ErrNoSource
	}

	loadCtx, span := s.tracer.Start(ctx, "analysis.load")
	loaded, err := s.source.Load(loadCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		span.End()
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	span.SetAttributes(
		attribute.String(telemetry.AttrExportPath, loaded.Origin),
		attribute.Int(telemetry.AttrLoadErrors, len(loaded.Errors)),
	)
	span.End()

	for _, lerr := range loaded.Errors {
		s.logger.Warn("session skipped", "error", lerr)
	}

	res, err := s.AnalyzeSessions(ctx, loaded.Sessions, req)
	if err != nil {
		return nil, err
	}
	res.Report.Stats.LoadedFromPath = loaded.Origin
	for _, lerr := range loaded.Errors {
		res.Report.Stats.LoadErrors = append(res.Report.Stats.LoadErrors, lerr.Error())
	}

	if s.publisher != nil {
		if err := s.publisher.PublishReport(ctx, res.Report); err != nil {
			// The analysis itself succeeded.
			s.logger.Warn("publish report", "error", err)
		}
	}
	return res, nil
}

// AnalyzeSessions clusters caller-supplied sessions. Session ids must be
// unique.
func (s *AnalysisService) AnalyzeSessions(ctx context.Context, sessions []domain.Session, req AnalysisRequest) (*AnalysisResult, error) {
	engine, err := cluster.NewEngine(req.Tolerance)
	if err != nil {
		return nil, err
	}
	if err := checkUnique(sessions); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "analysis.run", trace.WithAttributes(
		attribute.String(telemetry.AttrTolerance, req.Tolerance.String()),
		attribute.Bool(telemetry.AttrCompound, req.Compound),
		attribute.Int(telemetry.AttrSessions, len(sessions)),
	))
	defer span.End()

	start := time.Now()
	analysis := engine.Run(sessions, cluster.Options{
		Compound: req.Compound,
		OnStage: func(st cluster.Stage) func() {
			_, stageSpan := s.tracer.Start(ctx, "cluster."+string(st),
				trace.WithAttributes(attribute.String(telemetry.AttrStage, string(st))))
			stageStart := time.Now()
			return func() {
				elapsed := time.Since(stageStart)
				metrics.StageDuration.WithLabelValues(string(st)).Observe(elapsed.Seconds())
				s.logger.Debug("stage finished", "stage", st, "duration", elapsed)
				stageSpan.End()
			}
		},
	})

	mismatches := cluster.Verify(analysis)
	for _, m := range mismatches {
		s.logger.Warn("overlap cluster size mismatch",
			"session", m.SessionID, "size", m.SessionSize,
			"member", m.MemberID, "member_size", m.MemberSize)
	}

	report := BuildReport(analysis, sessions, mismatches)
	report.ProcessingDuration = time.Since(start)

	metrics.SessionsAnalyzed.Add(float64(len(sessions)))
	metrics.SessionsWithoutBounds.Add(float64(len(report.Stats.WithoutBounds)))
	metrics.OverlapClusters.Set(float64(len(report.MultiSessions)))
	metrics.CompoundClusters.Set(float64(len(report.CompoundGroups)))
	metrics.ConsistencyMismatches.Add(float64(len(mismatches)))

	span.SetAttributes(
		attribute.Int(telemetry.AttrMultiSessions, len(report.MultiSessions)),
		attribute.Int(telemetry.AttrMismatches, len(mismatches)),
	)
	s.logger.Info("analysis complete",
		"sessions", report.Sessions,
		"single", len(report.SingleSessions),
		"groups", len(report.MultiSessions),
		"compound_groups", len(report.CompoundGroups),
		"tolerance", req.Tolerance.String(),
		"duration", report.ProcessingDuration)

	return &AnalysisResult{Analysis: analysis, Report: report}, nil
}

func checkUnique(sessions []domain.Session) error {
	seen := make(map[string]struct{}, len(sessions))
	for i := range sessions {
		id := sessions[i].ID
		if id == "" {
			return fmt.Errorf("%w: session at index %d has no id", domain.ErrInvalidSessions, i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate session id %q", domain.ErrInvalidSessions, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
