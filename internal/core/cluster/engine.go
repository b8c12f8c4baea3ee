package cluster

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/samirrijal/trackcluster/internal/core/domain"
)

// Stage names the pipeline steps, in execution order.
type Stage string

const (
	StageDetectOverlap     Stage = "detect_overlap"
	StageNormalizeOverlap  Stage = "normalize_overlap"
	StageAggregateBounds   Stage = "aggregate_bounds"
	StageDetectCompound    Stage = "detect_compound"
	StageNormalizeCompound Stage = "normalize_compound"
)

// Options controls one Run.
type Options struct {
	// Compound enables the compound stages after the overlap pipeline.
	Compound bool
	// OnStage, if set, is called when a stage starts; the returned func is
	// called when it ends. Used for tracing and timing.
	OnStage func(Stage) func()
}

// Engine runs the clustering pipeline with a fixed tolerance. It holds no
// other state and is safe to reuse.
type Engine struct {
	tolerance decimal.Decimal
}

// NewEngine creates an engine. The tolerance is in degrees and must not be
// negative.
func NewEngine(tolerance decimal.Decimal) (*Engine, error) {
	if tolerance.IsNegative() {
		return nil, fmt.Errorf("%w: %s is negative", domain.ErrInvalidTolerance, tolerance)
	}
	return &Engine{tolerance: tolerance}, nil
}

// Tolerance returns the engine's tolerance.
func (e *Engine) Tolerance() decimal.Decimal {
	return e.tolerance
}

// Run executes detect-overlap, normalize-overlap, aggregate-bounds and,
// when enabled, detect-compound and normalize-compound. sessions is only
// read; results are returned in input order.
func (e *Engine) Run(sessions []domain.Session, opts Options) *domain.Analysis {
	stage := func(s Stage) func() {
		if opts.OnStage == nil {
			return func() {}
		}
		return opts.OnStage(s)
	}

	done := stage(StageDetectOverlap)
	rawOverlap := DetectOverlaps(sessions, e.tolerance)
	done()

	done = stage(StageNormalizeOverlap)
	overlap := Normalize(rawOverlap)
	done()

	done = stage(StageAggregateBounds)
	bounds := make(map[string]*domain.GeoBounds, len(sessions))
	for i := range sessions {
		if sessions[i].HasBounds() {
			bounds[sessions[i].ID] = sessions[i].Bounds
		}
	}
	type aggregate struct{ inner, outer *domain.GeoBounds }
	aggregates := make(map[string]aggregate, overlap.Len())
	for _, id := range overlap.Keys {
		members := overlap.Neighbours(id)
		if len(members) == 0 {
			continue
		}
		mb := make([]*domain.GeoBounds, 0, len(members))
		for _, m := range members {
			mb = append(mb, bounds[m])
		}
		inner, outer := Aggregate(mb)
		aggregates[id] = aggregate{inner: inner, outer: outer}
	}
	done()

	var compound *Adjacency
	if opts.Compound {
		done = stage(StageDetectCompound)
		rawCompound := DetectCompounds(sessions, overlap, e.tolerance)
		done()

		done = stage(StageNormalizeCompound)
		compound = Normalize(rawCompound)
		done()
	}

	analysis := domain.NewAnalysis(e.tolerance, opts.Compound, len(sessions))
	for i := range sessions {
		id := sessions[i].ID
		c := domain.SessionClusters{
			SessionID: id,
			Overlap:   []string{},
			Compound:  []string{},
		}
		if sessions[i].HasBounds() {
			c.Overlap = append(c.Overlap, overlap.Neighbours(id)...)
			if agg, ok := aggregates[id]; ok {
				c.InnerBound = agg.inner
				c.OuterBound = agg.outer
			}
			if compound != nil {
				// The closure may reach a session through a chain of
				// touching neighbours that overlaps this one directly.
				for _, n := range compound.Neighbours(id) {
					if !overlap.Contains(id, n) {
						c.Compound = append(c.Compound, n)
					}
				}
			}
		}
		analysis.Add(c)
	}
	return analysis
}
