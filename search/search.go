// Package search fits and diagnoses a grid of ARIMAX candidates and ranks
// the ones whose residuals pass the diagnostic suite.
package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/goarimax/arima"
	"github.com/sartorproj/goarimax/diagnostics"
	"github.com/sartorproj/goarimax/timeseries"
)

var ErrEmptyGrid = errors.New("empty order grid")

// Options configures a search.
type Options struct {
	Workers   int // Concurrent fits (default: GOMAXPROCS)
	Suite     *diagnostics.Suite
	Estimator *arima.Options
	Logger    *zerolog.Logger // Optional, discards by default
	Metrics   *Metrics        // Optional
}

// DefaultOptions returns the default search options.
func DefaultOptions() *Options {
	return &Options{
		Workers:   runtime.GOMAXPROCS(0),
		Suite:     diagnostics.DefaultSuite(),
		Estimator: arima.DefaultOptions(),
	}
}

// DefaultGrid returns p in {1,2,3}, d = 1, q in {1,2,3}.
func DefaultGrid() []arima.Order {
	return NewGrid([]int{1, 2, 3}, []int{1}, []int{1, 2, 3})
}

// NewGrid returns the cartesian product of the given orders, p-major.
func NewGrid(ps, ds, qs []int) []arima.Order {
	grid := make([]arima.Order, 0, len(ps)*len(ds)*len(qs))
	for _, p := range ps {
		for _, d := range ds {
			for _, q := range qs {
				grid = append(grid, arima.Order{P: p, D: d, Q: q})
			}
		}
	}
	return grid
}

// Candidate is a successfully fitted model.
type Candidate struct {
	Index   int // Position in (set, order) grid order
	Order   arima.Order
	SetName string
	Model   *arima.Model
	Verdict *diagnostics.Verdict
}

// Valid reports whether the candidate passed every residual test.
func (c *Candidate) Valid() bool {
	return c.Verdict != nil && c.Verdict.Valid
}

// Failure records a candidate that could not be fitted.
type Failure struct {
	Index   int
	Order   arima.Order
	SetName string
	Err     error
}

// Result partitions the grid into fitted candidates and failures, each in
// grid order.
type Result struct {
	RunID      string
	Candidates []*Candidate
	Failures   []*Failure
	Duration   time.Duration
}

// Len returns the number of candidates evaluated.
func (r *Result) Len() int {
	return len(r.Candidates) + len(r.Failures)
}

// Ranked returns the valid candidates by AIC, then BIC, then grid order.
func (r *Result) Ranked() []*Candidate {
	var valid []*Candidate
	for _, c := range r.Candidates {
		if c.Valid() {
			valid = append(valid, c)
		}
	}
	rank(valid)
	return valid
}

// RankedAll ranks every fitted candidate regardless of its verdict.
func (r *Result) RankedAll() []*Candidate {
	all := slices.Clone(r.Candidates)
	rank(all)
	return all
}

// HasValid reports whether any candidate passed the diagnostics.
func (r *Result) HasValid() bool {
	for _, c := range r.Candidates {
		if c.Valid() {
			return true
		}
	}
	return false
}

// Best returns the top ranked valid candidate, or nil.
func (r *Result) Best() *Candidate {
	ranked := r.Ranked()
	if len(ranked) == 0 {
		return nil
	}
	return ranked[0]
}

func rank(cs []*Candidate) {
	slices.SortStableFunc(cs, func(a, b *Candidate) int {
		if c := cmp.Compare(a.Model.AIC, b.Model.AIC); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Model.BIC, b.Model.BIC); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
}

// Search fits every order in grid against one regressor set, which may be nil.
func Search(ctx context.Context, series *timeseries.Series, regressors *timeseries.RegressorSet, grid []arima.Order, opts *Options) (*Result, error) {
	return SearchSets(ctx, series, []*timeseries.RegressorSet{regressors}, grid, opts)
}

type job struct {
	index int
	order arima.Order
	set   *timeseries.RegressorSet
}

type outcome struct {
	done      bool
	candidate *Candidate
	failure   *Failure
}

// SearchSets fits every (set, order) pair, set-major. A set whose years
// differ from the series years fails the whole search with
// arima.ErrDimensionMismatch before any fit runs. A failed fit is recorded
// and never stops the others. When ctx ends early, candidates
// that had not started are recorded as failures carrying ctx.Err() and the
// partial result is returned with that error.
func SearchSets(ctx context.Context, series *timeseries.Series, sets []*timeseries.RegressorSet, grid []arima.Order, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if len(grid) == 0 {
		return nil, ErrEmptyGrid
	}
	if series == nil || series.Len() == 0 {
		return nil, timeseries.ErrEmptySeries
	}
	if len(sets) == 0 {
		sets = []*timeseries.RegressorSet{nil}
	}
	for _, set := range sets {
		if set == nil || set.Width() == 0 {
			continue
		}
		if !slices.Equal(set.Years(), series.Years) {
			return nil, fmt.Errorf("%w: regressor set %q (%d years) is not aligned with series %q (%d years)",
				arima.ErrDimensionMismatch, set.Name, set.Len(), series.Name, series.Len())
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	jobs := make([]job, 0, len(sets)*len(grid))
	for _, set := range sets {
		for _, order := range grid {
			jobs = append(jobs, job{index: len(jobs), order: order, set: set})
		}
	}

	base := zerolog.Nop()
	if opts.Logger != nil {
		base = *opts.Logger
	}
	runID := uuid.NewString()
	logger := base.With().Str("run_id", runID).Logger()
	logger.Info().
		Int("candidates", len(jobs)).
		Int("sets", len(sets)).
		Int("workers", workers).
		Msg("Starting model search")

	start := time.Now()
	outcomes := make([]outcome, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			outcomes[i] = evaluate(series, j, opts, logger)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{RunID: runID, Duration: time.Since(start)}
	skipped := 0
	for i, o := range outcomes {
		switch {
		case !o.done:
			skipped++
			res.Failures = append(res.Failures, &Failure{
				Index:   jobs[i].index,
				Order:   jobs[i].order,
				SetName: setName(jobs[i].set),
				Err:     context.Cause(ctx),
			})
		case o.candidate != nil:
			res.Candidates = append(res.Candidates, o.candidate)
		default:
			res.Failures = append(res.Failures, o.failure)
		}
	}

	opts.Metrics.setValid(len(res.Ranked()))

	event := logger.Info()
	if skipped > 0 {
		event = logger.Warn().Int("skipped", skipped)
	}
	event.
		Int("fitted", len(res.Candidates)).
		Int("failed", len(res.Failures)-skipped).
		Int("valid", len(res.Ranked())).
		Dur("duration", res.Duration).
		Msg("Model search finished")

	if skipped > 0 {
		return res, ctx.Err()
	}
	return res, nil
}

func evaluate(series *timeseries.Series, j job, opts *Options, logger zerolog.Logger) outcome {
	name := setName(j.set)
	start := time.Now()

	model, err := arima.Fit(series, j.order, j.set, opts.Estimator)
	opts.Metrics.observeFit(time.Since(start))
	if err != nil {
		opts.Metrics.countOutcome(outcomeFailed)
		logger.Debug().
			Err(err).
			Str("order", j.order.String()).
			Str("set", name).
			Msg("Fit failed")
		return outcome{done: true, failure: &Failure{Index: j.index, Order: j.order, SetName: name, Err: err}}
	}

	verdict := opts.Suite.Evaluate(model)
	if verdict.Valid {
		opts.Metrics.countOutcome(outcomeValid)
	} else {
		opts.Metrics.countOutcome(outcomeInvalid)
	}

	p := verdict.PValues()
	logger.Debug().
		Str("order", j.order.String()).
		Str("set", name).
		Float64("aic", model.AIC).
		Float64("bic", model.BIC).
		Floats64("p_values", p[:]).
		Bool("valid", verdict.Valid).
		Msg("Fit diagnosed")

	return outcome{done: true, candidate: &Candidate{
		Index:   j.index,
		Order:   j.order,
		SetName: name,
		Model:   model,
		Verdict: verdict,
	}}
}

func setName(set *timeseries.RegressorSet) string {
	if set == nil {
		return ""
	}
	return set.Name
}
