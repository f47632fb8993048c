// Package arima implements ARIMAX (ARIMA with exogenous regressors) models.
package arima

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/sartorproj/goarimax/stats"
	"github.com/sartorproj/goarimax/timeseries"
)

var (
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrEstimationFailure = errors.New("estimation failure")
)

// infeasible is the objective value returned outside the stationary and
// invertible region.
const infeasible = 1e100

// zeroVariance is the residual mean square, relative to the mean square of
// the differenced series, treated as an exact fit.
const zeroVariance = 1e-20

// Order represents ARIMA model order (p, d, q).
type Order struct {
	P int // AR order (number of autoregressive terms)
	D int // Differencing order
	Q int // MA order (number of moving average terms)
}

func (o Order) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// Validate checks that every component is non-negative.
func (o Order) Validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 {
		return fmt.Errorf("invalid order %s: components must be non-negative", o)
	}
	return nil
}

// InterceptMode selects whether a constant is estimated.
type InterceptMode int

const (
	// InterceptAuto estimates a constant only when the series is not differenced.
	InterceptAuto InterceptMode = iota
	InterceptAlways
	InterceptNever
)

// ParseInterceptMode converts "auto", "always" or "never".
func ParseInterceptMode(s string) (InterceptMode, error) {
	switch s {
	case "", "auto":
		return InterceptAuto, nil
	case "always":
		return InterceptAlways, nil
	case "never":
		return InterceptNever, nil
	}
	return InterceptAuto, fmt.Errorf("unknown intercept mode %q", s)
}

// Options configures estimation.
type Options struct {
	Intercept     InterceptMode
	MaxIterations int     // Nelder-Mead iteration limit
	Tolerance     float64 // Convergence tolerance on the sum of squares
}

// DefaultOptions returns the default estimation options.
func DefaultOptions() *Options {
	return &Options{
		Intercept:     InterceptAuto,
		MaxIterations: 5000,
		Tolerance:     1e-10,
	}
}

// Model is a fitted ARIMAX model: the d-th difference of the series is a
// linear regression on the undifferenced regressors with ARMA(p, q) errors,
//
//	w_t = c + x_t'β + z_t,  z_t = Σ φ_i z_{t-i} + e_t + Σ θ_j e_{t-j}.
//
// A Model is only ever produced by a successful Fit and is not modified
// afterwards.
type Model struct {
	Order        Order
	Regressors   *timeseries.RegressorSet // Set the model was fit with, nil if none
	ARCoeffs     []float64                // AR coefficients (phi)
	MACoeffs     []float64                // MA coefficients (theta)
	Beta         []float64                // Regression coefficients, in regressor column order
	Intercept    float64
	HasIntercept bool
	Variance     float64 // Residual variance
	LogLik       float64
	AIC          float64
	AICc         float64 // Corrected AIC for small sample sizes
	BIC          float64
	NParams      int // AR + MA + regression coefficients (+1 with intercept)

	series    *timeseries.Series
	diffData  *timeseries.Series
	z         []float64 // Regression errors on the differenced scale
	residuals []float64
	levels    []float64 // Last value of each differencing level 0..d-1
}

// Fit estimates an ARIMAX model of the given order. The regressors must be
// aligned year by year with the series; they may be nil for a pure ARIMA fit.
// Only the series is differenced.
func Fit(series *timeseries.Series, order Order, regressors *timeseries.RegressorSet, opts *Options) (*Model, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if series == nil || series.Len() == 0 {
		return nil, timeseries.ErrEmptySeries
	}
	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEstimationFailure, err)
	}

	if regressors != nil && regressors.Width() == 0 {
		regressors = nil
	}
	if regressors != nil {
		if regressors.Len() != series.Len() {
			return nil, fmt.Errorf("%w: series has %d rows, regressors %q have %d",
				ErrDimensionMismatch, series.Len(), regressors.Name, regressors.Len())
		}
		if !slices.Equal(regressors.Years(), series.Years) {
			return nil, fmt.Errorf("%w: regressors %q are not aligned with the series years",
				ErrDimensionMismatch, regressors.Name)
		}
	}

	diffSeries, err := series.Difference(order.D)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEstimationFailure, err)
	}

	var exog *mat.Dense
	if regressors != nil {
		aligned, err := regressors.AlignTo(diffSeries.Years)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDimensionMismatch, err)
		}
		exog = aligned.Matrix()
	}

	intercept := opts.Intercept == InterceptAlways || (opts.Intercept == InterceptAuto && order.D == 0)

	est := newEstimator(diffSeries.Values, exog, order.P, order.Q, intercept)
	n := diffSeries.Len()
	k := est.nParams()
	if n < k+2 {
		return nil, fmt.Errorf("%w: %d observations after differencing for %d parameters",
			ErrEstimationFailure, n, k)
	}

	params, err := est.estimate(opts)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Order:        order,
		Regressors:   regressors,
		HasIntercept: intercept,
		NParams:      k,
		series:       series.Copy(),
		diffData:     diffSeries,
		z:            make([]float64, n),
		residuals:    make([]float64, n),
	}

	c, beta, phi, theta := est.unpack(params)
	m.Intercept = c
	m.Beta = slices.Clone(beta)
	m.ARCoeffs = slices.Clone(phi)
	m.MACoeffs = slices.Clone(theta)

	sse := est.filter(params, m.z, m.residuals)
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return nil, fmt.Errorf("%w: non-finite sum of squares", ErrEstimationFailure)
	}
	if sse <= zeroVariance*float64(n)*math.Max(1, meanSquare(diffSeries.Values)) {
		return nil, fmt.Errorf("%w: zero residual variance", ErrEstimationFailure)
	}

	m.Variance = sse / float64(n)
	m.LogLik = stats.GaussianLogLik(m.Variance, n)
	if math.IsNaN(m.LogLik) || math.IsInf(m.LogLik, 0) {
		return nil, fmt.Errorf("%w: non-finite log-likelihood", ErrEstimationFailure)
	}

	ic := stats.CalculateIC(m.LogLik, n, k)
	m.AIC = ic.AIC
	m.AICc = ic.AICc
	m.BIC = ic.BIC

	m.levels = make([]float64, order.D)
	level := series
	for i := 0; i < order.D; i++ {
		m.levels[i] = level.Values[level.Len()-1]
		level, _ = level.Difference(1)
	}

	return m, nil
}

// estimator evaluates the conditional sum of squares of one ARIMAX
// specification. Parameters are packed as [c] β... φ... θ...
type estimator struct {
	w         []float64
	x         *mat.Dense
	rows      [][]float64
	p, q, nx  int
	intercept bool
}

func newEstimator(w []float64, x *mat.Dense, p, q int, intercept bool) *estimator {
	e := &estimator{w: w, x: x, p: p, q: q, intercept: intercept}
	if x != nil {
		_, e.nx = x.Dims()
		e.rows = make([][]float64, len(w))
		for t := range w {
			e.rows[t] = mat.Row(nil, t, x)
		}
	}
	return e
}

func (e *estimator) nRegression() int {
	if e.intercept {
		return e.nx + 1
	}
	return e.nx
}

func (e *estimator) nParams() int {
	return e.nRegression() + e.p + e.q
}

func (e *estimator) unpack(params []float64) (c float64, beta, phi, theta []float64) {
	i := 0
	if e.intercept {
		c = params[0]
		i = 1
	}
	beta = params[i : i+e.nx]
	i += e.nx
	phi = params[i : i+e.p]
	i += e.p
	theta = params[i : i+e.q]
	return c, beta, phi, theta
}

// filter computes regression errors z and innovations e for params, with
// pre-sample values taken as zero, and returns the sum of squared innovations.
func (e *estimator) filter(params, z, resid []float64) float64 {
	c, beta, phi, theta := e.unpack(params)

	for t, w := range e.w {
		mu := c
		for j, b := range beta {
			mu += b * e.rows[t][j]
		}
		z[t] = w - mu
	}

	sse := 0.0
	for t := range z {
		pred := 0.0
		for i := 0; i < e.p && t-i-1 >= 0; i++ {
			pred += phi[i] * z[t-i-1]
		}
		for j := 0; j < e.q && t-j-1 >= 0; j++ {
			pred += theta[j] * resid[t-j-1]
		}
		resid[t] = z[t] - pred
		sse += resid[t] * resid[t]
	}
	return sse
}

// estimate returns the CSS parameter estimates.
func (e *estimator) estimate(opts *Options) ([]float64, error) {
	params := make([]float64, 0, e.nParams())

	olsResid := slices.Clone(e.w)
	if e.nRegression() > 0 {
		ols, err := stats.OLS(e.x, e.w, e.intercept)
		if err != nil {
			return nil, fmt.Errorf("%w: regression: %w", ErrEstimationFailure, err)
		}
		params = append(params, ols.Coeffs...)
		olsResid = ols.Residuals
	}

	if e.p == 0 && e.q == 0 {
		return params, nil
	}

	phi0 := make([]float64, e.p)
	if e.p > 0 {
		if acf := stats.ACF(olsResid, e.p); acf != nil {
			if yw := yuleWalker(acf, e.p); yw != nil && isStationary(yw) {
				copy(phi0, yw)
			}
		}
	}
	params = append(params, phi0...)

	for range e.q {
		params = append(params, 0.1)
	}

	n := len(e.w)
	z := make([]float64, n)
	resid := make([]float64, n)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			_, _, phi, theta := e.unpack(x)
			if !isStationary(phi) || !isInvertible(theta) {
				return infeasible
			}
			sse := e.filter(x, z, resid)
			if math.IsNaN(sse) || math.IsInf(sse, 0) {
				return infeasible
			}
			return sse
		},
	}

	settings := &optimize.Settings{
		MajorIterations: opts.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   opts.Tolerance,
			Relative:   opts.Tolerance,
			Iterations: 100,
		},
	}

	result, err := optimize.Minimize(problem, params, settings, &optimize.NelderMead{})
	if result == nil || (err != nil && result.Status != optimize.IterationLimit) {
		return nil, fmt.Errorf("%w: optimizer: %w", ErrEstimationFailure, err)
	}
	if result.F >= infeasible {
		return nil, fmt.Errorf("%w: optimizer found no admissible parameters", ErrEstimationFailure)
	}

	_, _, phi, theta := e.unpack(result.X)
	if !isStationary(phi) {
		return nil, fmt.Errorf("%w: non-stationary AR polynomial", ErrEstimationFailure)
	}
	if !isInvertible(theta) {
		return nil, fmt.Errorf("%w: non-invertible MA polynomial", ErrEstimationFailure)
	}

	return result.X, nil
}

// NObs returns the number of residual observations (series length - d).
func (m *Model) NObs() int {
	return len(m.residuals)
}

// Labels returns the regressor labels in the order the model expects them.
func (m *Model) Labels() []string {
	if m.Regressors == nil {
		return nil
	}
	return m.Regressors.Labels()
}

// Residuals returns the model residuals, aligned to ResidualYears.
func (m *Model) Residuals() []float64 {
	return slices.Clone(m.residuals)
}

// ResidualYears returns the years of the differenced series.
func (m *Model) ResidualYears() []int {
	return slices.Clone(m.diffData.Years)
}

// ResidualRegressors returns the model's regressors restricted to the
// residual years, or nil for a model without regressors.
func (m *Model) ResidualRegressors() *timeseries.RegressorSet {
	if m.Regressors == nil {
		return nil
	}
	aligned, err := m.Regressors.AlignTo(m.diffData.Years)
	if err != nil {
		return nil
	}
	return aligned
}

// FittedValues returns one-step-ahead fitted values on the original scale,
// aligned to ResidualYears.
func (m *Model) FittedValues() []float64 {
	d := m.Order.D
	fitted := make([]float64, len(m.residuals))
	for i, r := range m.residuals {
		fitted[i] = m.series.Values[i+d] - r
	}
	return fitted
}

// Series returns the series the model was fit on.
func (m *Model) Series() *timeseries.Series {
	return m.series.Copy()
}

// Summary returns a summary of the fitted model.
type Summary struct {
	Order        Order
	Regressors   []string
	ARCoeffs     []float64
	MACoeffs     []float64
	Beta         []float64
	Intercept    float64
	HasIntercept bool
	Variance     float64
	AIC          float64
	AICc         float64 // Corrected AIC
	BIC          float64
	LogLik       float64
	NObs         int
	NParams      int
	LjungBox     *stats.PortmanteauResult
}

// Summary returns a summary of the fitted model. Its Ljung-Box test uses 10
// lags with p+q fitted degrees of freedom.
func (m *Model) Summary() *Summary {
	lb, _ := stats.LjungBox(m.residuals, 10, m.Order.P+m.Order.Q)

	return &Summary{
		Order:        m.Order,
		Regressors:   m.Labels(),
		ARCoeffs:     slices.Clone(m.ARCoeffs),
		MACoeffs:     slices.Clone(m.MACoeffs),
		Beta:         slices.Clone(m.Beta),
		Intercept:    m.Intercept,
		HasIntercept: m.HasIntercept,
		Variance:     m.Variance,
		AIC:          m.AIC,
		AICc:         m.AICc,
		BIC:          m.BIC,
		LogLik:       m.LogLik,
		NObs:         m.NObs(),
		NParams:      m.NParams,
		LjungBox:     lb,
	}
}

func meanSquare(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v * v
	}
	return s / float64(len(x))
}

// yuleWalker solves the Yule-Walker equations R φ = r for AR(order)
// coefficients from autocorrelations acf[0..order]. It returns nil when R is
// not positive definite.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	r := mat.NewSymDense(order, nil)
	for i := 0; i < order; i++ {
		for j := i; j < order; j++ {
			r.SetSym(i, j, acf[j-i])
		}
	}
	var chol mat.Cholesky
	if !chol.Factorize(r) {
		return nil
	}

	var phi mat.VecDense
	if err := chol.SolveVecTo(&phi, mat.NewVecDense(order, slices.Clone(acf[1:order+1]))); err != nil {
		return nil
	}
	out := make([]float64, order)
	for i := range out {
		out[i] = phi.AtVec(i)
	}
	return out
}
