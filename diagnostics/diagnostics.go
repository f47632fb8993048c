// Package diagnostics checks whether the residuals of a fitted ARIMAX model
// are consistent with white noise.
package diagnostics

import (
	"fmt"
	"math"

	"github.com/sartorproj/goarimax/arima"
	"github.com/sartorproj/goarimax/stats"
	"github.com/sartorproj/goarimax/timeseries"
)

const (
	DefaultThreshold = 0.05
	DefaultLags      = 10
)

// Test names used in TestResult.Name.
const (
	NameLjungBox     = "ljung-box"
	NameBoxPierce    = "box-pierce"
	NameShapiroWilk  = "shapiro-wilk"
	NameBreuschPagan = "breusch-pagan"
)

// Portmanteau selects the residual autocorrelation test.
type Portmanteau int

const (
	LjungBox Portmanteau = iota
	BoxPierce
)

func (p Portmanteau) String() string {
	if p == BoxPierce {
		return NameBoxPierce
	}
	return NameLjungBox
}

// ParsePortmanteau converts "ljung-box" or "box-pierce".
func ParsePortmanteau(s string) (Portmanteau, error) {
	switch s {
	case "", NameLjungBox:
		return LjungBox, nil
	case NameBoxPierce:
		return BoxPierce, nil
	}
	return LjungBox, fmt.Errorf("unknown portmanteau test %q", s)
}

// Suite holds the residual test settings. FitDF defaults to 0, so the suite
// can reject residuals whose arima.Model.Summary Ljung-Box, computed with
// p+q fitted degrees of freedom, passes.
type Suite struct {
	Threshold   float64 // Every p-value must exceed this for a valid verdict
	Lags        int     // Portmanteau lags, capped at n-1
	FitDF       int     // Degrees of freedom subtracted from the portmanteau lags
	Portmanteau Portmanteau
}

// DefaultSuite returns the default suite: Ljung-Box with 10 lags at the 5% level.
func DefaultSuite() *Suite {
	return &Suite{
		Threshold:   DefaultThreshold,
		Lags:        DefaultLags,
		FitDF:       0,
		Portmanteau: LjungBox,
	}
}

// TestResult is the outcome of one residual test. PValue is NaN and Err is
// set when the test could not be computed.
type TestResult struct {
	Name      string
	Statistic float64
	DOF       int
	PValue    float64
	Err       error
}

// Passed reports whether the test ran and its p-value exceeds threshold.
func (r TestResult) Passed(threshold float64) bool {
	return r.Err == nil && r.PValue > threshold
}

func failed(name string, err error) TestResult {
	return TestResult{Name: name, Statistic: math.NaN(), PValue: math.NaN(), Err: err}
}

// Verdict combines the three residual tests.
type Verdict struct {
	Threshold          float64
	Autocorrelation    TestResult
	Normality          TestResult
	Heteroskedasticity TestResult
	DurbinWatson       float64 // Informational only, NaN when undefined
	Valid              bool
}

// NewVerdict builds a verdict that is valid only when all three tests pass.
func NewVerdict(threshold float64, autocorrelation, normality, heteroskedasticity TestResult) *Verdict {
	return &Verdict{
		Threshold:          threshold,
		Autocorrelation:    autocorrelation,
		Normality:          normality,
		Heteroskedasticity: heteroskedasticity,
		DurbinWatson:       math.NaN(),
		Valid: autocorrelation.Passed(threshold) &&
			normality.Passed(threshold) &&
			heteroskedasticity.Passed(threshold),
	}
}

// PValues returns the autocorrelation, normality and heteroskedasticity
// p-values in that order.
func (v *Verdict) PValues() [3]float64 {
	return [3]float64{v.Autocorrelation.PValue, v.Normality.PValue, v.Heteroskedasticity.PValue}
}

// Failures returns the names of the tests that did not pass.
func (v *Verdict) Failures() []string {
	var out []string
	for _, r := range []TestResult{v.Autocorrelation, v.Normality, v.Heteroskedasticity} {
		if !r.Passed(v.Threshold) {
			out = append(out, r.Name)
		}
	}
	return out
}

// Evaluate runs the suite on the residuals of a fitted model. The
// heteroskedasticity test uses the model's regressors at the residual years.
func (s *Suite) Evaluate(m *arima.Model) *Verdict {
	return s.EvaluateResiduals(m.Residuals(), m.ResidualRegressors())
}

// EvaluateResiduals runs the suite on residuals with regressors aligned one
// row per residual. regressors may be nil.
func (s *Suite) EvaluateResiduals(residuals []float64, regressors *timeseries.RegressorSet) *Verdict {
	if s == nil {
		s = DefaultSuite()
	}

	v := NewVerdict(s.Threshold,
		s.autocorrelation(residuals),
		normality(residuals),
		heteroskedasticity(residuals, regressors),
	)
	v.DurbinWatson = stats.DurbinWatson(residuals)
	return v
}

func (s *Suite) autocorrelation(residuals []float64) TestResult {
	lags := s.Lags
	if lags <= 0 {
		lags = DefaultLags
	}

	test := stats.LjungBox
	if s.Portmanteau == BoxPierce {
		test = stats.BoxPierce
	}

	res, err := test(residuals, lags, s.FitDF)
	if err != nil {
		return failed(s.Portmanteau.String(), err)
	}
	return TestResult{
		Name:      s.Portmanteau.String(),
		Statistic: res.Statistic,
		DOF:       res.DOF,
		PValue:    res.PValue,
	}
}

func normality(residuals []float64) TestResult {
	res, err := stats.ShapiroWilk(residuals)
	if err != nil {
		return failed(NameShapiroWilk, err)
	}
	return TestResult{
		Name:      NameShapiroWilk,
		Statistic: res.Statistic,
		PValue:    res.PValue,
	}
}

func heteroskedasticity(residuals []float64, regressors *timeseries.RegressorSet) TestResult {
	if regressors == nil {
		return failed(NameBreuschPagan, fmt.Errorf("%w: no regressors", stats.ErrDiagnosticInconclusive))
	}
	if regressors.Len() != len(residuals) {
		return failed(NameBreuschPagan, fmt.Errorf("%w: %d regressor rows for %d residuals",
			stats.ErrDiagnosticInconclusive, regressors.Len(), len(residuals)))
	}

	res, err := stats.BreuschPagan(residuals, regressors.Matrix())
	if err != nil {
		return failed(NameBreuschPagan, err)
	}
	return TestResult{
		Name:      NameBreuschPagan,
		Statistic: res.Statistic,
		DOF:       res.DOF,
		PValue:    res.PValue,
	}
}
