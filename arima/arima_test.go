package arima

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/goarimax/timeseries"
)

// simulate returns y_t = c + beta*x_t + z_t with AR(1) errors and a
// standard normal regressor.
func simulate(n int, c, beta, phi float64, seed uint64) (*timeseries.Series, *timeseries.RegressorSet) {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	x := make([]float64, n)
	y := make([]float64, n)
	z := 0.0
	for i := 0; i < n; i++ {
		x[i] = rng.NormFloat64()
		z = phi*z + rng.NormFloat64()
		y[i] = c + beta*x[i] + z
	}
	series, _ := timeseries.FromValues("y", 1800, y)
	regs, _ := timeseries.Build("x", series.Years, timeseries.Covariate{Label: "x", Values: x})
	return series, regs
}

func noisy(n int, seed uint64) *timeseries.Series {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	values := make([]float64, n)
	for i := range values {
		values[i] = 5 + rng.NormFloat64()
	}
	s, _ := timeseries.FromValues("noise", 1900, values)
	return s
}

func TestOrder(t *testing.T) {
	assert.Equal(t, "ARIMA(2,1,1)", Order{P: 2, D: 1, Q: 1}.String())
	assert.NoError(t, Order{P: 0, D: 0, Q: 0}.Validate())
	assert.Error(t, Order{P: -1}.Validate())

	mode, err := ParseInterceptMode("never")
	require.NoError(t, err)
	assert.Equal(t, InterceptNever, mode)
	_, err = ParseInterceptMode("sometimes")
	assert.Error(t, err)
}

func TestFitARX(t *testing.T) {
	series, regs := simulate(300, 2, 1.5, 0.6, 7)

	model, err := Fit(series, Order{P: 1, D: 0, Q: 0}, regs, nil)
	require.NoError(t, err)

	require.Len(t, model.ARCoeffs, 1)
	require.Len(t, model.Beta, 1)
	assert.True(t, model.HasIntercept)
	assert.InDelta(t, 0.6, model.ARCoeffs[0], 0.2)
	assert.InDelta(t, 1.5, model.Beta[0], 0.3)
	assert.InDelta(t, 2.0, model.Intercept, 0.6)
	assert.InDelta(t, 1.0, model.Variance, 0.35)
	assert.Equal(t, []string{"x"}, model.Labels())

	t.Logf("phi=%.3f beta=%.3f c=%.3f sigma2=%.3f", model.ARCoeffs[0], model.Beta[0], model.Intercept, model.Variance)
}

func TestFitInformationCriteria(t *testing.T) {
	series, regs := simulate(120, 0, 1, 0.3, 11)

	model, err := Fit(series, Order{P: 1, D: 1, Q: 1}, regs, nil)
	require.NoError(t, err)

	// No intercept after differencing: phi, theta, beta.
	assert.False(t, model.HasIntercept)
	assert.Equal(t, 0.0, model.Intercept)
	assert.Equal(t, 3, model.NParams)
	assert.Equal(t, 119, model.NObs())

	n := float64(model.NObs())
	k := float64(model.NParams)
	ll := -n / 2 * (math.Log(2*math.Pi) + math.Log(model.Variance) + 1)
	assert.InDelta(t, ll, model.LogLik, 1e-9)
	assert.InDelta(t, -2*ll+2*k, model.AIC, 1e-9)
	assert.InDelta(t, -2*ll+k*math.Log(n), model.BIC, 1e-9)
	assert.InDelta(t, model.AIC+2*k*(k+1)/(n-k-1), model.AICc, 1e-9)
}

func TestFitInterceptModes(t *testing.T) {
	series := noisy(60, 3)

	always, err := Fit(series, Order{P: 0, D: 1, Q: 1}, nil, &Options{Intercept: InterceptAlways, MaxIterations: 2000, Tolerance: 1e-10})
	require.NoError(t, err)
	assert.True(t, always.HasIntercept)
	assert.Equal(t, 2, always.NParams)

	never, err := Fit(series, Order{P: 1, D: 0, Q: 0}, nil, &Options{Intercept: InterceptNever, MaxIterations: 2000, Tolerance: 1e-10})
	require.NoError(t, err)
	assert.False(t, never.HasIntercept)
	assert.Equal(t, 1, never.NParams)
}

func TestFitWhiteNoiseIsOLS(t *testing.T) {
	series := noisy(200, 5)

	model, err := Fit(series, Order{}, nil, nil)
	require.NoError(t, err)

	// An intercept-only regression estimates the mean.
	assert.InDelta(t, series.Mean(), model.Intercept, 1e-9)
	assert.InDelta(t, series.Variance()*199/200, model.Variance, 1e-9)
	assert.Empty(t, model.ARCoeffs)
	assert.Empty(t, model.MACoeffs)
}

func TestFitMA1(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 22))
	n := 300
	values := make([]float64, n)
	prev := 0.0
	for i := range values {
		e := rng.NormFloat64()
		values[i] = 10 + e + 0.5*prev
		prev = e
	}
	series, err := timeseries.FromValues("ma", 1700, values)
	require.NoError(t, err)

	model, err := Fit(series, Order{P: 0, D: 0, Q: 1}, nil, nil)
	require.NoError(t, err)
	require.Len(t, model.MACoeffs, 1)
	assert.InDelta(t, 0.5, model.MACoeffs[0], 0.2)
	assert.True(t, isInvertible(model.MACoeffs))
}

func TestFitMultipleOrders(t *testing.T) {
	series, regs := simulate(150, 1, 0.8, 0.6, 13)

	tests := []struct {
		name  string
		order Order
	}{
		{"AR1", Order{P: 1}},
		{"AR2", Order{P: 2}},
		{"MA1", Order{Q: 1}},
		{"MA2", Order{Q: 2}},
		{"ARMA11", Order{P: 1, Q: 1}},
		{"ARIMA110", Order{P: 1, D: 1}},
		{"ARIMA011", Order{D: 1, Q: 1}},
		{"ARIMA111", Order{P: 1, D: 1, Q: 1}},
		{"ARIMA211", Order{P: 2, D: 1, Q: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := Fit(series, tt.order, regs, nil)
			require.NoError(t, err)

			assert.True(t, isStationary(model.ARCoeffs))
			assert.True(t, isInvertible(model.MACoeffs))
			assert.Len(t, model.Residuals(), series.Len()-tt.order.D)

			forecasts, err := model.Project(3, []float64{0.5})
			require.NoError(t, err)
			for _, f := range forecasts {
				assert.False(t, math.IsNaN(f) || math.IsInf(f, 0))
			}

			t.Logf("%s - AIC: %.2f, BIC: %.2f, Forecasts: %v", tt.name, model.AIC, model.BIC, forecasts)
		})
	}
}

func TestFitDeterministic(t *testing.T) {
	series, regs := simulate(80, 0, 1, 0.4, 17)

	a, err := Fit(series, Order{P: 2, D: 1, Q: 1}, regs, nil)
	require.NoError(t, err)
	b, err := Fit(series, Order{P: 2, D: 1, Q: 1}, regs, nil)
	require.NoError(t, err)

	assert.Equal(t, a.ARCoeffs, b.ARCoeffs)
	assert.Equal(t, a.MACoeffs, b.MACoeffs)
	assert.Equal(t, a.Beta, b.Beta)
	assert.Equal(t, a.AIC, b.AIC)
}

func TestFitInsufficientData(t *testing.T) {
	series, regs := simulate(6, 0, 1, 0.2, 1)

	_, err := Fit(series, Order{P: 2, D: 1, Q: 2}, regs, nil)
	assert.ErrorIs(t, err, ErrEstimationFailure)

	// Differencing consumes the whole series.
	_, err = Fit(series, Order{D: 6}, nil, nil)
	assert.ErrorIs(t, err, ErrEstimationFailure)

	_, err = Fit(&timeseries.Series{}, Order{P: 1}, nil, nil)
	assert.ErrorIs(t, err, timeseries.ErrEmptySeries)
}

func TestFitDimensionMismatch(t *testing.T) {
	series, _ := simulate(20, 0, 1, 0.2, 2)

	short, err := timeseries.Build("short", series.Years[:19],
		timeseries.Covariate{Label: "gdp", Values: make([]float64, 19)})
	require.NoError(t, err)
	_, err = Fit(series, Order{P: 1, D: 1}, short, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	shifted := make([]int, series.Len())
	for i, y := range series.Years {
		shifted[i] = y + 1
	}
	offset, err := timeseries.Build("offset", shifted,
		timeseries.Covariate{Label: "gdp", Values: make([]float64, series.Len())})
	require.NoError(t, err)
	_, err = Fit(series, Order{P: 1, D: 1}, offset, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFitSingularDesign(t *testing.T) {
	series, regs := simulate(40, 0, 1, 0.2, 4)
	x, _ := regs.Column("x")
	doubled := make([]float64, len(x))
	for i, v := range x {
		doubled[i] = 2 * v
	}
	collinear, err := timeseries.Build("collinear", series.Years,
		timeseries.Covariate{Label: "a", Values: x},
		timeseries.Covariate{Label: "b", Values: doubled},
	)
	require.NoError(t, err)

	_, err = Fit(series, Order{P: 1, D: 1, Q: 1}, collinear, nil)
	assert.ErrorIs(t, err, ErrEstimationFailure)
}

func TestFitZeroVariance(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 3 * float64(i)
	}
	series, err := timeseries.FromValues("line", 2000, values)
	require.NoError(t, err)

	// The first difference is constant and an intercept fits it exactly.
	_, err = Fit(series, Order{D: 1}, nil, &Options{Intercept: InterceptAlways})
	assert.ErrorIs(t, err, ErrEstimationFailure)
}

func TestResidualsAndFittedValues(t *testing.T) {
	series, regs := simulate(50, 1, 2, 0.5, 9)

	model, err := Fit(series, Order{P: 1, D: 1}, regs, nil)
	require.NoError(t, err)

	residuals := model.Residuals()
	fitted := model.FittedValues()
	years := model.ResidualYears()
	require.Len(t, residuals, 49)
	require.Len(t, fitted, 49)
	assert.Equal(t, series.Years[1:], years)

	for i := range fitted {
		assert.InDelta(t, series.Values[i+1], fitted[i]+residuals[i], 1e-9)
	}

	// Returned slices are copies.
	residuals[0] = 1e9
	assert.NotEqual(t, 1e9, model.Residuals()[0])

	aligned := model.ResidualRegressors()
	require.NotNil(t, aligned)
	assert.Equal(t, years, aligned.Years())
}

func TestSummary(t *testing.T) {
	series, regs := simulate(60, 0, 1, 0.5, 6)

	model, err := Fit(series, Order{P: 1, D: 0, Q: 1}, regs, nil)
	require.NoError(t, err)

	summary := model.Summary()
	require.NotNil(t, summary)
	assert.Equal(t, 60, summary.NObs)
	assert.Equal(t, []string{"x"}, summary.Regressors)
	require.NotNil(t, summary.LjungBox)
	assert.Equal(t, 10, summary.LjungBox.Lags)

	t.Logf("Summary - AIC: %f, BIC: %f, LogLik: %f, Q: %f", summary.AIC, summary.BIC, summary.LogLik, summary.LjungBox.Statistic)
}

func TestProject(t *testing.T) {
	// AR(1) phi=0.5 on the first difference with one regressor.
	m := &Model{
		Order:     Order{P: 1, D: 1, Q: 0},
		ARCoeffs:  []float64{0.5},
		Beta:      []float64{2},
		z:         []float64{1},
		residuals: []float64{0},
		levels:    []float64{10},
	}

	got, err := m.Project(1, []float64{1})
	require.NoError(t, err)
	assert.InDelta(t, 12.5, got[0], 1e-12)

	// Later steps hold the regressor row: w = 2 + 0.25, then 2 + 0.125.
	got, err = m.Project(3, []float64{1})
	require.NoError(t, err)
	assert.InDelta(t, 12.5, got[0], 1e-12)
	assert.InDelta(t, 14.75, got[1], 1e-12)
	assert.InDelta(t, 16.875, got[2], 1e-12)

	_, err = m.Project(1, []float64{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = m.Project(0, []float64{1})
	assert.Error(t, err)
}

func TestProjectSecondDifference(t *testing.T) {
	// y = 1, 2, 4, 7 -> last level 7, last first difference 3, w = 1.
	m := &Model{
		Order:     Order{D: 2},
		Intercept: 1,
		z:         []float64{0, 0},
		residuals: []float64{0, 0},
		levels:    []float64{7, 3},
	}

	got, err := m.Project(2, nil)
	require.NoError(t, err)
	assert.InDelta(t, 11.0, got[0], 1e-12)
	assert.InDelta(t, 16.0, got[1], 1e-12)
}

func TestPsiWeights(t *testing.T) {
	ar := &Model{Order: Order{P: 1}, ARCoeffs: []float64{0.5}}
	assert.InDeltaSlice(t, []float64{1, 0.5, 0.25, 0.125}, ar.PsiWeights(4), 1e-12)

	rw := &Model{Order: Order{D: 1}}
	assert.Equal(t, []float64{1, 1, 1}, rw.PsiWeights(3))

	ma := &Model{Order: Order{Q: 1}, MACoeffs: []float64{0.4}}
	assert.InDeltaSlice(t, []float64{1, 0.4, 0}, ma.PsiWeights(3), 1e-12)

	// ARIMA(0,1,1): psi_j = 1 + theta for j >= 1.
	ima := &Model{Order: Order{D: 1, Q: 1}, MACoeffs: []float64{0.4}}
	assert.InDeltaSlice(t, []float64{1, 1.4, 1.4}, ima.PsiWeights(3), 1e-12)

	assert.Nil(t, ar.PsiWeights(0))
}

func TestRoots(t *testing.T) {
	tests := []struct {
		name  string
		coef  []float64
		valid bool
	}{
		{"empty", nil, true},
		{"ar1", []float64{0.5}, true},
		{"ar1 explosive", []float64{1.2}, false},
		{"unit root", []float64{1}, false},
		{"ar2", []float64{0.5, 0.3}, true},
		{"ar2 sum over one", []float64{0.5, 0.6}, false},
		{"ar2 complex", []float64{1.0, -0.5}, true},
		{"nan", []float64{math.NaN(), 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, isStationary(tt.coef))
		})
	}

	assert.True(t, isInvertible([]float64{-0.5}))
	assert.False(t, isInvertible([]float64{1.5}))
	assert.True(t, isInvertible([]float64{0.4, 0.2}))
}

func TestYuleWalker(t *testing.T) {
	// ACF of an AR(1) process with phi=0.6
	acf := []float64{1.0, 0.6, 0.36, 0.216, 0.13}

	coeffs := yuleWalker(acf, 2)
	require.Len(t, coeffs, 2)
	assert.InDelta(t, 0.6, coeffs[0], 1e-12)
	assert.InDelta(t, 0.0, coeffs[1], 1e-12)

	assert.Nil(t, yuleWalker(acf, 0))
	assert.Nil(t, yuleWalker(acf[:2], 3))
	assert.Nil(t, yuleWalker([]float64{1, 1, 1}, 2), "singular Toeplitz matrix")
}
