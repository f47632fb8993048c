package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var smallResiduals = []float64{1.2, -0.4, 0.7, -1.1, 0.3, 0.9, -0.8, 0.1, -0.2, 0.5}

func ar1(n int, phi float64) []float64 {
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = phi*values[i-1] + float64(i%7-3)/10
	}
	return values
}

func TestACF(t *testing.T) {
	acf := ACF(ar1(100, 0.8), 10)
	require.NotNil(t, acf)
	require.Len(t, acf, 11)

	// ACF at lag 0 should be 1
	assert.InDelta(t, 1.0, acf[0], 1e-10)
	assert.Greater(t, acf[1], 0.4, "AR(1) with phi=0.8 should have strong lag-1 correlation")

	acf = ACF(smallResiduals, 2)
	assert.InDelta(t, -0.4932746196957565, acf[1], 1e-12)
	assert.InDelta(t, 0.1039231385108086, acf[2], 1e-12)

	assert.Nil(t, ACF([]float64{3, 3, 3}, 2), "constant input has no ACF")
	assert.Len(t, ACF([]float64{1, 2, 4}, 10), 3, "lags are capped at n-1")
}

func TestPACF(t *testing.T) {
	pacf := PACF(ar1(100, 0.7), 10)
	require.NotNil(t, pacf)

	assert.InDelta(t, 1.0, pacf[0], 1e-10)

	acf := ACF(ar1(100, 0.7), 1)
	assert.InDelta(t, acf[1], pacf[1], 1e-12, "PACF and ACF agree at lag 1")
}

func TestCorrelogram(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i) + math.Sin(float64(i)/10)
	}

	result := ACFWithConfidence(values, 20)
	require.NotNil(t, result)
	assert.Len(t, result.Lags, 21)
	assert.InDelta(t, 0.196, result.ConfBounds, 1e-10)

	// A trending series stays significant for many lags.
	assert.Contains(t, result.SignificantLags(), 1)
	assert.NotContains(t, result.SignificantLags(), 0)

	assert.NotNil(t, PACFWithConfidence(values, 5))
	assert.Nil(t, ACFWithConfidence([]float64{1, 1, 1}, 2))
}

func TestLjungBox(t *testing.T) {
	result, err := LjungBox(smallResiduals, 2, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Lags)
	assert.Equal(t, 2, result.DOF)
	assert.InDelta(t, 3.40626495324896, result.Statistic, 1e-9)
	// chi2(2) survival is exp(-q/2)
	assert.InDelta(t, 0.18211216753163376, result.PValue, 1e-9)

	t.Logf("Ljung-Box - Q: %f, P-Value: %f, DOF: %d", result.Statistic, result.PValue, result.DOF)
}

func TestLjungBoxAutocorrelated(t *testing.T) {
	result, err := LjungBox(ar1(100, 0.9), 10, 0)
	require.NoError(t, err)
	assert.Less(t, result.PValue, 0.01)
}

func TestLjungBoxLagCapAndDOF(t *testing.T) {
	result, err := LjungBox(smallResiduals, 40, 0)
	require.NoError(t, err)
	assert.Equal(t, len(smallResiduals)-1, result.Lags)

	result, err = LjungBox(smallResiduals, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, result.DOF, "degrees of freedom never drop below 1")
}

func TestLjungBoxErrors(t *testing.T) {
	_, err := LjungBox([]float64{1, 2}, 10, 0)
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	_, err = LjungBox([]float64{2, 2, 2, 2}, 2, 0)
	assert.ErrorIs(t, err, ErrDiagnosticInconclusive)

	_, err = LjungBox(smallResiduals, 0, 0)
	assert.Error(t, err)
}

func TestBoxPierce(t *testing.T) {
	result, err := BoxPierce(smallResiduals, 2, 0)
	require.NoError(t, err)

	assert.InDelta(t, 2.5411986915392992, result.Statistic, 1e-9)
	assert.InDelta(t, 0.28066335696332256, result.PValue, 1e-9)

	lb, err := LjungBox(smallResiduals, 2, 0)
	require.NoError(t, err)
	assert.Less(t, result.Statistic, lb.Statistic, "Box-Pierce is the unweighted statistic")
}

func TestDurbinWatson(t *testing.T) {
	tests := []struct {
		name      string
		residuals []float64
		check     func(float64) bool
	}{
		{"alternating", []float64{1, -1, 1, -1, 1, -1}, func(d float64) bool { return d > 3 }},
		{"smooth", []float64{1, 1.1, 1.2, 1.3, 1.4, 1.5}, func(d float64) bool { return d < 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DurbinWatson(tt.residuals)
			assert.True(t, tt.check(d), "statistic %f", d)
		})
	}

	// Steps of -2, 2, -2: 12 over squares of 4.
	assert.InDelta(t, 12.0/4, DurbinWatson([]float64{1, -1, 1, -1}), 1e-12)
	assert.True(t, math.IsNaN(DurbinWatson([]float64{1})))
	assert.True(t, math.IsNaN(DurbinWatson([]float64{0, 0, 0})))
}

func TestShapiroWilk(t *testing.T) {
	// Reference values from R's shapiro.test.
	x := []float64{148, 154, 158, 160, 161, 162, 166, 170, 182, 195, 236}
	result, err := ShapiroWilk(x)
	require.NoError(t, err)

	assert.Equal(t, 11, result.N)
	assert.InDelta(t, 0.7888, result.Statistic, 1e-3)
	assert.InDelta(t, 0.0067, result.PValue, 5e-4)
}

func TestShapiroWilkSmallSamples(t *testing.T) {
	result, err := ShapiroWilk([]float64{1, 2, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.9642857, result.Statistic, 1e-6)
	assert.InDelta(t, 0.6368868, result.PValue, 1e-6)

	// Evenly spaced triple is perfectly symmetric.
	result, err = ShapiroWilk([]float64{3, 1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, result.Statistic, 1e-9)
	assert.InDelta(t, 1.0, result.PValue, 1e-9)

	_, err = ShapiroWilk([]float64{1, 2})
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	_, err = ShapiroWilk([]float64{5, 5, 5, 5})
	assert.ErrorIs(t, err, ErrDiagnosticInconclusive)
}

func TestShapiroWilkCoefficients(t *testing.T) {
	// Published table values for n = 10.
	a := shapiroCoefficients(10)
	expected := []float64{0.5739, 0.3291, 0.2141, 0.1224, 0.0399}
	require.Len(t, a, 5)
	for i := range expected {
		assert.InDelta(t, expected[i], a[i], 5e-4, "a[%d]", i)
	}

	// Normalized: the full antisymmetric weight vector has unit length.
	for _, n := range []int{4, 5, 6, 20, 51} {
		sum := 0.0
		for _, v := range shapiroCoefficients(n) {
			sum += 2 * v * v
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "n=%d", n)
	}
}

func TestShapiroWilkDiscriminates(t *testing.T) {
	n := 20
	normal := make([]float64, n)
	skewed := make([]float64, n)
	for i := range normal {
		normal[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
		skewed[i] = math.Pow(2, float64(i))
	}

	nr, err := ShapiroWilk(normal)
	require.NoError(t, err)
	sr, err := ShapiroWilk(skewed)
	require.NoError(t, err)

	assert.Greater(t, nr.PValue, 0.5)
	assert.Less(t, sr.PValue, 0.001)
	t.Logf("normal W=%.4f p=%.4f, skewed W=%.4f p=%.2g", nr.Statistic, nr.PValue, sr.Statistic, sr.PValue)
}

func TestOLS(t *testing.T) {
	x := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := []float64{3, 5, 7, 9, 11}

	fit, err := OLS(x, y, true)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, fit.Coeffs[0], 1e-10)
	assert.InDelta(t, 2.0, fit.Coeffs[1], 1e-10)
	assert.InDelta(t, 0.0, fit.RSS, 1e-12)
	assert.InDelta(t, 1.0, fit.R2, 1e-12)
	assert.True(t, fit.Intercept)

	noConst, err := OLS(x, y, false)
	require.NoError(t, err)
	assert.Len(t, noConst.Coeffs, 1)
	assert.Greater(t, noConst.RSS, 0.0)

	intercept, err := OLS(nil, y, true)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, intercept.Coeffs[0], 1e-10)
}

func TestOLSSingular(t *testing.T) {
	// A constant regressor is collinear with the intercept.
	x := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	})
	_, err := OLS(x, []float64{1, 2, 3, 5}, true)
	assert.ErrorIs(t, err, ErrSingularDesign)

	_, err = OLS(nil, []float64{1, 2}, false)
	assert.ErrorIs(t, err, ErrSingularDesign)

	_, err = OLS(mat.NewDense(2, 3, nil), []float64{1, 2}, false)
	assert.ErrorIs(t, err, ErrSingularDesign)
}

func TestBreuschPagan(t *testing.T) {
	residuals := []float64{0.5, -1.0, 1.5, -2.0, 2.5, -3.0, 3.5, -4.0, 4.5, -5.0, 5.5, -6.0}
	x := mat.NewDense(12, 2, nil)
	x.SetCol(0, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	x.SetCol(1, []float64{0.3, 0.1, 0.4, 0.1, 0.5, 0.9, 0.2, 0.6, 0.5, 0.3, 0.5, 0.8})

	result, err := BreuschPagan(residuals, x)
	require.NoError(t, err)

	assert.Equal(t, 2, result.DOF)
	assert.InDelta(t, 0.9478221546447156, result.R2, 1e-9)
	assert.InDelta(t, 11.373865855736588, result.Statistic, 1e-7)
	assert.InDelta(t, 0.0033899743368529705, result.PValue, 1e-8)
}

func TestBreuschPaganInconclusive(t *testing.T) {
	residuals := []float64{0.5, -1.0, 1.5, -2.0, 2.5, -3.0}

	_, err := BreuschPagan(residuals, nil)
	assert.ErrorIs(t, err, ErrDiagnosticInconclusive)

	// Zero-variance regressor in a truncated window.
	flat := mat.NewDense(6, 1, []float64{2, 2, 2, 2, 2, 2})
	_, err = BreuschPagan(residuals, flat)
	assert.ErrorIs(t, err, ErrDiagnosticInconclusive)

	// Constant squared residuals.
	x := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	_, err = BreuschPagan([]float64{1, -1, 1, -1, 1, -1}, x)
	assert.ErrorIs(t, err, ErrDiagnosticInconclusive)

	_, err = BreuschPagan(residuals[:2], mat.NewDense(2, 1, []float64{1, 2}))
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	_, err = BreuschPagan(residuals[:3], x)
	assert.Error(t, err, "row count mismatch")
}

func TestAICc(t *testing.T) {
	tests := []struct {
		aic     float64
		nObs    int
		nParams int
	}{
		{100.0, 50, 3},
		{200.0, 100, 5},
		{150.0, 30, 4},
	}

	for _, tt := range tests {
		aicc := AICc(tt.aic, tt.nObs, tt.nParams)

		k := float64(tt.nParams)
		n := float64(tt.nObs)
		expected := tt.aic + 2*k*(k+1)/(n-k-1)

		assert.GreaterOrEqual(t, aicc, tt.aic)
		assert.InDelta(t, expected, aicc, 1e-10)
	}

	assert.True(t, math.IsInf(AICc(100.0, 5, 5), 1), "AICc should be +Inf when n-k-1 <= 0")
}

func TestCalculateIC(t *testing.T) {
	logLik := -50.0
	nObs := 100
	nParams := 3

	ic := CalculateIC(logLik, nObs, nParams)

	assert.InDelta(t, -2*logLik+2*float64(nParams), ic.AIC, 1e-10)
	assert.InDelta(t, -2*logLik+float64(nParams)*math.Log(float64(nObs)), ic.BIC, 1e-10)
	assert.GreaterOrEqual(t, ic.AICc, ic.AIC)
	assert.Equal(t, logLik, ic.LogLik)
}

func TestGaussianLogLik(t *testing.T) {
	// sigma2 = 1 leaves -n/2 (ln 2π + 1)
	assert.InDelta(t, -10*(math.Log(2*math.Pi)+1), GaussianLogLik(1, 20), 1e-12)
	assert.Greater(t, GaussianLogLik(0.5, 20), GaussianLogLik(2, 20))
}
