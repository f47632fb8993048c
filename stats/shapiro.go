package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ShapiroWilkResult represents the result of a Shapiro-Wilk normality test.
type ShapiroWilkResult struct {
	Statistic float64 // W
	PValue    float64
	N         int
}

const (
	minShapiroSamples = 3
	maxShapiroSamples = 5000
)

// Polynomial coefficients of Royston's (1995) approximation, algorithm AS R94.
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.07119, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.544, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

// ShapiroWilk tests the null hypothesis that the values are drawn from a
// normal distribution. Small p-values reject normality.
// Valid for 3 <= n <= 5000; constant input is inconclusive.
func ShapiroWilk(values []float64) (*ShapiroWilkResult, error) {
	n := len(values)
	if n < minShapiroSamples {
		return nil, fmt.Errorf("%w: %d values, need %d", ErrInsufficientSamples, n, minShapiroSamples)
	}
	if n > maxShapiroSamples {
		return nil, fmt.Errorf("shapiro-wilk supports at most %d values, got %d", maxShapiroSamples, n)
	}

	x := make([]float64, n)
	copy(x, values)
	sort.Float64s(x)

	if x[n-1]-x[0] < 1e-19*math.Max(1, math.Abs(x[0])) {
		return nil, fmt.Errorf("%w: constant values", ErrDiagnosticInconclusive)
	}

	a := shapiroCoefficients(n)

	num := 0.0
	for i, ai := range a {
		num += ai * (x[n-1-i] - x[i])
	}
	mean := stat.Mean(x, nil)
	ss := 0.0
	for _, v := range x {
		ss += (v - mean) * (v - mean)
	}

	w := num * num / ss
	if w > 1 {
		w = 1
	}

	return &ShapiroWilkResult{
		Statistic: w,
		PValue:    shapiroPValue(w, n),
		N:         n,
	}, nil
}

// shapiroCoefficients returns the first n/2 positive weights a_i applied to
// x_(n+1-i) - x_(i).
func shapiroCoefficients(n int) []float64 {
	nn2 := n / 2
	a := make([]float64, nn2)
	if n == 3 {
		a[0] = math.Sqrt(0.5)
		return a
	}

	an := float64(n)
	m := make([]float64, nn2)
	summ2 := 0.0
	for i := range m {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (an + 0.25))
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(an)

	a1 := poly(swC1, rsn) - m[0]/ssumm2

	first := 1
	var fac float64
	if n > 5 {
		first = 2
		a2 := -m[1]/ssumm2 + poly(swC2, rsn)
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
		a[1] = a2
	} else {
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
	}
	a[0] = a1
	for i := first; i < nn2; i++ {
		a[i] = -m[i] / fac
	}
	return a
}

func shapiroPValue(w float64, n int) float64 {
	if n == 3 {
		const (
			pi6  = 6 / math.Pi
			stqr = math.Pi / 3
		)
		p := pi6 * (math.Asin(math.Sqrt(w)) - stqr)
		return math.Max(0, math.Min(1, p))
	}

	an := float64(n)
	y := math.Log(1 - w)
	var m, s float64
	if n <= 11 {
		gamma := poly(swG, an)
		if y >= gamma {
			return 1e-99
		}
		y = -math.Log(gamma - y)
		m = poly(swC3, an)
		s = math.Exp(poly(swC4, an))
	} else {
		xx := math.Log(an)
		m = poly(swC5, xx)
		s = math.Exp(poly(swC6, xx))
	}

	return distuv.Normal{Mu: m, Sigma: s}.Survival(y)
}

// poly evaluates c[0] + c[1]x + ... + c[k]x^k.
func poly(c []float64, x float64) float64 {
	result := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		result = result*x + c[i]
	}
	return result
}
