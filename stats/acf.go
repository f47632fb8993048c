// Package stats provides statistical tests and functions for residual analysis.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// autocovariances returns the biased sample autocovariances of values at
// lags 0..maxLag.
func autocovariances(values []float64, maxLag int) []float64 {
	n := len(values)
	mean := stat.Mean(values, nil)
	centered := make([]float64, n)
	for i, v := range values {
		centered[i] = v - mean
	}

	gamma := make([]float64, maxLag+1)
	for k := range gamma {
		var s float64
		for i := k; i < n; i++ {
			s += centered[i] * centered[i-k]
		}
		gamma[k] = s / float64(n)
	}
	return gamma
}

// ACF returns the sample autocorrelations of values at lags 0..maxLag, with
// maxLag capped at n-1. It is nil for empty or constant input.
func ACF(values []float64, maxLag int) []float64 {
	maxLag = min(maxLag, len(values)-1)
	if maxLag < 0 {
		return nil
	}

	gamma := autocovariances(values, maxLag)
	if gamma[0] == 0 {
		return nil
	}
	for k := len(gamma) - 1; k >= 0; k-- {
		gamma[k] /= gamma[0]
	}
	return gamma
}

// PACF returns the partial autocorrelations at lags 0..maxLag from the
// Durbin-Levinson recursion. A lag whose recursion degenerates is reported
// as zero.
func PACF(values []float64, maxLag int) []float64 {
	maxLag = min(maxLag, len(values)-1)
	if maxLag < 1 {
		return nil
	}
	r := ACF(values, maxLag)
	if r == nil {
		return nil
	}

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1

	// phi holds the AR(k-1) coefficients, phi[j-1] for lag j.
	phi := []float64{r[1]}
	pacf[1] = r[1]
	for k := 2; k <= maxLag; k++ {
		num, den := r[k], 1.0
		for j, c := range phi {
			num -= c * r[k-1-j]
			den -= c * r[j+1]
		}
		if den == 0 {
			continue
		}

		a := num / den
		next := make([]float64, k)
		for j := range phi {
			next[j] = phi[j] - a*phi[k-2-j]
		}
		next[k-1] = a
		phi = next
		pacf[k] = a
	}
	return pacf
}

// CorrelogramResult is a correlogram with its approximate 95% bound
// ±1.96/√n under white noise.
type CorrelogramResult struct {
	Lags       []int
	Values     []float64
	ConfBounds float64
}

// ACFWithConfidence returns the ACF correlogram, or nil when ACF is nil.
func ACFWithConfidence(values []float64, maxLag int) *CorrelogramResult {
	return newCorrelogram(ACF(values, maxLag), len(values))
}

// PACFWithConfidence returns the PACF correlogram, or nil when PACF is nil.
func PACFWithConfidence(values []float64, maxLag int) *CorrelogramResult {
	return newCorrelogram(PACF(values, maxLag), len(values))
}

func newCorrelogram(values []float64, n int) *CorrelogramResult {
	if values == nil {
		return nil
	}
	r := &CorrelogramResult{
		Lags:       make([]int, len(values)),
		Values:     values,
		ConfBounds: 1.96 / math.Sqrt(float64(n)),
	}
	for i := range r.Lags {
		r.Lags[i] = i
	}
	return r
}

// SignificantLags lists the positive lags outside the confidence bound.
func (r *CorrelogramResult) SignificantLags() []int {
	var lags []int
	for _, k := range r.Lags[1:] {
		if math.Abs(r.Values[k]) > r.ConfBounds {
			lags = append(lags, k)
		}
	}
	return lags
}
