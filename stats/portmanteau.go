package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// minPortmanteauSamples is the smallest series a portmanteau test accepts.
const minPortmanteauSamples = 3

// PortmanteauResult is the outcome of a test for residual autocorrelation
// up to a number of lags. A small PValue rejects the white noise null.
type PortmanteauResult struct {
	Statistic float64
	PValue    float64
	Lags      int // After capping at n-1
	DOF       int
}

// LjungBox tests the residuals for autocorrelation up to lags with
//
//	Q = n(n+2) Σ r_k² / (n-k)
//
// against χ² with lags-fitdf degrees of freedom, floored at 1.
func LjungBox(residuals []float64, lags, fitdf int) (*PortmanteauResult, error) {
	return portmanteau(residuals, lags, fitdf, func(n, k int) float64 {
		return float64(n*(n+2)) / float64(n-k)
	})
}

// BoxPierce is the unweighted Q = n Σ r_k².
func BoxPierce(residuals []float64, lags, fitdf int) (*PortmanteauResult, error) {
	return portmanteau(residuals, lags, fitdf, func(n, _ int) float64 {
		return float64(n)
	})
}

// portmanteau sums weight(n, k)·r_k² over lags 1..lags.
func portmanteau(residuals []float64, lags, fitdf int, weight func(n, k int) float64) (*PortmanteauResult, error) {
	n := len(residuals)
	switch {
	case n < minPortmanteauSamples:
		return nil, fmt.Errorf("%w: %d residuals, need %d", ErrInsufficientSamples, n, minPortmanteauSamples)
	case lags < 1:
		return nil, fmt.Errorf("lags must be at least 1, got %d", lags)
	}
	lags = min(lags, n-1)

	r := ACF(residuals, lags)
	if r == nil {
		return nil, fmt.Errorf("%w: constant residuals", ErrDiagnosticInconclusive)
	}

	var q float64
	for k := 1; k <= lags; k++ {
		q += weight(n, k) * r[k] * r[k]
	}
	dof := max(lags-fitdf, 1)

	return &PortmanteauResult{
		Statistic: q,
		PValue:    distuv.ChiSquared{K: float64(dof)}.Survival(q),
		Lags:      lags,
		DOF:       dof,
	}, nil
}

// DurbinWatson returns Σ(e_t - e_{t-1})² / Σe_t². Values near 2 indicate no
// first-order autocorrelation. It is NaN for fewer than two residuals or a
// zero residual vector.
func DurbinWatson(residuals []float64) float64 {
	if len(residuals) < 2 {
		return math.NaN()
	}
	ss := floats.Dot(residuals, residuals)
	if ss == 0 {
		return math.NaN()
	}
	steps := make([]float64, len(residuals)-1)
	floats.SubTo(steps, residuals[1:], residuals[:len(residuals)-1])
	return floats.Dot(steps, steps) / ss
}
