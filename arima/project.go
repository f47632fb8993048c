package arima

import (
	"fmt"
	"slices"
)

// Project returns point forecasts for the next steps years on the original
// scale. exog holds one future regressor row, in Labels order, which is
// applied to every step. Future innovations are zero.
func (m *Model) Project(steps int, exog []float64) ([]float64, error) {
	if steps < 1 {
		return nil, fmt.Errorf("steps must be at least 1, got %d", steps)
	}
	if len(exog) != len(m.Beta) {
		return nil, fmt.Errorf("%w: model has %d regressors, row has %d values",
			ErrDimensionMismatch, len(m.Beta), len(exog))
	}

	p, q, d := m.Order.P, m.Order.Q, m.Order.D
	n := len(m.z)

	z := make([]float64, n+steps)
	copy(z, m.z)
	e := make([]float64, n+steps)
	copy(e, m.residuals)
	levels := slices.Clone(m.levels)

	mu := m.Intercept
	for j, b := range m.Beta {
		mu += b * exog[j]
	}

	out := make([]float64, steps)
	for h := 0; h < steps; h++ {
		t := n + h
		zhat := 0.0
		for i := 0; i < p && t-i-1 >= 0; i++ {
			zhat += m.ARCoeffs[i] * z[t-i-1]
		}
		for j := 0; j < q && t-j-1 >= 0; j++ {
			zhat += m.MACoeffs[j] * e[t-j-1]
		}
		z[t] = zhat

		// Integrate back through each differencing level
		val := mu + zhat
		for k := d - 1; k >= 0; k-- {
			val += levels[k]
			levels[k] = val
		}
		out[h] = val
	}

	return out, nil
}

// PsiWeights returns the first steps coefficients of the MA(∞)
// representation of the integrated model, starting with ψ0 = 1.
func (m *Model) PsiWeights(steps int) []float64 {
	if steps < 1 {
		return nil
	}

	// Full AR operator φ(B)(1-B)^d
	poly := []float64{1}
	for _, phi := range m.ARCoeffs {
		poly = append(poly, -phi)
	}
	for k := 0; k < m.Order.D; k++ {
		poly = multiplyPoly(poly, []float64{1, -1})
	}

	psi := make([]float64, steps)
	psi[0] = 1
	for j := 1; j < steps; j++ {
		v := 0.0
		if j <= len(m.MACoeffs) {
			v = m.MACoeffs[j-1]
		}
		for i := 1; i < len(poly) && i <= j; i++ {
			v -= poly[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}

func multiplyPoly(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}
