package arima

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// isStationary reports whether the AR polynomial 1 - φ1 B - ... - φp B^p
// has all roots outside the unit circle.
func isStationary(phi []float64) bool {
	return rootsOutsideUnitCircle(phi)
}

// isInvertible reports whether the MA polynomial 1 + θ1 B + ... + θq B^q
// has all roots outside the unit circle.
func isInvertible(theta []float64) bool {
	neg := make([]float64, len(theta))
	for i, v := range theta {
		neg[i] = -v
	}
	return rootsOutsideUnitCircle(neg)
}

// rootsOutsideUnitCircle checks 1 - c1 z - ... - ck z^k through the
// eigenvalues of its companion matrix, which are the reciprocal roots.
func rootsOutsideUnitCircle(c []float64) bool {
	for _, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	k := len(c)
	switch k {
	case 0:
		return true
	case 1:
		return math.Abs(c[0]) < 1
	}

	companion := mat.NewDense(k, k, nil)
	for j, v := range c {
		companion.Set(0, j, v)
	}
	for i := 1; i < k; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return false
	}
	for _, lambda := range eig.Values(nil) {
		if !(cmplx.Abs(lambda) < 1) {
			return false
		}
	}
	return true
}
