package stats

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// BreuschPaganResult represents the result of a Breusch-Pagan test.
type BreuschPaganResult struct {
	Statistic float64 // Lagrange multiplier n*R^2
	PValue    float64
	DOF       int
	R2        float64 // R^2 of the auxiliary regression
}

// BreuschPagan tests the null hypothesis of homoskedastic residuals against
// variance that depends on the regressors in exog (one row per residual).
// It uses Koenker's studentized form: squared residuals are regressed on a
// constant plus exog and LM = n*R^2 ~ chi2(k).
func BreuschPagan(residuals []float64, exog *mat.Dense) (*BreuschPaganResult, error) {
	n := len(residuals)
	if exog == nil {
		return nil, fmt.Errorf("%w: no regressors", ErrDiagnosticInconclusive)
	}
	rows, k := exog.Dims()
	if rows != n {
		return nil, fmt.Errorf("regressors have %d rows for %d residuals", rows, n)
	}
	if n < k+2 {
		return nil, fmt.Errorf("%w: %d residuals for %d regressors", ErrInsufficientSamples, n, k)
	}

	sq := make([]float64, n)
	for i, r := range residuals {
		sq[i] = r * r
	}

	aux, err := OLS(exog, sq, true)
	if err != nil {
		if errors.Is(err, ErrSingularDesign) {
			return nil, fmt.Errorf("%w: auxiliary regression: %w", ErrDiagnosticInconclusive, err)
		}
		return nil, err
	}
	if aux.TSS == 0 {
		return nil, fmt.Errorf("%w: squared residuals are constant", ErrDiagnosticInconclusive)
	}

	lm := float64(n) * aux.R2
	chi := distuv.ChiSquared{K: float64(k)}

	return &BreuschPaganResult{
		Statistic: lm,
		PValue:    chi.Survival(lm),
		DOF:       k,
		R2:        aux.R2,
	}, nil
}
