package stats

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// rankTolerance is the singular value cutoff, relative to the largest
// singular value, below which a design column counts as collinear.
const rankTolerance = 1e-10

// OLSResult holds an ordinary least squares fit.
type OLSResult struct {
	Coeffs    []float64 // Intercept first when included
	Fitted    []float64
	Residuals []float64
	RSS       float64 // Residual sum of squares
	TSS       float64 // Total sum of squares around the mean
	R2        float64
	Intercept bool
}

// Design builds a regression design matrix from x, prepending a column of
// ones when intercept is set. x may be nil for an intercept-only design.
func Design(x *mat.Dense, rows int, intercept bool) *mat.Dense {
	cols := 0
	if x != nil {
		r, c := x.Dims()
		rows, cols = r, c
	}
	offset := 0
	if intercept {
		offset = 1
	}
	if cols+offset == 0 {
		return nil
	}

	d := mat.NewDense(rows, cols+offset, nil)
	for i := 0; i < rows; i++ {
		if intercept {
			d.Set(i, 0, 1)
		}
		for j := 0; j < cols; j++ {
			d.Set(i, j+offset, x.At(i, j))
		}
	}
	return d
}

// OLS regresses y on the columns of x (plus an intercept if requested).
// It returns ErrSingularDesign when the design is rank deficient.
func OLS(x *mat.Dense, y []float64, intercept bool) (*OLSResult, error) {
	n := len(y)
	design := Design(x, n, intercept)
	if design == nil {
		return nil, fmt.Errorf("%w: no columns", ErrSingularDesign)
	}
	rows, cols := design.Dims()
	if rows != n {
		return nil, fmt.Errorf("design has %d rows for %d observations", rows, n)
	}
	if n < cols {
		return nil, fmt.Errorf("%w: %d observations for %d columns", ErrSingularDesign, n, cols)
	}

	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDThin); !ok {
		return nil, fmt.Errorf("%w: SVD factorization failed", ErrSingularDesign)
	}
	rank := svd.Rank(rankTolerance)
	if rank < cols {
		return nil, fmt.Errorf("%w: rank %d for %d columns", ErrSingularDesign, rank, cols)
	}

	var beta mat.Dense
	svd.SolveTo(&beta, mat.NewDense(n, 1, append([]float64(nil), y...)), rank)

	coeffs := mat.Col(nil, 0, &beta)

	fitted := make([]float64, n)
	residuals := make([]float64, n)
	fittedVec := mat.NewVecDense(n, fitted)
	fittedVec.MulVec(design, mat.NewVecDense(cols, coeffs))
	floats.SubTo(residuals, y, fitted)

	rss := floats.Dot(residuals, residuals)
	mean := stat.Mean(y, nil)
	tss := 0.0
	for _, v := range y {
		tss += (v - mean) * (v - mean)
	}

	r2 := 0.0
	if tss > 0 {
		r2 = 1 - rss/tss
	}

	return &OLSResult{
		Coeffs:    coeffs,
		Fitted:    fitted,
		Residuals: residuals,
		RSS:       rss,
		TSS:       tss,
		R2:        r2,
		Intercept: intercept,
	}, nil
}
