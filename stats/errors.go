package stats

import "errors"

var (
	// ErrInsufficientSamples is returned when a test has fewer observations
	// than its minimum sample size.
	ErrInsufficientSamples = errors.New("insufficient samples")

	// ErrDiagnosticInconclusive is returned when a test statistic cannot be
	// computed from the data, e.g. constant residuals.
	ErrDiagnosticInconclusive = errors.New("diagnostic inconclusive")

	// ErrSingularDesign is returned when a regression design matrix is rank
	// deficient.
	ErrSingularDesign = errors.New("singular design matrix")
)
