// Package stats provides statistical tests and analysis functions for model residuals.
//
// This package includes autocorrelation functions, the residual tests used
// to validate ARIMAX fits, ordinary least squares, and information criteria.
//
// # Autocorrelation Functions
//
// Analyze autocorrelation patterns:
//
//	// Autocorrelation Function
//	acf := stats.ACF(values, 10)
//
//	// Partial Autocorrelation Function
//	pacf := stats.PACF(values, 10)
//
//	// ACF with confidence bounds
//	acfResult := stats.ACFWithConfidence(values, 10)
//	significant := acfResult.SignificantLags()
//
// # Residual Diagnostics
//
// Test residuals for autocorrelation, normality, and heteroskedasticity:
//
//	// Ljung-Box test for autocorrelation
//	lb, err := stats.LjungBox(residuals, 10, 0)
//	if err == nil && lb.PValue > 0.05 {
//	    // Residuals are white noise (good)
//	}
//
//	// Shapiro-Wilk test for normality
//	sw, err := stats.ShapiroWilk(residuals)
//
//	// Breusch-Pagan test against the fit's regressors
//	bp, err := stats.BreuschPagan(residuals, regressors.Matrix())
//
//	// Durbin-Watson statistic
//	dw := stats.DurbinWatson(residuals)
//
// Tests return ErrInsufficientSamples below their minimum sample size and
// ErrDiagnosticInconclusive when the statistic cannot be computed, for example
// when an auxiliary regression is singular.
//
// # Regression and Model Selection
//
//	fit, err := stats.OLS(x, y, true)     // ErrSingularDesign on collinear x
//	ic := stats.CalculateIC(logLik, n, k) // AIC, AICc, BIC
package stats
