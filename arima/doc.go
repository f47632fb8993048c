// Package arima fits ARIMAX models: ARIMA(p,d,q) with exogenous regressors.
//
// The series is differenced d times and modelled as a linear regression on
// the undifferenced regressors whose errors follow an ARMA(p,q) process:
//
//	Δ^d y_t = c + x_t'β + z_t
//	z_t     = φ1 z_{t-1} + ... + φp z_{t-p} + e_t + θ1 e_{t-1} + ... + θq e_{t-q}
//
// Parameters are estimated by conditional sum of squares with zero
// pre-sample values. The regression part is initialized by OLS, the AR
// part by Yule-Walker on the OLS residuals, and the whole vector is then
// refined with Nelder-Mead. A fit whose AR polynomial is not stationary or
// whose MA polynomial is not invertible is rejected.
//
// # Basic Usage
//
//	regs, _ := timeseries.Build("macro", series.Years,
//	    timeseries.Covariate{Label: "gdp", Values: gdp},
//	    timeseries.Covariate{Label: "gini", Values: gini},
//	)
//
//	model, err := arima.Fit(series, arima.Order{P: 1, D: 1, Q: 1}, regs, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary := model.Summary()
//	fmt.Printf("AIC: %.2f, BIC: %.2f\n", summary.AIC, summary.BIC)
//
//	// One year ahead, given next year's regressor values
//	next, _ := model.Project(1, []float64{2.1, 0.34})
//
// Failed fits wrap ErrEstimationFailure; regressors that do not cover the
// series years give ErrDimensionMismatch.
//
// The intercept is estimated only for d = 0 unless Options.Intercept says
// otherwise.
package arima
