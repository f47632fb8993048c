// Package goarimax forecasts the annual growth rate of the luxury market
// with regression models whose errors follow an ARIMA process.
//
// The model for a series y with regressors x is
//
//	(1-B)^d y_t = c + x_t'β + z_t,   φ(B) z_t = θ(B) e_t
//
// where the regressors enter undifferenced and e_t is white noise.
//
// # Workflow
//
// Load the annual table and build the target series and a regressor set:
//
//	table, _ := timeseries.LoadCSV("lux.csv", nil)
//	series, _ := table.Series("growth_rate")
//	regs, _ := table.Regressors("macro", series.Years, "gdp_growth", "gini")
//
// Search a grid of orders, keeping only fits whose residuals pass the
// Ljung-Box, Shapiro-Wilk and Breusch-Pagan tests:
//
//	res, _ := search.Search(ctx, series, regs, search.DefaultGrid(), nil)
//	best := res.Best()
//
// Refit on a training window and forecast the following year:
//
//	fc, _ := forecast.Holdout(series, regs, best.Order, 2021, timeseries.Row{}, nil, nil)
//
// # Packages
//
//   - timeseries: annual series, regressor sets and CSV loading
//   - stats: correlograms, portmanteau tests, OLS and residual tests
//   - arima: conditional sum of squares estimation and projection
//   - diagnostics: the residual test suite and its verdict
//   - search: concurrent evaluation and ranking of candidate models
//   - forecast: point forecasts, intervals and holdout errors
//   - config: YAML configuration for the luxcast command
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Royston, P. (1995). Remark AS R94: A Remark on Algorithm AS 181
//   - Koenker, R. (1981). A Note on Studentizing a Test for Heteroscedasticity
package goarimax
