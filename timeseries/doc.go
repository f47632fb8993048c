// Package timeseries provides annual series and regressor structures.
//
// This package includes the Series type for an ordered annual series, the
// RegressorSet type for year-aligned exogenous covariates, and a CSV loader
// that aggregates irregular observations into one mean value per year.
//
// # Creating a Series
//
// Create a series from (year, value) pairs. Missing values are dropped:
//
//	series, err := timeseries.Load("growth", []timeseries.Point{
//	    {Year: 2003, Value: 4.1},
//	    {Year: 2004, Value: 5.3},
//	    {Year: 2005, Value: math.NaN()}, // dropped
//	})
//
// # Windowing and Differencing
//
// Both return new series and leave the receiver untouched:
//
//	train, err := series.Window(2021)   // years <= 2021
//	diff, err := series.Difference(1)   // first difference, one shorter
//
// # Regressors
//
// Build a regressor set aligned to the series years:
//
//	regs, err := timeseries.Build("macro", series.Years,
//	    timeseries.Covariate{Label: "gdp", Values: gdp},
//	    timeseries.Covariate{Label: "gini", Values: gini},
//	)
//	trainRegs := regs.Slice(func(y int) bool { return y <= 2021 })
//	future, err := regs.Row(2022)
//
// A covariate whose length differs from the number of years fails with
// ErrRegressorMisalignment; nothing is truncated silently.
//
// # Loading from CSV
//
// Load a table keyed by a year (or date) column. Every other column is
// averaged per year:
//
//	table, err := timeseries.LoadCSV("luxury.csv", nil)
//	series, err := table.Series("growth_rate")
//	regs, err := table.Regressors("macro", series.Years, "gdp", "gini")
package timeseries
