// Package forecast produces point forecasts and prediction intervals from a
// fitted ARIMAX model and scores them against realised values.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/goarimax/arima"
	"github.com/sartorproj/goarimax/timeseries"
)

var (
	ErrRegressorShapeMismatch = errors.New("regressor shape mismatch")
	ErrInvalidOption          = errors.New("invalid option")
)

// Options configures a forecast.
type Options struct {
	Horizon    int      // Steps ahead of the last observed year (default: 1)
	Confidence float64  // Interval coverage in (0, 1) (default: 0.95)
	Actual     *float64 // Realised value at the target year, if known
}

// DefaultOptions returns a one-step forecast with a 95% interval.
func DefaultOptions() *Options {
	return &Options{Horizon: 1, Confidence: 0.95}
}

func (o *Options) validate() error {
	if o.Horizon < 1 {
		return fmt.Errorf("%w: horizon %d, must be at least 1", ErrInvalidOption, o.Horizon)
	}
	if !(o.Confidence > 0 && o.Confidence < 1) {
		return fmt.Errorf("%w: confidence %v, must be in (0, 1)", ErrInvalidOption, o.Confidence)
	}
	return nil
}

// Result is a forecast for the target year, Horizon years after the last
// observation.
type Result struct {
	Model      *arima.Model
	Horizon    int
	Year       int
	Point      float64
	StdErr     float64
	Confidence float64
	Lower      float64
	Upper      float64
	Path       []float64 // Point forecasts for steps 1..Horizon

	// Set only when an actual value is known. Both are NaN otherwise, and
	// PercentageError is NaN when the actual is zero.
	Actual          *float64
	AbsoluteError   float64
	PercentageError float64
}

// HasActual reports whether the forecast was scored against a realised value.
func (r *Result) HasActual() bool {
	return r.Actual != nil
}

// Forecast predicts the series Horizon years past the model's last
// observation. row holds the regressor values assumed for every future
// year, with labels in the model's regressor order.
func Forecast(model *arima.Model, row timeseries.Row, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	labels := model.Labels()
	if len(row.Values) != len(row.Labels) || !slices.Equal(labels, row.Labels) {
		return nil, fmt.Errorf("%w: model expects %v, row has %v",
			ErrRegressorShapeMismatch, labels, row.Labels)
	}
	for i, v := range row.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s is not finite", ErrRegressorShapeMismatch, row.Labels[i])
		}
	}

	h := opts.Horizon
	path, err := model.Project(h, row.Values)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegressorShapeMismatch, err)
	}

	sum := 0.0
	for _, psi := range model.PsiWeights(h) {
		sum += psi * psi
	}
	se := math.Sqrt(model.Variance * sum)
	z := distuv.UnitNormal.Quantile((1 + opts.Confidence) / 2)

	point := path[h-1]
	res := &Result{
		Model:           model,
		Horizon:         h,
		Year:            model.Series().MaxYear() + h,
		Point:           point,
		StdErr:          se,
		Confidence:      opts.Confidence,
		Lower:           point - z*se,
		Upper:           point + z*se,
		Path:            path,
		AbsoluteError:   math.NaN(),
		PercentageError: math.NaN(),
	}

	if opts.Actual != nil {
		actual := *opts.Actual
		res.Actual = &actual
		res.AbsoluteError, res.PercentageError = Errors(point, actual)
	}
	return res, nil
}

// Errors returns |actual - point| and that error as a percentage of
// |actual|. The percentage is NaN when actual is zero.
func Errors(point, actual float64) (abs, pct float64) {
	abs = math.Abs(actual - point)
	if actual == 0 {
		return abs, math.NaN()
	}
	return abs, 100 * abs / math.Abs(actual)
}

// Holdout refits the model on the years up to trainEnd, slicing the
// regressors in lockstep, and forecasts Horizon years ahead. When row has
// no labels and the model uses regressors, the row for the target year is
// taken from regressors. When opts.Actual is nil the series value at the
// target year, if present, is used as the actual.
func Holdout(series *timeseries.Series, regressors *timeseries.RegressorSet, order arima.Order, trainEnd int,
	row timeseries.Row, est *arima.Options, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	train, err := series.Window(trainEnd)
	if err != nil {
		return nil, err
	}

	var trainRegs *timeseries.RegressorSet
	if regressors != nil {
		trainRegs = regressors.Slice(func(year int) bool { return year <= trainEnd })
	}

	model, err := arima.Fit(train, order, trainRegs, est)
	if err != nil {
		return nil, err
	}

	target := train.MaxYear() + opts.Horizon
	if len(row.Labels) == 0 && trainRegs != nil && trainRegs.Width() > 0 {
		row, err = regressors.Row(target)
		if err != nil {
			return nil, fmt.Errorf("%w: no future regressor row: %w", ErrRegressorShapeMismatch, err)
		}
	}

	scored := *opts
	if scored.Actual == nil {
		if v, ok := series.Value(target); ok {
			scored.Actual = &v
		}
	}

	return Forecast(model, row, &scored)
}
