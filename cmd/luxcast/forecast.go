package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sartorproj/goarimax/arima"
	"github.com/sartorproj/goarimax/forecast"
	"github.com/sartorproj/goarimax/timeseries"
)

func forecastCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Refit on the training window and forecast the target year",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.load()
			if err != nil {
				return err
			}

			order, set, err := a.pick(cmd, ds)
			if err != nil {
				return err
			}

			trainEnd := a.cfg.Forecast.TrainEndYear
			if trainEnd == 0 {
				trainEnd = ds.series.MaxYear()
			}

			var labels []string
			if set != nil {
				labels = set.Labels()
			}
			row, err := a.cfg.FutureRow(trainEnd+a.cfg.Forecast.Horizon, labels)
			if err != nil {
				return err
			}

			res, err := forecast.Holdout(ds.series, set, order, trainEnd, row, a.cfg.EstimatorOptions(), a.cfg.ForecastOptions())
			if err != nil {
				return err
			}
			verdict := a.cfg.Suite().Evaluate(res.Model)

			log.Info().
				Str("order", order.String()).
				Str("set", setLabel(set)).
				Int("year", res.Year).
				Float64("point", res.Point).
				Bool("valid", verdict.Valid).
				Msg("Forecast ready")

			report := newForecastReport(res, setLabel(set), verdict)
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, report)
			}
			return report.writeText(out)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

// pick returns the configured order and regressor set, falling back to the
// top ranked search candidate for whichever is not configured.
func (a *app) pick(cmd *cobra.Command, ds *dataset) (arima.Order, *timeseries.RegressorSet, error) {
	fc := a.cfg.Forecast

	var set *timeseries.RegressorSet
	if fc.RegressorSet != "" {
		s, err := ds.set(fc.RegressorSet)
		if err != nil {
			return arima.Order{}, nil, err
		}
		set = s
	}

	if fc.Order != nil && (set != nil || len(ds.sets) == 0) {
		return fc.Order.Order(), set, nil
	}

	candidates := ds
	if set != nil {
		candidates = &dataset{series: ds.series, sets: []*timeseries.RegressorSet{set}}
	}
	res, err := a.search(cmd.Context(), candidates, nil)
	if err != nil {
		return arima.Order{}, nil, err
	}

	best := res.Best()
	if best == nil {
		ranked := res.RankedAll()
		if len(ranked) == 0 {
			return arima.Order{}, nil, fmt.Errorf("no candidate could be fitted")
		}
		log.Warn().Msg("No candidate passed the residual diagnostics; using the lowest AIC fit")
		best = ranked[0]
	}

	order := best.Order
	if fc.Order != nil {
		order = fc.Order.Order()
	}
	if set == nil {
		set = best.Model.Regressors
	}
	log.Info().Str("order", order.String()).Str("set", setLabel(set)).Msg("Selected model")
	return order, set, nil
}

func setLabel(set *timeseries.RegressorSet) string {
	if set == nil {
		return "none"
	}
	return set.Name
}
