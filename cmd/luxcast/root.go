package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sartorproj/goarimax/config"
	"github.com/sartorproj/goarimax/timeseries"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

// dataset is the target series and the configured regressor sets, aligned
// to the series years.
type dataset struct {
	series *timeseries.Series
	sets   []*timeseries.RegressorSet
}

func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "luxcast",
		Short:         "ARIMAX forecasting of the luxury market growth rate",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(a.logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", a.logLevel, err)
			}
			zerolog.SetGlobalLevel(level)

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			log.Debug().Str("config", a.configPath).Str("data", cfg.Data.File).Msg("Configuration loaded")
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "luxcast.yaml", "path to the YAML configuration")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(searchCmd(a), forecastCmd(a), exploreCmd(a))
	return root
}

// load reads the data table and builds the series and regressor sets.
func (a *app) load() (*dataset, error) {
	table, err := timeseries.LoadCSV(a.cfg.Data.File, a.cfg.CSVOptions())
	if err != nil {
		return nil, err
	}

	series, err := table.Series(a.cfg.Data.TargetColumn)
	if err != nil {
		return nil, err
	}

	ds := &dataset{series: series}
	for _, rs := range a.cfg.RegressorSets {
		set, err := table.Regressors(rs.Name, series.Years, rs.Columns...)
		if err != nil {
			return nil, fmt.Errorf("regressor set %q: %w", rs.Name, err)
		}
		ds.sets = append(ds.sets, set)
	}

	log.Info().
		Str("target", series.Name).
		Int("years", series.Len()).
		Int("from", series.MinYear()).
		Int("to", series.MaxYear()).
		Int("regressor_sets", len(ds.sets)).
		Msg("Loaded data")
	return ds, nil
}

// set returns the loaded regressor set with the given name.
func (d *dataset) set(name string) (*timeseries.RegressorSet, error) {
	for _, s := range d.sets {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("regressor set %q is not configured", name)
}
