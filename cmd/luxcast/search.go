package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sartorproj/goarimax/search"
)

func searchCmd(a *app) *cobra.Command {
	var (
		asJSON      bool
		all         bool
		metricsFile string
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Fit and diagnose every configured (regressor set, order) pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.load()
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			metrics, err := search.NewMetrics(reg)
			if err != nil {
				return err
			}

			res, searchErr := a.search(cmd.Context(), ds, metrics)
			if res == nil {
				return searchErr
			}

			ranked := res.Ranked()
			if !res.HasValid() {
				log.Warn().Msg("No candidate passed the residual diagnostics; ranking all fitted candidates")
				ranked = res.RankedAll()
			} else if all {
				ranked = res.RankedAll()
			}

			if metricsFile != "" {
				if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
					return fmt.Errorf("failed to write metrics: %w", err)
				}
				log.Info().Str("file", metricsFile).Msg("Wrote search metrics")
			}

			report := newSearchReport(res, ranked)
			out := cmd.OutOrStdout()
			if asJSON {
				err = writeJSON(out, report)
			} else {
				err = report.writeText(out)
			}
			if err != nil {
				return err
			}
			return searchErr
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&all, "all", false, "rank every fitted candidate, not only valid ones")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write search metrics in Prometheus text format")
	return cmd
}

// search runs the configured grid over every regressor set.
func (a *app) search(ctx context.Context, ds *dataset, metrics *search.Metrics) (*search.Result, error) {
	opts := a.cfg.SearchOptions()
	logger := log.Logger
	opts.Logger = &logger
	opts.Metrics = metrics

	res, err := search.SearchSets(ctx, ds.series, ds.sets, a.cfg.Orders(), opts)
	if err != nil && res != nil {
		log.Warn().Err(err).Int("skipped", countSkipped(res, err)).Msg("Search interrupted; reporting partial result")
	}
	return res, err
}

func countSkipped(res *search.Result, cause error) int {
	n := 0
	for _, f := range res.Failures {
		if errors.Is(f.Err, cause) {
			n++
		}
	}
	return n
}
