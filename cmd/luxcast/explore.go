package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sartorproj/goarimax/stats"
)

func exploreCmd(a *app) *cobra.Command {
	var (
		lags int
		diff int
	)
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Print the ACF and PACF of the differenced target series",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.load()
			if err != nil {
				return err
			}

			d, err := ds.series.Difference(diff)
			if err != nil {
				return err
			}

			acf := stats.ACFWithConfidence(d.Values, lags)
			pacf := stats.PACFWithConfidence(d.Values, lags)
			if acf == nil || pacf == nil {
				return fmt.Errorf("series %q has no variation after %d differences", d.Name, diff)
			}

			return newExploreReport(d, acf, pacf).writeText(cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&lags, "lags", 10, "maximum lag")
	cmd.Flags().IntVar(&diff, "diff", 1, "differencing order")
	return cmd
}
