package main

import (
	"fmt"
	"os"
	"time"

	forecaster "github.com/aouyang1/go-covid-forecaster"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Forecast vaccinations and project infections",
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := loadOptions(viper.GetViper())
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("models") {
			opt.Models, _ = cmd.Flags().GetStringSlice("models")
		}
		if cmd.Flags().Changed("shift") {
			opt.Shift, _ = cmd.Flags().GetInt("shift")
		}

		doc, err := loadFeed(cmd.Context(), viper.GetViper())
		if err != nil {
			return err
		}

		res, err := forecaster.Run(doc, opt, time.Now())
		if err != nil {
			return err
		}

		if output, _ := cmd.Flags().GetString("output"); output != "" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := res.WriteJSON(f); err != nil {
				return err
			}
		}
		if plot, _ := cmd.Flags().GetString("plot"); plot != "" {
			if err := forecaster.PlotResults(res, plot, opt.CaseLevels); err != nil {
				return fmt.Errorf("unable to plot results, %w", err)
			}
		}
		return res.TablePrint(cmd.OutOrStdout(), "", "  ")
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("output", "o", "results.json", "write the results as json to this file")
	runCmd.Flags().StringP("plot", "p", "results.html", "write the charts to this html file")
	runCmd.Flags().StringSlice("models", nil, "extrapolation models to run: exponential, linear, no_growth")
	runCmd.Flags().Int("shift", 0, "days of incomplete reporting to compensate for in the projections")
}
