package main

import (
	forecaster "github.com/aouyang1/go-covid-forecaster"
	"github.com/aouyang1/go-covid-forecaster/forecast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Score each extrapolation model on the most recent days",
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := loadOptions(viper.GetViper())
		if err != nil {
			return err
		}
		opt.Models, _ = cmd.Flags().GetStringSlice("models")
		holdout, _ := cmd.Flags().GetInt("holdout")

		doc, err := loadFeed(cmd.Context(), viper.GetViper())
		if err != nil {
			return err
		}
		backtests, err := forecaster.RunBacktests(doc, opt, holdout)
		if err != nil {
			return err
		}
		return forecaster.BacktestTablePrint(cmd.OutOrStdout(), backtests, "", "  ")
	},
}

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.Flags().Int("holdout", 14, "number of most recent days to forecast")
	backtestCmd.Flags().StringSlice("models", forecast.Models, "extrapolation models to score")
}
