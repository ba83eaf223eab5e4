package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "covidcast",
	Short: "Forecast vaccination progress and infections from the national corona dashboard.",
	Long: `covidcast downloads the national corona dashboard feed, extrapolates the daily
vaccinations until the estimated coverage target is reached and projects cases and intensive
care occupation three weeks ahead.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.covidcast.yaml)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error")

	rootCmd.PersistentFlags().String("url", "", "dashboard feed url")
	rootCmd.PersistentFlags().String("cache", "", "sqlite database caching downloaded feeds")
	rootCmd.PersistentFlags().String("archive", "", "zip archive holding a feed to fall back to")
	viper.BindPFlag("feed.url", rootCmd.PersistentFlags().Lookup("url"))
	viper.BindPFlag("feed.cache", rootCmd.PersistentFlags().Lookup("cache"))
	viper.BindPFlag("feed.archive", rootCmd.PersistentFlags().Lookup("archive"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".covidcast")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("covidcast")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if err := setLogLevel(levelString); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("unable to read config", "error", err)
		}
		return
	}
	slog.Debug("using config", "file", viper.ConfigFileUsed())
}

func setLogLevel(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("unknown log level %q, %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}
