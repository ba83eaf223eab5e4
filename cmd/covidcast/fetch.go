package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/aouyang1/go-covid-forecaster/feed"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errNoCache = errors.New("no cache configured, set --cache or feed.cache")

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the feed and store a snapshot in the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		if v.GetString("feed.cache") == "" {
			return errNoCache
		}
		cache, err := feed.OpenCache(v.GetString("feed.cache"))
		if err != nil {
			return err
		}
		defer cache.Close()

		ctx := cmd.Context()
		if list, _ := cmd.Flags().GetInt("list"); list > 0 {
			snaps, err := cache.List(ctx, list)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(snaps, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		}

		client := feed.NewClient(v.GetString("feed.url"), v.GetInt("feed.retry_max"))
		raw, err := client.Fetch(ctx)
		if err != nil {
			return err
		}
		doc, err := feed.Parse(raw)
		if err != nil {
			return err
		}
		id, err := cache.Store(ctx, doc, time.Now(), client.URL())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored snapshot %d with %d series\n", id, len(doc.Keys()))

		if keep, _ := cmd.Flags().GetInt("keep"); keep > 0 {
			removed, err := cache.Prune(ctx, keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d snapshots\n", removed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().Int("keep", 0, "keep only this many most recent snapshots")
	fetchCmd.Flags().Int("list", 0, "list this many most recent snapshots instead of fetching")
}
