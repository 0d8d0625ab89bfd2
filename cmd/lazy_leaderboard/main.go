package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "lazy_leaderboard",
		Short:        "Lazy Lions holder leaderboard and ENS name cache",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "cfg.toml", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, health server and daily refresh scheduler",
		RunE:  runServe,
	}
	root.AddCommand(serveCmd)

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run one ENS refresh pass and print the summary",
		RunE:  runRefresh,
	}
	refreshCmd.Flags().Duration("timeout", 0, "abort the refresh after this duration, 0 means no limit")
	root.AddCommand(refreshCmd)

	lookupCmd := &cobra.Command{
		Use:   "lookup <address>...",
		Short: "Read cached ENS names, optionally resolving misses on chain",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runLookup,
	}
	lookupCmd.Flags().Bool("live", false, "resolve cache misses on chain and store the result")
	root.AddCommand(lookupCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
