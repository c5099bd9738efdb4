package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/user/pageview-ranker/cmd/migrate"
	"github.com/user/pageview-ranker/cmd/run"
)

var root = &cobra.Command{
	Use:          "pageviews",
	Short:        "Rank the most viewed pages per domain from hourly Wikimedia dumps",
	SilenceUsage: true,
}

func main() {
	root.AddCommand(run.Command)
	root.AddCommand(migrate.Command)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
