// Package main is the entry point for the litsearch CLI, which runs
// aggregated searches without starting the HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/helixir/literature-search-service/internal/aggregator"
	"github.com/helixir/literature-search-service/internal/config"
	"github.com/helixir/literature-search-service/internal/observability"
	"github.com/helixir/literature-search-service/internal/papersources"
	"github.com/helixir/literature-search-service/internal/papersources/catalog"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "litsearch",
		Short: "Search scholarly engines from the command line",
		Long: `litsearch queries the configured scholarly engines (ACM via Crossref, HAL,
Springer, Scopus and arXiv) concurrently and prints one merged, deduplicated
result. Configuration is read the same way as the server: config.yaml plus
LITSEARCH_* environment variables. API keys come from the environment or
from --api-key.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file (default: ./config.yaml or /etc/literature-search-service/config.yaml)")
	root.PersistentFlags().String("log-level", "warn", "log level written to stderr")

	root.AddCommand(newSearchCmd(), newEnginesCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of litsearch",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "litsearch %s\n", version)
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.LoadFile(path)
}

func newCLILogger(cmd *cobra.Command) zerolog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return observability.NewLogger(observability.LoggingConfig{
		Service: "litsearch",
		Level:   level,
		Format:  "console",
		Output:  "stderr",
	})
}

// newAggregator wires the configured engines without metrics or events.
func newAggregator(cfg *config.Config, logger zerolog.Logger) (*aggregator.Aggregator, error) {
	policy, err := aggregator.ParseFailurePolicy(cfg.Aggregation.FailurePolicy)
	if err != nil {
		return nil, err
	}

	registry := catalog.NewRegistry(cfg.PaperSources)
	fetchers := catalog.NewFetchers(registry, cfg.PaperSources, nil)
	defaultFetcher := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:  "default",
		Timeout: cfg.Aggregation.RequestTimeout,
	})

	return aggregator.New(registry, defaultFetcher, aggregator.Config{
		FailurePolicy: policy,
		APIKeys:       cfg.PaperSources.APIKeys(),
	},
		aggregator.WithLogger(logger),
		aggregator.WithFetchers(fetchers),
	), nil
}
