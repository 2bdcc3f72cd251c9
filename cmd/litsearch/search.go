package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/helixir/literature-search-service/internal/aggregator"
	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/filter"
	"github.com/helixir/literature-search-service/internal/papersources"
)

// filterFlags maps CLI flag names to filter parameters.
var filterFlags = []struct {
	flag  string
	param string
	usage string
}{
	{"min-year", filter.ParamMinYear, "earliest publication year (inclusive)"},
	{"max-year", filter.ParamMaxYear, "latest publication year (inclusive)"},
	{"author", filter.ParamAuthor, "keep articles with an author containing this text"},
	{"exclude-author", filter.ParamExcludeAuthor, "drop articles with an author containing this text"},
	{"venue", filter.ParamVenue, "keep articles whose venue contains this text"},
	{"exclude-venue", filter.ParamExcludeVenue, "drop articles whose venue contains this text"},
	{"title", filter.ParamTitle, "keep articles with exactly this title"},
	{"exclude-title", filter.ParamExcludeTitle, "drop articles with exactly this title"},
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one aggregated search and print the result as JSON",
		Long: `Search sends the query to every selected engine concurrently, applies the
requested filters per engine, removes duplicate titles across engines and
prints the aggregated result.`,
		Example: `  litsearch search "graph neural networks" --source acm,arxiv --rows 10
  litsearch search transformers --min-year 2020 --exclude-venue workshop`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().String("source", "", "comma-separated engines to query (default: all enabled)")
	cmd.Flags().Int("start", 0, "offset of the first result per engine")
	cmd.Flags().Int("rows", 0, "results requested per engine (default: aggregation.default_rows)")
	for _, f := range filterFlags {
		cmd.Flags().String(f.flag, "", f.usage)
	}
	cmd.Flags().StringToString("api-key", nil, "per-engine API key, e.g. --api-key springer=KEY")
	cmd.Flags().Duration("timeout", 0, "overall search timeout (default: aggregation.request_timeout)")
	cmd.Flags().Bool("compact", false, "print JSON on a single line")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newCLILogger(cmd)

	agg, err := newAggregator(cfg, logger)
	if err != nil {
		return err
	}

	params, err := searchParams(cmd, args, cfg.Aggregation.DefaultRows)
	if err != nil {
		return err
	}
	keys, err := apiKeys(cmd)
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = cfg.Aggregation.RequestTimeout
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := agg.Search(ctx, aggregator.Request{Params: params, APIKeys: keys})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	logger.Info().Dur("duration", time.Since(start)).Msg("search finished")

	compact, _ := cmd.Flags().GetBool("compact")
	enc := json.NewEncoder(cmd.OutOrStdout())
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

// searchParams turns arguments and flags into raw request parameters. Only
// flags the user set are forwarded, so an unset filter never reaches the
// filter builder.
func searchParams(cmd *cobra.Command, args []string, defaultRows int) (map[string]string, error) {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return nil, domain.NewValidationError(papersources.ParamQuery, "is required")
	}

	start, _ := cmd.Flags().GetInt("start")
	rows, _ := cmd.Flags().GetInt("rows")
	if !cmd.Flags().Changed("rows") && defaultRows > 0 {
		rows = defaultRows
	}

	params := map[string]string{
		papersources.ParamQuery: query,
		papersources.ParamStart: strconv.Itoa(start),
		papersources.ParamRows:  strconv.Itoa(rows),
	}
	if source, _ := cmd.Flags().GetString("source"); source != "" {
		params[papersources.ParamSource] = source
	}
	for _, f := range filterFlags {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		v, _ := cmd.Flags().GetString(f.flag)
		params[f.param] = v
	}
	return params, nil
}

func apiKeys(cmd *cobra.Command) (map[domain.Engine]string, error) {
	raw, _ := cmd.Flags().GetStringToString("api-key")
	if len(raw) == 0 {
		return nil, nil
	}
	keys := make(map[domain.Engine]string, len(raw))
	for name, key := range raw {
		engine, err := domain.ParseEngine(name)
		if err != nil {
			return nil, fmt.Errorf("--api-key: %w", err)
		}
		keys[engine] = key
	}
	return keys, nil
}
