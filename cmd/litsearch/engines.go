package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newEnginesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engines",
		Short: "List the enabled engines and their required parameters",
		Args:  cobra.NoArgs,
		RunE:  runEngines,
	}
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

type engineListing struct {
	Engine   string   `json:"engine"`
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	Format   string   `json:"format"`
	Required []string `json:"required_parameters"`
	APIKey   bool     `json:"requires_api_key"`
}

func runEngines(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	agg, err := newAggregator(cfg, newCLILogger(cmd))
	if err != nil {
		return err
	}

	descriptors := agg.Descriptors()
	listings := make([]engineListing, len(descriptors))
	for i, d := range descriptors {
		listings[i] = engineListing{
			Engine:   string(d.Engine),
			Name:     d.Name,
			URL:      d.BaseURL + d.Endpoint,
			Format:   string(d.Format),
			Required: d.Required,
			APIKey:   d.KeyParam != "",
		}
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(listings)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENGINE\tNAME\tFORMAT\tAPI KEY\tREQUIRED\tURL")
	for _, l := range listings {
		key := "no"
		if l.APIKey {
			key = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", l.Engine, l.Name, l.Format, key, strings.Join(l.Required, ","), l.URL)
	}
	return tw.Flush()
}
