// Package scopus queries the Elsevier Scopus search API.
package scopus

import (
	"net/url"
	"strconv"

	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default Elsevier API base URL.
	DefaultBaseURL = "https://api.elsevier.com"

	// ParamAPIKey is the raw parameter carrying the API key.
	ParamAPIKey = "apiKey"

	// DOIBaseURL prefixes a DOI when no Scopus link is present.
	DOIBaseURL = "https://doi.org/"

	endpoint   = "/content/search/scopus"
	sourceName = "Scopus"
)

// Config holds configuration for the Scopus adapter.
type Config struct {
	// BaseURL is the Elsevier API base URL.
	BaseURL string

	// View selects the response detail level. COMPLETE includes the author
	// list but needs an entitled key; empty leaves the API default.
	View string
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
}

// Descriptor returns the static description of the engine.
func Descriptor(cfg Config) papersources.Descriptor {
	cfg.applyDefaults()
	return papersources.Descriptor{
		Engine:   domain.EngineScopus,
		Name:     sourceName,
		BaseURL:  cfg.BaseURL,
		Endpoint: endpoint,
		Format:   papersources.FormatJSON,
		Required: []string{papersources.ParamQuery, papersources.ParamStart, papersources.ParamRows, ParamAPIKey},
		KeyParam: ParamAPIKey,
		MapParams: func(p papersources.Params) (url.Values, error) {
			start, rows, err := papersources.Pagination(p)
			if err != nil {
				return nil, err
			}
			values := url.Values{}
			values.Set("query", papersources.Query(p))
			values.Set("start", strconv.Itoa(start*rows))
			values.Set("count", strconv.Itoa(rows))
			values.Set("apiKey", p.Get(ParamAPIKey))
			if cfg.View != "" {
				values.Set("view", cfg.View)
			}
			return values, nil
		},
	}
}

// New returns an adapter for the engine backed by fetcher.
func New(cfg Config, fetcher papersources.Fetcher, opts ...papersources.AdapterOption) *papersources.Adapter {
	return papersources.NewAdapter(Descriptor(cfg), NewMapper(), fetcher, opts...)
}

// Factory returns a registry factory for the engine.
func Factory(cfg Config, opts ...papersources.AdapterOption) papersources.Factory {
	return func(f papersources.Fetcher) *papersources.Adapter {
		return New(cfg, f, opts...)
	}
}
