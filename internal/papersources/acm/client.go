// Package acm queries the ACM Digital Library through the Crossref works API,
// restricted to ACM's DOI prefix.
package acm

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default Crossref API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultFilter restricts results to ACM's DOI prefix.
	DefaultFilter = "prefix:10.1145"

	endpoint   = "/works"
	sourceName = "ACM Digital Library"

	// ParamFilter overrides the configured Crossref filter for one request.
	ParamFilter = "filter"
)

// Config holds configuration for the ACM adapter.
type Config struct {
	// BaseURL is the Crossref API base URL.
	BaseURL string

	// Filter is passed through as Crossref's filter parameter.
	Filter string

	// Mailto identifies the caller for Crossref's polite pool. Optional.
	Mailto string
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Filter == "" {
		c.Filter = DefaultFilter
	}
}

// Descriptor returns the static description of the engine.
func Descriptor(cfg Config) papersources.Descriptor {
	cfg.applyDefaults()
	return papersources.Descriptor{
		Engine:   domain.EngineACM,
		Name:     sourceName,
		BaseURL:  cfg.BaseURL,
		Endpoint: endpoint,
		Format:   papersources.FormatJSON,
		Required: []string{papersources.ParamQuery, papersources.ParamStart, papersources.ParamRows},
		MapParams: func(p papersources.Params) (url.Values, error) {
			start, rows, err := papersources.Pagination(p)
			if err != nil {
				return nil, err
			}
			values := url.Values{}
			values.Set("query.bibliographic", papersources.Query(p))
			values.Set("offset", strconv.Itoa(start*rows))
			values.Set("rows", strconv.Itoa(rows))
			filter := strings.TrimSpace(p.Get(ParamFilter))
			if filter == "" {
				filter = cfg.Filter
			}
			values.Set("filter", filter)
			if cfg.Mailto != "" {
				values.Set("mailto", cfg.Mailto)
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
