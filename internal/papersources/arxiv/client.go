// Package arxiv queries the arXiv export API, which answers with Atom feeds.
package arxiv

import (
	"net/url"
	"strconv"

	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org"

	// Venue is the fixed venue reported for every arXiv article.
	Venue = "arXiv"

	endpoint   = "/api/query"
	sourceName = "arXiv"
)

// Config holds configuration for the arXiv adapter.
type Config struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string

	// SortBy is passed as sortBy when set, e.g. "relevance" or "submittedDate".
	SortBy string
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
		Engine:   domain.EngineArXiv,
		Name:     sourceName,
		BaseURL:  cfg.BaseURL,
		Endpoint: endpoint,
		Format:   papersources.FormatAtom,
		Required: []string{papersources.ParamQuery, papersources.ParamStart, papersources.ParamRows},
		MapParams: func(p papersources.Params) (url.Values, error) {
			start, rows, err := papersources.Pagination(p)
			if err != nil {
				return nil, err
			}
			values := url.Values{}
			values.Set("search_query", "all:"+papersources.Query(p))
			values.Set("start", strconv.Itoa(start*rows))
			values.Set("max_results", strconv.Itoa(rows))
			if cfg.SortBy != "" {
				values.Set("sortBy", cfg.SortBy)
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
