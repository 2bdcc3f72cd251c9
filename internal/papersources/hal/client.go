// Package hal queries the HAL open archive search API, which returns
// BibTeX when asked with wt=bibtex.
package hal

import (
	"net/url"
	"strconv"

	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default HAL API base URL.
	DefaultBaseURL = "https://api.archives-ouvertes.fr"

	// DocumentBaseURL prefixes a HAL identifier to form a landing page link.
	DocumentBaseURL = "https://hal.science/"

	endpoint   = "/search/"
	sourceName = "HAL"
)

// Config holds configuration for the HAL adapter.
type Config struct {
	// BaseURL is the HAL API base URL.
	BaseURL string
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
		Engine:   domain.EngineHAL,
		Name:     sourceName,
		BaseURL:  cfg.BaseURL,
		Endpoint: endpoint,
		Format:   papersources.FormatBibTeX,
		Required: []string{papersources.ParamQuery, papersources.ParamStart, papersources.ParamRows},
		MapParams: func(p papersources.Params) (url.Values, error) {
			start, rows, err := papersources.Pagination(p)
			if err != nil {
				return nil, err
			}
			values := url.Values{}
			values.Set("q", papersources.Query(p))
			// HAL takes a record offset, not a page number.
			values.Set("start", strconv.Itoa(start))
			values.Set("rows", strconv.Itoa(rows))
			values.Set("wt", "bibtex")
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
