// Package springer queries the Springer Nature metadata API.
package springer

import (
	"net/url"
	"strconv"

	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default Springer Nature API base URL.
	DefaultBaseURL = "https://api.springernature.com"

	// ParamAPIKey is the raw parameter carrying the API key.
	ParamAPIKey = "api_key"

	endpoint   = "/meta/v2/json"
	sourceName = "Springer Nature"
)

// Config holds configuration for the Springer adapter.
type Config struct {
	// BaseURL is the Springer Nature API base URL.
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
		Engine:   domain.EngineSpringer,
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
			values.Set("q", papersources.Query(p))
			values.Set("s", strconv.Itoa(start))
			values.Set("p", strconv.Itoa(rows))
			values.Set("api_key", p.Get(ParamAPIKey))
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
