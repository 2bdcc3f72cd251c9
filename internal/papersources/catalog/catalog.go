// Package catalog wires the built-in engines into a registry from
// configuration.
package catalog

import (
	"github.com/helixir/literature-search-service/internal/config"
	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/papersources"
	"github.com/helixir/literature-search-service/internal/papersources/acm"
	"github.com/helixir/literature-search-service/internal/papersources/arxiv"
	"github.com/helixir/literature-search-service/internal/papersources/hal"
	"github.com/helixir/literature-search-service/internal/papersources/scopus"
	"github.com/helixir/literature-search-service/internal/papersources/springer"
)

// acceptHeaders maps response formats to the Accept header sent upstream.
var acceptHeaders = map[papersources.Format]string{
	papersources.FormatJSON:   "application/json",
	papersources.FormatAtom:   "application/atom+xml",
	papersources.FormatBibTeX: "text/plain",
}

// NewRegistry registers a factory for every enabled engine in cfg.
func NewRegistry(cfg config.PaperSourcesConfig, opts ...papersources.AdapterOption) *papersources.Registry {
	registry := papersources.NewRegistry()

	if cfg.ACM.Enabled {
		registry.Register(domain.EngineACM, acm.Factory(acm.Config{
			BaseURL: cfg.ACM.BaseURL,
			Filter:  cfg.ACM.Filter,
			Mailto:  cfg.ACM.Mailto,
		}, opts...))
	}
	if cfg.HAL.Enabled {
		registry.Register(domain.EngineHAL, hal.Factory(hal.Config{BaseURL: cfg.HAL.BaseURL}, opts...))
	}
	if cfg.Springer.Enabled {
		registry.Register(domain.EngineSpringer, springer.Factory(springer.Config{BaseURL: cfg.Springer.BaseURL}, opts...))
	}
	if cfg.Scopus.Enabled {
		registry.Register(domain.EngineScopus, scopus.Factory(scopus.Config{BaseURL: cfg.Scopus.BaseURL}, opts...))
	}
	if cfg.ArXiv.Enabled {
		registry.Register(domain.EngineArXiv, arxiv.Factory(arxiv.Config{BaseURL: cfg.ArXiv.BaseURL}, opts...))
	}

	return registry
}

// NewDefaultRegistry registers all five engines against their public
// endpoints.
func NewDefaultRegistry(opts ...papersources.AdapterOption) *papersources.Registry {
	registry := papersources.NewRegistry()
	registry.Register(domain.EngineACM, acm.Factory(acm.Config{}, opts...))
	registry.Register(domain.EngineHAL, hal.Factory(hal.Config{}, opts...))
	registry.Register(domain.EngineSpringer, springer.Factory(springer.Config{}, opts...))
	registry.Register(domain.EngineScopus, scopus.Factory(scopus.Config{}, opts...))
	registry.Register(domain.EngineArXiv, arxiv.Factory(arxiv.Config{}, opts...))
	return registry
}

// NewFetchers builds one rate-limited HTTP client per engine registered in
// registry, using that engine's transport settings from cfg. observer may
// be nil.
func NewFetchers(
	registry *papersources.Registry,
	cfg config.PaperSourcesConfig,
	observer papersources.RequestObserver,
) map[domain.Engine]papersources.Fetcher {
	settings := cfg.ByEngine()
	fetchers := make(map[domain.Engine]papersources.Fetcher)

	for _, d := range registry.Descriptors() {
		sc := settings[d.Engine]
		fetchers[d.Engine] = papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Source:     string(d.Engine),
			Timeout:    sc.Timeout,
			RateLimit:  sc.RateLimit,
			BurstSize:  sc.BurstSize,
			MaxRetries: sc.MaxRetries,
			RetryDelay: sc.RetryDelay,
			Accept:     acceptHeaders[d.Format],
			Observer:   observer,
		})
	}

	return fetchers
}
