// Package papersources provides the per-engine adapters that turn a uniform
// query into source-specific requests and normalize the responses.
//
// Every engine is described by data: a Descriptor (endpoint, format, required
// parameters and a parameter mapping rule) and a Mapper for its response
// format. One Adapter type executes any descriptor, so adding an engine means
// adding a descriptor and a mapper, not a new code path.
//
// Example usage:
//
//	adapter := papersources.NewAdapter(arxiv.Descriptor(arxiv.Config{}), arxiv.NewMapper(), fetcher)
//	params := papersources.NewParams(map[string]string{"q": "graph neural networks", "start": "0", "rows": "25"})
//	result, err := adapter.Search(ctx, params)
package papersources

import (
	"context"
	"net/url"
	"time"

	"github.com/helixir/literature-search-service/internal/domain"
)

// Format identifies the wire format of an engine's responses.
type Format string

const (
	FormatJSON   Format = "json"
	FormatAtom   Format = "atom"
	FormatBibTeX Format = "bibtex"
)

// Descriptor is the static description of one engine.
type Descriptor struct {
	// Engine identifies the engine.
	Engine domain.Engine

	// Name is a human-readable name used in logs and listings.
	Name string

	// BaseURL is the scheme and host of the API, e.g. "https://api.crossref.org".
	BaseURL string

	// Endpoint is the path appended to BaseURL, e.g. "/works".
	Endpoint string

	// Format is the response format the engine returns.
	Format Format

	// Required lists the raw parameters that must be present and non-blank,
	// in the order they are checked.
	Required []string

	// KeyParam is the raw parameter that carries the engine's API key, or ""
	// when the engine does not take one.
	KeyParam string

	// MapParams converts raw parameters into the engine's query parameters.
	// It must be pure.
	MapParams func(Params) (url.Values, error)
}

// Mapper normalizes one raw response body into canonical articles.
type Mapper interface {
	Map(body []byte) MapResult
}

// MapperFunc adapts a function to the Mapper interface.
type MapperFunc func(body []byte) MapResult

// Map calls f(body).
func (f MapperFunc) Map(body []byte) MapResult {
	return f(body)
}

// MapResult is the outcome of mapping one response.
// Err is set only when the payload as a whole could not be understood; in
// that case Articles is empty. Malformed individual records degrade to
// default field values and never set Err.
type MapResult struct {
	Articles []domain.Article
	Err      error
	// Skipped counts records too broken to yield an article.
	Skipped int
}

// Malformed returns an empty result carrying reason as a MalformedResponseError.
func Malformed(engine domain.Engine, format Format, reason string) MapResult {
	return MapResult{Err: domain.NewMalformedResponseError(engine, string(format), reason)}
}

// Fetcher retrieves the raw body behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch calls f(ctx, url).
func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// SearchResult contains the outcome of one engine search.
type SearchResult struct {
	// Engine identifies which engine produced the result.
	Engine domain.Engine

	// Articles holds the articles that survived the engine's filter chain,
	// in the order the engine returned them.
	Articles []domain.Article

	// Fetched is the number of articles the mapper produced before filtering.
	Fetched int

	// Skipped counts records the mapper could not read at all.
	Skipped int

	// Filtered counts the articles that passed the request's filters, before
	// the engine-local duplicate pass.
	Filtered int

	// FilterImpact maps filter name to the statistics of its run.
	FilterImpact map[string]domain.ExecutionStatistics

	// DuplicatesRemoved counts articles dropped by the engine-local duplicate pass.
	DuplicatesRemoved int

	// Degraded is set when the response could not be mapped; Articles is
	// then empty.
	Degraded error

	// URL is the request URL that was fetched.
	URL string

	// SearchDuration is the time taken to fetch, map and filter.
	SearchDuration time.Duration
}
