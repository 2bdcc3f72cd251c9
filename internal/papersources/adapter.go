package papersources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/filter"
)

// Adapter executes searches for one engine as described by its Descriptor.
// An Adapter holds no per-request state and is safe for concurrent use.
type Adapter struct {
	descriptor Descriptor
	mapper     Mapper
	fetcher    Fetcher
	builder    filter.Builder
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithFilterBuilder sets the builder used to derive per-request filter chains.
func WithFilterBuilder(b filter.Builder) AdapterOption {
	return func(a *Adapter) {
		a.builder = b
	}
}

// NewAdapter binds a descriptor and a mapper to a fetcher.
func NewAdapter(d Descriptor, m Mapper, f Fetcher, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		descriptor: d,
		mapper:     m,
		fetcher:    f,
		builder:    filter.NewBuilder(nil),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Engine returns the engine this adapter queries.
func (a *Adapter) Engine() domain.Engine {
	return a.descriptor.Engine
}

// Descriptor returns the adapter's static descriptor.
func (a *Adapter) Descriptor() Descriptor {
	return a.descriptor
}

// RequiredParameters returns the raw parameters that must be present, in
// the order they are checked.
func (a *Adapter) RequiredParameters() []string {
	return append([]string(nil), a.descriptor.Required...)
}

// CheckRequired verifies every required parameter is present and non-blank.
func (a *Adapter) CheckRequired(params Params) error {
	for _, name := range a.descriptor.Required {
		if !params.Has(name) {
			return domain.NewMissingParameterError(a.descriptor.Engine, name)
		}
	}
	return nil
}

// MapParameters validates params and converts them to the engine's query
// parameters encoded as a query string.
func (a *Adapter) MapParameters(params Params) (string, error) {
	if err := a.CheckRequired(params); err != nil {
		return "", err
	}
	values, err := a.descriptor.MapParams(params)
	if err != nil {
		return "", err
	}
	return values.Encode(), nil
}

// BuildURL returns base + endpoint + "?" + the encoded query string.
func (a *Adapter) BuildURL(params Params) (string, error) {
	query, err := a.MapParameters(params)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(a.descriptor.BaseURL, "/") + a.descriptor.Endpoint + "?" + query, nil
}

// Request is a validated, ready to execute search for one engine.
// It owns the filter state of that single run.
type Request struct {
	engine     domain.Engine
	url        string
	chain      *filter.Chain
	duplicates *filter.DuplicateFilter
}

// URL returns the request URL.
func (r *Request) URL() string {
	return r.url
}

// Prepare validates params, builds the request URL and a fresh filter chain.
// No network call is made, so every parameter problem surfaces here.
func (a *Adapter) Prepare(params Params) (*Request, error) {
	searchURL, err := a.BuildURL(params)
	if err != nil {
		return nil, err
	}

	chain, err := a.builder.Build(params)
	if err != nil {
		return nil, err
	}
	duplicates := filter.NewDuplicateFilter()
	chain.Add(duplicates)

	return &Request{
		engine:     a.descriptor.Engine,
		url:        searchURL,
		chain:      chain,
		duplicates: duplicates,
	}, nil
}

// Execute fetches, maps and filters a prepared request. Transport failures
// return an UpstreamFetchError; a malformed payload yields an empty result
// with Degraded set.
func (a *Adapter) Execute(ctx context.Context, req *Request) (*SearchResult, error) {
	startTime := time.Now()

	body, err := a.fetcher.Fetch(ctx, req.url)
	if err != nil {
		return nil, domain.NewUpstreamFetchError(a.descriptor.Engine, req.url, err)
	}

	mapped := a.safeMap(body)
	if mapped.Err != nil {
		mapped.Articles = nil
	}

	articles := req.chain.Apply(mapped.Articles)
	impact, err := req.chain.Impact()
	if err != nil {
		return nil, fmt.Errorf("collecting filter statistics: %w", err)
	}
	dupStats, err := req.duplicates.Statistics()
	if err != nil {
		return nil, fmt.Errorf("collecting duplicate statistics: %w", err)
	}

	return &SearchResult{
		Engine:            a.descriptor.Engine,
		Articles:          articles,
		Fetched:           len(mapped.Articles),
		Filtered:          dupStats.Input,
		Skipped:           mapped.Skipped,
		FilterImpact:      impact,
		DuplicatesRemoved: dupStats.Dropped,
		Degraded:          mapped.Err,
		URL:               req.url,
		SearchDuration:    time.Since(startTime),
	}, nil
}

// Search prepares and executes a search in one call.
func (a *Adapter) Search(ctx context.Context, params Params) (*SearchResult, error) {
	req, err := a.Prepare(params)
	if err != nil {
		return nil, err
	}
	return a.Execute(ctx, req)
}

// safeMap runs the mapper, turning a panic into a malformed result.
func (a *Adapter) safeMap(body []byte) (result MapResult) {
	defer func() {
		if r := recover(); r != nil {
			result = Malformed(a.descriptor.Engine, a.descriptor.Format, fmt.Sprintf("mapper panic: %v", r))
		}
	}()
	return a.mapper.Map(body)
}
