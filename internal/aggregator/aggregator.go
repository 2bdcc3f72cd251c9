// Package aggregator fans one query out across the selected engines, merges
// the per-engine results in selection order and removes duplicates across
// engines.
package aggregator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/filter"
	"github.com/helixir/literature-search-service/internal/observability"
	"github.com/helixir/literature-search-service/internal/papersources"
)

// FailurePolicy decides what an upstream fetch failure of one engine does to
// the aggregated request.
type FailurePolicy string

const (
	// FailurePolicyIsolate reports the failing engine with zero articles and
	// returns the results of the others.
	FailurePolicyIsolate FailurePolicy = "isolate"

	// FailurePolicyFailFast aborts the request on the first failure and
	// cancels the outstanding engine calls.
	FailurePolicyFailFast FailurePolicy = "fail_fast"
)

// ParseFailurePolicy converts a configuration value to a FailurePolicy.
// A blank value selects FailurePolicyIsolate.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FailurePolicyIsolate:
		return FailurePolicyIsolate, nil
	case FailurePolicyFailFast:
		return FailurePolicyFailFast, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

// Publisher receives a summary of every successful aggregated search.
type Publisher interface {
	PublishSearchCompleted(ctx context.Context, engines []domain.Engine, result *domain.AggregatedResult) error
}

// Config holds orchestrator settings.
type Config struct {
	// FailurePolicy applies to upstream fetch failures. Malformed payloads
	// always degrade to an empty engine result under either policy.
	FailurePolicy FailurePolicy

	// APIKeys holds the configured key of every engine that takes one.
	// Keys passed with a Request take precedence.
	APIKeys map[domain.Engine]string

	// PublishTimeout bounds one event publish. Zero means DefaultPublishTimeout.
	PublishTimeout time.Duration
}

// DefaultPublishTimeout bounds an event publish when Config leaves it unset.
const DefaultPublishTimeout = 5 * time.Second

// Request is one aggregated search.
type Request struct {
	// Params holds the raw request parameters. It is never modified.
	Params map[string]string

	// APIKeys optionally overrides the configured key per engine.
	APIKeys map[domain.Engine]string
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = observability.WithComponent(logger, "aggregator")
	}
}

// WithMetrics sets the metrics recorder. nil disables metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// WithPublisher sets the publisher notified after each successful search.
func WithPublisher(p Publisher) Option {
	return func(a *Aggregator) {
		a.publisher = p
	}
}

// WithFetchers sets per-engine fetchers. Engines without an entry use the
// default fetcher.
func WithFetchers(fetchers map[domain.Engine]papersources.Fetcher) Option {
	return func(a *Aggregator) {
		a.fetchers = fetchers
	}
}

// Aggregator runs aggregated searches. It holds no per-request state and is
// safe for concurrent use.
type Aggregator struct {
	registry  *papersources.Registry
	fetcher   papersources.Fetcher
	fetchers  map[domain.Engine]papersources.Fetcher
	config    Config
	logger    zerolog.Logger
	metrics   *observability.Metrics
	publisher Publisher

	// publishing tracks events still being written.
	publishing sync.WaitGroup
}

// New creates an Aggregator over the engines in registry. fetcher serves
// every engine that has no dedicated fetcher.
func New(registry *papersources.Registry, fetcher papersources.Fetcher, cfg Config, opts ...Option) *Aggregator {
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = FailurePolicyIsolate
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultPublishTimeout
	}
	a := &Aggregator{
		registry: registry,
		fetcher:  fetcher,
		config:   cfg,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Engines returns the engines this aggregator can query.
func (a *Aggregator) Engines() []domain.Engine {
	return a.registry.Engines()
}

// Descriptors returns the descriptor of every queryable engine.
func (a *Aggregator) Descriptors() []papersources.Descriptor {
	return a.registry.Descriptors()
}

// Wait blocks until every event publish started by Search has finished.
// Call it before closing the publisher.
func (a *Aggregator) Wait() {
	a.publishing.Wait()
}

// job is one prepared engine search.
type job struct {
	adapter *papersources.Adapter
	request *papersources.Request
}

// outcome is what one engine goroutine produced.
type outcome struct {
	result   *papersources.SearchResult
	err      error
	duration time.Duration
}

// Search runs an aggregated search.
//
// Every parameter problem of every selected engine is reported before any
// network call. Engines are then queried concurrently; cancelling ctx
// cancels all outstanding calls.
func (a *Aggregator) Search(ctx context.Context, req Request) (*domain.AggregatedResult, error) {
	start := time.Now()
	base := papersources.NewParams(req.Params)
	logger := observability.WithSearchContext(
		observability.LoggerFromContext(ctx, a.logger),
		base.Get(papersources.ParamQuery),
		base.Get(papersources.ParamSource),
	)

	engines, result, err := a.search(ctx, base, req.APIKeys, logger)
	if err != nil {
		if a.metrics != nil {
			a.metrics.RecordAggregateFailed(time.Since(start).Seconds())
		}
		logger.Warn().Err(err).Msg("aggregated search failed")
		return nil, err
	}

	if a.metrics != nil {
		a.metrics.RecordAggregateCompleted(result.TotalArticles, result.DuplicatesRemoved, time.Since(start).Seconds())
	}
	logger.Info().
		Int("total_articles", result.TotalArticles).
		Int("duplicates_removed", result.DuplicatesRemoved).
		Int("failed_engines", len(result.FailedEngines)).
		Dur("duration", time.Since(start)).
		Msg("aggregated search completed")

	a.publish(ctx, engines, result, logger)

	return result, nil
}

func (a *Aggregator) search(
	ctx context.Context,
	base papersources.Params,
	requestKeys map[domain.Engine]string,
	logger zerolog.Logger,
) ([]domain.Engine, *domain.AggregatedResult, error) {
	engines, err := ParseEngines(base.Get(papersources.ParamSource), a.registry.Engines())
	if err != nil {
		return nil, nil, err
	}

	jobs, err := a.prepare(engines, base, requestKeys)
	if err != nil {
		return nil, nil, err
	}

	outcomes, err := a.execute(ctx, engines, jobs)
	if err != nil {
		return nil, nil, err
	}

	result := a.merge(base.Get(papersources.ParamQuery), engines, outcomes, logger)
	return engines, result, nil
}

// prepare builds and validates the request of every engine. It stops at the
// first invalid engine.
func (a *Aggregator) prepare(
	engines []domain.Engine,
	base papersources.Params,
	requestKeys map[domain.Engine]string,
) ([]job, error) {
	jobs := make([]job, len(engines))
	for i, engine := range engines {
		adapter, err := a.registry.Adapter(engine, a.fetcherFor(engine))
		if err != nil {
			return nil, err
		}

		params := base
		if keyParam := adapter.Descriptor().KeyParam; keyParam != "" {
			params = base.With(map[string]string{keyParam: a.apiKey(engine, keyParam, base, requestKeys)})
		}

		request, err := adapter.Prepare(params)
		if err != nil {
			return nil, err
		}
		jobs[i] = job{adapter: adapter, request: request}
	}
	return jobs, nil
}

// apiKey picks the key for engine: the request's key, then a key passed
// directly as a raw parameter, then the configured one.
func (a *Aggregator) apiKey(engine domain.Engine, keyParam string, base papersources.Params, requestKeys map[domain.Engine]string) string {
	if key := strings.TrimSpace(requestKeys[engine]); key != "" {
		return key
	}
	if base.Has(keyParam) {
		return base.Get(keyParam)
	}
	return a.config.APIKeys[engine]
}

func (a *Aggregator) fetcherFor(engine domain.Engine) papersources.Fetcher {
	if f, ok := a.fetchers[engine]; ok && f != nil {
		return f
	}
	return a.fetcher
}

// execute runs every job concurrently. Each goroutine writes only its own
// slot of the returned slice.
func (a *Aggregator) execute(ctx context.Context, engines []domain.Engine, jobs []job) ([]outcome, error) {
	outcomes := make([]outcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)

	for i, j := range jobs {
		if a.metrics != nil {
			a.metrics.RecordSearchStarted(string(engines[i]))
		}
		g.Go(func() error {
			engineCtx := observability.WithEngine(gctx, string(engines[i]))
			start := time.Now()
			res, err := j.adapter.Execute(engineCtx, j.request)
			outcomes[i] = outcome{result: res, err: err, duration: time.Since(start)}
			if err != nil && a.config.FailurePolicy == FailurePolicyFailFast {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for i, o := range outcomes {
			a.recordEngine(engines[i], o)
		}
		return nil, err
	}

	// A cancelled request with nothing to show is reported as such rather
	// than as a result where every engine failed.
	if err := ctx.Err(); err != nil && allFailed(outcomes) {
		return nil, fmt.Errorf("aggregated search: %w", err)
	}

	return outcomes, nil
}

func allFailed(outcomes []outcome) bool {
	for _, o := range outcomes {
		if o.err == nil {
			return false
		}
	}
	return len(outcomes) > 0
}

// merge assembles the aggregated result in engine-selection order and runs
// the global duplicate pass.
func (a *Aggregator) merge(query string, engines []domain.Engine, outcomes []outcome, logger zerolog.Logger) *domain.AggregatedResult {
	result := &domain.AggregatedResult{
		Query:                query,
		ArticlesByEngine:     make(map[domain.Engine]int, len(engines)),
		FilterImpactByEngine: make(map[domain.Engine]map[string]domain.ExecutionStatistics, len(engines)),
		FailedEngines:        make(map[domain.Engine]string),
	}

	var merged []domain.Article
	duplicates := 0

	for i, engine := range engines {
		o := outcomes[i]
		a.recordEngine(engine, o)
		engineLogger := observability.WithEngineContext(logger, string(engine))

		if o.err != nil {
			result.ArticlesByEngine[engine] = 0
			result.FailedEngines[engine] = o.err.Error()
			engineLogger.Warn().Err(o.err).Msg("engine search failed, isolating")
			continue
		}

		res := o.result
		result.ArticlesByEngine[engine] = res.Filtered
		result.FilterImpactByEngine[engine] = res.FilterImpact
		duplicates += res.DuplicatesRemoved
		merged = append(merged, res.Articles...)

		if res.Degraded != nil {
			result.FailedEngines[engine] = res.Degraded.Error()
			engineLogger.Warn().Err(res.Degraded).Msg("engine returned a malformed response")
			continue
		}
		engineLogger.Debug().
			Int("fetched", res.Fetched).
			Int("filtered", res.Filtered).
			Int("skipped", res.Skipped).
			Int("articles", len(res.Articles)).
			Dur("duration", res.SearchDuration).
			Msg("engine search completed")
	}

	global := filter.NewDuplicateFilter()
	result.Articles = global.Apply(merged)
	if stats, err := global.Statistics(); err == nil {
		duplicates += stats.Dropped
	}

	result.TotalArticles = len(result.Articles)
	result.DuplicatesRemoved = duplicates
	return result
}

func (a *Aggregator) recordEngine(engine domain.Engine, o outcome) {
	if a.metrics == nil {
		return
	}
	switch {
	case o.err != nil:
		a.metrics.RecordSearchFailed(string(engine), o.duration.Seconds())
	case o.result == nil:
		// Never started or cancelled before completion.
	case o.result.Degraded != nil:
		a.metrics.RecordSearchDegraded(string(engine))
		a.metrics.RecordSearchCompleted(string(engine), 0, o.duration.Seconds())
	default:
		a.metrics.RecordSearchCompleted(string(engine), len(o.result.Articles), o.duration.Seconds())
	}
}

// publish hands the result to the publisher in the background so a slow
// broker never delays the response. The publish outlives the request
// context, keeping its values, and is bounded by PublishTimeout. A failure
// is logged and never fails the search.
func (a *Aggregator) publish(ctx context.Context, engines []domain.Engine, result *domain.AggregatedResult, logger zerolog.Logger) {
	if a.publisher == nil {
		return
	}

	a.publishing.Add(1)
	go func() {
		defer a.publishing.Done()

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.config.PublishTimeout)
		defer cancel()

		err := a.publisher.PublishSearchCompleted(pubCtx, engines, result)
		if a.metrics != nil {
			if err != nil {
				a.metrics.RecordEventFailed()
			} else {
				a.metrics.RecordEventPublished()
			}
		}
		if err != nil {
			logger.Warn().Err(err).Msg("failed to publish search completed event")
		}
	}()
}
