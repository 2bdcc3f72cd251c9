package aggregator

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/observability"
	"github.com/helixir/literature-search-service/internal/papersources"
)

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

// stubDescriptor describes an engine served from https://<engine>.test/search.
func stubDescriptor(engine domain.Engine, keyParam string) papersources.Descriptor {
	required := []string{papersources.ParamQuery, papersources.ParamStart, papersources.ParamRows}
	if keyParam != "" {
		required = append(required, keyParam)
	}
	return papersources.Descriptor{
		Engine:   engine,
		Name:     string(engine),
		BaseURL:  "https://" + string(engine) + ".test",
		Endpoint: "/search",
		Format:   papersources.FormatJSON,
		Required: required,
		KeyParam: keyParam,
		MapParams: func(p papersources.Params) (url.Values, error) {
			start, rows, err := papersources.Pagination(p)
			if err != nil {
				return nil, err
			}
			values := url.Values{}
			values.Set("q", papersources.Query(p))
			values.Set("offset", strconv.Itoa(start*rows))
			if keyParam != "" {
				values.Set("key", p.Get(keyParam))
			}
			return values, nil
		},
	}
}

// lineMapper parses one "title|year" article per line. A body of
// "MALFORMED" is rejected as a whole.
func lineMapper(engine domain.Engine) papersources.Mapper {
	return papersources.MapperFunc(func(body []byte) papersources.MapResult {
		text := strings.TrimSpace(string(body))
		if text == "MALFORMED" {
			return papersources.Malformed(engine, papersources.FormatJSON, "unreadable payload")
		}
		var articles []domain.Article
		for _, line := range strings.Split(text, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			title, year, _ := strings.Cut(line, "|")
			articles = append(articles, domain.NewArticle(domain.ArticleFields{
				Title:           title,
				PublicationYear: year,
				SourceEngine:    engine,
			}))
		}
		return papersources.MapResult{Articles: articles}
	})
}

// stubFetcher serves canned bodies keyed by the engine in the URL host.
type stubFetcher struct {
	bodies map[domain.Engine]string
	errs   map[domain.Engine]error
	delay  map[domain.Engine]time.Duration
	block  map[domain.Engine]bool

	calls atomic.Int32
	mu    sync.Mutex
	urls  map[domain.Engine]string
}

func (f *stubFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	f.calls.Add(1)
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	engine := domain.Engine(strings.TrimSuffix(u.Host, ".test"))

	f.mu.Lock()
	if f.urls == nil {
		f.urls = make(map[domain.Engine]string)
	}
	f.urls[engine] = rawURL
	f.mu.Unlock()

	if f.block[engine] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if d := f.delay[engine]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[engine]; err != nil {
		return nil, err
	}
	return []byte(f.bodies[engine]), nil
}

func (f *stubFetcher) url(engine domain.Engine) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.urls[engine]
}

type recordingPublisher struct {
	mu      sync.Mutex
	engines []domain.Engine
	results []*domain.AggregatedResult
	err     error
}

func (p *recordingPublisher) PublishSearchCompleted(_ context.Context, engines []domain.Engine, result *domain.AggregatedResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.engines = engines
	p.results = append(p.results, result)
	return p.err
}

// blockingPublisher holds each publish until release is closed or its
// context ends, and reports which of the two happened on done.
type blockingPublisher struct {
	release   chan struct{}
	done      chan error
	requestID string
}

func (p *blockingPublisher) PublishSearchCompleted(ctx context.Context, _ []domain.Engine, _ *domain.AggregatedResult) error {
	p.requestID = observability.RequestIDFromContext(ctx)
	var err error
	select {
	case <-p.release:
		err = ctx.Err()
	case <-ctx.Done():
		err = ctx.Err()
	}
	p.done <- err
	return err
}

func testRegistry() *papersources.Registry {
	registry := papersources.NewRegistry()
	for _, engine := range []domain.Engine{domain.EngineACM, domain.EngineHAL, domain.EngineArXiv} {
		d := stubDescriptor(engine, "")
		m := lineMapper(engine)
		registry.Register(engine, func(f papersources.Fetcher) *papersources.Adapter {
			return papersources.NewAdapter(d, m, f)
		})
	}
	springer := stubDescriptor(domain.EngineSpringer, "api_key")
	registry.Register(domain.EngineSpringer, func(f papersources.Fetcher) *papersources.Adapter {
		return papersources.NewAdapter(springer, lineMapper(domain.EngineSpringer), f)
	})
	return registry
}

func params(extra map[string]string) map[string]string {
	p := map[string]string{"q": "AI", "start": "0", "rows": "10"}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func titles(articles []domain.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Title()
	}
	return out
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestAggregator_Search_MergesAndDeduplicates(t *testing.T) {
	fetcher := &stubFetcher{bodies: map[domain.Engine]string{
		domain.EngineACM: "Deep Learning|2019\nGraph Theory|2020",
		domain.EngineHAL: "deep learning!|2019\nQuantum Walks|2021",
	}}
	agg := New(testRegistry(), fetcher, Config{})

	result, err := agg.Search(context.Background(), Request{Params: params(map[string]string{"source": "acm,hal"})})

	require.NoError(t, err)
	assert.Equal(t, "AI", result.Query)
	assert.Equal(t, map[domain.Engine]int{domain.EngineACM: 2, domain.EngineHAL: 2}, result.ArticlesByEngine)
	assert.Equal(t, 3, result.TotalArticles)
	assert.Equal(t, 1, result.DuplicatesRemoved)
	assert.Equal(t, []string{"Deep Learning", "Graph Theory", "Quantum Walks"}, titles(result.Articles))
	assert.Empty(t, result.FailedEngines)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestAggregator_Search_CountsPerEngineDuplicates(t *testing.T) {
	fetcher := &stubFetcher{bodies: map[domain.Engine]string{
		domain.EngineACM: "Same Title|2019\nsame title|2019\nOther|2020",
	}}
	agg := New(testRegistry(), fetcher, Config{})

	result, err := agg.Search(context.Background(), Request{Params: params(map[string]string{"source": "acm"})})

	require.NoError(t, err)
	assert.Equal(t, 3, result.ArticlesByEngine[domain.EngineACM], "counted before the engine's duplicate pass")
	assert.Equal(t, 2, result.TotalArticles)
	assert.Equal(t, 1, result.DuplicatesRemoved)
	assert.Equal(t, 1, result.FilterImpactByEngine[domain.EngineACM]["duplicate"].Dropped)
}

func TestAggregator_Search_AllEnginesWhenSourceBlank(t *testing.T) {
	fetcher := &stubFetcher{bodies: map[domain.Engine]string{}}
	agg := New(testRegistry(), fetcher, Config{APIKeys: map[domain.Engine]string{domain.EngineSpringer: "k"}})

	result, err := agg.Search(context.Background(), Request{Params: params(map[string]string{"source": "  "})})

	require.NoError(t, err)
	assert.Len(t, result.ArticlesByEngine, 4)
	assert.Equal(t, int32(4), fetcher.calls.Load())
	assert.Equal(t, 0, result.TotalArticles)
	assert.NotNil(t, result.Articles)
}

func TestAggregator_Search_ValidatesBeforeFetching(t *testing.T) {
	tests := []struct {
		name      string
		params    map[string]string
		wantErr   error
		engine    domain.Engine
		parameter string
	}{
		{
			name:      "missing query",
			params:    map[string]string{"start": "0", "rows": "10", "source": "acm,hal"},
			wantErr:   domain.ErrMissingParameter,
			engine:    domain.EngineACM,
			parameter: "q",
		},
		{
			name:      "blank rows",
			params:    params(map[string]string{"rows": " ", "source": "hal"}),
			wantErr:   domain.ErrMissingParameter,
			engine:    domain.EngineHAL,
			parameter: "rows",
		},
		{
			name:      "missing key on second engine",
			params:    params(map[string]string{"source": "acm,springer"}),
			wantErr:   domain.ErrMissingParameter,
			engine:    domain.EngineSpringer,
			parameter: "api_key",
		},
		{
			name:    "non numeric start",
			params:  params(map[string]string{"start": "two", "source": "acm"}),
			wantErr: domain.ErrInvalidParameterValue,
		},
		{
			name:    "rows above maximum",
			params:  params(map[string]string{"rows": "1001", "source": "acm"}),
			wantErr: domain.ErrInvalidParameterValue,
		},
		{
			name:    "min year after max year",
			params:  params(map[string]string{"min_year": "2022", "max_year": "2020", "source": "acm"}),
			wantErr: domain.ErrInvalidParameterValue,
		},
		{
			name:    "unknown engine",
			params:  params(map[string]string{"source": "acm,nature"}),
			wantErr: domain.ErrUnsupportedEngine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &stubFetcher{}
			agg := New(testRegistry(), fetcher, Config{})

			result, err := agg.Search(context.Background(), Request{Params: tt.params})

			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int32(0), fetcher.calls.Load())

			if tt.parameter != "" {
				var missing *domain.MissingParameterError
				require.ErrorAs(t, err, &missing)
				assert.Equal(t, tt.engine, missing.Engine)
				assert.Equal(t, tt.parameter, missing.Parameter)
			}
		})
	}
}

func TestAggregator_Search_APIKeys(t *testing.T) {
	t.Run("configured key is injected", func(t *testing.T) {
		fetcher := &stubFetcher{}
		agg := New(testRegistry(), fetcher, Config{APIKeys: map[domain.Engine]string{domain.EngineSpringer: "configured"}})

		_, err := agg.Search(context.Background(), Request{Params: params(map[string]string{"source": "springer"})})

		require.NoError(t, err)
		assert.Contains(t, fetcher.url(domain.EngineSpringer), "key=configured")
	})

	t.Run("request key overrides configured key", func(t *testing.T) {
		fetcher := &stubFetcher{}
		agg := New(testRegistry(), fetcher, Config{APIKeys: map[domain.Engine]string{domain.EngineSpringer: "configured"}})
		raw := params(map[string]string{"source": "springer"})

		_, err := agg.Search(context.Background(), Request{
			Params:  raw,
			APIKeys: map[domain.Engine]string{domain.EngineSpringer: "per-request"},
		})

		require.NoError(t, err)
		assert.Contains(t, fetcher.url(domain.EngineSpringer), "key=per-request")
		assert.NotContains(t, raw, "api_key")
	})

	t.Run("raw parameter beats configured key", func(t *testing.T) {
		fetcher := &stubFetcher{}
		agg := New(testRegistry(), fetcher, Config{APIKeys: map[domain.Engine]string{domain.EngineSpringer: "configured"}})

		_, err := agg.Search(context.Background(), Request{Params: params(map[string]string{"source": "springer", "api_key": "raw"})})

		require.NoError(t, err)
		assert.Contains(t, fetcher.url(domain.EngineSpringer), "key=raw")
	})

	t.Run("keys never leak to engines without a key parameter", func(t *testing.T) {
		fetcher := &stubFetcher{}
		agg := New(testRegistry(), fetcher, Config{APIKeys: map[domain.Engine]string{domain.EngineACM: "unused"}})

		_, err := agg.Search(context.Background(), Request{Params: params(map[string]string{"source": "acm"})})

		require.NoError(t, err)
		assert.NotContains(t, fetcher.url(domain.EngineACM), "key=")
	})
}

func TestAggregator_Search_IsolatePolicy(t *testing.T) {
	fetcher := &stubFetcher{
		bodies: map[domain.Engine]string{domain.EngineACM: "Deep Learning|2019"},
		errs:   map[domain.Engine]error{domain.EngineHAL: errors.New("connection refused")},
	}
	agg := New(testRegistry(), fetcher, Config{FailurePolicy: FailurePolicyIsolate})

	result, err := agg.Search(context.Background(), Request{Params: params(map[string]string{"source": "acm,hal"})})

	require.NoError(t, err)
	assert.Equal(t, map[domain.Engine]int{domain.EngineACM: 1, domain.EngineHAL: 0}, result.ArticlesByEngine)
	assert.Equal(t, 1, result.TotalArticles)
	require.Contains(t, result.FailedEngines, domain.EngineHAL)
	assert.Contains(t, result.FailedEngines[domain.EngineHAL], "connection refused")
	assert.NotContains(t, result.FilterImpactByEngine, domain.EngineHAL)
}

func TestAggregator_Search_FailFastPolicy(t *testing.T) {
	fetcher := &stubFetcher{
		block: map[domain.Engine]bool{domain.EngineACM: true},
		errs:  map[domain.Engine]error{domain.EngineHAL: errors.New("connection refused")},
	}
	agg := New(testRegistry(), fetcher, Config{FailurePolicy: FailurePolicyFailFast})

	done := make(chan struct{})
	var (
		result *domain.AggregatedResult
		err    error
	)
	go func() {
		defer close(done)
		result, err = agg.Search(context.Background(), Request{Params: params(map[string]string{"source": "acm,hal"})})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fail fast did not cancel the blocked engine")
	}

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrUpstreamFetch)

	var fetchErr *domain.UpstreamFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, domain.EngineHAL, fetchErr.Engine)
}

func TestAggregator_Search_MalformedResponseDegrades(t *testing.T) {
	for _, policy := range []FailurePolicy{FailurePolicyIsolate, FailurePolicyFailFast} {
		t.Run(string(policy), func(t *testing.T) {
			fetcher := &stubFetcher{bodies: map[domain.Engine]string{
				domain.EngineACM: "Deep Learning|2019",
				domain.EngineHAL: "MALFORMED",
			}}
			agg := New(testRegistry(), fetcher, Config{FailurePolicy: policy})

			result, err := agg.Search(context.Background(), Request{Params: params(map[string]string{"source": "acm,hal"})})

			require.NoError(t, err)
			assert.Equal(t, 0, result.ArticlesByEngine[domain.EngineHAL])
			assert.Equal(t, 1, result.TotalArticles)
			assert.Contains(t, result.FailedEngines[domain.EngineHAL], "malformed")
		})
	}
}

func TestAggregator_Search_OrderIndependentOfCompletion(t *testing.T) {
	fetcher := &stubFetcher{
		bodies: map[domain.Engine]string{
			domain.EngineACM:   "First|2019",
			domain.EngineHAL:   "Second|2019",
			domain.EngineArXiv: "Third|2019",
		},
		delay: map[domain.Engine]time.Duration{
			domain.EngineACM: 60 * time.Millisecond,
			domain.EngineHAL: 30 * time.Millisecond,
		},
	}
	agg := New(testRegistry(), fetcher, Config{})

	result, err := agg.Search(context.Background(), Request{Params: params(map[string]string{"source": "acm,hal,arxiv"})})

	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Second", "Third"}, titles(result.Articles))
}

func TestAggregator_Search_CancelledContext(t *testing.T) {
	fetcher := &stubFetcher{block: map[domain.Engine]bool{domain.EngineACM: true, domain.EngineHAL: true}}
	agg := New(testRegistry(), fetcher, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := agg.Search(ctx, Request{Params: params(map[string]string{"source": "acm,hal"})})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAggregator_Search_AppliesRequestFilters(t *testing.T) {
	fetcher := &stubFetcher{bodies: map[domain.Engine]string{
		domain.EngineACM: "Old|2001\nNew|2021",
		domain.EngineHAL: "Newer|2022\nUnknown|",
	}}
	agg := New(testRegistry(), fetcher, Config{})

	result, err := agg.Search(context.Background(), Request{Params: params(map[string]string{
		"source":   "acm,hal",
		"min_year": "2020",
		"max_year": "2023",
	})})

	require.NoError(t, err)
	assert.Equal(t, []string{"New", "Newer"}, titles(result.Articles))
	assert.Equal(t, domain.ExecutionStatistics{Input: 2, Output: 1, Dropped: 1},
		result.FilterImpactByEngine[domain.EngineACM]["year"])
	assert.Equal(t, domain.ExecutionStatistics{Input: 2, Output: 1, Dropped: 1},
		result.FilterImpactByEngine[domain.EngineHAL]["year"])
}

func TestAggregator_Search_Publishes(t *testing.T) {
	t.Run("publishes completed searches", func(t *testing.T) {
		publisher := &recordingPublisher{}
		fetcher := &stubFetcher{bodies: map[domain.Engine]string{domain.EngineHAL: "A|2020"}}
		agg := New(testRegistry(), fetcher, Config{}, WithPublisher(publisher))

		result, err := agg.Search(context.Background(), Request{Params: params(map[string]string{"source": "hal,acm"})})
		agg.Wait()

		require.NoError(t, err)
		require.Len(t, publisher.results, 1)
		assert.Same(t, result, publisher.results[0])
		assert.Equal(t, []domain.Engine{domain.EngineHAL, domain.EngineACM}, publisher.engines)
	})

	t.Run("publish failure does not fail the search", func(t *testing.T) {
		publisher := &recordingPublisher{err: errors.New("broker down")}
		agg := New(testRegistry(), &stubFetcher{}, Config{}, WithPublisher(publisher))

		result, err := agg.Search(context.Background(), Request{Params: params(map[string]string{"source": "acm"})})
		agg.Wait()

		require.NoError(t, err)
		assert.NotNil(t, result)
		assert.Len(t, publisher.results, 1)
	})

	t.Run("a slow publisher does not delay the search", func(t *testing.T) {
		publisher := &blockingPublisher{release: make(chan struct{}), done: make(chan error, 1)}
		agg := New(testRegistry(), &stubFetcher{}, Config{}, WithPublisher(publisher))

		ctx, cancel := context.WithCancel(observability.WithRequestID(context.Background(), "req-7"))
		result, err := agg.Search(ctx, Request{Params: params(map[string]string{"source": "acm"})})
		cancel()

		require.NoError(t, err)
		assert.NotNil(t, result)

		close(publisher.release)
		agg.Wait()
		assert.NoError(t, <-publisher.done, "publish context outlives the request")
		assert.Equal(t, "req-7", publisher.requestID)
	})

	t.Run("publish is bounded by the timeout", func(t *testing.T) {
		publisher := &blockingPublisher{release: make(chan struct{}), done: make(chan error, 1)}
		agg := New(testRegistry(), &stubFetcher{}, Config{PublishTimeout: 20 * time.Millisecond}, WithPublisher(publisher))

		_, err := agg.Search(context.Background(), Request{Params: params(map[string]string{"source": "acm"})})
		require.NoError(t, err)

		agg.Wait()
		assert.ErrorIs(t, <-publisher.done, context.DeadlineExceeded)
	})

	t.Run("failed searches are not published", func(t *testing.T) {
		publisher := &recordingPublisher{}
		agg := New(testRegistry(), &stubFetcher{}, Config{}, WithPublisher(publisher))

		_, err := agg.Search(context.Background(), Request{Params: params(map[string]string{"source": "nope"})})

		require.Error(t, err)
		assert.Empty(t, publisher.results)
	})
}

func TestAggregator_Search_RecordsMetrics(t *testing.T) {
	metrics := observability.NewMetricsWithRegisterer("test_aggregator", prometheus.NewRegistry())
	fetcher := &stubFetcher{
		bodies: map[domain.Engine]string{domain.EngineACM: "A|2020\na|2020"},
		errs:   map[domain.Engine]error{domain.EngineHAL: errors.New("timeout")},
	}
	agg := New(testRegistry(), fetcher, Config{}, WithMetrics(metrics), WithPublisher(&recordingPublisher{}))

	_, err := agg.Search(context.Background(), Request{Params: params(map[string]string{"source": "acm,hal"})})
	agg.Wait()

	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.AggregateRequests.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SearchesStarted.WithLabelValues("acm")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SearchesCompleted.WithLabelValues("acm")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SearchesFailed.WithLabelValues("hal")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.DuplicatesRemoved))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.EventsPublished))
}

func TestAggregator_UsesPerEngineFetchers(t *testing.T) {
	fallback := &stubFetcher{bodies: map[domain.Engine]string{domain.EngineACM: "Fallback|2020"}}
	dedicated := &stubFetcher{bodies: map[domain.Engine]string{domain.EngineHAL: "Dedicated|2020"}}
	agg := New(testRegistry(), fallback, Config{}, WithFetchers(map[domain.Engine]papersources.Fetcher{
		domain.EngineHAL: dedicated,
	}))

	result, err := agg.Search(context.Background(), Request{Params: params(map[string]string{"source": "acm,hal"})})

	require.NoError(t, err)
	assert.Equal(t, []string{"Fallback", "Dedicated"}, titles(result.Articles))
	assert.Equal(t, int32(1), fallback.calls.Load())
	assert.Equal(t, int32(1), dedicated.calls.Load())
}

func TestParseFailurePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    FailurePolicy
		wantErr bool
	}{
		{"", FailurePolicyIsolate, false},
		{"isolate", FailurePolicyIsolate, false},
		{" FAIL_FAST ", FailurePolicyFailFast, false},
		{"retry", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFailurePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
