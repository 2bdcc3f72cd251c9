package papersources

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-search-service/internal/domain"
)

// testDescriptor describes a fake engine whose body is one title per line.
func testDescriptor() Descriptor {
	return Descriptor{
		Engine:   domain.EngineHAL,
		Name:     "Test",
		BaseURL:  "http://test.local/",
		Endpoint: "/search",
		Format:   FormatBibTeX,
		Required: []string{ParamQuery, ParamStart, ParamRows, "token"},
		KeyParam: "token",
		MapParams: func(p Params) (url.Values, error) {
			start, rows, err := Pagination(p)
			if err != nil {
				return nil, err
			}
			return url.Values{
				"q":     {Query(p)},
				"start": {strconv.Itoa(start)},
				"rows":  {strconv.Itoa(rows)},
			}, nil
		},
	}
}

var lineMapper = MapperFunc(func(body []byte) MapResult {
	if strings.HasPrefix(string(body), "ERR") {
		return Malformed(domain.EngineHAL, FormatBibTeX, "bad body")
	}
	var articles []domain.Article
	for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
		if line == "" {
			continue
		}
		title, year, _ := strings.Cut(line, "|")
		articles = append(articles, domain.NewArticle(domain.ArticleFields{
			Title: title, PublicationYear: year, SourceEngine: domain.EngineHAL,
		}))
	}
	return MapResult{Articles: articles}
})

type countingFetcher struct {
	calls atomic.Int32
	body  string
	err   error
}

func (f *countingFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	f.calls.Add(1)
	return []byte(f.body), f.err
}

func validParams() Params {
	return NewParams(map[string]string{"q": "graphs", "start": "0", "rows": "10", "token": "t"})
}

func TestAdapter_Prepare(t *testing.T) {
	t.Run("reports the first missing parameter without fetching", func(t *testing.T) {
		fetcher := &countingFetcher{}
		adapter := NewAdapter(testDescriptor(), lineMapper, fetcher)

		_, err := adapter.Search(context.Background(), NewParams(map[string]string{"q": "graphs", "start": "0", "rows": "10"}))

		var missing *domain.MissingParameterError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, domain.EngineHAL, missing.Engine)
		assert.Equal(t, "token", missing.Parameter)
		assert.True(t, errors.Is(err, domain.ErrMissingParameter))
		assert.Equal(t, int32(0), fetcher.calls.Load())
	})

	t.Run("blank values count as missing", func(t *testing.T) {
		adapter := NewAdapter(testDescriptor(), lineMapper, &countingFetcher{})

		_, err := adapter.Prepare(validParams().With(map[string]string{ParamQuery: ""}).With(nil))
		require.NoError(t, err, "blank overrides are ignored")

		_, err = adapter.Prepare(NewParams(map[string]string{"q": "  ", "start": "0", "rows": "1", "token": "t"}))
		var missing *domain.MissingParameterError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "q", missing.Parameter)
	})

	t.Run("invalid pagination", func(t *testing.T) {
		adapter := NewAdapter(testDescriptor(), lineMapper, &countingFetcher{})

		tests := []struct {
			name  string
			start string
			rows  string
			param string
		}{
			{"non numeric start", "abc", "10", "start"},
			{"negative start", "-1", "10", "start"},
			{"zero rows", "0", "0", "rows"},
			{"too many rows", "0", "1001", "rows"},
			{"fractional rows", "0", "2.5", "rows"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := adapter.Prepare(validParams().With(map[string]string{"start": tt.start, "rows": tt.rows}))

				var invalid *domain.InvalidParameterError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, tt.param, invalid.Parameter)
			})
		}
	})

	t.Run("invalid filter parameters", func(t *testing.T) {
		adapter := NewAdapter(testDescriptor(), lineMapper, &countingFetcher{})

		_, err := adapter.Prepare(validParams().With(map[string]string{"min_year": "last year"}))

		assert.True(t, errors.Is(err, domain.ErrInvalidParameterValue))
	})

	t.Run("builds the url", func(t *testing.T) {
		adapter := NewAdapter(testDescriptor(), lineMapper, &countingFetcher{})

		req, err := adapter.Prepare(validParams())

		require.NoError(t, err)
		assert.Equal(t, "http://test.local/search?q=graphs&rows=10&start=0", req.URL())
	})
}

func TestAdapter_Search(t *testing.T) {
	t.Run("maps and filters", func(t *testing.T) {
		fetcher := &countingFetcher{body: "Alpha|2020\nBeta|2015\nalpha!|2021\nGamma|2022"}
		adapter := NewAdapter(testDescriptor(), lineMapper, fetcher)

		result, err := adapter.Search(context.Background(), validParams().With(map[string]string{"min_year": "2018", "max_year": "2022"}))

		require.NoError(t, err)
		assert.Equal(t, int32(1), fetcher.calls.Load())
		assert.Equal(t, 4, result.Fetched)
		assert.Equal(t, 3, result.Filtered)
		require.Len(t, result.Articles, 2)
		assert.Equal(t, "Alpha", result.Articles[0].Title())
		assert.Equal(t, "Gamma", result.Articles[1].Title())
		assert.Equal(t, 1, result.DuplicatesRemoved)
		assert.Equal(t, domain.ExecutionStatistics{Input: 4, Output: 3, Dropped: 1}, result.FilterImpact["year"])
		assert.Equal(t, domain.ExecutionStatistics{Input: 3, Output: 2, Dropped: 1}, result.FilterImpact["duplicate"])
		assert.NoError(t, result.Degraded)
	})

	t.Run("transport failure", func(t *testing.T) {
		cause := errors.New("connection refused")
		adapter := NewAdapter(testDescriptor(), lineMapper, &countingFetcher{err: cause})

		_, err := adapter.Search(context.Background(), validParams())

		var upstream *domain.UpstreamFetchError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, domain.EngineHAL, upstream.Engine)
		assert.True(t, errors.Is(err, cause))
		assert.True(t, errors.Is(err, domain.ErrUpstreamFetch))
	})

	t.Run("malformed body degrades to an empty result", func(t *testing.T) {
		adapter := NewAdapter(testDescriptor(), lineMapper, &countingFetcher{body: "ERR"})

		result, err := adapter.Search(context.Background(), validParams())

		require.NoError(t, err)
		assert.Empty(t, result.Articles)
		assert.True(t, errors.Is(result.Degraded, domain.ErrMalformedResponse))
	})

	t.Run("carries the mapper's skipped count", func(t *testing.T) {
		skipping := MapperFunc(func(body []byte) MapResult {
			r := lineMapper.Map(body)
			r.Skipped = 2
			return r
		})
		adapter := NewAdapter(testDescriptor(), skipping, &countingFetcher{body: "Alpha|2020"})

		result, err := adapter.Search(context.Background(), validParams())

		require.NoError(t, err)
		assert.Equal(t, 2, result.Skipped)
		assert.Len(t, result.Articles, 1)
	})

	t.Run("mapper panic degrades", func(t *testing.T) {
		panicky := MapperFunc(func([]byte) MapResult { panic("boom") })
		adapter := NewAdapter(testDescriptor(), panicky, &countingFetcher{body: "x"})

		result, err := adapter.Search(context.Background(), validParams())

		require.NoError(t, err)
		assert.Empty(t, result.Articles)
		require.Error(t, result.Degraded)
		assert.Contains(t, result.Degraded.Error(), "boom")
	})

	t.Run("filter state does not leak between searches", func(t *testing.T) {
		fetcher := &countingFetcher{body: "Alpha|2020"}
		adapter := NewAdapter(testDescriptor(), lineMapper, fetcher)

		for i := 0; i < 3; i++ {
			result, err := adapter.Search(context.Background(), validParams())
			require.NoError(t, err)
			assert.Len(t, result.Articles, 1, "run %d", i)
			assert.Equal(t, 0, result.DuplicatesRemoved)
		}
	})
}

func TestAdapter_RequiredParameters(t *testing.T) {
	adapter := NewAdapter(testDescriptor(), lineMapper, nil)

	required := adapter.RequiredParameters()
	required[0] = "mutated"

	assert.Equal(t, []string{"q", "start", "rows", "token"}, adapter.RequiredParameters())
}
