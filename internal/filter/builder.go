package filter

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/literature-search-service/internal/domain"
)

// Request parameters recognised by the Builder.
const (
	ParamMinYear       = "min_year"
	ParamMaxYear       = "max_year"
	ParamAuthor        = "author"
	ParamExcludeAuthor = "exclude_author"
	ParamVenue         = "venue"
	ParamExcludeVenue  = "exclude_venue"
	ParamTitle         = "title"
	ParamExcludeTitle  = "exclude_title"
)

// ParamSource provides raw request parameter values by name.
type ParamSource interface {
	Get(name string) string
}

// Builder turns request parameters into a filter chain.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates a builder. now supplies the current calendar year for
// ranges with only a lower bound; nil means time.Now.
func NewBuilder(now func() time.Time) Builder {
	if now == nil {
		now = time.Now
	}
	return Builder{now: now}
}

// Build creates a fresh chain for one run. Filters are added in a fixed order:
// year, author, venue, title, each positive form before its exclude form.
func (b Builder) Build(params ParamSource) (*Chain, error) {
	chain := NewChain()

	yearFilter, err := b.yearFilter(params)
	if err != nil {
		return nil, err
	}
	if yearFilter != nil {
		chain.Add(yearFilter)
	}

	terms := []struct {
		param   string
		exclude bool
		build   func(string, bool) *PredicateFilter
	}{
		{ParamAuthor, false, NewAuthorFilter},
		{ParamExcludeAuthor, true, NewAuthorFilter},
		{ParamVenue, false, NewVenueFilter},
		{ParamExcludeVenue, true, NewVenueFilter},
		{ParamTitle, false, NewTitleFilter},
		{ParamExcludeTitle, true, NewTitleFilter},
	}
	for _, t := range terms {
		if v := strings.TrimSpace(params.Get(t.param)); v != "" {
			chain.Add(t.build(v, t.exclude))
		}
	}

	return chain, nil
}

// yearFilter returns nil when neither bound is present.
func (b Builder) yearFilter(params ParamSource) (*PredicateFilter, error) {
	rawMin := strings.TrimSpace(params.Get(ParamMinYear))
	rawMax := strings.TrimSpace(params.Get(ParamMaxYear))

	switch {
	case rawMin == "" && rawMax == "":
		return nil, nil
	case rawMin == "":
		maxYear, err := parseYear(ParamMaxYear, rawMax)
		if err != nil {
			return nil, err
		}
		return NewYearFilter(math.MinInt, maxYear), nil
	case rawMax == "":
		minYear, err := parseYear(ParamMinYear, rawMin)
		if err != nil {
			return nil, err
		}
		return NewYearFilter(minYear, b.now().Year()), nil
	}

	minYear, err := parseYear(ParamMinYear, rawMin)
	if err != nil {
		return nil, err
	}
	maxYear, err := parseYear(ParamMaxYear, rawMax)
	if err != nil {
		return nil, err
	}
	if minYear > maxYear {
		return nil, domain.NewInvalidParameterError(ParamMinYear, rawMin, "must not be greater than "+ParamMaxYear)
	}
	return NewYearFilter(minYear, maxYear), nil
}

func parseYear(param, raw string) (int, error) {
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewInvalidParameterError(param, raw, "must be a year")
	}
	return year, nil
}
