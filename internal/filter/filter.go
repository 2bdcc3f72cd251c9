// Package filter provides composable predicates over canonical articles.
//
// Every filter records execution statistics for the run it performed. Filters
// are built per request and per engine, so their state never crosses request
// or goroutine boundaries.
package filter

import (
	"strconv"
	"strings"

	"github.com/helixir/literature-search-service/internal/domain"
)

// Filter names reported in filter impact maps.
const (
	NameYear          = "year"
	NameAuthor        = "author"
	NameExcludeAuthor = "exclude_author"
	NameVenue         = "venue"
	NameExcludeVenue  = "exclude_venue"
	NameTitle         = "title"
	NameExcludeTitle  = "exclude_title"
	NameDuplicate     = "duplicate"
)

// Filter narrows a list of articles and remembers what it did.
type Filter interface {
	// Name identifies the filter in statistics maps.
	Name() string

	// Apply returns the articles accepted by the filter, preserving order.
	Apply(articles []domain.Article) []domain.Article

	// Statistics returns the counts of the last run, or a
	// FilterNotExecutedError when Apply has not been called.
	Statistics() (domain.ExecutionStatistics, error)
}

// execution holds the statistics of a filter run.
type execution struct {
	stats    domain.ExecutionStatistics
	executed bool
}

func (e *execution) record(input, output int) {
	e.stats = domain.NewExecutionStatistics(input, output)
	e.executed = true
}

func (e *execution) statistics(name string) (domain.ExecutionStatistics, error) {
	if !e.executed {
		return domain.ExecutionStatistics{}, domain.NewFilterNotExecutedError(name)
	}
	return e.stats, nil
}

// PredicateFilter keeps the articles for which its predicate holds.
type PredicateFilter struct {
	name  string
	match func(domain.Article) bool
	execution
}

var _ Filter = (*PredicateFilter)(nil)

// NewPredicateFilter wraps match as a named filter.
func NewPredicateFilter(name string, match func(domain.Article) bool) *PredicateFilter {
	return &PredicateFilter{name: name, match: match}
}

// Name returns the filter name.
func (f *PredicateFilter) Name() string {
	return f.name
}

// Matches reports whether the article passes the filter.
func (f *PredicateFilter) Matches(a domain.Article) bool {
	return f.match(a)
}

// Apply returns the matching articles and records statistics.
func (f *PredicateFilter) Apply(articles []domain.Article) []domain.Article {
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if f.match(a) {
			out = append(out, a)
		}
	}
	f.record(len(articles), len(out))
	return out
}

// Statistics returns the counts recorded by the last Apply.
func (f *PredicateFilter) Statistics() (domain.ExecutionStatistics, error) {
	return f.statistics(f.name)
}

// NewYearFilter keeps articles published within [minYear, maxYear].
// Articles without a parseable year never match.
func NewYearFilter(minYear, maxYear int) *PredicateFilter {
	return NewPredicateFilter(NameYear, func(a domain.Article) bool {
		year, err := strconv.Atoi(a.PublicationYear())
		if err != nil {
			return false
		}
		return year >= minYear && year <= maxYear
	})
}

// NewAuthorFilter keeps articles with an author containing term, ignoring
// case. With exclude set the result is inverted.
func NewAuthorFilter(term string, exclude bool) *PredicateFilter {
	needle := strings.ToLower(strings.TrimSpace(term))
	name := NameAuthor
	if exclude {
		name = NameExcludeAuthor
	}
	return NewPredicateFilter(name, func(a domain.Article) bool {
		if !a.HasAuthors() {
			return exclude
		}
		found := false
		for _, author := range a.Authors() {
			if strings.Contains(strings.ToLower(author), needle) {
				found = true
				break
			}
		}
		return found != exclude
	})
}

// NewVenueFilter keeps articles whose venue contains term, ignoring case.
// Articles with no venue never match the positive form.
func NewVenueFilter(term string, exclude bool) *PredicateFilter {
	needle := strings.ToLower(strings.TrimSpace(term))
	name := NameVenue
	if exclude {
		name = NameExcludeVenue
	}
	return NewPredicateFilter(name, func(a domain.Article) bool {
		venue := a.Venue()
		found := venue != "" && strings.Contains(strings.ToLower(venue), needle)
		return found != exclude
	})
}

// NewTitleFilter keeps articles whose title equals term, ignoring case.
func NewTitleFilter(term string, exclude bool) *PredicateFilter {
	want := strings.TrimSpace(term)
	name := NameTitle
	if exclude {
		name = NameExcludeTitle
	}
	return NewPredicateFilter(name, func(a domain.Article) bool {
		return strings.EqualFold(a.Title(), want) != exclude
	})
}
