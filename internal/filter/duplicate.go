package filter

import (
	"strings"
	"unicode"

	"github.com/helixir/literature-search-service/internal/domain"
)

// DuplicateFilter drops articles whose normalized title was already seen
// earlier in the same list. The first occurrence wins.
type DuplicateFilter struct {
	execution
}

var _ Filter = (*DuplicateFilter)(nil)

// NewDuplicateFilter creates a duplicate filter.
func NewDuplicateFilter() *DuplicateFilter {
	return &DuplicateFilter{}
}

// Name returns the filter name.
func (f *DuplicateFilter) Name() string {
	return NameDuplicate
}

// Apply removes later occurrences of titles already seen in articles.
// The seen set lives only for the duration of this call.
func (f *DuplicateFilter) Apply(articles []domain.Article) []domain.Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]domain.Article, 0, len(articles))

	for _, a := range articles {
		key := NormalizeTitle(a.Title())
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}

	f.record(len(articles), len(out))
	return out
}

// Statistics returns the counts recorded by the last Apply.
func (f *DuplicateFilter) Statistics() (domain.ExecutionStatistics, error) {
	return f.statistics(NameDuplicate)
}

// NormalizeTitle lower-cases a title, removes punctuation and collapses
// whitespace so that "Deep Learning" and "deep learning!" compare equal.
func NormalizeTitle(title string) string {
	var sb strings.Builder
	sb.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if unicode.IsPunct(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
