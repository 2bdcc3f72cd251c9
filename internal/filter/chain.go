package filter

import "github.com/helixir/literature-search-service/internal/domain"

// Chain applies its filters in order with AND semantics: an article survives
// only if every filter accepts it.
type Chain struct {
	filters []Filter
	execution
}

var _ Filter = (*Chain)(nil)

// NewChain creates a chain from the given filters.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: append([]Filter(nil), filters...)}
}

// Add appends a filter to the end of the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int {
	return len(c.filters)
}

// Name returns "chain".
func (c *Chain) Name() string {
	return "chain"
}

// Apply runs every filter over the survivors of the previous one.
func (c *Chain) Apply(articles []domain.Article) []domain.Article {
	current := articles
	for _, f := range c.filters {
		current = f.Apply(current)
	}
	// An empty chain still hands back a fresh slice.
	if len(c.filters) == 0 {
		current = append([]domain.Article(nil), articles...)
	}
	c.record(len(articles), len(current))
	return current
}

// Statistics returns the chain-level view: input before the first filter,
// output after the last.
func (c *Chain) Statistics() (domain.ExecutionStatistics, error) {
	return c.statistics(c.Name())
}

// Impact returns the statistics of every filter in the chain keyed by name.
func (c *Chain) Impact() (map[string]domain.ExecutionStatistics, error) {
	impact := make(map[string]domain.ExecutionStatistics, len(c.filters))
	for _, f := range c.filters {
		stats, err := f.Statistics()
		if err != nil {
			return nil, err
		}
		impact[f.Name()] = stats
	}
	return impact, nil
}
