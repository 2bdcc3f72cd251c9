package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-search-service/internal/domain"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lower case", "Deep Learning", "deep learning"},
		{"strips punctuation", "Deep-Learning: a survey!", "deeplearning a survey"},
		{"collapses whitespace", "  Graph \t Neural\nNetworks ", "graph neural networks"},
		{"keeps digits", "BERT 2.0", "bert 20"},
		{"unicode letters", "Über Lernen", "über lernen"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.input))
		})
	}
}

func TestDuplicateFilter(t *testing.T) {
	t.Run("first occurrence wins", func(t *testing.T) {
		first := domain.NewArticle(domain.ArticleFields{Title: "Deep Learning", SourceEngine: domain.EngineACM})
		second := domain.NewArticle(domain.ArticleFields{Title: "deep learning!", SourceEngine: domain.EngineHAL})
		other := domain.NewArticle(domain.ArticleFields{Title: "Graph Networks", SourceEngine: domain.EngineHAL})

		f := NewDuplicateFilter()
		got := f.Apply([]domain.Article{first, other, second})

		require.Len(t, got, 2)
		assert.Equal(t, domain.EngineACM, got[0].SourceEngine())
		assert.Equal(t, "Graph Networks", got[1].Title())

		stats, err := f.Statistics()
		require.NoError(t, err)
		assert.Equal(t, domain.ExecutionStatistics{Input: 3, Output: 2, Dropped: 1}, stats)
	})

	t.Run("seen set is local to each apply", func(t *testing.T) {
		f := NewDuplicateFilter()
		f.Apply([]domain.Article{article("A", "", "")})
		got := f.Apply([]domain.Article{article("A", "", "")})

		assert.Len(t, got, 1)
	})

	t.Run("blank titles collapse to one", func(t *testing.T) {
		got := NewDuplicateFilter().Apply([]domain.Article{
			article("", "", ""),
			article("!!", "", ""),
		})
		assert.Len(t, got, 1)
	})

	t.Run("empty input", func(t *testing.T) {
		f := NewDuplicateFilter()
		assert.Empty(t, f.Apply(nil))
		stats, err := f.Statistics()
		require.NoError(t, err)
		assert.Zero(t, stats.Input)
	})
}
