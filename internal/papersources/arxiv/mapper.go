package arxiv

import (
	"bytes"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/papersources"
)

// errorIDPrefix marks the single entry arXiv returns for a rejected query.
const errorIDPrefix = "http://arxiv.org/api/errors"

// NewMapper returns the mapper for arXiv Atom feeds.
func NewMapper() papersources.Mapper {
	return papersources.MapperFunc(mapFeed)
}

func mapFeed(body []byte) papersources.MapResult {
	if len(bytes.TrimSpace(body)) == 0 {
		return papersources.Malformed(domain.EngineArXiv, papersources.FormatAtom, "empty body")
	}

	// gofeed parsers keep state between calls, so each response gets its own.
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return papersources.Malformed(domain.EngineArXiv, papersources.FormatAtom, err.Error())
	}

	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		if strings.HasPrefix(item.GUID, errorIDPrefix) {
			return papersources.Malformed(domain.EngineArXiv, papersources.FormatAtom,
				"api error: "+papersources.CollapseWhitespace(item.Description))
		}
		articles = append(articles, convertItem(item))
	}
	return papersources.MapResult{Articles: articles}
}

func convertItem(item *gofeed.Item) domain.Article {
	year := papersources.YearPrefix(item.Published)
	if year == "" {
		year = papersources.YearPrefix(item.Updated)
	}

	authors := make([]string, 0, len(item.Authors))
	for _, a := range item.Authors {
		if a != nil {
			authors = append(authors, a.Name)
		}
	}

	return domain.NewArticle(domain.ArticleFields{
		Title:           papersources.CollapseWhitespace(item.Title),
		PublicationYear: year,
		Venue:           Venue,
		VenueType:       domain.VenueTypePreprint,
		Authors:         authors,
		Link:            item.GUID,
		SourceEngine:    domain.EngineArXiv,
	})
}
