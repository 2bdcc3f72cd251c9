package scopus

import (
	"encoding/json"
	"strings"

	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/papersources"
)

var venueTypes = map[string]string{
	"journal":               domain.VenueTypeJournal,
	"conference proceeding": domain.VenueTypeConference,
	"book":                  domain.VenueTypeBook,
	"book series":           domain.VenueTypeBook,
}

// NewMapper returns the mapper for Scopus search responses.
func NewMapper() papersources.Mapper {
	return papersources.MapperFunc(mapEntries)
}

func mapEntries(body []byte) papersources.MapResult {
	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return papersources.Malformed(domain.EngineScopus, papersources.FormatJSON, "decode envelope: "+err.Error())
	}
	if resp.ServiceError != nil {
		return papersources.Malformed(domain.EngineScopus, papersources.FormatJSON,
			"service error: "+strings.TrimSpace(resp.ServiceError.Status.StatusCode+" "+resp.ServiceError.Status.StatusText))
	}
	if resp.SearchResults == nil {
		return papersources.Malformed(domain.EngineScopus, papersources.FormatJSON, "missing search-results")
	}

	articles := make([]domain.Article, 0, len(resp.SearchResults.Entries))
	for _, raw := range resp.SearchResults.Entries {
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}
		if e.Error != "" {
			// "Result set was empty" placeholder.
			continue
		}
		articles = append(articles, convertEntry(e))
	}
	return papersources.MapResult{Articles: articles}
}

func convertEntry(e Entry) domain.Article {
	return domain.NewArticle(domain.ArticleFields{
		Title:           papersources.CollapseWhitespace(e.Title),
		PublicationYear: papersources.YearPrefix(e.CoverDate),
		Venue:           e.PublicationName,
		VenueType:       venueTypes[strings.ToLower(strings.TrimSpace(e.Aggregation))],
		Authors:         entryAuthors(e),
		Link:            entryLink(e),
		SourceEngine:    domain.EngineScopus,
	})
}

func entryAuthors(e Entry) []string {
	if len(e.Authors) == 0 {
		return papersources.SplitAuthors(e.Creator)
	}
	names := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func entryLink(e Entry) string {
	for _, l := range e.Links {
		if l.Ref == "scopus" && strings.TrimSpace(l.Href) != "" {
			return l.Href
		}
	}
	if doi := strings.TrimSpace(e.DOI); doi != "" {
		return DOIBaseURL + doi
	}
	return ""
}
