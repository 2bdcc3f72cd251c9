package hal

import (
	"strings"

	"github.com/helixir/literature-search-service/internal/bibtex"
	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/papersources"
)

// venueFields are tried in order; the first non-blank value is the venue.
var venueFields = []string{"JOURNAL", "BOOKTITLE", "SCHOOL", "PUBLISHER"}

// NewMapper returns the mapper for BibTeX search responses.
func NewMapper() papersources.Mapper {
	return papersources.MapperFunc(mapBibliography)
}

func mapBibliography(body []byte) papersources.MapResult {
	parsed := bibtex.Parse(string(body))
	if parsed.Err != nil {
		return papersources.Malformed(domain.EngineHAL, papersources.FormatBibTeX, parsed.Err.Error())
	}

	articles := make([]domain.Article, 0, len(parsed.Entries))
	for _, e := range parsed.Entries {
		articles = append(articles, convertEntry(e))
	}
	return papersources.MapResult{Articles: articles, Skipped: parsed.Skipped}
}

func convertEntry(e bibtex.Entry) domain.Article {
	return domain.NewArticle(domain.ArticleFields{
		Title:           bibtex.StripBraces(e.Fields["TITLE"]),
		PublicationYear: e.Field("YEAR"),
		Venue:           venue(e),
		VenueType:       domain.VenueTypeForEntryType(e.Type),
		Authors:         splitAuthors(e.Field("AUTHOR")),
		Link:            link(e),
		SourceEngine:    domain.EngineHAL,
	})
}

func venue(e bibtex.Entry) string {
	for _, name := range venueFields {
		if v := bibtex.StripBraces(e.Fields[name]); v != "" {
			return v
		}
	}
	return ""
}

// splitAuthors splits on the literal " and " separator.
func splitAuthors(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, " and ")
	authors := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := bibtex.StripBraces(p); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

func link(e bibtex.Entry) string {
	if u := e.Field("URL"); u != "" {
		return u
	}
	if id := e.Field("HAL_ID"); id != "" {
		return DocumentBaseURL + id
	}
	return ""
}
