package acm

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/papersources"
)

var venueTypes = map[string]string{
	"proceedings-article": domain.VenueTypeConference,
	"journal-article":     domain.VenueTypeJournal,
	"book":                domain.VenueTypeBook,
	"monograph":           domain.VenueTypeBook,
	"edited-book":         domain.VenueTypeBook,
	"book-chapter":        domain.VenueTypeBookChapter,
	"dissertation":        domain.VenueTypePhDThesis,
	"posted-content":      domain.VenueTypePreprint,
}

// NewMapper returns the mapper for Crossref works responses.
func NewMapper() papersources.Mapper {
	return papersources.MapperFunc(mapWorks)
}

func mapWorks(body []byte) papersources.MapResult {
	var resp WorksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return papersources.Malformed(domain.EngineACM, papersources.FormatJSON, "decode envelope: "+err.Error())
	}
	if resp.Message == nil {
		return papersources.Malformed(domain.EngineACM, papersources.FormatJSON, "missing message")
	}

	articles := make([]domain.Article, 0, len(resp.Message.Items))
	for _, raw := range resp.Message.Items {
		var w Work
		if err := json.Unmarshal(raw, &w); err != nil {
			continue
		}
		articles = append(articles, convertWork(w))
	}
	return papersources.MapResult{Articles: articles}
}

func convertWork(w Work) domain.Article {
	return domain.NewArticle(domain.ArticleFields{
		Title:           firstTitle(w.Title),
		PublicationYear: workYear(w),
		Venue:           first(w.ContainerTitle),
		VenueType:       venueTypes[w.Type],
		Authors:         authorNames(w.Author),
		Link:            workLink(w),
		SourceEngine:    domain.EngineACM,
	})
}

// firstTitle returns the first title fragment with inner line breaks folded.
func firstTitle(titles []string) string {
	return papersources.CollapseWhitespace(first(titles))
}

func workYear(w Work) string {
	for _, d := range []*PartialDate{w.PublishedPrint, w.PublishedOnline, w.Issued} {
		if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 || d.DateParts[0][0] == nil {
			continue
		}
		return strconv.Itoa(*d.DateParts[0][0])
	}
	return ""
}

func authorNames(contributors []Contributor) []string {
	names := make([]string, 0, len(contributors))
	for _, c := range contributors {
		given := strings.TrimSpace(c.Given)
		family := strings.TrimSpace(c.Family)
		switch {
		case given != "" && family != "":
			names = append(names, given+" "+family)
		case family != "":
			names = append(names, family)
		case strings.TrimSpace(c.Name) != "":
			names = append(names, strings.TrimSpace(c.Name))
		}
	}
	return names
}

func workLink(w Work) string {
	for _, l := range w.Link {
		if strings.TrimSpace(l.URL) != "" {
			return l.URL
		}
	}
	return w.URL
}

func first(values []string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
