package springer

import (
	"encoding/json"
	"strings"

	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/papersources"
)

var venueTypes = map[string]string{
	"article":         domain.VenueTypeJournal,
	"chapter":         domain.VenueTypeBookChapter,
	"book":            domain.VenueTypeBook,
	"conferencepaper": domain.VenueTypeConference,
}

// NewMapper returns the mapper for meta/v2 JSON responses.
func NewMapper() papersources.Mapper {
	return papersources.MapperFunc(mapRecords)
}

func mapRecords(body []byte) papersources.MapResult {
	var resp MetaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return papersources.Malformed(domain.EngineSpringer, papersources.FormatJSON, "decode envelope: "+err.Error())
	}
	if resp.Error != nil {
		return papersources.Malformed(domain.EngineSpringer, papersources.FormatJSON,
			"api error: "+strings.TrimSpace(resp.Error.Error+" "+resp.Error.ErrorDescription))
	}
	if resp.Records == nil {
		return papersources.Malformed(domain.EngineSpringer, papersources.FormatJSON, "missing records")
	}

	articles := make([]domain.Article, 0, len(*resp.Records))
	for _, raw := range *resp.Records {
		var r Record
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		articles = append(articles, convertRecord(r))
	}
	return papersources.MapResult{Articles: articles}
}

func convertRecord(r Record) domain.Article {
	year := papersources.YearPrefix(r.PublicationDate)
	if year == "" {
		year = papersources.YearPrefix(r.OnlineDate)
	}
	return domain.NewArticle(domain.ArticleFields{
		Title:           papersources.CollapseWhitespace(r.Title),
		PublicationYear: year,
		Venue:           r.PublicationName,
		VenueType:       venueTypes[strings.ToLower(strings.TrimSpace(r.ContentType))],
		Authors:         creatorNames(r.Creators),
		Link:            recordLink(r.URL),
		SourceEngine:    domain.EngineSpringer,
	})
}

// creatorNames turns "Family, Given" into "Given Family".
func creatorNames(creators []Creator) []string {
	names := make([]string, 0, len(creators))
	for _, c := range creators {
		family, given, found := strings.Cut(c.Creator, ",")
		family = strings.TrimSpace(family)
		given = strings.TrimSpace(given)
		switch {
		case !found || given == "":
			names = append(names, family)
		case family == "":
			names = append(names, given)
		default:
			names = append(names, given+" "+family)
		}
	}
	return names
}

// recordLink prefers the html link, then any non-empty one.
func recordLink(urls []URL) string {
	for _, u := range urls {
		if strings.EqualFold(u.Format, "html") && strings.TrimSpace(u.Value) != "" {
			return u.Value
		}
	}
	for _, u := range urls {
		if strings.TrimSpace(u.Value) != "" {
			return u.Value
		}
	}
	return ""
}
