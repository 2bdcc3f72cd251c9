package domain

import (
	"encoding/json"
	"strings"
	"unicode"
)

// ArticleFields carries the raw values used to construct an Article.
type ArticleFields struct {
	Title           string
	PublicationYear string
	Venue           string
	VenueType       string
	Authors         []string
	Link            string
	SourceEngine    Engine
}

// Article is the canonical bibliographic record produced by every source
// adapter regardless of the upstream format. It is immutable once built:
// fields are unexported and Authors returns a copy.
type Article struct {
	title           string
	publicationYear string
	venue           string
	venueType       string
	authors         []string
	link            string
	sourceEngine    Engine
}

// NewArticle builds an Article from raw field values. Strings are trimmed,
// blank authors are dropped and a publication year that is not exactly four
// digits is treated as unknown.
func NewArticle(f ArticleFields) Article {
	authors := make([]string, 0, len(f.Authors))
	for _, a := range f.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}

	return Article{
		title:           strings.TrimSpace(f.Title),
		publicationYear: normalizeYear(f.PublicationYear),
		venue:           strings.TrimSpace(f.Venue),
		venueType:       strings.TrimSpace(f.VenueType),
		authors:         authors,
		link:            strings.TrimSpace(f.Link),
		sourceEngine:    f.SourceEngine,
	}
}

// normalizeYear returns y when it is a four digit year, otherwise "".
func normalizeYear(y string) string {
	y = strings.TrimSpace(y)
	if len(y) != 4 {
		return ""
	}
	for _, r := range y {
		if !unicode.IsDigit(r) {
			return ""
		}
	}
	return y
}

// Title returns the article title, or "" when unknown.
func (a Article) Title() string { return a.title }

// PublicationYear returns the four digit publication year, or "" when unknown.
func (a Article) PublicationYear() string { return a.publicationYear }

// Venue returns the journal, proceedings or publisher name, or "".
func (a Article) Venue() string { return a.venue }

// VenueType returns the normalized venue type label, or "".
func (a Article) VenueType() string { return a.venueType }

// Link returns the article URL, or "".
func (a Article) Link() string { return a.link }

// SourceEngine returns the engine that produced the article.
func (a Article) SourceEngine() Engine { return a.sourceEngine }

// Authors returns a copy of the author names in source order.
func (a Article) Authors() []string {
	out := make([]string, len(a.authors))
	copy(out, a.authors)
	return out
}

// HasAuthors reports whether the article lists at least one author.
func (a Article) HasAuthors() bool {
	return len(a.authors) > 0
}

// articleJSON is the wire representation of an Article.
type articleJSON struct {
	Title           string   `json:"title"`
	PublicationYear string   `json:"publicationYear"`
	Venue           string   `json:"venue"`
	VenueType       string   `json:"venueType"`
	Authors         []string `json:"authors"`
	Link            string   `json:"link"`
	SourceEngine    Engine   `json:"sourceEngine"`
}

// MarshalJSON implements json.Marshaler.
func (a Article) MarshalJSON() ([]byte, error) {
	return json.Marshal(articleJSON{
		Title:           a.title,
		PublicationYear: a.publicationYear,
		Venue:           a.venue,
		VenueType:       a.venueType,
		Authors:         a.Authors(),
		Link:            a.link,
		SourceEngine:    a.sourceEngine,
	})
}
