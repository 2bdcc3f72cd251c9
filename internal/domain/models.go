// Package domain provides the canonical models and errors shared by the
// literature search aggregation service.
package domain

import "strings"

// Engine identifies one external bibliographic data source.
type Engine string

const (
	// EngineACM is the crossref-style index restricted to the ACM DOI prefix.
	EngineACM Engine = "acm"
	// EngineHAL is the HAL open-access repository.
	EngineHAL Engine = "hal"
	// EngineSpringer is the Springer Nature publisher metadata feed.
	EngineSpringer Engine = "springer"
	// EngineScopus is the Scopus citation database.
	EngineScopus Engine = "scopus"
	// EngineArXiv is the arXiv preprint archive.
	EngineArXiv Engine = "arxiv"
)

// allEngines lists every known engine in canonical order.
var allEngines = []Engine{EngineACM, EngineHAL, EngineSpringer, EngineScopus, EngineArXiv}

// AllEngines returns every known engine in canonical order.
// The returned slice is a copy and may be modified by the caller.
func AllEngines() []Engine {
	out := make([]Engine, len(allEngines))
	copy(out, allEngines)
	return out
}

// IsValid reports whether e is one of the known engines.
func (e Engine) IsValid() bool {
	for _, known := range allEngines {
		if e == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (e Engine) String() string {
	return string(e)
}

// ParseEngine resolves a single engine token, ignoring case and surrounding
// whitespace. Returns an UnsupportedEngineError naming the token otherwise.
func ParseEngine(token string) (Engine, error) {
	trimmed := strings.TrimSpace(token)
	e := Engine(strings.ToLower(trimmed))
	if !e.IsValid() {
		return "", NewUnsupportedEngineError(trimmed)
	}
	return e, nil
}

// Venue type labels used by Article.VenueType.
const (
	VenueTypeConference    = "Conference Proceedings"
	VenueTypePhDThesis     = "PhD Thesis"
	VenueTypeJournal       = "Journal Article"
	VenueTypeUnpublished   = "Unpublished"
	VenueTypeBook          = "Book"
	VenueTypeBookChapter   = "Book Chapter"
	VenueTypeMastersThesis = "Master's Thesis"
	VenueTypePreprint      = "Preprint"
)

// entryTypeLabels maps bibliography entry types to venue type labels.
var entryTypeLabels = map[string]string{
	"inproceedings": VenueTypeConference,
	"phdthesis":     VenueTypePhDThesis,
	"article":       VenueTypeJournal,
	"unpublished":   VenueTypeUnpublished,
	"book":          VenueTypeBook,
	"incollection":  VenueTypeBookChapter,
	"mastersthesis": VenueTypeMastersThesis,
}

// VenueTypeForEntryType maps a raw bibliography entry type (e.g. "inproceedings")
// to its venue type label. Unknown types map to the empty string.
func VenueTypeForEntryType(entryType string) string {
	return entryTypeLabels[strings.ToLower(strings.TrimSpace(entryType))]
}
