package acm

import "encoding/json"

// WorksResponse is the envelope of the Crossref /works endpoint.
type WorksResponse struct {
	Status      string        `json:"status"`
	MessageType string        `json:"message-type"`
	Message     *WorksMessage `json:"message"`
}

// WorksMessage holds the result page. Items are decoded one at a time so a
// single bad record cannot spoil the page.
type WorksMessage struct {
	TotalResults int               `json:"total-results"`
	Items        []json.RawMessage `json:"items"`
}

// Work is a single Crossref record.
type Work struct {
	DOI             string        `json:"DOI"`
	URL             string        `json:"URL"`
	Type            string        `json:"type"`
	Title           []string      `json:"title"`
	ContainerTitle  []string      `json:"container-title"`
	Author          []Contributor `json:"author"`
	PublishedPrint  *PartialDate  `json:"published-print"`
	PublishedOnline *PartialDate  `json:"published-online"`
	Issued          *PartialDate  `json:"issued"`
	Link            []Link        `json:"link"`
}

// Contributor is an author entry. Organisations only carry Name.
type Contributor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

// PartialDate is Crossref's [[year, month, day]] form; any part may be null.
type PartialDate struct {
	DateParts [][]*int `json:"date-parts"`
}

// Link is a full-text link.
type Link struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type"`
}
