package scopus

import "encoding/json"

// SearchResponse represents the top-level Scopus search API response.
type SearchResponse struct {
	SearchResults *SearchResults `json:"search-results"`
	ServiceError  *ServiceError  `json:"service-error"`
}

// SearchResults contains the search result metadata and entries.
type SearchResults struct {
	TotalResults string            `json:"opensearch:totalResults"`
	StartIndex   string            `json:"opensearch:startIndex"`
	ItemsPerPage string            `json:"opensearch:itemsPerPage"`
	Entries      []json.RawMessage `json:"entry"`
}

// ServiceError is returned instead of results for rejected requests.
type ServiceError struct {
	Status struct {
		StatusCode string `json:"statusCode"`
		StatusText string `json:"statusText"`
	} `json:"status"`
}

// Entry represents a single document in the Scopus search results.
type Entry struct {
	Identifier      string         `json:"dc:identifier"` // "SCOPUS_ID:85012345678"
	EID             string         `json:"eid"`
	DOI             string         `json:"prism:doi"`
	Title           string         `json:"dc:title"`
	Creator         string         `json:"dc:creator"` // first author only in STANDARD view
	PublicationName string         `json:"prism:publicationName"`
	CoverDate       string         `json:"prism:coverDate"` // "2024-01-15"
	Aggregation     string         `json:"prism:aggregationType"`
	Links           []Link         `json:"link"`
	Authors         []ScopusAuthor `json:"author"` // COMPLETE view only

	// Error is set on the placeholder entry of an empty result set.
	Error string `json:"error"`
}

// Link is one of the entry's typed links.
type Link struct {
	Ref  string `json:"@ref"`
	Href string `json:"@href"`
}

// ScopusAuthor represents a single author in the Scopus response.
type ScopusAuthor struct {
	AuthID    string `json:"authid"`
	Name      string `json:"authname"`
	GivenName string `json:"given-name"`
	Surname   string `json:"surname"`
}
