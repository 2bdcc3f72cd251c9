package springer

import "encoding/json"

// MetaResponse is the envelope of the Springer Nature meta/v2 API.
type MetaResponse struct {
	APIMessage string             `json:"apiMessage"`
	Query      string             `json:"query"`
	Result     []ResultSummary    `json:"result"`
	Records    *[]json.RawMessage `json:"records"`

	// Error is populated instead of records when the request is rejected.
	Error *APIError `json:"error"`
}

// ResultSummary carries paging totals. The API encodes numbers as strings.
type ResultSummary struct {
	Total            string `json:"total"`
	Start            string `json:"start"`
	PageLength       string `json:"pageLength"`
	RecordsDisplayed string `json:"recordsDisplayed"`
}

// APIError describes a rejected request.
type APIError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Record is a single publication.
type Record struct {
	ContentType     string    `json:"contentType"`
	Identifier      string    `json:"identifier"`
	Title           string    `json:"title"`
	Creators        []Creator `json:"creators"`
	PublicationName string    `json:"publicationName"`
	DOI             string    `json:"doi"`
	Publisher       string    `json:"publisher"`
	PublicationDate string    `json:"publicationDate"`
	OnlineDate      string    `json:"onlineDate"`
	URL             []URL     `json:"url"`
}

// Creator holds an author in "Family, Given" form.
type Creator struct {
	Creator string `json:"creator"`
}

// URL is one of the record's links.
type URL struct {
	Format   string `json:"format"`
	Platform string `json:"platform"`
	Value    string `json:"value"`
}
