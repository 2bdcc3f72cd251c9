package domain

// ExecutionStatistics records how many articles a filter saw, kept and dropped
// during one run.
type ExecutionStatistics struct {
	Input   int `json:"input"`
	Output  int `json:"output"`
	Dropped int `json:"dropped"`
}

// NewExecutionStatistics derives the statistics for a run that turned input
// articles into output articles.
func NewExecutionStatistics(input, output int) ExecutionStatistics {
	return ExecutionStatistics{
		Input:   input,
		Output:  output,
		Dropped: input - output,
	}
}

// AggregatedResult is the merged, deduplicated response for one query across
// every queried engine.
type AggregatedResult struct {
	// Query is the free-text query as received.
	Query string `json:"query"`

	// TotalArticles is the number of articles after the global duplicate pass.
	TotalArticles int `json:"totalArticles"`

	// ArticlesByEngine holds the per-engine article count after the request's
	// filters and before any duplicate pass. Keys are exactly the engines that
	// were queried.
	ArticlesByEngine map[Engine]int `json:"articlesByEngine"`

	// DuplicatesRemoved sums the per-engine duplicate drops and the global pass.
	DuplicatesRemoved int `json:"duplicatesRemoved"`

	// Articles holds the merged articles in engine-selection order.
	Articles []Article `json:"articles"`

	// FilterImpactByEngine maps engine to filter name to that filter's run.
	FilterImpactByEngine map[Engine]map[string]ExecutionStatistics `json:"filterImpactByEngine,omitempty"`

	// FailedEngines records engines that were isolated after an upstream
	// failure or degraded by a malformed response, with the reason.
	FailedEngines map[Engine]string `json:"failedEngines,omitempty"`
}
