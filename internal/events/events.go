// Package events publishes summaries of completed aggregated searches to Kafka.
package events

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/helixir/literature-search-service/internal/domain"
)

// EventTypeSearchCompleted is the type carried by every search summary event.
const EventTypeSearchCompleted = "literature_search.search_completed"

// SearchCompleted summarizes one successful aggregated search.
type SearchCompleted struct {
	EventID           string                   `json:"event_id"`
	EventType         string                   `json:"event_type"`
	EventVersion      int                      `json:"event_version"`
	RequestID         string                   `json:"request_id,omitempty"`
	Query             string                   `json:"query"`
	Engines           []domain.Engine          `json:"engines"`
	TotalArticles     int                      `json:"total_articles"`
	ArticlesByEngine  map[domain.Engine]int    `json:"articles_by_engine"`
	DuplicatesRemoved int                      `json:"duplicates_removed"`
	FailedEngines     map[domain.Engine]string `json:"failed_engines,omitempty"`
	OccurredAt        time.Time                `json:"occurred_at"`
}

// NewSearchCompleted builds the event for result. Engines keep the order in
// which they were selected.
func NewSearchCompleted(requestID string, engines []domain.Engine, result *domain.AggregatedResult) SearchCompleted {
	ev := SearchCompleted{
		EventID:      uuid.New().String(),
		EventType:    EventTypeSearchCompleted,
		EventVersion: 1,
		RequestID:    requestID,
		Engines:      append([]domain.Engine(nil), engines...),
		OccurredAt:   time.Now().UTC(),
	}
	if result == nil {
		return ev
	}

	ev.Query = result.Query
	ev.TotalArticles = result.TotalArticles
	ev.DuplicatesRemoved = result.DuplicatesRemoved
	ev.ArticlesByEngine = make(map[domain.Engine]int, len(result.ArticlesByEngine))
	for engine, n := range result.ArticlesByEngine {
		ev.ArticlesByEngine[engine] = n
	}
	if len(result.FailedEngines) > 0 {
		ev.FailedEngines = make(map[domain.Engine]string, len(result.FailedEngines))
		for engine, reason := range result.FailedEngines {
			ev.FailedEngines[engine] = reason
		}
	}
	return ev
}

// FailedEngineNames returns the failed engines sorted by name.
func (e SearchCompleted) FailedEngineNames() []string {
	names := make([]string, 0, len(e.FailedEngines))
	for engine := range e.FailedEngines {
		names = append(names, string(engine))
	}
	sort.Strings(names)
	return names
}
