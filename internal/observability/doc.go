// Package observability provides logging and metrics support for the
// literature search service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Service: "literature-search-service",
//	    Level:   "info",
//	    Format:  "json",
//	    Output:  "stdout",
//	})
//	logger = observability.WithComponent(logger, "aggregator")
//
// Request-scoped fields travel on the context:
//
//	ctx = observability.WithRequestID(ctx, reqID)
//	ctx = observability.WithEngine(ctx, "arxiv")
//	log := observability.LoggerFromContext(ctx, logger)
//
// # Metrics
//
//	metrics := observability.NewMetrics("literature_search")
//	metrics.RecordSearchStarted("acm")
//
// *Metrics satisfies papersources.RequestObserver, so it can be handed to
// every upstream HTTP client.
//
// # Standard Fields
//
//   - service: binary name (literature-search-service, litsearch)
//   - request_id: API request identifier
//   - component: owning component (aggregator, http-server, events)
//   - engine: upstream engine id (acm, hal, springer, scopus, arxiv)
//   - query: free-text search query
//   - source: raw engine selector from the request
package observability
