package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/helixir/literature-search-service/internal/aggregator"
	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/observability"
	"github.com/helixir/literature-search-service/internal/papersources"
)

// Validation constants.
const (
	maxQueryLength    = 1000
	maxSelectorLength = 256

	// apiKeyHeaderPrefix is followed by the engine id, e.g. X-API-Key-Springer.
	apiKeyHeaderPrefix = "X-API-Key-"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// searchQuery holds the query-string fields checked before the search runs.
// Engine-level parameter checks happen in the aggregator.
type searchQuery struct {
	Query  string `validate:"required,max=1000"`
	Source string `validate:"omitempty,max=256"`
}

// search handles GET /api/v1/search.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	params := queryParams(r)

	sq := searchQuery{
		Query:  strings.TrimSpace(params[papersources.ParamQuery]),
		Source: params[papersources.ParamSource],
	}
	if err := validate.Struct(sq); err != nil {
		writeDomainError(w, translateValidationError(err))
		return
	}

	if _, ok := params[papersources.ParamStart]; !ok {
		params[papersources.ParamStart] = "0"
	}
	if _, ok := params[papersources.ParamRows]; !ok && s.config.DefaultRows > 0 {
		params[papersources.ParamRows] = strconv.Itoa(s.config.DefaultRows)
	}

	ctx := r.Context()
	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	result, err := s.searcher.Search(ctx, aggregator.Request{
		Params:  params,
		APIKeys: s.apiKeysFromHeaders(r),
	})
	if err != nil {
		logger := observability.LoggerFromContext(r.Context(), s.logger)
		logger.Debug().Err(err).Msg("search request failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// listEngines handles GET /api/v1/engines.
func (s *Server) listEngines(w http.ResponseWriter, _ *http.Request) {
	descriptors := s.searcher.Descriptors()
	resp := listEnginesResponse{
		Engines: make([]engineResponse, len(descriptors)),
	}
	for i, d := range descriptors {
		resp.Engines[i] = descriptorToResponse(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

// queryParams flattens the query string to its first value per name.
func queryParams(r *http.Request) map[string]string {
	values := r.URL.Query()
	params := make(map[string]string, len(values))
	for name, vs := range values {
		if len(vs) > 0 {
			params[name] = vs[0]
		}
	}
	return params
}

// apiKeysFromHeaders collects per-request API keys sent as X-API-Key-<Engine>.
func (s *Server) apiKeysFromHeaders(r *http.Request) map[domain.Engine]string {
	var keys map[domain.Engine]string
	for _, engine := range s.searcher.Engines() {
		key := strings.TrimSpace(r.Header.Get(apiKeyHeaderPrefix + string(engine)))
		if key == "" {
			continue
		}
		if keys == nil {
			keys = make(map[domain.Engine]string)
		}
		keys[engine] = key
	}
	return keys
}

// translateValidationError turns validator output into a domain validation
// error naming the query parameter.
func translateValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("request", err.Error())
	}

	fe := verrs[0]
	field := papersources.ParamQuery
	limit := maxQueryLength
	if fe.Field() == "Source" {
		field = papersources.ParamSource
		limit = maxSelectorLength
	}

	switch fe.Tag() {
	case "required":
		return domain.NewValidationError(field, "is required")
	case "max":
		return domain.NewValidationError(field, fmt.Sprintf("must be at most %d characters", limit))
	default:
		return domain.NewValidationError(field, "is invalid")
	}
}

// writeDomainError maps domain errors to HTTP status codes and writes a JSON
// error response. Upstream details are not leaked to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var (
		missing     *domain.MissingParameterError
		invalid     *domain.InvalidParameterError
		unsupported *domain.UnsupportedEngineError
		ve          *domain.ValidationError
		upstream    *domain.UpstreamFetchError
	)

	switch {
	case errors.As(err, &missing):
		writeError(w, http.StatusBadRequest, missing.Error())
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, invalid.Error())
	case errors.As(err, &unsupported):
		writeError(w, http.StatusBadRequest, unsupported.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "search timed out")
	case errors.As(err, &upstream):
		writeError(w, http.StatusBadGateway, fmt.Sprintf("upstream engine %s failed", upstream.Engine))
	case errors.Is(err, domain.ErrUpstreamFetch):
		writeError(w, http.StatusBadGateway, "upstream engine failed")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
