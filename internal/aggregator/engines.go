package aggregator

import (
	"strings"

	"github.com/helixir/literature-search-service/internal/domain"
)

// ParseEngines resolves the raw source selector against the known engines.
//
// A blank selector selects every known engine in the given order. Otherwise
// the selector is split on commas; each token is trimmed and matched without
// regard to case. Repeated engines keep their first position. A token that
// matches no known engine, including an empty one, yields an
// UnsupportedEngineError carrying the trimmed token.
func ParseEngines(raw string, known []domain.Engine) ([]domain.Engine, error) {
	if strings.TrimSpace(raw) == "" {
		return append([]domain.Engine(nil), known...), nil
	}

	knownSet := make(map[domain.Engine]struct{}, len(known))
	for _, e := range known {
		knownSet[e] = struct{}{}
	}

	tokens := strings.Split(raw, ",")
	engines := make([]domain.Engine, 0, len(tokens))
	seen := make(map[domain.Engine]struct{}, len(tokens))

	for _, token := range tokens {
		trimmed := strings.TrimSpace(token)
		engine := domain.Engine(strings.ToLower(trimmed))
		if _, ok := knownSet[engine]; !ok {
			return nil, domain.NewUnsupportedEngineError(trimmed)
		}
		if _, dup := seen[engine]; dup {
			continue
		}
		seen[engine] = struct{}{}
		engines = append(engines, engine)
	}

	return engines, nil
}
