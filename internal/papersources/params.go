package papersources

import (
	"strconv"
	"strings"

	"github.com/helixir/literature-search-service/internal/domain"
)

// Raw parameter names shared by every engine.
const (
	ParamQuery  = "q"
	ParamStart  = "start"
	ParamRows   = "rows"
	ParamSource = "source"
)

// MaxRows is the largest page size accepted for any engine.
const MaxRows = 1000

// Params is an immutable view over raw request parameters. The zero value is
// an empty view. Views derived with With never modify their parent.
type Params struct {
	values map[string]string
}

// NewParams copies raw into a new view.
func NewParams(raw map[string]string) Params {
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		values[k] = v
	}
	return Params{values: values}
}

// Get returns the raw value of name, or "" when absent.
func (p Params) Get(name string) string {
	return p.values[name]
}

// Lookup returns the raw value of name and whether it was present.
func (p Params) Lookup(name string) (string, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Has reports whether name is present with a non-blank value.
func (p Params) Has(name string) bool {
	return strings.TrimSpace(p.values[name]) != ""
}

// With returns a new view containing p overlaid with overrides.
// Blank override values are ignored so they never erase a base value.
func (p Params) With(overrides map[string]string) Params {
	values := make(map[string]string, len(p.values)+len(overrides))
	for k, v := range p.values {
		values[k] = v
	}
	for k, v := range overrides {
		if strings.TrimSpace(v) == "" {
			continue
		}
		values[k] = v
	}
	return Params{values: values}
}

// Int parses name as a base-10 integer.
func (p Params) Int(name string) (int, error) {
	raw := strings.TrimSpace(p.values[name])
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewInvalidParameterError(name, raw, "must be an integer")
	}
	return n, nil
}

// Pagination parses the shared start and rows parameters. start must be
// non-negative and rows must lie in [1, MaxRows].
func Pagination(p Params) (start, rows int, err error) {
	start, err = p.Int(ParamStart)
	if err != nil {
		return 0, 0, err
	}
	if start < 0 {
		return 0, 0, domain.NewInvalidParameterError(ParamStart, p.Get(ParamStart), "must not be negative")
	}

	rows, err = p.Int(ParamRows)
	if err != nil {
		return 0, 0, err
	}
	if rows < 1 || rows > MaxRows {
		return 0, 0, domain.NewInvalidParameterError(ParamRows, p.Get(ParamRows),
			"must be between 1 and "+strconv.Itoa(MaxRows))
	}

	return start, rows, nil
}

// Query returns the trimmed free-text query.
func Query(p Params) string {
	return strings.TrimSpace(p.Get(ParamQuery))
}
