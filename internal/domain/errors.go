package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingParameter indicates a required request parameter is absent or blank.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrInvalidParameterValue indicates a parameter value is non-numeric or out of range.
	ErrInvalidParameterValue = errors.New("invalid parameter value")

	// ErrUnsupportedEngine indicates the source selector named an unknown engine.
	ErrUnsupportedEngine = errors.New("unsupported engine")

	// ErrUpstreamFetch indicates the transport failed for one engine.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrMalformedResponse indicates an upstream payload could not be understood.
	ErrMalformedResponse = errors.New("malformed upstream response")

	// ErrFilterNotYetExecuted indicates filter statistics were read before a run.
	ErrFilterNotYetExecuted = errors.New("filter not yet executed")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// MissingParameterError names the engine and the required parameter that was
// absent or blank.
type MissingParameterError struct {
	Engine    Engine
	Parameter string
}

// Error implements the error interface.
func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("%s: missing required parameter %q", e.Engine, e.Parameter)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *MissingParameterError) Unwrap() error {
	return ErrMissingParameter
}

// InvalidParameterError describes a parameter whose value could not be used.
type InvalidParameterError struct {
	Parameter string
	Value     string
	Reason    string
}

// Error implements the error interface.
func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid value %q for parameter %q: %s", e.Value, e.Parameter, e.Reason)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *InvalidParameterError) Unwrap() error {
	return ErrInvalidParameterValue
}

// UnsupportedEngineError carries the source selector token that matched no engine.
type UnsupportedEngineError struct {
	Token string
}

// Error implements the error interface.
func (e *UnsupportedEngineError) Error() string {
	return fmt.Sprintf("unsupported engine: %q", e.Token)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *UnsupportedEngineError) Unwrap() error {
	return ErrUnsupportedEngine
}

// UpstreamFetchError reports a transport failure for one engine.
type UpstreamFetchError struct {
	Engine Engine
	URL    string
	Cause  error
}

// Error implements the error interface.
func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("%s: fetching %s: %v", e.Engine, e.URL, e.Cause)
}

// Unwrap returns both the sentinel and the cause so errors.Is matches either.
func (e *UpstreamFetchError) Unwrap() []error {
	return []error{ErrUpstreamFetch, e.Cause}
}

// MalformedResponseError reports an upstream payload whose overall structure
// could not be extracted.
type MalformedResponseError struct {
	Engine Engine
	Format string
	Reason string
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed %s response: %s", e.Engine, e.Format, e.Reason)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *MalformedResponseError) Unwrap() error {
	return ErrMalformedResponse
}

// FilterNotExecutedError is returned when statistics are requested from a
// filter that has not run yet.
type FilterNotExecutedError struct {
	Filter string
}

// Error implements the error interface.
func (e *FilterNotExecutedError) Error() string {
	return fmt.Sprintf("filter %s has not been executed", e.Filter)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *FilterNotExecutedError) Unwrap() error {
	return ErrFilterNotYetExecuted
}

// ExternalAPIError provides details about an external API error.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ExternalAPIError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewMissingParameterError creates a new MissingParameterError.
func NewMissingParameterError(engine Engine, parameter string) *MissingParameterError {
	return &MissingParameterError{
		Engine:    engine,
		Parameter: parameter,
	}
}

// NewInvalidParameterError creates a new InvalidParameterError.
func NewInvalidParameterError(parameter, value, reason string) *InvalidParameterError {
	return &InvalidParameterError{
		Parameter: parameter,
		Value:     value,
		Reason:    reason,
	}
}

// NewUnsupportedEngineError creates a new UnsupportedEngineError.
func NewUnsupportedEngineError(token string) *UnsupportedEngineError {
	return &UnsupportedEngineError{Token: token}
}

// NewUpstreamFetchError creates a new UpstreamFetchError.
func NewUpstreamFetchError(engine Engine, url string, cause error) *UpstreamFetchError {
	return &UpstreamFetchError{
		Engine: engine,
		URL:    url,
		Cause:  cause,
	}
}

// NewMalformedResponseError creates a new MalformedResponseError.
func NewMalformedResponseError(engine Engine, format, reason string) *MalformedResponseError {
	return &MalformedResponseError{
		Engine: engine,
		Format: format,
		Reason: reason,
	}
}

// NewFilterNotExecutedError creates a new FilterNotExecutedError.
func NewFilterNotExecutedError(filter string) *FilterNotExecutedError {
	return &FilterNotExecutedError{Filter: filter}
}

// NewExternalAPIError creates a new ExternalAPIError.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}
