package modrinth

import (
	"errors"
	"fmt"
)

type ProjectNotFoundError struct {
	Query string
}

func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("No matching project on the catalog for: %s", e.Query)
}

func (e *ProjectNotFoundError) Is(target error) bool {
	t, ok := target.(*ProjectNotFoundError)
	if !ok {
		return false
	}
	return e.Query == t.Query
}

// RateLimitError marks an HTTP 429 from the catalog. Callers must surface it
// distinctly and back off instead of retrying immediately.
type RateLimitError struct {
	Query string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Rate limited by the catalog while fetching: %s", e.Query)
}

func (e *RateLimitError) Is(target error) bool {
	var t *RateLimitError
	return errors.As(target, &t)
}

// CatalogAPIError wraps any other catalog failure. StatusCode is set when the
// failure was an unexpected HTTP status, zero otherwise.
type CatalogAPIError struct {
	Query      string
	StatusCode int
	Err        error
}

func (e *CatalogAPIError) Error() string {
	return fmt.Sprintf("Catalog request failed for: %s", e.Query)
}

func (e *CatalogAPIError) Is(target error) bool {
	var t *CatalogAPIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Query == t.Query
}

func (e *CatalogAPIError) Unwrap() error {
	return e.Err
}

func CatalogAPIErrorWrap(err error, query string) error {
	return &CatalogAPIError{
		Query: query,
		Err:   err,
	}
}

func catalogStatusError(statusCode int, query string) error {
	return &CatalogAPIError{
		Query:      query,
		StatusCode: statusCode,
		Err:        fmt.Errorf("unexpected status code: %d", statusCode),
	}
}
