// Package errors defines the error taxonomy shared by the workflow and
// its HTTP surface: what kind of failure happened, and how a caller
// should surface it.
//
// No retry policy lives here. Categorize only tells the caller whether
// trying the same turn again might succeed.
package errors

import (
	"context"
	"errors"
	"net/http"
)

// Category classifies an error for reporting.
type Category int

const (
	CategoryInternal Category = iota
	CategoryValidation
	CategoryNotFound
	CategoryProvider
	CategoryCancelled
)

func (c Category) String() string {
	switch c {
	case CategoryInternal:
		return "internal"
	case CategoryValidation:
		return "validation"
	case CategoryNotFound:
		return "not_found"
	case CategoryProvider:
		return "provider"
	case CategoryCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Categorize inspects the error chain. Validation wins over provider so
// that a bad request wrapped by a collaborator is still reported as such.
func Categorize(err error) Category {
	if err == nil {
		return CategoryInternal
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return CategoryValidation
	}

	var nfErr *NotFoundError
	if errors.As(err, &nfErr) {
		return CategoryNotFound
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryCancelled
	}

	var provErr *ProviderError
	var httpErr *HTTPError
	var jsonErr *JSONParseError
	var timeoutErr *TimeoutError
	if errors.As(err, &provErr) || errors.As(err, &httpErr) ||
		errors.As(err, &jsonErr) || errors.As(err, &timeoutErr) {
		return CategoryProvider
	}

	return CategoryInternal
}

// IsTransient reports whether repeating the same turn later might succeed:
// rate limits, upstream 5xx responses and timeouts.
func IsTransient(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool { return Categorize(err) == CategoryValidation }

// IsProvider reports whether err came from an external collaborator.
func IsProvider(err error) bool { return Categorize(err) == CategoryProvider }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool { return Categorize(err) == CategoryNotFound }

// StatusClientClosedRequest is the non-standard 499 used when the caller
// went away before the turn finished.
const StatusClientClosedRequest = 499

// HTTPStatus maps err to the status code the API responds with.
func HTTPStatus(err error) int {
	switch Categorize(err) {
	case CategoryValidation:
		return http.StatusUnprocessableEntity
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryCancelled:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return StatusClientClosedRequest
	case CategoryProvider:
		if IsTransient(err) {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
