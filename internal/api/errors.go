package api

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RateLimitError represents a rate limit exceeded error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

// AuthenticationError is returned when the login exchange fails or a request
// is still rejected after one re-authentication.
type AuthenticationError struct {
	Reason     string
	StatusCode int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication error: %s", e.Reason)
}

// CircuitBreakerError indicates the circuit breaker is open.
type CircuitBreakerError struct{}

func (e *CircuitBreakerError) Error() string {
	return "circuit breaker is open, too many recent failures"
}

// InvalidDateFormatError is returned for date strings outside the accepted forms.
type InvalidDateFormatError struct {
	Value string
}

func (e *InvalidDateFormatError) Error() string {
	return fmt.Sprintf("invalid date %q: use YYYY-MM-DD, YYYY-MM-DDTHH:MM or YYYY-MM-DDTHH:MM:SS+HH:MM", e.Value)
}

// InvalidDateRangeError is returned when the start of a range lies after its end.
type InvalidDateRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidDateRangeError) Error() string {
	return fmt.Sprintf("invalid date range: start %s is after end %s", e.Start.Format(DateLayout), e.End.Format(DateLayout))
}

// InvalidRefinementKeyError names a refine or additional key the endpoint does not accept.
type InvalidRefinementKeyError struct {
	Endpoint    Endpoint
	Kind        string // "refine" or "additional"
	Key         string
	Valid       []string
	Suggestions []string
}

func (e *InvalidRefinementKeyError) Error() string {
	msg := fmt.Sprintf("invalid %s key %q for %s (valid: %s)", e.Kind, e.Key, e.Endpoint, strings.Join(e.Valid, ", "))
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf("; did you mean %q?", e.Suggestions[0])
	}
	return msg
}

// InvalidLanguageCodeError is returned for language codes outside the supported set.
type InvalidLanguageCodeError struct {
	Code string
}

func (e *InvalidLanguageCodeError) Error() string {
	return fmt.Sprintf("invalid language code %q (valid: %s)", e.Code, strings.Join(Languages(), ", "))
}

// InvalidParameterError is returned for structurally invalid request parameters.
type InvalidParameterError struct {
	Name   string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Name, e.Reason)
}

// PaginationLimitExceededError is returned when a listing keeps reporting
// further pages past the configured bound.
type PaginationLimitExceededError struct {
	Path     string
	MaxPages int
}

func (e *PaginationLimitExceededError) Error() string {
	return fmt.Sprintf("pagination of %s exceeded %d pages", e.Path, e.MaxPages)
}

// InvalidTemplateError is returned when a redistribution template is
// structurally incomplete.
type InvalidTemplateError struct {
	Field  string
	Reason string
}

func (e *InvalidTemplateError) Error() string {
	return fmt.Sprintf("invalid redistribution template: %s %s", e.Field, e.Reason)
}

// PartialRedistributionError is returned when a redistribution order was
// created but a later step failed. Created holds the order and the
// transactions posted so far.
type PartialRedistributionError struct {
	OrderID int
	Created Record
	Err     error
}

func (e *PartialRedistributionError) Error() string {
	return fmt.Sprintf("redistribution order %d was created but is incomplete: %v", e.OrderID, e.Err)
}

func (e *PartialRedistributionError) Unwrap() error {
	return e.Err
}

// RemoteRejectedError carries a non-2xx response of a read request verbatim.
type RemoteRejectedError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *RemoteRejectedError) Error() string {
	return fmt.Sprintf("%s %s rejected (status %d): %s", e.Method, e.Path, e.StatusCode, remoteMessage(e.Body))
}

// IsRateLimitError checks if the error is a rate limit error.
func IsRateLimitError(err error) bool {
	var e *RateLimitError
	return errors.As(err, &e)
}

// IsAuthenticationError checks if the error is an authentication error.
func IsAuthenticationError(err error) bool {
	var e *AuthenticationError
	return errors.As(err, &e)
}

// IsCircuitBreakerError checks if the error is a circuit breaker error.
func IsCircuitBreakerError(err error) bool {
	var e *CircuitBreakerError
	return errors.As(err, &e)
}

// IsValidationError reports whether err was raised before any request was sent.
func IsValidationError(err error) bool {
	var (
		dateErr     *InvalidDateFormatError
		rangeErr    *InvalidDateRangeError
		refineErr   *InvalidRefinementKeyError
		langErr     *InvalidLanguageCodeError
		paramErr    *InvalidParameterError
		templateErr *InvalidTemplateError
	)
	return errors.As(err, &dateErr) ||
		errors.As(err, &rangeErr) ||
		errors.As(err, &refineErr) ||
		errors.As(err, &langErr) ||
		errors.As(err, &paramErr) ||
		errors.As(err, &templateErr)
}

// IsNotFoundError checks if the error indicates a resource was not found.
func IsNotFoundError(err error) bool {
	var rejected *RemoteRejectedError
	if errors.As(err, &rejected) {
		return rejected.StatusCode == 404
	}
	return false
}
