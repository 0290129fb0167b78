package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a failure for scripts consuming JSON error output.
type ErrorCode string

const (
	ErrBadRequest   ErrorCode = "bad_request"
	ErrUnauthorized ErrorCode = "unauthorized"
	ErrForbidden    ErrorCode = "forbidden"
	ErrNotFound     ErrorCode = "not_found"
	ErrConflict     ErrorCode = "conflict"
	ErrValidation   ErrorCode = "validation_failed"
	ErrRateLimited  ErrorCode = "rate_limited"
	ErrServerError  ErrorCode = "server_error"
	ErrTimeout      ErrorCode = "timeout"
	ErrCircuitOpen  ErrorCode = "circuit_open"
	ErrPageLimit    ErrorCode = "page_limit_exceeded"
	ErrUnknown      ErrorCode = "unknown"
)

type codeInfo struct {
	transient bool
	hint      string
}

var codes = map[ErrorCode]codeInfo{
	ErrBadRequest:   {hint: "Check the query parameters with 'plenty endpoints'"},
	ErrUnauthorized: {hint: "Run 'plenty auth login' to store valid credentials"},
	ErrForbidden:    {hint: "The REST user lacks the right for this route; check its role in the back office"},
	ErrNotFound:     {hint: "Verify the ID exists in the back office"},
	ErrConflict:     {hint: "The record changed in the meantime; fetch it again"},
	ErrValidation:   {hint: "Check the input values"},
	ErrRateLimited:  {transient: true, hint: "The call quota is used up; wait and retry"},
	ErrServerError:  {transient: true, hint: "The PlentyMarkets system failed; try again later"},
	ErrTimeout:      {transient: true, hint: "Raise --timeout or check connectivity"},
	ErrCircuitOpen:  {transient: true, hint: "Too many recent failures; wait before retrying"},
	ErrPageLimit:    {hint: "Narrow the filters or raise --max-pages"},
}

// IsRetryable reports whether the same call may succeed later.
func (c ErrorCode) IsRetryable() bool {
	return codes[c].transient
}

// Suggestion is a one-line hint on how to recover.
func (c ErrorCode) Suggestion() string {
	return codes[c].hint
}

var statusCodes = map[int]ErrorCode{
	400: ErrBadRequest,
	401: ErrUnauthorized,
	403: ErrForbidden,
	404: ErrNotFound,
	409: ErrConflict,
	422: ErrValidation,
	429: ErrRateLimited,
}

// ErrorCodeFromStatus maps an HTTP status to an ErrorCode.
func ErrorCodeFromStatus(status int) ErrorCode {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	if status >= 500 && status <= 599 {
		return ErrServerError
	}
	return ErrUnknown
}

// StructuredError is the JSON shape of a failed command.
type StructuredError struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Hint      string         `json:"hint,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Allowed   []string       `json:"allowed,omitempty"`
}

func (e *StructuredError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func newStructured(code ErrorCode, msg string, details map[string]any) *StructuredError {
	return &StructuredError{
		Code:      code,
		Message:   msg,
		Retryable: code.IsRetryable(),
		Hint:      code.Suggestion(),
		Details:   details,
	}
}

func invalidValue(field, got string, allowed []string) *StructuredError {
	se := newStructured(ErrValidation, fmt.Sprintf("invalid %s %q", field, got), map[string]any{"field": field})
	se.Allowed = allowed
	se.Hint = "Use one of: " + strings.Join(allowed, ", ")
	return se
}

// StructuredErrorFromError classifies err. It returns nil for a nil error.
func StructuredErrorFromError(err error) *StructuredError {
	if err == nil {
		return nil
	}

	var partial *PartialRedistributionError
	if errors.As(err, &partial) && partial.Err != nil {
		out := *StructuredErrorFromError(partial.Err)
		out.Message = partial.Error()
		details := map[string]any{"order_id": partial.OrderID}
		for k, v := range out.Details {
			details[k] = v
		}
		out.Details = details
		return &out
	}

	var (
		se      *StructuredError
		remote  *RemoteRejectedError
		refine  *InvalidRefinementKeyError
		lang    *InvalidLanguageCodeError
		pages   *PaginationLimitExceededError
		limited *RateLimitError
		authErr *AuthenticationError
		breaker *CircuitBreakerError
	)
	switch {
	case errors.As(err, &se):
		return se
	case errors.As(err, &remote):
		return newStructured(ErrorCodeFromStatus(remote.StatusCode), remoteMessage(remote.Body), map[string]any{
			"status":  remote.StatusCode,
			"request": remote.Method + " " + remote.Path,
		})
	case errors.As(err, &refine):
		out := invalidValue(refine.Kind+" key", refine.Key, refine.Valid)
		out.Details["endpoint"] = string(refine.Endpoint)
		if len(refine.Suggestions) > 0 {
			out.Hint = fmt.Sprintf("Did you mean %q?", refine.Suggestions[0])
		}
		return out
	case errors.As(err, &lang):
		return invalidValue("language", lang.Code, Languages())
	case IsValidationError(err):
		return newStructured(ErrValidation, err.Error(), nil)
	case errors.As(err, &pages):
		return newStructured(ErrPageLimit, pages.Error(), map[string]any{
			"path":      pages.Path,
			"max_pages": pages.MaxPages,
		})
	case errors.As(err, &limited):
		return newStructured(ErrRateLimited, limited.Error(), map[string]any{
			"retry_after": limited.RetryAfter.String(),
		})
	case errors.As(err, &authErr):
		code := ErrUnauthorized
		if authErr.StatusCode == 403 {
			code = ErrForbidden
		}
		return newStructured(code, authErr.Error(), nil)
	case errors.As(err, &breaker):
		return newStructured(ErrCircuitOpen, breaker.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		return newStructured(ErrTimeout, err.Error(), nil)
	}
	return &StructuredError{Code: ErrUnknown, Message: err.Error()}
}
