package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the search pipeline. Every failure inside a fetch,
// backend or candidate is classified by one of these before it is logged
// and swallowed.
var (
	ErrFetch        = fmt.Errorf("fetch failed")
	ErrHTTPStatus   = fmt.Errorf("non-success http status")
	ErrUnparseable  = fmt.Errorf("unparseable response body")
	ErrNoContent    = fmt.Errorf("no usable content")
	ErrSSRFBlocked  = fmt.Errorf("request to private/reserved IP blocked")
	ErrCircuitOpen  = fmt.Errorf("circuit open")
	ErrRateLimit    = fmt.Errorf("rate limit exceeded")
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrConfigLoad   = fmt.Errorf("failed to load configuration")
	ErrCacheStore   = fmt.Errorf("result cache operation failed")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op     string // operation name (e.g., "Extractor.Extract")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ErrorCode is a machine-parseable error category used as a metrics label.
type ErrorCode string

const (
	CodeUnknown      ErrorCode = "UNKNOWN"
	CodeFetch        ErrorCode = "FETCH"
	CodeHTTPStatus   ErrorCode = "HTTP_STATUS"
	CodeUnparseable  ErrorCode = "UNPARSEABLE"
	CodeNoContent    ErrorCode = "NO_CONTENT"
	CodeSSRFBlocked  ErrorCode = "SSRF_BLOCKED"
	CodeCircuitOpen  ErrorCode = "CIRCUIT_OPEN"
	CodeRateLimit    ErrorCode = "RATE_LIMIT"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeConfigLoad   ErrorCode = "CONFIG_LOAD"
	CodeCacheStore   ErrorCode = "CACHE_STORE"
)

// errorCodeMap maps sentinel errors to their machine-parseable codes.
// Order matters for wrapped chains: ErrSSRFBlocked is usually wrapped by
// ErrFetch, so the more specific sentinels are checked first.
var errorCodeMap = []struct {
	err  error
	code ErrorCode
}{
	{ErrSSRFBlocked, CodeSSRFBlocked},
	{ErrCircuitOpen, CodeCircuitOpen},
	{ErrRateLimit, CodeRateLimit},
	{ErrHTTPStatus, CodeHTTPStatus},
	{ErrUnparseable, CodeUnparseable},
	{ErrNoContent, CodeNoContent},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrConfigLoad, CodeConfigLoad},
	{ErrCacheStore, CodeCacheStore},
	{ErrFetch, CodeFetch},
}

// ErrorCodeOf returns the machine-parseable error code for the given error.
// Returns CodeUnknown if no matching sentinel is found.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	for _, m := range errorCodeMap {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return CodeUnknown
}

// Code returns the ErrorCode for this DomainError's underlying sentinel.
func (e *DomainError) Code() ErrorCode {
	return ErrorCodeOf(e.Err)
}
