package generator

import (
	"errors"
	"fmt"
)

// Operation sentinels. Every error returned by Client wraps exactly one of
// these, so callers can classify failures with errors.Is.
var (
	ErrFetch  = errors.New("fetch rows failed")
	ErrExport = errors.New("csv export failed")
)

// ErrorClass represents a classification of upstream failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures and timeouts.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a 2xx response with an unreadable body.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassRateLimit represents a local outbound limiter refusal.
	ErrorClassRateLimit ErrorClass = "rate_limit"
)

// Error describes a failed upstream call.
type Error struct {
	Op         string // "list" or "export"
	Endpoint   string
	StatusCode int // 0 when no response was received
	Class      ErrorClass
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	sentinel := e.sentinel()
	if e.StatusCode != 0 {
		if e.Err != nil {
			return fmt.Sprintf("%v: %s %s error (status %d): %v", sentinel, e.Endpoint, e.Class, e.StatusCode, e.Err)
		}
		return fmt.Sprintf("%v: %s %s error (status %d)", sentinel, e.Endpoint, e.Class, e.StatusCode)
	}
	return fmt.Sprintf("%v: %s %s error: %v", sentinel, e.Endpoint, e.Class, e.Err)
}

// Unwrap exposes both the operation sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.sentinel()}
	}
	return []error{e.sentinel(), e.Err}
}

func (e *Error) sentinel() error {
	if e.Op == opExport {
		return ErrExport
	}
	return ErrFetch
}

// StatusCode returns the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.StatusCode
	}
	return 0
}

// classifyStatus maps a non-2xx status to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}
