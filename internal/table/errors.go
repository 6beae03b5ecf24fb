// Package table implements the data table: parameter state, the unified
// fetch controller with stale-result suppression, gated page advancement,
// CSV export, and the registry of mounted views.
//
// # Error Codes Reference
//
// Every error that reaches a user is mapped to a short message with a code
// for support reference. Failures are deliberately coarse: network errors,
// timeouts and non-2xx statuses all map to the same fetch message.
//
//	FETCH001 - Something went wrong. Please try again later
//	           Any failure while loading a page of rows.
//
//	EXP001   - Failed to export CSV
//	           Transport failure or unreadable export body.
//
//	EXP002   - Error: CSV export failed
//	           The export endpoint answered with a non-2xx status.
//
//	EXP003   - Failed to export CSV
//	           All export slots were busy for the whole wait window.
//
//	VIEW001  - This table has expired
//	           The view id is unknown, idle-evicted or unmounted.
//
//	PARAM001 - Invalid parameter
//	           A control value could not be parsed or is out of range.
//
//	RATE001  - Too many requests
//	           The caller exceeded the per-client request budget.
//
//	ERR000   - An unexpected error occurred
//	           Fallback; check the server logs for the technical error.
//
// Superseded fetch results are never mapped: they are dropped silently.
package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/datatable/internal/generator"
)

var (
	// ErrViewNotFound is returned by the registry for unknown or expired ids.
	ErrViewNotFound = errors.New("view not found")

	// ErrViewClosed is returned by operations on an unmounted view.
	ErrViewClosed = errors.New("view closed")

	// ErrSuperseded marks the result of a fetch whose trigger was overtaken
	// by a newer one. Callers must discard it without reporting.
	ErrSuperseded = errors.New("fetch superseded")

	// ErrIgnored is returned when a page advance is not allowed right now:
	// a fetch is in flight, has-more is false, or the page is not next.
	ErrIgnored = errors.New("page advance ignored")

	// ErrInvalidParam wraps every rejected parameter value.
	ErrInvalidParam = errors.New("invalid parameter")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorRule struct {
	match func(error) bool
	msg   UserMessage
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

// exportRejected reports an export the upstream answered with a non-2xx status.
func exportRejected(err error) bool {
	if !errors.Is(err, generator.ErrExport) {
		return false
	}
	status := generator.StatusCode(err)
	return status != 0 && (status < 200 || status > 299)
}

// errorRules is ordered: the first match wins, so specific rules come first.
var errorRules = []errorRule{
	{
		match: is(ErrInvalidParam),
		msg: UserMessage{
			Message: "Invalid parameter",
			Action:  "Check the value and try again",
			Code:    "PARAM001",
		},
	},
	{
		match: func(err error) bool { return errors.Is(err, ErrViewNotFound) || errors.Is(err, ErrViewClosed) },
		msg: UserMessage{
			Message: "This table has expired",
			Action:  "Reload the page to start a new session",
			Code:    "VIEW001",
		},
	},
	{
		match: is(ErrTooManyExports),
		msg: UserMessage{
			Message: "Failed to export CSV",
			Action:  "Too many exports in progress. Please wait a moment and try again",
			Code:    "EXP003",
		},
	},
	{
		match: exportRejected,
		msg: UserMessage{
			Message: "Error: CSV export failed",
			Action:  "Please try again later",
			Code:    "EXP002",
		},
	},
	{
		match: is(generator.ErrExport),
		msg: UserMessage{
			Message: "Failed to export CSV",
			Action:  "Please try again later",
			Code:    "EXP001",
		},
	},
	{
		match: is(generator.ErrFetch),
		msg: UserMessage{
			Message: "Something went wrong. Please try again later",
			Action:  "Change a parameter or scroll again to retry",
			Code:    "FETCH001",
		},
	},
	{
		match: func(err error) bool { return strings.Contains(strings.ToLower(err.Error()), "rate limit") },
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no rule matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. A nil
// error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, r := range errorRules {
		if r.match(err) {
			return r.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// UserError pairs a technical error (for logs) with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}

// IsReportable reports whether err should be shown to the user at all.
// Superseded and ignored results are dropped silently.
func IsReportable(err error) bool {
	return err != nil && !errors.Is(err, ErrSuperseded) && !errors.Is(err, ErrIgnored)
}
