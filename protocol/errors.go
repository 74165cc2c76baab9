package protocol

import (
	"errors"
	"fmt"

	"github.com/tbxark/meetform/types"
)

// UnhandledDuplicates is the exact failure text the service sends when a mutation
// would create a duplicate and duplicate_handling was "unhandled".
const UnhandledDuplicates = "unhandled duplicates exist"

// Code is a structured failure code. Services that only send plain text leave it empty.
type Code string

const (
	CodeUnhandledDuplicates Code = "unhandled_duplicates"
	CodeRequired            Code = "required"
	CodeInvalid             Code = "invalid"
	CodeConflict            Code = "conflict"
	CodeNotFound            Code = "not_found"
	CodeForbidden           Code = "forbidden"
	CodeAgeRange            Code = "age_range"
	CodeIneligible          Code = "ineligible"
	CodeInUse               Code = "in_use"
)

func (c Code) IsValid() bool {
	switch c {
	case CodeUnhandledDuplicates, CodeRequired, CodeInvalid, CodeConflict, CodeNotFound,
		CodeForbidden, CodeAgeRange, CodeIneligible, CodeInUse:
		return true
	default:
		return false
	}
}

// DefaultExplanation gives every valid code a user-facing explanation.
func (c Code) DefaultExplanation(params map[string]string) types.FieldError {
	affected := affectedFrom(params)
	switch c {
	case CodeUnhandledDuplicates:
		return types.FieldError{
			Title:       "DUPLICATE RECORD",
			Description: "A matching record already exists.",
		}
	case CodeRequired:
		return types.FieldError{
			Title:          "MISSING VALUE",
			Description:    "A required value was not provided.",
			AffectedFields: affected,
		}
	case CodeInvalid:
		return types.FieldError{
			Title:          "INVALID VALUE",
			Description:    "The service rejected one of the values.",
			AffectedFields: affected,
		}
	case CodeConflict:
		return types.FieldError{
			Title:          "CONFLICT",
			Description:    "The values conflict with another record.",
			AffectedFields: affected,
		}
	case CodeNotFound:
		return types.FieldError{
			Title:          "NOT FOUND",
			Description:    "The record no longer exists.",
			Recommendation: "Reload the page.",
		}
	case CodeForbidden:
		return types.FieldError{
			Title:       "NOT ALLOWED",
			Description: "You are not allowed to change this record.",
		}
	case CodeAgeRange:
		return types.FieldError{
			Title:          "INVALID AGE RANGE",
			Description:    "The age range is not valid.",
			AffectedFields: affected,
		}
	case CodeIneligible:
		return types.FieldError{
			Title:       "NOT ELIGIBLE",
			Description: "The swimmer is not eligible for this event.",
		}
	case CodeInUse:
		return types.FieldError{
			Title:       "RECORD IN USE",
			Description: "Other records still depend on this one.",
		}
	default:
		return types.UnknownError(string(c))
	}
}

func affectedFrom(params map[string]string) []string {
	if f, ok := params["field"]; ok && f != "" {
		return []string{f}
	}
	return nil
}

// BackendError is a non-success response from the persistence service.
type BackendError struct {
	Method string
	Route  string
	Status int
	Text   string
	Code   Code
	Params map[string]string
}

func (e *BackendError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %d %s (%s)", e.Method, e.Route, e.Status, e.Text, e.Code)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Route, e.Status, e.Text)
}

// IsUnhandledDuplicates reports whether err is the service's duplicate signal.
func IsUnhandledDuplicates(err error) bool {
	var be *BackendError
	if !errors.As(err, &be) {
		return false
	}
	return be.Text == UnhandledDuplicates || be.Code == CodeUnhandledDuplicates
}

// ErrorMatch pairs an exact failure text with its explanation.
type ErrorMatch struct {
	Match string
	Error types.FieldError
}

// ErrorList is the declarative, ordered list of failure texts a form knows about.
type ErrorList []ErrorMatch

// Lookup returns the first entry whose text equals text exactly.
func (l ErrorList) Lookup(text string) (types.FieldError, bool) {
	for _, m := range l {
		if m.Match == text {
			return m.Error, true
		}
	}
	return types.FieldError{}, false
}

// CodeTable overrides the default explanation of codes for one form.
type CodeTable map[Code]types.FieldError

// Explain maps a failed call to the explanation shown to the user. A valid structured
// code wins; then the first exact text match in list; anything else is UNKNOWN ERROR.
func Explain(err error, codes CodeTable, list ErrorList) types.FieldError {
	var be *BackendError
	if !errors.As(err, &be) {
		return types.UnknownError(err.Error())
	}
	if be.Code.IsValid() {
		if fe, ok := codes[be.Code]; ok {
			return fe
		}
		return be.Code.DefaultExplanation(be.Params)
	}
	if fe, ok := list.Lookup(be.Text); ok {
		return fe
	}
	return types.UnknownError(be.Text)
}
