package types

import "strings"

// Mode is the presentation mode of a record form.
type Mode string

const (
	ModeView Mode = "view"
	ModeEdit Mode = "edit"
)

// DuplicateHandling tells the persistence service how to resolve a detected duplicate.
type DuplicateHandling string

const (
	HandlingUnhandled DuplicateHandling = "unhandled"
	HandlingKeepNew   DuplicateHandling = "keep_new"
	HandlingKeepBoth  DuplicateHandling = "keep_both"
)

func (h DuplicateHandling) IsValid() bool {
	switch h {
	case HandlingUnhandled, HandlingKeepNew, HandlingKeepBoth:
		return true
	default:
		return false
	}
}

// UnresolvedID marks a reference selection that does not point at a record.
const UnresolvedID int64 = -1

// Selection is one (display text, identifier) pair of a model reference.
type Selection struct {
	Text string `json:"text"`
	ID   int64  `json:"id"`
}

func (s Selection) Resolved() bool {
	return s.ID != UnresolvedID
}

// FieldError is a user-facing explanation of why a submission did not go through.
type FieldError struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	AffectedFields []string `json:"affected_fields,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
}

func (e *FieldError) Error() string {
	if e.Description == "" {
		return e.Title
	}
	return e.Title + ": " + e.Description
}

// UnknownErrorTitle titles every failure the form could not explain.
const UnknownErrorTitle = "UNKNOWN ERROR"

// UnknownError is shown when a backend failure matches nothing the form declares.
func UnknownError(detail string) FieldError {
	return FieldError{
		Title:          UnknownErrorTitle,
		Description:    strings.TrimSpace(detail),
		Recommendation: "Try again. If the problem persists, contact the meet administrator.",
	}
}

// DuplicateChoice describes the resolutions a record type permits for a duplicate.
type DuplicateChoice struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	AllowKeepBoth bool   `json:"allow_keep_both"`
	AllowKeepNew  bool   `json:"allow_keep_new"`
}

type WarningKind string

const (
	WarningDuplicateKeepNew  WarningKind = "duplicate-keep-new"
	WarningDestructiveSubmit WarningKind = "destructive-submit"
	WarningDestructiveDelete WarningKind = "destructive-delete"
)

// DestructiveWarning asks the user to confirm an action that loses data beyond the
// record being edited.
type DestructiveWarning struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Impact      string      `json:"impact"`
	Kind        WarningKind `json:"kind"`
}

// FormState is what the UI layer renders: the mode and at most one overlay pane.
type FormState struct {
	Mode        Mode                `json:"mode"`
	Error       *FieldError         `json:"error,omitempty"`
	Duplicate   *DuplicateChoice    `json:"duplicate,omitempty"`
	Destructive *DestructiveWarning `json:"destructive,omitempty"`
}

type Pane string

const (
	PaneNone        Pane = ""
	PaneError       Pane = "error"
	PaneDuplicate   Pane = "duplicate"
	PaneDestructive Pane = "destructive"
)

// Pane reports which overlay is showing.
func (s FormState) Pane() Pane {
	switch {
	case s.Error != nil:
		return PaneError
	case s.Duplicate != nil:
		return PaneDuplicate
	case s.Destructive != nil:
		return PaneDestructive
	default:
		return PaneNone
	}
}

// WithError shows err and clears the other panes.
func (s FormState) WithError(err FieldError) FormState {
	return FormState{Mode: s.Mode, Error: &err}
}

func (s FormState) WithDuplicate(choice DuplicateChoice) FormState {
	return FormState{Mode: s.Mode, Duplicate: &choice}
}

func (s FormState) WithDestructive(warning DestructiveWarning) FormState {
	return FormState{Mode: s.Mode, Destructive: &warning}
}

// Cleared drops every pane and keeps the mode.
func (s FormState) Cleared() FormState {
	return FormState{Mode: s.Mode}
}
