package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPanesAreExclusive(t *testing.T) {
	s := FormState{Mode: ModeEdit}
	assert.Equal(t, PaneNone, s.Pane())

	s = s.WithError(FieldError{Title: "BAD"})
	assert.Equal(t, PaneError, s.Pane())

	s = s.WithDuplicate(DuplicateChoice{Title: "DUP", AllowKeepBoth: true})
	assert.Equal(t, PaneDuplicate, s.Pane())
	assert.Nil(t, s.Error)

	s = s.WithDestructive(DestructiveWarning{Title: "CAREFUL"})
	assert.Equal(t, PaneDestructive, s.Pane())
	assert.Nil(t, s.Duplicate)

	s = s.Cleared()
	assert.Equal(t, FormState{Mode: ModeEdit}, s)
}

func TestHandlingIsValid(t *testing.T) {
	for _, h := range []DuplicateHandling{HandlingUnhandled, HandlingKeepNew, HandlingKeepBoth} {
		assert.True(t, h.IsValid(), h)
	}
	assert.False(t, DuplicateHandling("keep_all").IsValid())
	assert.False(t, DuplicateHandling("").IsValid())
}

func TestFieldErrorText(t *testing.T) {
	assert.Equal(t, "BAD", (&FieldError{Title: "BAD"}).Error())
	assert.Equal(t, "BAD: why", (&FieldError{Title: "BAD", Description: "why"}).Error())

	unknown := UnknownError("  boom \n")
	assert.Equal(t, UnknownErrorTitle, unknown.Title)
	assert.Equal(t, "boom", unknown.Description)
	assert.NotEmpty(t, unknown.Recommendation)
}

func TestFormatState(t *testing.T) {
	out := FormatState(FormState{Mode: ModeEdit}.WithError(FieldError{
		Title:          "MAXIMUM AGE LESS THAN MINIMUM AGE",
		AffectedFields: []string{"competing_min_age", "competing_max_age"},
		Recommendation: "Raise the maximum age.",
	}))
	assert.Contains(t, out, "# Mode: edit")
	assert.Contains(t, out, "# Error: MAXIMUM AGE LESS THAN MINIMUM AGE")
	assert.Contains(t, out, "competing_max_age")
	assert.Contains(t, out, "> Raise the maximum age.")

	out = FormatState(FormState{Mode: ModeEdit}.WithDuplicate(DuplicateChoice{Title: "POSSIBLE DUPLICATE", AllowKeepNew: true}))
	assert.Contains(t, out, "# Duplicate: POSSIBLE DUPLICATE")
	assert.Contains(t, out, "keep new")

	out = FormatState(FormState{Mode: ModeView}.WithDestructive(DestructiveWarning{
		Title:  "DELETE TEAM",
		Impact: "Swimmers lose their team.",
		Kind:   WarningDestructiveDelete,
	}))
	assert.Contains(t, out, "# Warning (destructive-delete): DELETE TEAM")
	assert.Contains(t, out, "Impact: Swimmers lose their team.")
}

func TestFormatOptions(t *testing.T) {
	assert.Equal(t, "(no matches)", FormatOptions(nil))
	out := FormatOptions([]Selection{{Text: "Sharks", ID: 1}, {Text: "Dolphins", ID: 2}})
	assert.Contains(t, out, "Sharks")
	assert.Contains(t, out, "Dolphins")
	assert.True(t, Selection{ID: 0}.Resolved())
	assert.False(t, Selection{ID: UnresolvedID}.Resolved())
}
