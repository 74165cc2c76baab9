// Package choice interprets a user's answer to the pane a form is showing.
package choice

import (
	"context"
	"errors"
	"slices"

	"github.com/tbxark/meetform"
)

type Choice string

const (
	Continue Choice = "continue"
	Cancel   Choice = "cancel"
	KeepBoth Choice = "keep_both"
	KeepNew  Choice = "keep_new"
	None     Choice = "none"
)

func (c Choice) IsValid() bool {
	switch c {
	case Continue, Cancel, KeepBoth, KeepNew, None:
		return true
	default:
		return false
	}
}

// ErrUnrecognized is returned by parsers that cannot map an answer to a choice.
var ErrUnrecognized = errors.New("choice: answer not recognized")

// Request is an answer given while state was shown.
type Request struct {
	State  meetform.State
	Answer string
}

type Parser interface {
	Parse(ctx context.Context, req Request) (Choice, error)
}

// Allowed lists the choices the visible pane offers. A form without a pane offers none.
func Allowed(state meetform.State) []Choice {
	switch state.Status {
	case meetform.StatusDestructivePending:
		return []Choice{Continue, Cancel}
	case meetform.StatusDuplicatePending:
		var out []Choice
		if state.Duplicate != nil && state.Duplicate.AllowKeepBoth {
			out = append(out, KeepBoth)
		}
		if state.Duplicate != nil && state.Duplicate.AllowKeepNew {
			out = append(out, KeepNew)
		}
		return append(out, Cancel)
	case meetform.StatusErrorShown:
		return []Choice{Continue}
	default:
		return nil
	}
}

func isAllowed(state meetform.State, c Choice) bool {
	return slices.Contains(Allowed(state), c)
}
