package meetform

import (
	"fmt"

	"github.com/tbxark/meetform/types"
)

// Status is the engine's position in the submission protocol.
type Status string

const (
	StatusViewing            Status = "viewing"
	StatusEditing            Status = "editing"
	StatusSubmitting         Status = "submitting"
	StatusErrorShown         Status = "error_shown"
	StatusDuplicatePending   Status = "duplicate_pending"
	StatusDestructivePending Status = "destructive_pending"
	StatusClosed             Status = "closed"
)

// State is the full engine state. The embedded FormState carries at most one pane,
// and which one always agrees with Status.
type State struct {
	Status Status `json:"status"`
	types.FormState
}

func viewingState() State {
	return State{Status: StatusViewing, FormState: types.FormState{Mode: types.ModeView}}
}

func editingState() State {
	return State{Status: StatusEditing, FormState: types.FormState{Mode: types.ModeEdit}}
}

// Event is something that happened to a form.
type Event interface {
	Name() string
}

type (
	// EditRequested switches a viewed record into edit mode.
	EditRequested struct{}
	// Cancelled abandons the edit. Close is set for flows without a view mode.
	Cancelled struct{ Close bool }
	// SubmitStarted marks a mutation as in flight.
	SubmitStarted struct{}
	// ConfirmationRequired interrupts with a destructive warning.
	ConfirmationRequired struct{ Warning types.DestructiveWarning }
	// DuplicateDetected reports the service's duplicate signal.
	DuplicateDetected struct{ Choice types.DuplicateChoice }
	// Failed ends an attempt with an explanation.
	Failed struct{ Err types.FieldError }
	// Succeeded ends an attempt successfully. Close is set when the form navigates away.
	Succeeded struct{ Close bool }
	// Dismissed closes the visible pane.
	Dismissed struct{}
)

func (EditRequested) Name() string        { return "edit_requested" }
func (Cancelled) Name() string            { return "cancelled" }
func (SubmitStarted) Name() string        { return "submit_started" }
func (ConfirmationRequired) Name() string { return "confirmation_required" }
func (DuplicateDetected) Name() string    { return "duplicate_detected" }
func (Failed) Name() string               { return "failed" }
func (Succeeded) Name() string            { return "succeeded" }
func (Dismissed) Name() string            { return "dismissed" }

func invalid(s State, e Event) error {
	return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e.Name(), s.Status)
}

// Transition computes the state that follows s when e happens. It has no side effects.
func Transition(s State, e Event) (State, error) {
	if s.Status == StatusClosed {
		return s, ErrClosed
	}
	switch ev := e.(type) {
	case EditRequested:
		if s.Status != StatusViewing {
			return s, invalid(s, e)
		}
		return editingState(), nil

	case Cancelled:
		if s.Status != StatusEditing && s.Status != StatusErrorShown {
			return s, invalid(s, e)
		}
		if ev.Close {
			return State{Status: StatusClosed, FormState: s.FormState.Cleared()}, nil
		}
		return viewingState(), nil

	case SubmitStarted:
		if s.Status == StatusSubmitting {
			return s, ErrBusy
		}
		return State{Status: StatusSubmitting, FormState: s.FormState.Cleared()}, nil

	case ConfirmationRequired:
		if s.Status == StatusSubmitting {
			return s, ErrBusy
		}
		return State{Status: StatusDestructivePending, FormState: s.FormState.WithDestructive(ev.Warning)}, nil

	case DuplicateDetected:
		if s.Status != StatusSubmitting {
			return s, invalid(s, e)
		}
		return State{Status: StatusDuplicatePending, FormState: s.FormState.WithDuplicate(ev.Choice)}, nil

	case Failed:
		if s.Status != StatusSubmitting {
			return s, invalid(s, e)
		}
		return State{Status: StatusErrorShown, FormState: s.FormState.WithError(ev.Err)}, nil

	case Succeeded:
		if s.Status != StatusSubmitting {
			return s, invalid(s, e)
		}
		if ev.Close {
			return State{Status: StatusClosed, FormState: s.FormState.Cleared()}, nil
		}
		return viewingState(), nil

	case Dismissed:
		switch s.Status {
		case StatusErrorShown, StatusDuplicatePending, StatusDestructivePending:
		default:
			return s, invalid(s, e)
		}
		if s.Mode == types.ModeEdit {
			return editingState(), nil
		}
		return viewingState(), nil

	default:
		return s, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, e)
	}
}
