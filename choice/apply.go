package choice

import (
	"context"
	"fmt"

	"github.com/tbxark/meetform"
)

// Apply carries out c on the form.
func Apply(ctx context.Context, e *meetform.Engine, c Choice) (meetform.Outcome, error) {
	state := e.State()
	if c == None {
		return meetform.Outcome{State: state}, nil
	}
	if !isAllowed(state, c) {
		return meetform.Outcome{State: state}, fmt.Errorf("%w: %s in %s", meetform.ErrChoiceNotAllowed, c, state.Status)
	}
	switch c {
	case Continue:
		if state.Status == meetform.StatusDestructivePending {
			return e.Confirm(ctx)
		}
		return e.Dismiss()
	case KeepBoth:
		return e.KeepBoth(ctx)
	case KeepNew:
		return e.KeepNew()
	default:
		return e.Dismiss()
	}
}
