package meetform

import "errors"

var (
	ErrBusy                  = errors.New("meetform: a submission is already in flight")
	ErrClosed                = errors.New("meetform: form is closed")
	ErrUnmounted             = errors.New("meetform: form is unmounted")
	ErrNotEditing            = errors.New("meetform: form is not in edit mode")
	ErrNoRecord              = errors.New("meetform: form has no loaded record")
	ErrChoiceNotAllowed      = errors.New("meetform: choice not allowed for this record type")
	ErrNoPendingConfirmation = errors.New("meetform: nothing is waiting for confirmation")
	ErrInvalidTransition     = errors.New("meetform: invalid transition")
	ErrUnknownField          = errors.New("meetform: unknown field")
	ErrReadOnlyField         = errors.New("meetform: field is read-only")
)
