package meetform

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/tbxark/meetform/field"
	"github.com/tbxark/meetform/protocol"
	"github.com/tbxark/meetform/reference"
	"github.com/tbxark/meetform/types"
)

// Backend performs mutations against the persistence service. *protocol.Client
// implements it.
type Backend interface {
	Create(ctx context.Context, route string, body map[string]any, query url.Values) (protocol.Record, error)
	Update(ctx context.Context, route string, body map[string]any, query url.Values) (protocol.Record, error)
	Delete(ctx context.Context, route string, query url.Values) error
}

// FormSpec declares everything the engine needs to know about one record type.
type FormSpec struct {
	Name        string
	Route       string
	IDParam     string
	ScopeParams map[string]string

	Rows       field.Rows
	References []reference.Spec

	// Duplicate lists the resolutions offered when the service reports a duplicate.
	Duplicate      *types.DuplicateChoice
	KeepNewWarning *types.DestructiveWarning
	// SubmitWarning, when set, must be confirmed before every submission.
	SubmitWarning *types.DestructiveWarning

	Errors protocol.ErrorList
	Codes  protocol.CodeTable

	// DetailRoute is where a created record is shown.
	DetailRoute func(pk int64) string

	Delete DeleteSpec
}

// DeleteSpec configures the deletion path.
type DeleteSpec struct {
	Warning *types.DestructiveWarning
	Errors  protocol.ErrorList
	Codes   protocol.CodeTable
	Forward string
}

// Check reports declaration mistakes.
func (s FormSpec) Check() error {
	if s.Name == "" {
		return errors.New("form spec has no name")
	}
	if s.Route == "" {
		return fmt.Errorf("form %s has no route", s.Name)
	}
	if s.IDParam == "" {
		return fmt.Errorf("form %s has no id parameter", s.Name)
	}
	if err := s.Rows.Check(); err != nil {
		return fmt.Errorf("form %s: %w", s.Name, err)
	}
	seen := make(map[string]bool)
	for _, ref := range s.References {
		if ref.QueryParam == "" {
			return fmt.Errorf("form %s: reference without query parameter", s.Name)
		}
		if seen[ref.QueryParam] {
			return fmt.Errorf("form %s: reference %q declared twice", s.Name, ref.QueryParam)
		}
		if _, clash := s.Rows.Lookup(ref.QueryParam); clash {
			return fmt.Errorf("form %s: reference %q shadows a field", s.Name, ref.QueryParam)
		}
		seen[ref.QueryParam] = true
	}
	return nil
}

func (s FormSpec) duplicateChoice() types.DuplicateChoice {
	if s.Duplicate != nil {
		return *s.Duplicate
	}
	return types.DuplicateChoice{
		Title:         "POSSIBLE DUPLICATE",
		Description:   fmt.Sprintf("A %s with the same details already exists.", s.Name),
		AllowKeepBoth: true,
		AllowKeepNew:  true,
	}
}

func (s FormSpec) keepNewWarning() types.DestructiveWarning {
	if s.KeepNewWarning != nil {
		w := *s.KeepNewWarning
		w.Kind = types.WarningDuplicateKeepNew
		return w
	}
	return types.DestructiveWarning{
		Title:       "REPLACE EXISTING RECORDS",
		Description: fmt.Sprintf("Keeping the new %s deletes every existing duplicate.", s.Name),
		Impact:      "Deleted duplicates and the data attached to them cannot be restored.",
		Kind:        types.WarningDuplicateKeepNew,
	}
}

func (s FormSpec) submitWarning() (types.DestructiveWarning, bool) {
	if s.SubmitWarning == nil {
		return types.DestructiveWarning{}, false
	}
	w := *s.SubmitWarning
	w.Kind = types.WarningDestructiveSubmit
	return w, true
}

func (s FormSpec) deleteWarning() types.DestructiveWarning {
	if s.Delete.Warning != nil {
		w := *s.Delete.Warning
		w.Kind = types.WarningDestructiveDelete
		return w
	}
	return types.DestructiveWarning{
		Title:       fmt.Sprintf("DELETE %s", s.Name),
		Description: fmt.Sprintf("This %s will be removed permanently.", s.Name),
		Impact:      "The record cannot be restored.",
		Kind:        types.WarningDestructiveDelete,
	}
}
