// Package reference resolves fields whose value is the identifier of another record,
// chosen through a text-searchable option list.
package reference

import (
	"context"
	"net/url"

	"github.com/tbxark/meetform/protocol"
	"github.com/tbxark/meetform/types"
)

// Lister reads the records of a lookup route. *protocol.Client implements it.
type Lister interface {
	List(ctx context.Context, route string, query url.Values) ([]protocol.Record, error)
}

// Lookup says where a reference's options come from.
type Lookup struct {
	RelationName string
	Route        string
	ScopeParams  map[string]string
	// Display builds an option's text. Nil uses the record's "name".
	Display func(protocol.Record) string
}

// Spec is the declarative description of one foreign-key valued field.
type Spec struct {
	QueryParam   string
	Label        string
	Optional     bool
	OtherEnabled bool
	Lookup       Lookup
	Default      types.Selection
}

// Unselected is the default selection of a reference with no preferred option.
var Unselected = types.Selection{Text: "", ID: types.UnresolvedID}

func (s Spec) query() url.Values {
	q := url.Values{}
	for k, v := range s.Lookup.ScopeParams {
		q.Set(k, v)
	}
	return q
}

func (s Spec) display(rec protocol.Record) string {
	if s.Lookup.Display != nil {
		return s.Lookup.Display(rec)
	}
	return rec.String("name")
}

func (s Spec) label() string {
	if s.Label != "" {
		return s.Label
	}
	if s.Lookup.RelationName != "" {
		return s.Lookup.RelationName
	}
	return s.QueryParam
}
