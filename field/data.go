package field

import (
	"maps"

	"github.com/tbxark/meetform/types"
)

// Data is the unvalidated state of one form: raw field values plus the resolved id of
// every model reference, keyed by its query parameter.
type Data struct {
	Values     map[string]any
	References map[string]int64
}

func NewData() Data {
	return Data{
		Values:     make(map[string]any),
		References: make(map[string]int64),
	}
}

// Clone returns a copy that shares nothing with d.
func (d Data) Clone() Data {
	out := NewData()
	maps.Copy(out.Values, d.Values)
	maps.Copy(out.References, d.References)
	return out
}

// Reference returns the id resolved for param, or types.UnresolvedID.
func (d Data) Reference(param string) int64 {
	id, ok := d.References[param]
	if !ok {
		return types.UnresolvedID
	}
	return id
}
