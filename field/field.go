// Package field describes editable record values and runs the validation/conversion
// pipeline over them.
package field

import (
	"fmt"

	"github.com/tbxark/meetform/types"
)

// Validator inspects a raw value and returns nil when it is acceptable.
type Validator func(raw any) *types.FieldError

// Converter turns a validated raw value into the value sent to the backend.
type Converter func(raw any) any

// Spec is the declarative description of one editable value.
type Spec struct {
	Name               string
	Label              string
	ReadOnly           bool
	DuplicateSensitive bool
	Validate           Validator
	Convert            Converter
}

// Rows groups specs for presentation. Validation order is row-major.
type Rows [][]Spec

// Flatten returns the specs in declared order.
func (r Rows) Flatten() []Spec {
	var out []Spec
	for _, row := range r {
		out = append(out, row...)
	}
	return out
}

// Lookup finds the spec named name.
func (r Rows) Lookup(name string) (Spec, bool) {
	for _, row := range r {
		for _, s := range row {
			if s.Name == name {
				return s, true
			}
		}
	}
	return Spec{}, false
}

// Names lists every field name in declared order.
func (r Rows) Names() []string {
	var names []string
	for _, s := range r.Flatten() {
		names = append(names, s.Name)
	}
	return names
}

// Restore returns the values record holds for the declared fields.
func (r Rows) Restore(record map[string]any) map[string]any {
	out := make(map[string]any)
	for _, name := range r.Names() {
		if v, ok := record[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Editable lists the names of every field that is not read-only.
func (r Rows) Editable() []string {
	var names []string
	for _, s := range r.Flatten() {
		if !s.ReadOnly {
			names = append(names, s.Name)
		}
	}
	return names
}

// DuplicateSensitive lists the names of the fields that take part in duplicate detection.
func (r Rows) DuplicateSensitive() []string {
	var names []string
	for _, s := range r.Flatten() {
		if s.DuplicateSensitive && !s.ReadOnly {
			names = append(names, s.Name)
		}
	}
	return names
}

// Check reports declaration mistakes: empty or repeated names.
func (r Rows) Check() error {
	seen := make(map[string]bool)
	for i, s := range r.Flatten() {
		if s.Name == "" {
			return fmt.Errorf("field %d has no name", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("field %q declared twice", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Title is the label shown next to the field.
func (s Spec) Title() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Name
}
