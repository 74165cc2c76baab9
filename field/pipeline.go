package field

import (
	"github.com/tbxark/meetform/types"
)

// Run validates and converts values in declared order. The first failing validator
// aborts the run and its error is returned as is; later fields are not looked at.
// Read-only fields are neither read nor validated and never reach the payload.
func Run(specs []Spec, values map[string]any) (map[string]any, *types.FieldError) {
	payload := make(map[string]any, len(specs))
	for _, s := range specs {
		if s.ReadOnly {
			continue
		}
		raw := values[s.Name]
		if s.Validate != nil {
			if fe := s.Validate(raw); fe != nil {
				out := *fe
				if len(out.AffectedFields) == 0 {
					out.AffectedFields = []string{s.Name}
				}
				return nil, &out
			}
		}
		if s.Convert != nil {
			payload[s.Name] = s.Convert(raw)
		} else {
			payload[s.Name] = raw
		}
	}
	return payload, nil
}
