package patch

import (
	"fmt"
	"strings"
)

// ValidateOperations checks that every operation targets one of the allowed fields.
func ValidateOperations(ops []Operation, allowed map[string]bool) error {
	for i, op := range ops {
		switch op.Op {
		case OperationAdd, OperationRemove, OperationReplace:
		default:
			return fmt.Errorf("operation %d: unsupported op %q", i, op.Op)
		}
		if err := validatePathAllowed(op.Path, allowed); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

func validatePathAllowed(path string, allowed map[string]bool) error {
	if !strings.HasPrefix(path, "/") || strings.Count(path, "/") != 1 {
		return fmt.Errorf("path %q does not address a single field", path)
	}
	if !allowed[Name(path)] {
		return fmt.Errorf("path %q is not an editable field", path)
	}
	return nil
}
