package patch

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Apply returns values with ops applied. values itself is not modified.
func Apply(values map[string]any, ops []Operation) (map[string]any, error) {
	if values == nil {
		values = map[string]any{}
	}
	if len(ops) == 0 {
		return values, nil
	}

	currentJSON, err := sonic.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal form values: %w", err)
	}

	ops = FixOperation(values, ops)
	if len(ops) == 0 {
		return values, nil
	}

	patchJSON, err := sonic.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch operations: %w", err)
	}

	p, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}

	modifiedJSON, err := p.Apply(currentJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to apply patch: %w", err)
	}

	var result map[string]any
	if err := sonic.Unmarshal(modifiedJSON, &result); err != nil {
		return nil, fmt.Errorf("patch produced a non-object document: %w", err)
	}
	return result, nil
}

// FixOperation makes ops tolerant of the current values: replace on a missing field
// becomes add, and remove on a missing field is dropped.
func FixOperation(values map[string]any, ops []Operation) []Operation {
	fixed := make([]Operation, 0, len(ops))
	for _, op := range ops {
		_, exists := values[Name(op.Path)]
		switch op.Op {
		case OperationReplace:
			if !exists {
				op.Op = OperationAdd
			}
			fixed = append(fixed, op)
		case OperationRemove:
			if exists {
				fixed = append(fixed, op)
			}
		default:
			fixed = append(fixed, op)
		}
	}
	return fixed
}

// Path returns the JSON pointer of a field name.
func Path(name string) string {
	name = strings.ReplaceAll(name, "~", "~0")
	name = strings.ReplaceAll(name, "/", "~1")
	return "/" + name
}

// Name is the inverse of Path for single-segment pointers.
func Name(path string) string {
	name := strings.TrimPrefix(path, "/")
	name = strings.ReplaceAll(name, "~1", "/")
	return strings.ReplaceAll(name, "~0", "~")
}
