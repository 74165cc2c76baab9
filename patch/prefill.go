package patch

import (
	"reflect"
)

// Prefill returns the operations that load record's values for names into values.
// Fields the record does not carry, or already holding the same value, are skipped.
func Prefill(names []string, values, record map[string]any) []Operation {
	ops := make([]Operation, 0, len(names))
	for _, name := range names {
		recordValue, ok := record[name]
		if !ok {
			continue
		}
		currentValue, exists := values[name]
		switch {
		case !exists:
			ops = append(ops, Operation{Op: OperationAdd, Path: Path(name), Value: recordValue})
		case !reflect.DeepEqual(currentValue, recordValue):
			ops = append(ops, Operation{Op: OperationReplace, Path: Path(name), Value: recordValue})
		}
	}
	return ops
}
