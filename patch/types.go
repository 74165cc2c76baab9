// Package patch applies RFC6902 edits to the raw values of a form.
package patch

const (
	OperationAdd     = "add"
	OperationRemove  = "remove"
	OperationReplace = "replace"
)

// Operation is one RFC6902 operation. Paths address a field as "/<name>".
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Set builds the operation that assigns value to the named field.
func Set(name string, value any) Operation {
	return Operation{Op: OperationReplace, Path: Path(name), Value: value}
}

// Clear builds the operation that removes the named field's value.
func Clear(name string) Operation {
	return Operation{Op: OperationRemove, Path: Path(name)}
}
