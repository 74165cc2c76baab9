// Package session keeps mounted forms and their transition journals per form key.
package session

import (
	"context"

	"github.com/google/uuid"
)

type formKeyContext struct{}

// WithFormKey sets the key that routes a request to its form.
func WithFormKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, formKeyContext{}, key)
}

// FormKeyFromContext gets the form key from the context.
func FormKeyFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(formKeyContext{})
	if value == nil {
		return "", false
	}
	key, ok := value.(string)
	return key, ok && key != ""
}

// NewFormKey returns a context carrying a fresh random form key.
func NewFormKey(ctx context.Context) context.Context {
	return WithFormKey(ctx, uuid.NewString())
}
