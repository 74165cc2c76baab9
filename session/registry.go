package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tbxark/meetform"
)

// ErrNotMounted is returned when no form is mounted under the context's key.
var ErrNotMounted = errors.New("session: no form mounted")

// Registry holds the mounted engines of every open form.
type Registry struct {
	engines *slots[*meetform.Engine]
	logger  *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		engines: newSlots[*meetform.Engine](),
		logger:  logger,
	}
}

// Open mounts e under the context's form key, allocating a key when there is none.
// A form already mounted under the key is unmounted first.
func (r *Registry) Open(ctx context.Context, e *meetform.Engine) (context.Context, error) {
	if _, ok := FormKeyFromContext(ctx); !ok {
		ctx = NewFormKey(ctx)
	}
	if err := e.Mount(ctx); err != nil {
		return ctx, err
	}
	prev, ok, err := r.engines.swap(ctx, e)
	if err != nil {
		return ctx, err
	}
	if ok && prev != e {
		prev.Unmount()
	}
	key, _ := FormKeyFromContext(ctx)
	r.logger.Debug("form opened", "key", key, "form", e.Spec().Name)
	return ctx, nil
}

// Get returns the engine mounted under the context's form key.
func (r *Registry) Get(ctx context.Context) (*meetform.Engine, error) {
	e, ok, err := r.engines.get(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMounted
	}
	return e, nil
}

// Close unmounts and forgets the form under the context's key.
func (r *Registry) Close(ctx context.Context) error {
	e, ok, err := r.engines.take(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMounted
	}
	e.Unmount()
	key, _ := FormKeyFromContext(ctx)
	r.logger.Debug("form closed", "key", key, "status", e.State().Status)
	return nil
}

// Len reports how many forms are mounted.
func (r *Registry) Len() int {
	return r.engines.len()
}
