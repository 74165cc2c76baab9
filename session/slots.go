package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNoFormKey is returned when the context carries no form key.
var ErrNoFormKey = errors.New("session: form key not found")

// slots holds one value per form key.
type slots[S any] struct {
	mu sync.Mutex
	m  map[string]S
}

func newSlots[S any]() *slots[S] {
	return &slots[S]{m: map[string]S{}}
}

func formKey(ctx context.Context) (string, error) {
	key, ok := FormKeyFromContext(ctx)
	if !ok {
		return "", ErrNoFormKey
	}
	return key, nil
}

func (s *slots[S]) get(ctx context.Context) (S, bool, error) {
	key, err := formKey(ctx)
	if err != nil {
		var zero S
		return zero, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.m[key]
	return val, ok, nil
}

// swap stores val and returns the value it replaced.
func (s *slots[S]) swap(ctx context.Context, val S) (S, bool, error) {
	return s.update(ctx, func(S, bool) S { return val })
}

// update replaces the value with fn of the current one under a single lock and
// returns the previous value.
func (s *slots[S]) update(ctx context.Context, fn func(prev S, ok bool) S) (S, bool, error) {
	key, err := formKey(ctx)
	if err != nil {
		var zero S
		return zero, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.m[key]
	s.m[key] = fn(prev, ok)
	return prev, ok, nil
}

// take removes and returns the value under the context's key.
func (s *slots[S]) take(ctx context.Context) (S, bool, error) {
	key, err := formKey(ctx)
	if err != nil {
		var zero S
		return zero, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.m[key]
	delete(s.m, key)
	return val, ok, nil
}

func (s *slots[S]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
