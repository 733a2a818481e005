package lazy

import (
	"context"
	"sync"
)

type (
	// Value holds a resource created on first use. A successful creation is
	// memoized for the lifetime of the Value, a failed one is retried on the
	// next Get.
	Value[T any] struct {
		create func(ctx context.Context) (T, error)

		mu     sync.Mutex
		value  T
		loaded bool
	}
)

// New ...
func New[T any](create func(ctx context.Context) (T, error)) *Value[T] {
	return &Value[T]{create: create}
}

// Get returns the memoized resource, creating it if needed.
func (v *Value[T]) Get(ctx context.Context) (T, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.loaded {
		return v.value, nil
	}

	value, err := v.create(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	v.value, v.loaded = value, true
	return value, nil
}
