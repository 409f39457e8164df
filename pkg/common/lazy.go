package common

import (
	"context"
	"sync"
)

// Lazy holds a value that is built on first use and shared afterwards.
// The constructor runs at most once; a failed construction is remembered
// and returned to every caller.
type Lazy[T any] struct {
	once  sync.Once
	build func(ctx context.Context) (T, error)
	value T
	err   error
	done  bool
	mu    sync.RWMutex
}

// NewLazy returns a handle that calls build on the first Get.
func NewLazy[T any](build func(ctx context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{build: build}
}

// Get returns the shared value, building it if necessary.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	l.once.Do(func() {
		v, err := l.build(ctx)
		l.mu.Lock()
		l.value, l.err, l.done = v, err, true
		l.mu.Unlock()
	})
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.err
}

// Peek returns the value only if it has already been built successfully.
func (l *Lazy[T]) Peek() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.done || l.err != nil {
		var zero T
		return zero, false
	}
	return l.value, true
}
