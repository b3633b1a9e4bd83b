// Package lazy provides compute-once values. A Value runs its initializer
// at most once, on first Get, and is read-only from then on, so concurrent
// readers need no further synchronization.
package lazy

import "sync"

// Value is a lazily computed, immutable T.
type Value[T any] struct {
	once sync.Once
	init func() T
	val  T
}

// New returns a Value that will be computed by init.
func New[T any](init func() T) *Value[T] {
	return &Value[T]{init: init}
}

// Of returns an already computed Value.
func Of[T any](v T) *Value[T] {
	l := &Value[T]{val: v}
	l.once.Do(func() {})
	return l
}

// Get returns the value, computing it on the first call. Callers must
// treat the result as read-only.
func (l *Value[T]) Get() T {
	l.once.Do(func() {
		l.val = l.init()
		l.init = nil
	})
	return l.val
}
