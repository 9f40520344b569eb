// Package latest provides a single-slot, latest-value-wins cell shared
// between one producer and one consumer running at independent rates.
package latest

import "sync/atomic"

// Value holds the most recently stored T. Load never blocks and never
// observes a partially written value; older values are simply replaced.
type Value[T any] struct {
	p atomic.Pointer[T]
}

// NewValue returns a cell seeded with initial.
func NewValue[T any](initial T) *Value[T] {
	v := &Value[T]{}
	v.Store(initial)
	return v
}

// Store publishes v, replacing whatever was there.
func (c *Value[T]) Store(v T) {
	c.p.Store(&v)
}

// Load returns the newest value and whether one has ever been stored.
func (c *Value[T]) Load() (T, bool) {
	p := c.p.Load()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}
