package domain

import (
	"context"
	"sync"
)

// Call is a request-scoped result handle. It is returned to the caller at
// dispatch time and settles exactly once with either a value or an error.
type Call[T any] struct {
	id   string
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// NewCall creates an unsettled call with the given id.
func NewCall[T any](id string) *Call[T] {
	return &Call[T]{
		id:   id,
		done: make(chan struct{}),
	}
}

// ID returns the call identifier.
func (c *Call[T]) ID() string {
	return c.id
}

// Resolve settles the call with a value. Later settlements are ignored.
func (c *Call[T]) Resolve(v T) bool {
	settled := false
	c.once.Do(func() {
		c.val = v
		settled = true
		close(c.done)
	})
	return settled
}

// Reject settles the call with an error. Later settlements are ignored.
func (c *Call[T]) Reject(err error) bool {
	settled := false
	c.once.Do(func() {
		c.err = err
		settled = true
		close(c.done)
	})
	return settled
}

// Done returns a channel that is closed once the call has settled.
func (c *Call[T]) Done() <-chan struct{} {
	return c.done
}

// Settled reports whether the call has been resolved or rejected.
func (c *Call[T]) Settled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the call settles or ctx is done. Cancelling ctx only
// stops the wait; the underlying operation keeps running.
func (c *Call[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
