package view

import (
	"context"
	"sync"
)

// Scope binds the asynchronous work of one view activation to the lifetime of
// that activation. After Cancel returns, no completion delivered through the
// scope runs.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewScope derives a scope from parent. Cancelling parent cancels the scope's
// context but completions are only suppressed after Cancel.
func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Context is passed to every call issued on behalf of the view.
func (s *Scope) Context() context.Context { return s.ctx }

// Cancel aborts in-flight calls and turns later deliveries into no-ops. It
// waits for a delivery that is already running.
func (s *Scope) Cancel() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

// Live reports whether the scope has not been cancelled.
func (s *Scope) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Deliver runs fn unless the scope was cancelled, and reports whether it ran.
func (s *Scope) Deliver(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	fn()
	return true
}
