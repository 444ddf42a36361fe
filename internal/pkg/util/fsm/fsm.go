package fsm

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// WrapGuard adapts an error-returning callback for use as a before_ callback.
// A non-nil error cancels the transition and is returned by FSM.Event.
func WrapGuard(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Cancel(err)
		}
	}
}

// IgnoreNoTransition drops fsm.NoTransitionError, which looplab/fsm returns
// when an event leaves the state unchanged.
func IgnoreNoTransition(err error) error {
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) && noTransition.Err == nil {
		return nil
	}
	return err
}

// Cause unwraps the error carried by a canceled transition.
func Cause(err error) error {
	var canceled fsm.CanceledError
	if errors.As(err, &canceled) && canceled.Err != nil {
		return canceled.Err
	}
	return err
}
