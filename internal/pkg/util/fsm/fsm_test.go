package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/looplab/fsm"
	"github.com/stretchr/testify/assert"
)

func newMachine(before func(ctx context.Context, e *fsm.Event) error) *fsm.FSM {
	return fsm.NewFSM(
		"closed",
		fsm.Events{
			{Name: "open", Src: []string{"closed", "open"}, Dst: "open"},
		},
		fsm.Callbacks{
			"before_open": WrapGuard(before),
		},
	)
}

func nop(context.Context, *fsm.Event) error { return nil }

func TestWrapGuardCancels(t *testing.T) {
	boom := errors.New("boom")
	m := newMachine(func(context.Context, *fsm.Event) error { return boom })

	err := m.Event(context.Background(), "open")
	assert.ErrorIs(t, Cause(err), boom)
	assert.Equal(t, "closed", m.Current())
}

func TestWrapGuardAllows(t *testing.T) {
	m := newMachine(nop)

	assert.NoError(t, m.Event(context.Background(), "open"))
	assert.Equal(t, "open", m.Current())
}

func TestIgnoreNoTransition(t *testing.T) {
	m := newMachine(nop)
	ctx := context.Background()

	assert.NoError(t, IgnoreNoTransition(m.Event(ctx, "open")))
	assert.NoError(t, IgnoreNoTransition(m.Event(ctx, "open")))
	assert.Equal(t, "open", m.Current())

	other := errors.New("other")
	assert.Equal(t, other, IgnoreNoTransition(other))
	assert.NoError(t, IgnoreNoTransition(nil))
}
