package session

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	fsmutil "github.com/autopeer-io/patrolctl/internal/pkg/util/fsm"
)

const (
	// EventLogin stores a freshly issued credential.
	EventLogin = "login"
	// EventLogout drops the stored credential.
	EventLogout = "logout"
)

func (m *Manager) newStateMachine(initial State) *fsm.FSM {
	events := fsm.Events{
		{Name: EventLogin, Src: []string{string(Unauthenticated), string(Authenticated)}, Dst: string(Authenticated)},
		{Name: EventLogout, Src: []string{string(Unauthenticated), string(Authenticated)}, Dst: string(Unauthenticated)},
	}

	callbacks := fsm.Callbacks{
		// Guards (before_...): a failed write cancels the login.
		"before_" + EventLogin: fsmutil.WrapGuard(m.persistCredential),

		// Logout never fails; the store error is only logged.
		"before_" + EventLogout: m.dropCredential,
	}

	return fsm.NewFSM(string(initial), events, callbacks)
}

func (m *Manager) persistCredential(ctx context.Context, e *fsm.Event) error {
	token, ok := e.Args[0].(string)
	if !ok || token == "" {
		return fmt.Errorf("login event requires a token")
	}
	if err := m.store.Set(token); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	return nil
}

func (m *Manager) dropCredential(ctx context.Context, e *fsm.Event) {
	if err := m.store.Clear(); err != nil {
		m.logger.Error(err, "Failed to clear stored credential")
	}
}
