package view

import (
	"context"
	"errors"
	"sync"

	"github.com/autopeer-io/patrolctl/internal/console/gateway"
	"github.com/autopeer-io/patrolctl/internal/console/session"
	"github.com/autopeer-io/patrolctl/pkg/log"
)

// LoginState is the state of the login form.
type LoginState struct {
	Submitting bool
	Error      string
}

// LoginView submits credentials through the session manager.
type LoginView struct {
	session *session.Manager
	logger  log.Logger

	mu    sync.Mutex
	state LoginState
}

func NewLoginView(s *session.Manager, logger log.Logger) *LoginView {
	return &LoginView{session: s, logger: logger.WithName("login")}
}

// Submit logs in and returns the resulting form state. An empty Error means
// the session is now authenticated.
func (v *LoginView) Submit(ctx context.Context, username, password string) LoginState {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.state = LoginState{}
	if username == "" || password == "" {
		v.state.Error = MsgCredentialsRequired
		return v.state
	}

	v.state.Submitting = true
	err := v.session.Login(ctx, username, password)
	v.state.Submitting = false

	if err != nil {
		v.logger.Error(err, "Login failed", "username", username)
		v.state.Error = LoginMessage(err)
	}
	return v.state
}

// State returns the last form state.
func (v *LoginView) State() LoginState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// LoginMessage maps a login failure to the message shown on the form.
func LoginMessage(err error) string {
	var (
		srvErr *gateway.ServerError
		netErr *gateway.NetworkError
	)
	switch {
	case errors.As(err, &srvErr):
		if srvErr.Message != "" {
			return srvErr.Message
		}
		return MsgLoginFailed
	case errors.As(err, &netErr):
		return MsgLoginNoResponse
	default:
		return MsgLoginSetup
	}
}
