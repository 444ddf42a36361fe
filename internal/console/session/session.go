// Package session owns the authentication state of the console.
//
// A Manager is created once per process and handed to every view. It is
// hydrated from the credential store without contacting the backend:
// Authenticated iff a non-empty credential is stored. Afterwards only Login
// and Logout change the state.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/looplab/fsm"

	"github.com/autopeer-io/patrolctl/internal/console/credential"
	"github.com/autopeer-io/patrolctl/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/patrolctl/internal/pkg/util/fsm"
	"github.com/autopeer-io/patrolctl/pkg/log"
	"github.com/autopeer-io/patrolctl/pkg/options"
)

// State of a session.
type State string

const (
	Unauthenticated State = "unauthenticated"
	Authenticated   State = "authenticated"
)

// Authenticator exchanges user credentials for a bearer token.
// *gateway.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Transition describes one login or logout.
type Transition struct {
	Event string
	From  State
	To    State
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger of the manager.
func WithLogger(l log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithExpiryPolicy selects how a stored credential is checked at hydration:
// options.ExpiryNone (default) trusts it indefinitely, options.ExpiryJWT
// discards a token whose unverified exp claim has passed.
func WithExpiryPolicy(policy string) Option {
	return func(m *Manager) { m.expiry = policy }
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager is the session state machine. It is safe for concurrent use;
// transitions are serialized.
type Manager struct {
	store  credential.Store
	auth   Authenticator
	logger log.Logger
	expiry string
	now    func() time.Time

	// mu serializes state transitions. It is never held across a backend
	// round trip.
	mu  sync.Mutex
	fsm *fsm.FSM

	obsMu     sync.RWMutex
	observers map[int]func(Transition)
	nextObsID int
}

// New hydrates a Manager from store. A stored credential that cannot be read
// is logged and the session starts Unauthenticated, so logout can still clear
// it.
func New(store credential.Store, auth Authenticator, opts ...Option) (*Manager, error) {
	if store == nil || auth == nil {
		return nil, errors.New("session requires a credential store and an authenticator")
	}

	m := &Manager{
		store:     store,
		auth:      auth,
		logger:    log.Std(),
		expiry:    options.ExpiryNone,
		now:       time.Now,
		observers: make(map[int]func(Transition)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithName("session")

	initial := m.hydrate()
	m.fsm = m.newStateMachine(initial)
	setGauge(initial)

	m.logger.Debug("Session hydrated", "state", initial, "expiryPolicy", m.expiry)
	return m, nil
}

func (m *Manager) hydrate() State {
	token, err := m.store.Get()
	if errors.Is(err, credential.ErrNoCredential) {
		return Unauthenticated
	}
	if err != nil {
		m.logger.Error(err, "Stored credential is unreadable, starting unauthenticated")
		return Unauthenticated
	}
	if token == "" {
		return Unauthenticated
	}

	if m.expiry == options.ExpiryJWT && m.expired(token) {
		m.logger.Info("Stored credential has expired, discarding it")
		if err := m.store.Clear(); err != nil {
			m.logger.Error(err, "Failed to discard expired credential")
		}
		return Unauthenticated
	}

	return Authenticated
}

// expired reads the exp claim without verifying the signature. Tokens that
// are not JWTs, or carry no exp, never expire.
func (m *Manager) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		m.logger.Debug("Stored credential is not a JWT, treating it as opaque", "error", err.Error())
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !m.now().Before(exp.Time)
}

// State returns the current state.
func (m *Manager) State() State {
	return State(m.fsm.Current())
}

// Authenticated reports whether State is Authenticated.
func (m *Manager) Authenticated() bool {
	return m.State() == Authenticated
}

// Login authenticates against the backend and persists the returned token.
// On any failure the state is left unchanged and the error is returned as
// classified by the Authenticator (or the store).
func (m *Manager) Login(ctx context.Context, username, password string) error {
	token, err := m.auth.Login(ctx, username, password)
	if err != nil {
		metrics.SessionTransitionsTotal.WithLabelValues(EventLogin, "failed").Inc()
		m.logger.Debug("Login rejected", "username", username, "error", err.Error())
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.State()
	if err := fsmutil.Cause(fsmutil.IgnoreNoTransition(m.fsm.Event(ctx, EventLogin, token))); err != nil {
		metrics.SessionTransitionsTotal.WithLabelValues(EventLogin, "failed").Inc()
		return err
	}

	metrics.SessionTransitionsTotal.WithLabelValues(EventLogin, "success").Inc()
	m.logger.Info("Logged in", "username", username)
	m.notify(Transition{Event: EventLogin, From: from, To: m.State()})
	return nil
}

// Logout clears the stored credential and moves to Unauthenticated. It is
// purely local and never fails.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.State()
	if err := fsmutil.IgnoreNoTransition(m.fsm.Event(ctx, EventLogout)); err != nil {
		// Both states accept logout; only an fsm misuse lands here.
		m.logger.Error(err, "Unexpected logout failure")
		m.fsm.SetState(string(Unauthenticated))
	}

	metrics.SessionTransitionsTotal.WithLabelValues(EventLogout, "success").Inc()
	m.logger.Info("Logged out")
	m.notify(Transition{Event: EventLogout, From: from, To: m.State()})
}

// Subscribe registers fn to be called after every login and logout. The
// returned function removes the subscription.
func (m *Manager) Subscribe(fn func(Transition)) (unsubscribe func()) {
	m.obsMu.Lock()
	id := m.nextObsID
	m.nextObsID++
	m.observers[id] = fn
	m.obsMu.Unlock()

	return func() {
		m.obsMu.Lock()
		delete(m.observers, id)
		m.obsMu.Unlock()
	}
}

func (m *Manager) notify(t Transition) {
	setGauge(t.To)

	m.obsMu.RLock()
	fns := make([]func(Transition), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.obsMu.RUnlock()

	for _, fn := range fns {
		fn(t)
	}
}

func setGauge(s State) {
	if s == Authenticated {
		metrics.SessionAuthenticated.Set(1)
	} else {
		metrics.SessionAuthenticated.Set(0)
	}
}
