package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/patrolctl/internal/console/credential"
	"github.com/autopeer-io/patrolctl/internal/console/gateway"
	"github.com/autopeer-io/patrolctl/pkg/options"
)

func loginStub(t *testing.T) *gateway.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if req.Username == "alice" && req.Password == "correct" {
			_, _ = w.Write([]byte(`{"token":"abc"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	}))
	t.Cleanup(srv.Close)

	c, err := gateway.New(srv.URL+"/api/v1", credential.NewMemoryStore())
	require.NoError(t, err)
	return c
}

// stubAuth hands out fixed tokens or errors.
type stubAuth struct {
	token string
	err   error
	calls int
}

func (s *stubAuth) Login(context.Context, string, string) (string, error) {
	s.calls++
	return s.token, s.err
}

func TestHydration(t *testing.T) {
	store := credential.NewMemoryStore()
	m, err := New(store, &stubAuth{})
	require.NoError(t, err)
	assert.Equal(t, Unauthenticated, m.State())

	require.NoError(t, store.Set("stored"))
	m, err = New(store, &stubAuth{})
	require.NoError(t, err)
	assert.Equal(t, Authenticated, m.State())
	assert.True(t, m.Authenticated())
}

func TestHydrationWithUnreadableStore(t *testing.T) {
	for _, content := range []string{"", "{not json"} {
		path := filepath.Join(t.TempDir(), "credentials.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		store := credential.NewFileStore(path)

		m, err := New(store, &stubAuth{token: "fresh"})
		require.NoError(t, err)
		assert.Equal(t, Unauthenticated, m.State())

		m.Logout(context.Background())
		assert.NoFileExists(t, path)

		require.NoError(t, m.Login(context.Background(), "alice", "correct"))
		token, err := store.Get()
		require.NoError(t, err)
		assert.Equal(t, "fresh", token)
	}
}

func TestLoginSuccess(t *testing.T) {
	store := credential.NewMemoryStore()
	m, err := New(store, loginStub(t))
	require.NoError(t, err)

	var seen []Transition
	m.Subscribe(func(tr Transition) { seen = append(seen, tr) })

	require.NoError(t, m.Login(context.Background(), "alice", "correct"))
	assert.Equal(t, Authenticated, m.State())

	token, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.Len(t, seen, 1)
	assert.Equal(t, Transition{Event: EventLogin, From: Unauthenticated, To: Authenticated}, seen[0])
}

func TestLoginRejected(t *testing.T) {
	store := credential.NewMemoryStore()
	m, err := New(store, loginStub(t))
	require.NoError(t, err)

	err = m.Login(context.Background(), "alice", "wrong")
	var authErr *gateway.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "invalid credentials", authErr.Message)
	assert.Equal(t, Unauthenticated, m.State())

	_, err = store.Get()
	assert.ErrorIs(t, err, credential.ErrNoCredential)
}

func TestLoginWhileAuthenticatedReplacesToken(t *testing.T) {
	store := credential.NewMemoryStore()
	require.NoError(t, store.Set("old"))
	m, err := New(store, &stubAuth{token: "new"})
	require.NoError(t, err)

	require.NoError(t, m.Login(context.Background(), "bob", "pw"))
	assert.Equal(t, Authenticated, m.State())
	token, _ := store.Get()
	assert.Equal(t, "new", token)
}

type failingStore struct{ credential.MemoryStore }

var errDiskFull = errors.New("disk full")

func (*failingStore) Set(string) error { return errDiskFull }

func TestLoginPersistFailureKeepsState(t *testing.T) {
	m, err := New(&failingStore{}, &stubAuth{token: "abc"})
	require.NoError(t, err)

	err = m.Login(context.Background(), "alice", "correct")
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, Unauthenticated, m.State())
}

func TestLogout(t *testing.T) {
	for _, stored := range []bool{true, false} {
		store := credential.NewMemoryStore()
		if stored {
			require.NoError(t, store.Set("abc"))
		}
		auth := &stubAuth{}
		m, err := New(store, auth)
		require.NoError(t, err)

		var seen []Transition
		m.Subscribe(func(tr Transition) { seen = append(seen, tr) })

		m.Logout(context.Background())
		assert.Equal(t, Unauthenticated, m.State())
		_, err = store.Get()
		assert.ErrorIs(t, err, credential.ErrNoCredential)
		assert.Zero(t, auth.calls)
		require.Len(t, seen, 1)
		assert.Equal(t, Unauthenticated, seen[0].To)
	}
}

// gatedAuth blocks every Login until release is closed.
type gatedAuth struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedAuth) Login(ctx context.Context, _, _ string) (string, error) {
	close(g.entered)
	select {
	case <-g.release:
		return "late", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestLogoutDoesNotWaitForPendingLogin(t *testing.T) {
	store := credential.NewMemoryStore()
	require.NoError(t, store.Set("abc"))
	auth := &gatedAuth{entered: make(chan struct{}), release: make(chan struct{})}
	m, err := New(store, auth)
	require.NoError(t, err)

	loginDone := make(chan error, 1)
	go func() { loginDone <- m.Login(context.Background(), "alice", "correct") }()
	<-auth.entered

	logoutDone := make(chan struct{})
	go func() {
		m.Logout(context.Background())
		close(logoutDone)
	}()

	select {
	case <-logoutDone:
	case <-time.After(2 * time.Second):
		t.Fatal("logout blocked behind an in-flight login")
	}
	assert.Equal(t, Unauthenticated, m.State())

	close(auth.release)
	require.NoError(t, <-loginDone)
	assert.Equal(t, Authenticated, m.State())
}

func TestUnsubscribe(t *testing.T) {
	m, err := New(credential.NewMemoryStore(), &stubAuth{token: "abc"})
	require.NoError(t, err)

	calls := 0
	unsubscribe := m.Subscribe(func(Transition) { calls++ })
	require.NoError(t, m.Login(context.Background(), "a", "b"))
	unsubscribe()
	m.Logout(context.Background())
	assert.Equal(t, 1, calls)
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestExpiryPolicy(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tests := []struct {
		name   string
		policy string
		token  string
		want   State
	}{
		{name: "none keeps expired token", policy: options.ExpiryNone, token: signed(t, now.Add(-time.Hour)), want: Authenticated},
		{name: "jwt drops expired token", policy: options.ExpiryJWT, token: signed(t, now.Add(-time.Hour)), want: Unauthenticated},
		{name: "jwt keeps live token", policy: options.ExpiryJWT, token: signed(t, now.Add(time.Hour)), want: Authenticated},
		{name: "jwt keeps opaque token", policy: options.ExpiryJWT, token: "opaque", want: Authenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := credential.NewMemoryStore()
			require.NoError(t, store.Set(tt.token))

			m, err := New(store, &stubAuth{}, WithExpiryPolicy(tt.policy), WithClock(clock))
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.State())

			ok, err := credential.Present(store)
			require.NoError(t, err)
			assert.Equal(t, tt.want == Authenticated, ok)
		})
	}
}
