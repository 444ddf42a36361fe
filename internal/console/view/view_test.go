package view

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/patrolctl/internal/console/credential"
	"github.com/autopeer-io/patrolctl/internal/console/gateway"
	"github.com/autopeer-io/patrolctl/internal/console/guard"
	"github.com/autopeer-io/patrolctl/internal/console/model"
	"github.com/autopeer-io/patrolctl/internal/console/session"
	"github.com/autopeer-io/patrolctl/pkg/log"
)

// fakeGateway answers from fields; a non-nil gate blocks every call until
// closed or the context ends.
type fakeGateway struct {
	calls atomic.Int32


	vehicles    []model.Vehicle
	vehiclesErr error
	vehicle     *model.Vehicle
	vehicleErr  error
	logs        *model.DecisionLogPage
	logsErr     error
	gate        chan struct{}
}

func (f *fakeGateway) wait(ctx context.Context) error {
	f.calls.Add(1)
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return &gateway.NetworkError{Op: "fake", Err: ctx.Err()}
	}
}

func (f *fakeGateway) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.vehicles, f.vehiclesErr
}

func (f *fakeGateway) GetVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.vehicle, f.vehicleErr
}

func (f *fakeGateway) ListDecisionLogsForVehicle(ctx context.Context, id string, _ ...gateway.PageOption) (*model.DecisionLogPage, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.logs, f.logsErr
}

func (f *fakeGateway) ListAllDecisionLogs(ctx context.Context) (*model.DecisionLogPage, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.logs, f.logsErr
}

func page(actions ...model.Action) *model.DecisionLogPage {
	p := &model.DecisionLogPage{}
	for i, a := range actions {
		p.Logs = append(p.Logs, model.DecisionLog{ID: fmt.Sprint(i), Decision: model.ServerDecision{Action: a}})
	}
	p.Total = len(p.Logs)
	return p
}

func TestScope(t *testing.T) {
	s := NewScope(context.Background())
	assert.True(t, s.Live())
	assert.True(t, s.Deliver(func() {}))

	s.Cancel()
	assert.False(t, s.Live())
	assert.Error(t, s.Context().Err())

	ran := false
	assert.False(t, s.Deliver(func() { ran = true }))
	assert.False(t, ran)
}

func TestDashboardPanelsAreIndependent(t *testing.T) {
	gw := &fakeGateway{
		vehicles: []model.Vehicle{{ID: "v1"}},
		logsErr:  &gateway.ServerError{StatusCode: http.StatusInternalServerError},
	}
	v := NewDashboardView(gw, log.NewNopLogger())

	require.NoError(t, v.Activate(NewScope(context.Background())))
	st := v.State()
	assert.False(t, st.VehiclesLoading)
	assert.Len(t, st.Vehicles, 1)
	assert.Empty(t, st.VehiclesError)
	assert.Equal(t, MsgStatsFailed, st.StatsError)
	assert.Nil(t, st.Stats)

	gw = &fakeGateway{
		vehiclesErr: &gateway.NetworkError{Op: "list_vehicles", Err: errors.New("refused")},
		logs:        page(model.Pickup, model.Skip, model.Pickup),
	}
	v = NewDashboardView(gw, log.NewNopLogger())
	require.NoError(t, v.Activate(NewScope(context.Background())))
	st = v.State()
	assert.Equal(t, MsgVehiclesFailed, st.VehiclesError)
	require.NotNil(t, st.Stats)
	assert.Equal(t, []model.Action{model.Pickup, model.Skip}, st.Stats.Keys())
	assert.Equal(t, 2, st.Stats.Count(model.Pickup))
}

func TestDashboardDropsResultsAfterCancel(t *testing.T) {
	gw := &fakeGateway{vehicles: []model.Vehicle{{ID: "v1"}}, logs: page(model.Pickup), gate: make(chan struct{})}
	v := NewDashboardView(gw, log.NewNopLogger())
	scope := NewScope(context.Background())

	done := make(chan error, 1)
	go func() { done <- v.Activate(scope) }()

	require.Eventually(t, func() bool { return v.State().VehiclesLoading }, time.Second, time.Millisecond)
	scope.Cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("activation did not return after cancel")
	}

	st := v.State()
	assert.True(t, st.VehiclesLoading)
	assert.Empty(t, st.VehiclesError)
	assert.Empty(t, st.StatsError)
	assert.Nil(t, st.Vehicles)
}

func TestActivateOnCanceledScopeIssuesNoCalls(t *testing.T) {
	gw := &fakeGateway{vehicles: []model.Vehicle{{ID: "v1"}}, vehicle: &model.Vehicle{ID: "v1"}, logs: page(model.Pickup)}
	scope := NewScope(context.Background())
	scope.Cancel()

	dashboard := NewDashboardView(gw, log.NewNopLogger())
	assert.ErrorIs(t, dashboard.Activate(scope), context.Canceled)
	assert.Equal(t, DashboardState{}, dashboard.State())

	detail := NewVehicleDetailView(gw, log.NewNopLogger())
	assert.ErrorIs(t, detail.Activate(scope, "v1"), context.Canceled)
	assert.Equal(t, VehicleDetailState{}, detail.State())

	assert.Zero(t, gw.calls.Load())
}

func TestVehicleDetail(t *testing.T) {
	gw := &fakeGateway{
		vehicle: &model.Vehicle{ID: "v1", Name: "Rover"},
		logs:    page(model.Skip, model.Pickup),
	}
	v := NewVehicleDetailView(gw, log.NewNopLogger())
	require.NoError(t, v.Activate(NewScope(context.Background()), "v1"))

	st := v.State()
	assert.False(t, st.Loading)
	assert.Equal(t, "Rover", st.Vehicle.Name)
	assert.Len(t, st.Logs, 2)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, []model.Action{model.Skip, model.Pickup}, st.Stats.Keys())
	assert.Empty(t, st.Error)
}

func TestVehicleDetailFailures(t *testing.T) {
	tests := []struct {
		name     string
		gw       *fakeGateway
		want     string
		notFound bool
	}{
		{
			name:     "not found",
			gw:       &fakeGateway{vehicleErr: &gateway.ServerError{StatusCode: http.StatusNotFound}},
			want:     MsgVehicleNotFound,
			notFound: true,
		},
		{
			name: "vehicle fetch fails",
			gw:   &fakeGateway{vehicleErr: &gateway.NetworkError{Err: errors.New("refused")}},
			want: MsgDetailFailed,
		},
		{
			name: "logs fetch fails",
			gw:   &fakeGateway{vehicle: &model.Vehicle{ID: "v1"}, logsErr: &gateway.ServerError{StatusCode: http.StatusBadGateway}},
			want: MsgDetailFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVehicleDetailView(tt.gw, log.NewNopLogger())
			require.NoError(t, v.Activate(NewScope(context.Background()), "v1"))
			st := v.State()
			assert.Equal(t, tt.want, st.Error)
			assert.Equal(t, tt.notFound, st.NotFound)
			assert.False(t, st.Loading)
		})
	}
}

type stubAuth struct {
	token string
	err   error
}

func (s stubAuth) Login(context.Context, string, string) (string, error) { return s.token, s.err }

func TestLoginView(t *testing.T) {
	tests := []struct {
		name     string
		username string
		auth     stubAuth
		want     string
	}{
		{name: "success", username: "alice", auth: stubAuth{token: "abc"}},
		{name: "missing username", auth: stubAuth{token: "abc"}, want: MsgCredentialsRequired},
		{
			name:     "server message",
			username: "alice",
			auth:     stubAuth{err: &gateway.AuthenticationError{ServerError: &gateway.ServerError{StatusCode: 401, Message: "invalid credentials"}}},
			want:     "invalid credentials",
		},
		{
			name:     "server without message",
			username: "alice",
			auth:     stubAuth{err: &gateway.ServerError{StatusCode: 500}},
			want:     MsgLoginFailed,
		},
		{
			name:     "no response",
			username: "alice",
			auth:     stubAuth{err: &gateway.NetworkError{Err: errors.New("refused")}},
			want:     MsgLoginNoResponse,
		},
		{
			name:     "setup",
			username: "alice",
			auth:     stubAuth{err: &gateway.RequestSetupError{Message: "build request"}},
			want:     MsgLoginSetup,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := session.New(credential.NewMemoryStore(), tt.auth)
			require.NoError(t, err)

			v := NewLoginView(m, log.NewNopLogger())
			st := v.Submit(context.Background(), tt.username, "pw")
			assert.Equal(t, tt.want, st.Error)
			assert.False(t, st.Submitting)
			assert.Equal(t, tt.want == "", m.Authenticated())
			assert.Equal(t, st, v.State())
		})
	}
}

func TestRouter(t *testing.T) {
	store := credential.NewMemoryStore()
	m, err := session.New(store, stubAuth{token: "abc"})
	require.NoError(t, err)
	r := NewRouter(m, log.NewNopLogger())

	assert.Equal(t, Navigation{Route: guard.RouteLogin}, r.Resolve("/"))
	assert.Equal(t, Navigation{Route: guard.RouteVehicle, VehicleID: "v7"}, r.Resolve("/vehicles/v7"))

	dest, d := r.Navigate(Navigation{Route: guard.RouteDashboard})
	assert.False(t, d.Allowed())
	assert.Equal(t, guard.RouteLogin, dest.Route)

	dest, d = r.Navigate(Navigation{Route: guard.RouteLogin})
	assert.True(t, d.Allowed())
	assert.Equal(t, guard.RouteLogin, dest.Route)

	require.NoError(t, m.Login(context.Background(), "alice", "pw"))

	// Re-evaluated on every navigation.
	dest, d = r.Navigate(r.Resolve("/vehicles/v7"))
	assert.True(t, d.Allowed())
	assert.Equal(t, "/vehicles/v7", dest.Path())
	assert.Equal(t, Navigation{Route: guard.RouteDashboard}, r.Resolve("/nowhere"))

	m.Logout(context.Background())
	dest, _ = r.Navigate(Navigation{Route: guard.RouteVehicle, VehicleID: "v7"})
	assert.Equal(t, guard.RouteLogin, dest.Route)
}
