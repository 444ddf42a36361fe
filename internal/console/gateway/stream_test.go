package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/patrolctl/internal/console/credential"
	"github.com/autopeer-io/patrolctl/internal/console/model"
)

func newTelemetryHub(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "abc" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/telemetry"
}

func TestStreamTelemetry(t *testing.T) {
	hub := newTelemetryHub(t,
		`{"vehicle_id":"v1","timestamp":1,"battery":90,"state":"patrolling"}`,
		`not json`,
		`{"battery":10}`,
		`{"vehicle_id":"v2","timestamp":2,"battery":40,"state":"charging"}`,
	)

	store := credential.NewMemoryStore()
	require.NoError(t, store.Set("abc"))
	c, err := New("http://localhost:8080/api/v1", store, WithTelemetryURL(wsURL(hub)))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []model.TelemetryUpdate
	require.NoError(t, c.StreamTelemetry(ctx, func(u model.TelemetryUpdate) {
		got = append(got, u)
	}))

	require.Len(t, got, 2)
	assert.Equal(t, "v1", got[0].VehicleID)
	assert.Equal(t, 90.0, got[0].Battery)
	assert.Equal(t, "charging", got[1].State)
}

func TestStreamTelemetryRequiresCredential(t *testing.T) {
	c, err := New("http://localhost:8080/api/v1", credential.NewMemoryStore())
	require.NoError(t, err)

	err = c.StreamTelemetry(context.Background(), func(model.TelemetryUpdate) {})
	var setupErr *RequestSetupError
	assert.ErrorAs(t, err, &setupErr)
}

func TestStreamTelemetryRejectedHandshake(t *testing.T) {
	hub := newTelemetryHub(t)

	store := credential.NewMemoryStore()
	require.NoError(t, store.Set("stale"))
	c, err := New("http://localhost:8080/api/v1", store, WithTelemetryURL(wsURL(hub)))
	require.NoError(t, err)

	err = c.StreamTelemetry(context.Background(), func(model.TelemetryUpdate) {})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotContains(t, err.Error(), "stale")
}
