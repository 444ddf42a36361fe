package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/patrolctl/internal/console/model"
	"github.com/autopeer-io/patrolctl/pkg/log"
	"github.com/autopeer-io/patrolctl/pkg/mqtt"
)

// fakeBroker records subscriptions and lets tests publish to them.
type fakeBroker struct {
	mu       sync.Mutex
	started  bool
	closed   bool
	filters  []string
	handlers []mqtt.MessageHandler
	connErr  error
}

var _ mqtt.Client = (*fakeBroker)(nil)

func (f *fakeBroker) Start(context.Context) error { f.started = true; return nil }

func (f *fakeBroker) Disconnect(context.Context) {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeBroker) Subscribe(_ context.Context, filter string, _ int, h mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	f.handlers = append(f.handlers, h)
	return nil
}

func (f *fakeBroker) Unsubscribe(context.Context, string) error { return nil }

func (f *fakeBroker) AwaitConnection(context.Context) error { return f.connErr }

func (f *fakeBroker) publish(topic string, payload string) {
	f.mu.Lock()
	hs := append([]mqtt.MessageHandler(nil), f.handlers...)
	f.mu.Unlock()
	for _, h := range hs {
		h(context.Background(), topic, []byte(payload))
	}
}

func (f *fakeBroker) subscribed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.filters...)
}

func TestMQTTSource(t *testing.T) {
	broker := &fakeBroker{}
	src := NewMQTTSource(broker, "vehicles", "", log.NewNopLogger())
	assert.Equal(t, "mqtt", src.Name())

	var (
		mu  sync.Mutex
		got []model.TelemetryUpdate
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- src.Run(ctx, func(u model.TelemetryUpdate) {
			mu.Lock()
			got = append(got, u)
			mu.Unlock()
		})
	}()

	require.Eventually(t, func() bool { return len(broker.subscribed()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"vehicles/+/status"}, broker.subscribed())

	broker.publish("vehicles/car-1/status", `{"timestamp":10,"battery":77,"state":"patrolling","position":{"lat":1,"lng":2}}`)
	broker.publish("vehicles/car-1/status", `garbage`)
	broker.publish("other/car-1/status", `{}`)
	broker.publish("vehicles/car-2/status", `{"battery":12}`)

	cancel()
	require.NoError(t, <-done)
	assert.True(t, broker.closed)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, "car-1", got[0].VehicleID)
	assert.Equal(t, 77.0, got[0].Battery)
	assert.Equal(t, model.Position{Lat: 1, Lng: 2}, got[0].Position)
	assert.Equal(t, "car-2", got[1].VehicleID)
}

func TestMQTTSourceSingleVehicle(t *testing.T) {
	broker := &fakeBroker{}
	src := NewMQTTSource(broker, "fleet", "car-9", log.NewNopLogger())
	assert.Equal(t, "fleet/car-9/status", src.filter())
}

func TestMQTTSourceConnectFailure(t *testing.T) {
	broker := &fakeBroker{connErr: errors.New("refused")}
	src := NewMQTTSource(broker, "vehicles", "", log.NewNopLogger())

	err := src.Run(context.Background(), func(model.TelemetryUpdate) {})
	assert.Error(t, err)
	assert.Empty(t, broker.subscribed())
}

type fakeStreamer struct{ updates []model.TelemetryUpdate }

func (f fakeStreamer) StreamTelemetry(_ context.Context, fn func(model.TelemetryUpdate)) error {
	for _, u := range f.updates {
		fn(u)
	}
	return nil
}

func TestWebSocketSourceWithFilter(t *testing.T) {
	src := NewWebSocketSource(fakeStreamer{updates: []model.TelemetryUpdate{
		{VehicleID: "a"}, {VehicleID: "b"}, {VehicleID: "a"},
	}})
	assert.Equal(t, "websocket", src.Name())

	var got []string
	require.NoError(t, src.Run(context.Background(), Filter(func(u model.TelemetryUpdate) {
		got = append(got, u.VehicleID)
	}, "a")))
	assert.Equal(t, []string{"a", "a"}, got)
}
