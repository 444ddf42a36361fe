package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionKind(t *testing.T) {
	assert.Equal(t, ActionPickup, Action("pickup").Kind())
	assert.Equal(t, ActionSkip, Action("skip").Kind())
	assert.Equal(t, ActionUnknown, Action("recycle").Kind())
	assert.Equal(t, "unknown", Action("").Kind().String())
}

func TestVehicleStatusOptional(t *testing.T) {
	var v Vehicle
	require.NoError(t, json.Unmarshal([]byte(`{"id":"v1","name":"Rover","model":"X","current_status":null}`), &v))
	_, ok := v.Status()
	assert.False(t, ok)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"v1","current_status":{"timestamp":1700000000,"position":{"lat":1.5,"lng":2.5},"battery":88,"state":"patrolling"}}`), &v))
	s, ok := v.Status()
	require.True(t, ok)
	assert.Equal(t, 88.0, s.Battery)
	assert.Equal(t, Position{Lat: 1.5, Lng: 2.5}, s.Position)
	assert.Equal(t, int64(1700000000), s.ReportedAt().Unix())

	var nilVehicle *Vehicle
	_, ok = nilVehicle.Status()
	assert.False(t, ok)
}

func TestTelemetryUpdateFlattensStatus(t *testing.T) {
	var u TelemetryUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"vehicle_id":"v9","timestamp":5,"battery":12.5,"state":"charging"}`), &u))
	assert.Equal(t, "v9", u.VehicleID)
	assert.Equal(t, 12.5, u.Battery)
	assert.Equal(t, "charging", u.State)
}
