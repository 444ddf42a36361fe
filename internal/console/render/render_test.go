package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/patrolctl/internal/console/aggregate"
	"github.com/autopeer-io/patrolctl/internal/console/model"
	"github.com/autopeer-io/patrolctl/internal/console/view"
)

func sampleLogs() []model.DecisionLog {
	return []model.DecisionLog{
		{ID: "l1", VehicleID: "v1", Decision: model.ServerDecision{Action: model.Pickup, Confidence: 0.91, Reason: "bottle"}},
		{ID: "l2", VehicleID: "v1", Decision: model.ServerDecision{Action: model.Skip, Confidence: 0.5}},
		{ID: "l3", VehicleID: "v2", Decision: model.ServerDecision{Action: model.Pickup, Confidence: 0.7}},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	f, err = ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestVehiclesTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable)

	require.NoError(t, p.Vehicles(nil))
	assert.Equal(t, view.MsgNoVehicles+"\n", buf.String())

	buf.Reset()
	require.NoError(t, p.Vehicles([]model.Vehicle{
		{ID: "v1", Name: "Rover", Model: "R1"},
		{ID: "v2", Name: "Scout", Model: "S2", CurrentStatus: &model.VehicleStatus{Battery: 42, State: "charging"}},
	}))
	out := buf.String()
	assert.Contains(t, out, "BATTERY")
	assert.Contains(t, out, "charging")
	assert.Contains(t, out, "42%")
}

func TestStatsKeepOrder(t *testing.T) {
	ac := aggregate.Aggregate(sampleLogs())

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatJSON).Stats(ac))
	assert.JSONEq(t, `{"pickup":2,"skip":1}`, buf.String())

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatYAML).Stats(ac))
	assert.Equal(t, "pickup: 2\nskip: 1\n", buf.String())

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatTable).Stats(ac))
	assert.Contains(t, buf.String(), "66.7%")
}

func TestDashboardDegradesPerPanel(t *testing.T) {
	st := view.DashboardState{
		VehiclesError: view.MsgVehiclesFailed,
		Stats:         aggregate.Aggregate(sampleLogs()),
	}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable).Dashboard(st))
	assert.Contains(t, buf.String(), view.MsgVehiclesFailed)
	assert.Contains(t, buf.String(), "pickup")

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatJSON).Dashboard(st))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, view.MsgVehiclesFailed, doc["vehicles_error"])
	assert.Equal(t, map[string]any{"labels": []any{"pickup", "skip"}, "data": []any{2.0, 1.0}}, doc["chart"])
}

func TestVehicleDetail(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable)

	require.NoError(t, p.VehicleDetail(view.VehicleDetailState{NotFound: true, Error: view.MsgVehicleNotFound}))
	assert.Equal(t, view.MsgVehicleNotFound+"\n", buf.String())

	buf.Reset()
	require.NoError(t, p.VehicleDetail(view.VehicleDetailState{Vehicle: &model.Vehicle{ID: "v1", Name: "Rover"}}))
	assert.Contains(t, buf.String(), "no report yet")
	assert.Contains(t, buf.String(), view.MsgNoDecisionLogs)

	buf.Reset()
	require.NoError(t, p.VehicleDetail(view.VehicleDetailState{Vehicle: &model.Vehicle{ID: "v1"}, Logs: sampleLogs(), Total: 3}))
	assert.Contains(t, buf.String(), "91.0%")
	assert.Contains(t, buf.String(), "3 logs in total")
}

func TestActionLabel(t *testing.T) {
	assert.Equal(t, "pickup", actionLabel(model.Pickup))
	assert.Equal(t, "recycle?", actionLabel("recycle"))
	assert.Equal(t, "(none)", actionLabel(""))
}

func TestTelemetryUpdateJSONLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatJSON)
	require.NoError(t, p.TelemetryUpdate(model.TelemetryUpdate{VehicleID: "v1"}))
	require.NoError(t, p.TelemetryUpdate(model.TelemetryUpdate{VehicleID: "v2"}))
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}
