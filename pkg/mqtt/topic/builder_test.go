package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicBuilder(t *testing.T) {
	b := NewTopicBuilder("vehicles/")

	assert.Equal(t, "vehicles/car-7/status", b.Status("car-7"))
	assert.Equal(t, "vehicles/+/status", b.StatusWildcard())

	tests := []struct {
		topic string
		id    string
		ok    bool
	}{
		{topic: "vehicles/car-7/status", id: "car-7", ok: true},
		{topic: "vehicles/car-7/telemetry", ok: false},
		{topic: "fleet/car-7/status", ok: false},
		{topic: "vehicles//status", ok: false},
		{topic: "vehicles/a/b/status", ok: false},
	}
	for _, tt := range tests {
		id, ok := b.VehicleID(tt.topic)
		assert.Equal(t, tt.ok, ok, tt.topic)
		assert.Equal(t, tt.id, id, tt.topic)
	}
}
