package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/autopeer-io/patrolctl/internal/console/model"
	"github.com/autopeer-io/patrolctl/pkg/log"
	"github.com/autopeer-io/patrolctl/pkg/mqtt"
	"github.com/autopeer-io/patrolctl/pkg/mqtt/topic"
)

// statusQoS matches the QoS vehicles publish status reports with.
const statusQoS = 1

// MQTTSource subscribes to the vehicles' status topics on the fleet broker
// directly: {root}/{vehicleID}/status.
type MQTTSource struct {
	client    mqtt.Client
	topics    *topic.TopicBuilder
	vehicleID string
	logger    log.Logger
}

// NewMQTTSource follows every vehicle, or only vehicleID when it is not empty.
func NewMQTTSource(client mqtt.Client, root, vehicleID string, logger log.Logger) *MQTTSource {
	return &MQTTSource{
		client:    client,
		topics:    topic.NewTopicBuilder(root),
		vehicleID: vehicleID,
		logger:    logger.WithName("mqtt-telemetry"),
	}
}

func (s *MQTTSource) Name() string { return "mqtt" }

func (s *MQTTSource) filter() string {
	if s.vehicleID != "" {
		return s.topics.Status(s.vehicleID)
	}
	return s.topics.StatusWildcard()
}

func (s *MQTTSource) Run(ctx context.Context, fn Handler) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("start mqtt client: %w", err)
	}
	defer s.client.Disconnect(context.Background())

	if err := s.client.AwaitConnection(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connect to broker: %w", err)
	}

	filter := s.filter()
	if err := s.client.Subscribe(ctx, filter, statusQoS, s.handle(counted(s.Name(), fn))); err != nil {
		return fmt.Errorf("subscribe %s: %w", filter, err)
	}

	<-ctx.Done()
	return nil
}

// handle decodes a status report; the vehicle id comes from the topic.
func (s *MQTTSource) handle(fn Handler) mqtt.MessageHandler {
	return func(_ context.Context, t string, payload []byte) {
		id, ok := s.topics.VehicleID(t)
		if !ok {
			s.logger.Warn("Received message on unexpected topic", "topic", t)
			return
		}

		var status model.VehicleStatus
		if err := json.Unmarshal(payload, &status); err != nil {
			s.logger.Warn("Failed to decode status report", "vehicle", id, "error", err.Error())
			return
		}
		fn(model.TelemetryUpdate{VehicleID: id, VehicleStatus: status})
	}
}
