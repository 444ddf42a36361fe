package telemetry

import (
	"context"

	"github.com/autopeer-io/patrolctl/internal/console/model"
)

// Streamer is implemented by *gateway.Client.
type Streamer interface {
	StreamTelemetry(ctx context.Context, fn func(model.TelemetryUpdate)) error
}

// WebSocketSource reads the backend's telemetry hub. The hub requires the
// stored credential.
type WebSocketSource struct {
	stream Streamer
}

func NewWebSocketSource(s Streamer) *WebSocketSource {
	return &WebSocketSource{stream: s}
}

func (s *WebSocketSource) Name() string { return "websocket" }

func (s *WebSocketSource) Run(ctx context.Context, fn Handler) error {
	return s.stream.StreamTelemetry(ctx, counted(s.Name(), fn))
}
