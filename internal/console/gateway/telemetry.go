package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/autopeer-io/patrolctl/internal/console/model"
)

// GetTelemetry returns the telemetry history of a vehicle within [start, end].
func (c *Client) GetTelemetry(ctx context.Context, id string, start, end time.Time) ([]model.TelemetryPoint, error) {
	const op = "get_telemetry"

	if id == "" {
		return nil, &RequestSetupError{Op: op, Message: "vehicle id is required"}
	}
	if end.Before(start) {
		return nil, &RequestSetupError{Op: op, Message: "end time is before start time"}
	}

	u := c.endpoint("vehicles", id, "telemetry")
	q := u.Query()
	q.Set("start_time", start.UTC().Format(time.RFC3339))
	q.Set("end_time", end.UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()

	var points []model.TelemetryPoint
	if _, err := c.do(ctx, call{op: op, method: http.MethodGet, url: u, out: &points}); err != nil {
		return nil, err
	}
	if points == nil {
		points = []model.TelemetryPoint{}
	}
	return points, nil
}
