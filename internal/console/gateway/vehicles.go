package gateway

import (
	"context"
	"net/http"

	"github.com/autopeer-io/patrolctl/internal/console/model"
)

// ListVehicles returns every vehicle of the fleet. A null body yields an
// empty slice.
func (c *Client) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	if _, err := c.do(ctx, call{
		op:     "list_vehicles",
		method: http.MethodGet,
		url:    c.endpoint("vehicles"),
		out:    &vehicles,
	}); err != nil {
		return nil, err
	}
	if vehicles == nil {
		vehicles = []model.Vehicle{}
	}
	return vehicles, nil
}

// GetVehicle returns one vehicle. A 404 or a null body yields an error
// matching ErrNotFound.
func (c *Client) GetVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	const op = "get_vehicle"

	if id == "" {
		return nil, &RequestSetupError{Op: op, Message: "vehicle id is required"}
	}

	var vehicle *model.Vehicle
	_, err := c.do(ctx, call{
		op:     op,
		method: http.MethodGet,
		url:    c.endpoint("vehicles", id),
		out:    &vehicle,
	})
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, &ServerError{Op: op, StatusCode: http.StatusOK, Message: "vehicle " + id + " not found", absent: true}
	}
	return vehicle, nil
}
