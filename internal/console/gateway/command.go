package gateway

import (
	"context"
	"net/http"

	"github.com/autopeer-io/patrolctl/internal/console/model"
)

type sendCommandRequest struct {
	VehicleID string `json:"vehicle_id"`
	Command   string `json:"command"`
}

// SendCommand queues a command for a vehicle. The backend answers 202 with
// the id of the queued command.
func (c *Client) SendCommand(ctx context.Context, vehicleID, command string) (*model.CommandReceipt, error) {
	const op = "send_command"

	switch {
	case vehicleID == "":
		return nil, &RequestSetupError{Op: op, Message: "vehicle id is required"}
	case command == "":
		return nil, &RequestSetupError{Op: op, Message: "command is required"}
	}

	var receipt model.CommandReceipt
	if _, err := c.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		url:    c.endpoint("commands", "send"),
		body:   sendCommandRequest{VehicleID: vehicleID, Command: command},
		out:    &receipt,
	}); err != nil {
		return nil, err
	}
	return &receipt, nil
}
