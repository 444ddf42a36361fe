// Package view holds the view models of the console. Views are the error
// boundary: every failure is turned into a message on the view state and
// never escapes as a panic.
package view

import (
	"context"
	"errors"

	"github.com/autopeer-io/patrolctl/internal/console/gateway"
	"github.com/autopeer-io/patrolctl/internal/console/model"
)

// Messages shown in place of data.
const (
	MsgCredentialsRequired = "Username and password are required."
	MsgLoginFailed         = "Login failed. Please check your username and password."
	MsgLoginNoResponse     = "Login failed: No response from server."
	MsgLoginSetup          = "Login failed: An unexpected error occurred during request setup."
	MsgVehiclesFailed      = "Failed to fetch vehicles. Please try again later."
	MsgStatsFailed         = "Failed to fetch decision logs for chart."
	MsgDetailFailed        = "Failed to fetch vehicle details. Please try again later."
	MsgVehicleNotFound     = "Vehicle not found."
	MsgNoVehicles          = "No vehicles found."
	MsgNoDecisionLogs      = "No decision logs found for this vehicle."
	MsgNotLoggedIn         = "Not logged in. Run `patrolctl login` to authenticate."
)

// Gateway is the part of *gateway.Client the views read from.
type Gateway interface {
	ListVehicles(ctx context.Context) ([]model.Vehicle, error)
	GetVehicle(ctx context.Context, id string) (*model.Vehicle, error)
	ListDecisionLogsForVehicle(ctx context.Context, id string, opts ...gateway.PageOption) (*model.DecisionLogPage, error)
	ListAllDecisionLogs(ctx context.Context) (*model.DecisionLogPage, error)
}

var _ Gateway = (*gateway.Client)(nil)

// canceled reports whether err stems from the view's scope going away.
func canceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
