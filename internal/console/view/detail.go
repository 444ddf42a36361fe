package view

import (
	"errors"
	"sync"

	"github.com/autopeer-io/patrolctl/internal/console/aggregate"
	"github.com/autopeer-io/patrolctl/internal/console/gateway"
	"github.com/autopeer-io/patrolctl/internal/console/model"
	"github.com/autopeer-io/patrolctl/pkg/log"
)

// VehicleDetailState is the detail page of one vehicle.
type VehicleDetailState struct {
	Loading bool
	Vehicle *model.Vehicle
	Logs    []model.DecisionLog
	Total   int
	Stats   *aggregate.ActionCounts

	// NotFound is set when the backend knows no such vehicle; Error then
	// holds MsgVehicleNotFound.
	NotFound bool
	Error    string
}

// VehicleDetailView shows a vehicle and its decision logs.
type VehicleDetailView struct {
	gw     Gateway
	logger log.Logger

	mu    sync.RWMutex
	state VehicleDetailState
}

func NewVehicleDetailView(gw Gateway, logger log.Logger) *VehicleDetailView {
	return &VehicleDetailView{gw: gw, logger: logger.WithName("vehicle-detail")}
}

// Activate fetches the vehicle, then its decision logs. A scope cancelled
// beforehand issues no calls.
func (v *VehicleDetailView) Activate(scope *Scope, id string, opts ...gateway.PageOption) error {
	if !scope.Live() {
		return scope.Context().Err()
	}

	scope.Deliver(func() {
		v.mu.Lock()
		v.state = VehicleDetailState{Loading: true}
		v.mu.Unlock()
	})

	ctx := scope.Context()

	vehicle, err := v.gw.GetVehicle(ctx, id)
	if err != nil {
		v.fail(scope, id, err)
		return ctx.Err()
	}
	scope.Deliver(func() {
		v.mu.Lock()
		v.state.Vehicle = vehicle
		v.mu.Unlock()
	})

	page, err := v.gw.ListDecisionLogsForVehicle(ctx, id, opts...)
	if err != nil {
		v.fail(scope, id, err)
		return ctx.Err()
	}

	scope.Deliver(func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.state.Loading = false
		v.state.Logs = page.Logs
		v.state.Total = page.Total
		v.state.Stats = aggregate.Aggregate(page.Logs)
	})
	return ctx.Err()
}

func (v *VehicleDetailView) fail(scope *Scope, id string, err error) {
	notFound := errors.Is(err, gateway.ErrNotFound)
	if !notFound && !canceled(err) {
		v.logger.Error(err, "Failed to fetch vehicle details", "vehicle", id)
	}

	scope.Deliver(func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.state.Loading = false
		if notFound {
			v.state.NotFound = true
			v.state.Error = MsgVehicleNotFound
			return
		}
		v.state.Error = MsgDetailFailed
	})
}

// State returns a snapshot of the page.
func (v *VehicleDetailView) State() VehicleDetailState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}
