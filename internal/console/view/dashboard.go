package view

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/patrolctl/internal/console/aggregate"
	"github.com/autopeer-io/patrolctl/internal/console/model"
	"github.com/autopeer-io/patrolctl/pkg/log"
)

// DashboardState holds the two independent dashboard panels. A failed panel
// carries a message while the other still shows its data.
type DashboardState struct {
	VehiclesLoading bool
	Vehicles        []model.Vehicle
	VehiclesError   string

	StatsLoading bool
	Stats        *aggregate.ActionCounts
	StatsError   string
}

// DashboardView lists the fleet and charts fleet-wide decisions.
type DashboardView struct {
	gw     Gateway
	logger log.Logger

	mu    sync.RWMutex
	state DashboardState
}

func NewDashboardView(gw Gateway, logger log.Logger) *DashboardView {
	return &DashboardView{gw: gw, logger: logger.WithName("dashboard")}
}

// Activate fetches both panels concurrently within scope and blocks until
// both calls have completed. Results arriving after scope is cancelled are
// dropped, and a scope cancelled beforehand issues no calls. The returned
// error is the scope's context error, if any.
func (v *DashboardView) Activate(scope *Scope) error {
	if !scope.Live() {
		return scope.Context().Err()
	}

	scope.Deliver(func() {
		v.mu.Lock()
		v.state = DashboardState{VehiclesLoading: true, StatsLoading: true}
		v.mu.Unlock()
	})

	ctx := scope.Context()

	// Each panel fails on its own, so the group never sees an error.
	var g errgroup.Group
	g.Go(func() error {
		vehicles, err := v.gw.ListVehicles(ctx)
		if err != nil && !canceled(err) {
			v.logger.Error(err, "Failed to fetch vehicles")
		}
		scope.Deliver(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			v.state.VehiclesLoading = false
			if err != nil {
				v.state.VehiclesError = MsgVehiclesFailed
				return
			}
			v.state.Vehicles = vehicles
		})
		return nil
	})
	g.Go(func() error {
		page, err := v.gw.ListAllDecisionLogs(ctx)
		if err != nil && !canceled(err) {
			v.logger.Error(err, "Failed to fetch decision logs for chart")
		}
		scope.Deliver(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			v.state.StatsLoading = false
			if err != nil {
				v.state.StatsError = MsgStatsFailed
				return
			}
			v.state.Stats = aggregate.Aggregate(page.Logs)
		})
		return nil
	})
	_ = g.Wait()

	return ctx.Err()
}

// State returns a snapshot of the panels.
func (v *DashboardView) State() DashboardState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}
