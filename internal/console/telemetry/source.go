// Package telemetry follows live vehicle status reports.
package telemetry

import (
	"context"

	"github.com/autopeer-io/patrolctl/internal/console/model"
	"github.com/autopeer-io/patrolctl/internal/pkg/metrics"
)

// Handler receives one update. Updates of a vehicle arrive in order.
type Handler func(model.TelemetryUpdate)

// Source produces live updates until ctx is done.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string

	// Run blocks, calling fn for every update, until ctx is done or the
	// source fails. Cancellation is not an error.
	Run(ctx context.Context, fn Handler) error
}

// Filter passes on only the updates of the given vehicles. No ids means all.
func Filter(fn Handler, vehicleIDs ...string) Handler {
	if len(vehicleIDs) == 0 {
		return fn
	}
	allowed := make(map[string]struct{}, len(vehicleIDs))
	for _, id := range vehicleIDs {
		allowed[id] = struct{}{}
	}
	return func(u model.TelemetryUpdate) {
		if _, ok := allowed[u.VehicleID]; ok {
			fn(u)
		}
	}
}

func counted(source string, fn Handler) Handler {
	c := metrics.TelemetryUpdatesTotal.WithLabelValues(source)
	return func(u model.TelemetryUpdate) {
		c.Inc()
		fn(u)
	}
}
