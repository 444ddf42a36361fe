package view

import (
	"strings"

	"github.com/autopeer-io/patrolctl/internal/console/guard"
	"github.com/autopeer-io/patrolctl/internal/console/session"
	"github.com/autopeer-io/patrolctl/internal/pkg/metrics"
	"github.com/autopeer-io/patrolctl/pkg/log"
)

// Navigation is a resolved navigation target.
type Navigation struct {
	Route     guard.Route
	VehicleID string
}

// Path renders the navigation as a console path.
func (n Navigation) Path() string {
	if n.Route == guard.RouteVehicle {
		return "/vehicles/" + n.VehicleID
	}
	return "/" + string(n.Route)
}

// Router evaluates the route guard on every navigation.
type Router struct {
	session   *session.Manager
	logger    log.Logger
	protected map[guard.Route]bool
}

func NewRouter(s *session.Manager, logger log.Logger) *Router {
	return &Router{
		session: s,
		logger:  logger.WithName("router"),
		protected: map[guard.Route]bool{
			guard.RouteLogin:     false,
			guard.RouteDashboard: true,
			guard.RouteVehicle:   true,
		},
	}
}

// Resolve maps a path to a navigation target. Unknown paths, the root
// included, land on the dashboard when authenticated and on login otherwise.
func (r *Router) Resolve(path string) Navigation {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == string(guard.RouteLogin):
		return Navigation{Route: guard.RouteLogin}
	case len(parts) == 1 && parts[0] == string(guard.RouteDashboard):
		return Navigation{Route: guard.RouteDashboard}
	case len(parts) == 2 && parts[0] == "vehicles" && parts[1] != "":
		return Navigation{Route: guard.RouteVehicle, VehicleID: parts[1]}
	}

	if r.session.Authenticated() {
		return Navigation{Route: guard.RouteDashboard}
	}
	return Navigation{Route: guard.RouteLogin}
}

// Navigate evaluates the guard for target against the current session state.
// It returns where the caller ends up and the decision that led there.
func (r *Router) Navigate(target Navigation) (Navigation, guard.Decision) {
	decision := guard.Evaluate(r.session.State(), r.protected[target.Route])
	metrics.ViewActivationsTotal.WithLabelValues(string(target.Route), decision.String()).Inc()

	if route, redirected := decision.Redirect(); redirected {
		r.logger.Debug("Navigation redirected", "target", target.Path(), "to", route)
		return Navigation{Route: route}, decision
	}
	return target, decision
}
