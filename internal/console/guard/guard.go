// Package guard decides whether a view may render.
package guard

import "github.com/autopeer-io/patrolctl/internal/console/session"

// Route names a view.
type Route string

const (
	RouteLogin     Route = "login"
	RouteDashboard Route = "dashboard"
	RouteVehicle   Route = "vehicle"
)

// Decision is the outcome of a guard evaluation: either Allow or a redirect.
type Decision struct {
	allowed  bool
	redirect Route
}

// Allow lets the view render.
var Allow = Decision{allowed: true}

// RedirectTo sends the caller to route instead.
func RedirectTo(route Route) Decision {
	return Decision{redirect: route}
}

// Allowed reports whether the view may render.
func (d Decision) Allowed() bool { return d.allowed }

// Redirect returns the redirect target, if any.
func (d Decision) Redirect() (Route, bool) {
	return d.redirect, !d.allowed
}

func (d Decision) String() string {
	if d.allowed {
		return "allow"
	}
	return "redirect:" + string(d.redirect)
}

// Evaluate decides whether a target renders in the given session state.
// Protected targets render only when authenticated. It has no side effects
// and is meant to be called on every navigation.
func Evaluate(state session.State, protected bool) Decision {
	if !protected || state == session.Authenticated {
		return Allow
	}
	return RedirectTo(RouteLogin)
}
