package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autopeer-io/patrolctl/internal/console/session"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		state     session.State
		protected bool
		want      Decision
	}{
		{session.Unauthenticated, true, RedirectTo(RouteLogin)},
		{session.Authenticated, true, Allow},
		{session.Unauthenticated, false, Allow},
		{session.Authenticated, false, Allow},
	}

	for _, tt := range tests {
		got := Evaluate(tt.state, tt.protected)
		assert.Equal(t, tt.want, got, "%s protected=%v", tt.state, tt.protected)
	}
}

func TestDecision(t *testing.T) {
	assert.True(t, Allow.Allowed())
	_, ok := Allow.Redirect()
	assert.False(t, ok)
	assert.Equal(t, "allow", Allow.String())

	d := RedirectTo(RouteLogin)
	assert.False(t, d.Allowed())
	route, ok := d.Redirect()
	assert.True(t, ok)
	assert.Equal(t, RouteLogin, route)
	assert.Equal(t, "redirect:login", d.String())
}
