package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/patrolctl/internal/console/server"
	"github.com/autopeer-io/patrolctl/internal/console/view"
)

func newWatchCommand(a *application) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Refresh the dashboard periodically and serve probes and metrics",
		Long: `Refresh the dashboard every --http.interval until interrupted.

While running, /healthz, /readyz and /metrics are served on --http.addr.
/readyz succeeds only while the session is authenticated.`,
		Args: cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, c *console, _ []string) error {
			dashboard := view.NewDashboardView(c.gateway, c.logger)
			return server.New(a.opts.Http, dashboard, c.session, c.printer, c.logger).Run(ctx)
		}),
	}
}
