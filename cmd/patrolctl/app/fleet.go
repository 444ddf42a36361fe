package app

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/patrolctl/internal/console/aggregate"
	"github.com/autopeer-io/patrolctl/internal/console/gateway"
	"github.com/autopeer-io/patrolctl/internal/console/guard"
	"github.com/autopeer-io/patrolctl/internal/console/model"
	"github.com/autopeer-io/patrolctl/internal/console/view"
)

// enter evaluates the route guard for target. A redirect is reported as a
// failed command.
func (c *console) enter(target view.Navigation) error {
	if _, decision := view.NewRouter(c.session, c.logger).Navigate(target); !decision.Allowed() {
		return c.fail(view.MsgNotLoggedIn)
	}
	return nil
}

func newDashboardCommand(a *application) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the fleet overview and the decision chart",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, c *console, _ []string) error {
			if err := c.enter(view.Navigation{Route: guard.RouteDashboard}); err != nil {
				return err
			}

			dashboard := view.NewDashboardView(c.gateway, c.logger)
			scope := view.NewScope(ctx)
			defer scope.Cancel()
			if err := dashboard.Activate(scope); err != nil {
				return err
			}

			st := dashboard.State()
			if err := c.printer.Dashboard(st); err != nil {
				return err
			}
			if st.VehiclesError != "" || st.StatsError != "" {
				return errReported
			}
			return nil
		}),
	}
}

func newVehiclesCommand(a *application) *cobra.Command {
	return &cobra.Command{
		Use:     "vehicles",
		Aliases: []string{"ls"},
		Short:   "List the vehicles of the fleet",
		Args:    cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, c *console, _ []string) error {
			if err := c.enter(view.Navigation{Route: guard.RouteDashboard}); err != nil {
				return err
			}

			vehicles, err := c.gateway.ListVehicles(ctx)
			if err != nil {
				c.logger.Error(err, "Failed to fetch vehicles")
				return c.fail(view.MsgVehiclesFailed)
			}
			return c.printer.Vehicles(vehicles)
		}),
	}
}

type pageOptions struct {
	page     int
	pageSize int
}

func (o *pageOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.page, "page", o.page, "1-based page of decision logs.")
	cmd.Flags().IntVar(&o.pageSize, "page-size", o.pageSize, "Decision logs per page (1-100).")
}

func (o *pageOptions) options() []gateway.PageOption {
	if o.page <= 0 && o.pageSize <= 0 {
		return nil
	}
	return []gateway.PageOption{gateway.WithPage(o.page, o.pageSize)}
}

func newVehicleCommand(a *application) *cobra.Command {
	o := &pageOptions{}
	cmd := &cobra.Command{
		Use:   "vehicle <id>",
		Short: "Show one vehicle with its decision logs",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, c *console, args []string) error {
			if err := c.enter(view.Navigation{Route: guard.RouteVehicle, VehicleID: args[0]}); err != nil {
				return err
			}

			detail := view.NewVehicleDetailView(c.gateway, c.logger)
			scope := view.NewScope(ctx)
			defer scope.Cancel()
			if err := detail.Activate(scope, args[0], o.options()...); err != nil {
				return err
			}

			st := detail.State()
			if err := c.printer.VehicleDetail(st); err != nil {
				return err
			}
			if st.Error != "" {
				return errReported
			}
			return nil
		}),
	}
	o.addFlags(cmd)
	return cmd
}

type logsOptions struct {
	pageOptions
	vehicleID string
}

// validate rejects paging flags for the fleet-wide listing, which the backend
// does not page.
func (o *logsOptions) validate(*cobra.Command, []string) error {
	if o.vehicleID == "" && (o.page > 0 || o.pageSize > 0) {
		return errors.New("--page and --page-size require --vehicle")
	}
	return nil
}

// fetch returns the logs of one vehicle, or of the whole fleet.
func (o *logsOptions) fetch(ctx context.Context, c *console) (*model.DecisionLogPage, error) {
	if o.vehicleID != "" {
		return c.gateway.ListDecisionLogsForVehicle(ctx, o.vehicleID, o.options()...)
	}
	return c.gateway.ListAllDecisionLogs(ctx)
}

func (o *logsOptions) target() view.Navigation {
	if o.vehicleID != "" {
		return view.Navigation{Route: guard.RouteVehicle, VehicleID: o.vehicleID}
	}
	return view.Navigation{Route: guard.RouteDashboard}
}

func newLogsCommand(a *application) *cobra.Command {
	o := &logsOptions{}
	cmd := &cobra.Command{
		Use:     "logs",
		Short:   "List decision logs of the fleet or of one vehicle",
		Args:    cobra.NoArgs,
		PreRunE: o.validate,
		RunE: a.run(func(ctx context.Context, c *console, _ []string) error {
			if err := c.enter(o.target()); err != nil {
				return err
			}

			page, err := o.fetch(ctx, c)
			if err != nil {
				c.logger.Error(err, "Failed to fetch decision logs", "vehicle", o.vehicleID)
				return c.fail(logsMessage(o.vehicleID, err))
			}
			if o.vehicleID != "" && len(page.Logs) == 0 {
				return c.printer.Message(view.MsgNoDecisionLogs)
			}
			return c.printer.Logs(page)
		}),
	}
	cmd.Flags().StringVar(&o.vehicleID, "vehicle", o.vehicleID, "Only logs of this vehicle. Required by --page and --page-size.")
	o.addFlags(cmd)
	return cmd
}

func newStatsCommand(a *application) *cobra.Command {
	o := &logsOptions{}
	cmd := &cobra.Command{
		Use:     "stats",
		Short:   "Count decisions by action",
		Args:    cobra.NoArgs,
		PreRunE: o.validate,
		RunE: a.run(func(ctx context.Context, c *console, _ []string) error {
			if err := c.enter(o.target()); err != nil {
				return err
			}

			page, err := o.fetch(ctx, c)
			if err != nil {
				c.logger.Error(err, "Failed to fetch decision logs", "vehicle", o.vehicleID)
				return c.fail(logsMessage(o.vehicleID, err))
			}
			return c.printer.Stats(aggregate.Aggregate(page.Logs))
		}),
	}
	cmd.Flags().StringVar(&o.vehicleID, "vehicle", o.vehicleID, "Only decisions of this vehicle. Required by --page and --page-size.")
	o.addFlags(cmd)
	return cmd
}

func logsMessage(vehicleID string, err error) string {
	if vehicleID == "" {
		return view.MsgStatsFailed
	}
	if errors.Is(err, gateway.ErrNotFound) {
		return view.MsgVehicleNotFound
	}
	return view.MsgDetailFailed
}
