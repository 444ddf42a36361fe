package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/patrolctl/internal/console/guard"
	"github.com/autopeer-io/patrolctl/internal/console/model"
	"github.com/autopeer-io/patrolctl/internal/console/telemetry"
	"github.com/autopeer-io/patrolctl/internal/console/view"
	"github.com/autopeer-io/patrolctl/pkg/mqtt"
)

const (
	sourceWebSocket = "websocket"
	sourceMQTT      = "mqtt"
)

func newTelemetryCommand(a *application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "Show recorded or live vehicle telemetry",
	}
	cmd.AddCommand(newTelemetryHistoryCommand(a), newTelemetryWatchCommand(a))
	return cmd
}

type historyOptions struct {
	since time.Duration
	start string
	end   string
}

// window resolves the requested time range relative to now.
func (o *historyOptions) window(now time.Time) (time.Time, time.Time, error) {
	end := now
	if o.end != "" {
		t, err := time.Parse(time.RFC3339, o.end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--end: %w", err)
		}
		end = t
	}
	start := end.Add(-o.since)
	if o.start != "" {
		t, err := time.Parse(time.RFC3339, o.start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--start: %w", err)
		}
		start = t
	}
	return start, end, nil
}

func newTelemetryHistoryCommand(a *application) *cobra.Command {
	o := &historyOptions{since: time.Hour}
	cmd := &cobra.Command{
		Use:   "history <vehicle-id>",
		Short: "Print the recorded telemetry of a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, c *console, args []string) error {
			start, end, err := o.window(time.Now())
			if err != nil {
				return err
			}
			if err := c.enter(view.Navigation{Route: guard.RouteVehicle, VehicleID: args[0]}); err != nil {
				return err
			}

			points, err := c.gateway.GetTelemetry(ctx, args[0], start, end)
			if err != nil {
				c.logger.Error(err, "Failed to fetch telemetry", "vehicle", args[0])
				return c.fail("Failed to fetch telemetry. Please try again later.")
			}
			return c.printer.Telemetry(points)
		}),
	}
	cmd.Flags().DurationVar(&o.since, "since", o.since, "Length of the window ending at --end.")
	cmd.Flags().StringVar(&o.start, "start", o.start, "Window start (RFC3339). Overrides --since.")
	cmd.Flags().StringVar(&o.end, "end", o.end, "Window end (RFC3339). Defaults to now.")
	return cmd
}

type watchTelemetryOptions struct {
	source   string
	vehicles []string
}

func newTelemetryWatchCommand(a *application) *cobra.Command {
	o := &watchTelemetryOptions{source: sourceWebSocket}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream live vehicle status until interrupted",
		Long: `Stream live vehicle status until interrupted.

The websocket source reads the backend telemetry hub and requires a session.
The mqtt source subscribes to the fleet broker directly.`,
		Args: cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, c *console, _ []string) error {
			var src telemetry.Source
			switch o.source {
			case sourceWebSocket:
				if err := c.enter(view.Navigation{Route: guard.RouteDashboard}); err != nil {
					return err
				}
				src = telemetry.NewWebSocketSource(c.gateway)
			case sourceMQTT:
				client, err := mqtt.NewClient(a.opts.Mqtt.ToClientConfig())
				if err != nil {
					return err
				}
				only := ""
				if len(o.vehicles) == 1 {
					only = o.vehicles[0]
				}
				src = telemetry.NewMQTTSource(client, a.opts.Mqtt.TopicRoot, only, c.logger)
			default:
				return fmt.Errorf("--source: unknown source %q (want %s or %s)", o.source, sourceWebSocket, sourceMQTT)
			}

			c.logger.Info("Watching telemetry", "source", src.Name(), "vehicles", o.vehicles)
			emit := func(u model.TelemetryUpdate) {
				if err := c.printer.TelemetryUpdate(u); err != nil {
					c.logger.Error(err, "Failed to print telemetry update")
				}
			}
			return src.Run(ctx, telemetry.Filter(emit, o.vehicles...))
		}),
	}
	cmd.Flags().StringVar(&o.source, "source", o.source, "Telemetry source: websocket or mqtt.")
	cmd.Flags().StringSliceVar(&o.vehicles, "vehicle", o.vehicles, "Only updates of these vehicles.")
	return cmd
}

func newCommandCommand(a *application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "command",
		Short: "Send commands to vehicles",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "send <vehicle-id> <command>",
		Short: "Queue a command for a vehicle",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(ctx context.Context, c *console, args []string) error {
			if err := c.enter(view.Navigation{Route: guard.RouteVehicle, VehicleID: args[0]}); err != nil {
				return err
			}

			receipt, err := c.gateway.SendCommand(ctx, args[0], args[1])
			if err != nil {
				c.logger.Error(err, "Failed to send command", "vehicle", args[0], "command", args[1])
				return c.fail("Failed to send command. Please try again later.")
			}
			return c.printer.Receipt(receipt)
		}),
	})
	return cmd
}
