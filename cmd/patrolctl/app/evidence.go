package app

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/patrolctl/internal/console/evidence"
	"github.com/autopeer-io/patrolctl/internal/console/gateway"
	"github.com/autopeer-io/patrolctl/internal/console/guard"
	"github.com/autopeer-io/patrolctl/internal/console/view"
)

type evidenceOptions struct {
	pageOptions
	logID   string
	dir     string
	presign time.Duration
}

func newEvidenceCommand(a *application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evidence",
		Short: "Work with decision evidence images",
	}

	o := &evidenceOptions{dir: "."}
	pull := &cobra.Command{
		Use:   "pull <vehicle-id>",
		Short: "Download the evidence images of a vehicle's decision logs",
		Long: `Download the evidence images of a vehicle's decision logs.

With --presign the images are not downloaded; a time-limited URL is printed
for each instead.`,
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, c *console, args []string) error {
			if err := c.enter(view.Navigation{Route: guard.RouteVehicle, VehicleID: args[0]}); err != nil {
				return err
			}

			page, err := c.gateway.ListDecisionLogsForVehicle(ctx, args[0], o.options()...)
			if err != nil {
				c.logger.Error(err, "Failed to fetch decision logs", "vehicle", args[0])
				if errors.Is(err, gateway.ErrNotFound) {
					return c.fail(view.MsgVehicleNotFound)
				}
				return c.fail(view.MsgDetailFailed)
			}

			downloader, err := evidence.NewDownloader(a.opts.S3, c.logger)
			if err != nil {
				return err
			}

			failed := 0
			for _, l := range page.Logs {
				if o.logID != "" && l.ID != o.logID {
					continue
				}
				if l.ImageURL == "" {
					continue
				}

				var msg string
				if o.presign > 0 {
					msg, err = downloader.PresignedURL(ctx, l.ImageURL, o.presign)
				} else {
					msg, err = downloader.Save(ctx, l, o.dir)
				}
				if err != nil {
					failed++
					c.logger.Error(err, "Failed to fetch evidence", "log", l.ID, "image", l.ImageURL)
					continue
				}
				if err := c.printer.Message(l.ID + "\t" + msg); err != nil {
					return err
				}
			}

			if failed > 0 {
				return c.fail("Some evidence images could not be fetched.")
			}
			return nil
		}),
	}
	pull.Flags().StringVar(&o.logID, "log", o.logID, "Only the image of this decision log.")
	pull.Flags().StringVarP(&o.dir, "dir", "d", o.dir, "Target directory.")
	pull.Flags().DurationVar(&o.presign, "presign", o.presign, "Print presigned URLs valid for this long instead of downloading.")
	o.addFlags(pull)

	cmd.AddCommand(pull)
	return cmd
}
