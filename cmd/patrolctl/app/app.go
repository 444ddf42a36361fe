package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/patrolctl/cmd/patrolctl/app/options"
	"github.com/autopeer-io/patrolctl/internal/console/credential"
	"github.com/autopeer-io/patrolctl/internal/console/gateway"
	"github.com/autopeer-io/patrolctl/internal/console/render"
	"github.com/autopeer-io/patrolctl/internal/console/session"
	"github.com/autopeer-io/patrolctl/pkg/log"
)

const (
	commandName = "patrolctl"
	commandDesc = `patrolctl is the operator console of the autonomous patrol fleet.

It lists vehicles and their live status, shows the pickup and skip decisions
the fleet made together with their evidence images, and queues commands.
Most commands require a session; run 'patrolctl login' first.`
)

// errReported marks a failure whose message has already been printed.
var errReported = errors.New("reported")

// IO bundles the streams of a command run.
type IO struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

type application struct {
	ctx  context.Context
	io   IO
	opts *options.PatrolOptions

	configFile string
	output     string
}

// console holds the collaborators of a single command.
type console struct {
	logger  log.Logger
	store   credential.Store
	gateway *gateway.Client
	session *session.Manager
	printer *render.Printer
}

// NewPatrolCommand builds the root command. ctx ends every blocking call.
func NewPatrolCommand(ctx context.Context, streams IO) *cobra.Command {
	a := &application{
		ctx:  ctx,
		io:   streams,
		opts: options.NewPatrolOptions(),
	}

	cmd := &cobra.Command{
		Use:           commandName,
		Short:         "Operator console for the autonomous patrol fleet",
		Long:          commandDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.complete(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.SetIn(streams.In)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.ErrOut)

	namedfs := a.opts.Flags()
	gfs := namedfs.FlagSet("global")
	gfs.StringVar(&a.configFile, "config", options.DefaultConfigFile(), "Config file (YAML).")
	gfs.StringVarP(&a.output, "output", "o", string(render.FormatTable), "Output format: table, json or yaml.")

	pfs := cmd.PersistentFlags()
	for _, f := range namedfs.FlagSets {
		pfs.AddFlagSet(f)
	}
	setUsage(cmd, namedfs)

	cmd.AddCommand(
		newLoginCommand(a),
		newLogoutCommand(a),
		newStatusCommand(a),
		newDashboardCommand(a),
		newVehiclesCommand(a),
		newVehicleCommand(a),
		newLogsCommand(a),
		newStatsCommand(a),
		newTelemetryCommand(a),
		newCommandCommand(a),
		newEvidenceCommand(a),
		newWatchCommand(a),
	)

	return cmd
}

// setUsage prints the global flags grouped by option set, the way the kube
// components do, after the flags of the command itself.
func setUsage(cmd *cobra.Command, namedfs cliflag.NamedFlagSets) {
	const cols = 80
	cmd.SetUsageFunc(func(c *cobra.Command) error {
		w := c.OutOrStderr()
		fmt.Fprintf(w, "Usage:\n  %s\n", c.UseLine())
		if c.HasAvailableSubCommands() {
			fmt.Fprintf(w, "\nAvailable Commands:\n")
			for _, sub := range c.Commands() {
				if sub.IsAvailableCommand() {
					fmt.Fprintf(w, "  %-12s %s\n", sub.Name(), sub.Short)
				}
			}
		}
		if local := c.LocalNonPersistentFlags(); local.HasAvailableFlags() {
			fmt.Fprintf(w, "\nFlags:\n%s", local.FlagUsagesWrapped(cols))
		}
		fmt.Fprintln(w)
		cliflag.PrintSections(w, namedfs, cols)
		return nil
	})
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		long := c.Long
		if long == "" {
			long = c.Short
		}
		fmt.Fprintf(c.OutOrStdout(), "%s\n\n", long)
		_ = c.Usage()
	})
}

// complete loads configuration and initializes logging.
func (a *application) complete(cmd *cobra.Command) error {
	explicit := cmd.Root().PersistentFlags().Changed("config")
	if err := a.opts.Load(cmd.Root().PersistentFlags(), a.configFile, explicit); err != nil {
		return err
	}
	if err := a.opts.Validate(); err != nil {
		return err
	}
	if _, err := render.ParseFormat(a.output); err != nil {
		return err
	}

	log.Init(a.opts.Log)
	return nil
}

// open wires the collaborators of one command.
func (a *application) open() (*console, error) {
	logger := log.Std()

	store, err := credential.Open(a.opts.Store, logger)
	if err != nil {
		return nil, err
	}

	gw, err := gateway.New(a.opts.Api.BaseURL(), store,
		gateway.WithLogger(logger),
		gateway.WithTelemetryURL(a.opts.Api.TelemetryURL()),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	sess, err := session.New(store, gw,
		session.WithLogger(logger),
		session.WithExpiryPolicy(a.opts.Session.Expiry),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	format, _ := render.ParseFormat(a.output)
	return &console{
		logger:  logger,
		store:   store,
		gateway: gw,
		session: sess,
		printer: render.NewPrinter(a.io.Out, format),
	}, nil
}

// run opens a console for fn and releases it afterwards.
func (a *application) run(fn func(ctx context.Context, c *console, args []string) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		c, err := a.open()
		if err != nil {
			return err
		}
		defer func() {
			if err := c.store.Close(); err != nil {
				c.logger.Error(err, "Failed to close credential store")
			}
			log.Sync()
		}()

		return fn(a.ctx, c, args)
	}
}

// fail prints msg and reports the command as failed.
func (c *console) fail(msg string) error {
	if err := c.printer.Message(msg); err != nil {
		return err
	}
	return errReported
}

// Execute runs patrolctl with os.Args and returns the process exit code.
func Execute(ctx context.Context) int {
	return Run(ctx, IO{In: os.Stdin, Out: os.Stdout, ErrOut: os.Stderr}, os.Args[1:]...)
}

// Run executes the command line args against streams.
func Run(ctx context.Context, streams IO, args ...string) int {
	cmd := NewPatrolCommand(ctx, streams)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(streams.ErrOut, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}
