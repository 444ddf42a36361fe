package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/patrolctl/internal/console/view"
)

type loginOptions struct {
	username      string
	password      string
	passwordStdin bool
}

func newLoginCommand(a *application) *cobra.Command {
	o := &loginOptions{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the patrol backend",
		Long: `Log in to the patrol backend and store the returned credential.

The password is read from --password or, with --password-stdin, from the
first line of standard input.`,
		Args: cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, c *console, _ []string) error {
			if o.passwordStdin {
				pw, err := readPassword(a.io.In)
				if err != nil {
					return err
				}
				o.password = pw
			}

			st := view.NewLoginView(c.session, c.logger).Submit(ctx, o.username, o.password)
			if st.Error != "" {
				return c.fail(st.Error)
			}
			return c.printer.Message("Login succeeded.")
		}),
	}

	cmd.Flags().StringVarP(&o.username, "username", "u", o.username, "Username.")
	cmd.Flags().StringVarP(&o.password, "password", "p", o.password, "Password. Prefer --password-stdin.")
	cmd.Flags().BoolVar(&o.passwordStdin, "password-stdin", o.passwordStdin, "Read the password from standard input.")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")

	return cmd
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCommand(a *application) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, c *console, _ []string) error {
			c.session.Logout(ctx)
			return c.printer.Message("Logged out.")
		}),
	}
}

func newStatusCommand(a *application) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state and backend address",
		Args:  cobra.NoArgs,
		RunE: a.run(func(_ context.Context, c *console, _ []string) error {
			return c.printer.Message(fmt.Sprintf("%s (api %s, store %s)",
				c.session.State(), c.gateway.BaseURL(), a.opts.Store.Driver))
		}),
	}
}
