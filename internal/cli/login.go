package cli

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jobseekr/sessionkit/internal/api"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.close()

			reader := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			email, err := getSimpleText(reader, "Enter email", out)
			if err != nil {
				return err
			}
			password, err := getPassword(reader, out)
			if err != nil {
				return err
			}

			user, err := app.mgr.Login(cmd.Context(), email, password)
			if err != nil {
				switch {
				case errors.Is(err, api.ErrInvalidCredentials):
					return errors.New("invalid email or password")
				case errors.Is(err, api.ErrNetwork):
					return errors.New("could not reach the server, try again later")
				default:
					return err
				}
			}

			if user != nil && user.Name != "" {
				fmt.Fprintf(out, "Signed in as %s <%s>\n", user.Name, user.Email)
			} else {
				fmt.Fprintf(out, "Signed in as %s\n", email)
			}
			return nil
		},
	}
}
