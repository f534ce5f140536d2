package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session can be established",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.close()

			out := cmd.OutOrStdout()
			if !app.mgr.Bootstrap(cmd.Context()) {
				fmt.Fprintln(out, "Not signed in")
				return nil
			}

			if user := app.mgr.CurrentUser(); user != nil {
				fmt.Fprintf(out, "Signed in as %s <%s>\n", user.Name, user.Email)
			} else {
				fmt.Fprintln(out, "Signed in")
			}
			return nil
		},
	}
}
