package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jobseekr/sessionkit/internal/session"
)

func newRefreshCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force a token refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.close()

			if _, err := app.mgr.Refresh(cmd.Context()); err != nil {
				if errors.Is(err, session.ErrNoSession) {
					return errors.New("not signed in")
				}
				return fmt.Errorf("refresh failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Access token refreshed")
			return nil
		},
	}
}
