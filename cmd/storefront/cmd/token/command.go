// Package token provides the token command, which checks that the
// configured credentials can be exchanged for an access token.
package token

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/internal/cmd/output"
)

// NewCommand creates the token command using app context.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "token",
		GroupID: "management",
		Short:   "Verify credentials by exchanging the refresh token",
		Long: `Exchange the configured refresh token for an access token and report
its state and expiry. The token value itself is never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			tokens, err := app.Tokens()
			if err != nil {
				return err
			}
			if _, err := tokens.Token(cmd.Context()); err != nil {
				return err
			}

			st := tokens.Status()
			app.Logger().Debug().
				Stringer("state", st.State).
				Time("expires_at", st.ExpiresAt).
				Msg("Token exchange succeeded")

			view := map[string]any{
				"state":      st.State.String(),
				"expires_at": st.ExpiresAt.UTC(),
				"refreshes":  st.Refreshes,
			}
			return output.Render(cmd.OutOrStdout(), format, view, func(bool) output.Data {
				return output.TokenStatusTable(st, time.Now())
			})
		},
	}
}
