// Package stores provides the stores command for the storefront CLI.
package stores

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/internal/cmd/output"
)

// NewCommand creates the stores command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stores",
		GroupID: "core",
		Short:   "List stores from the store report",
		Example: `  storefront stores
  storefront stores -o wide
  storefront stores --directory -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			svc, err := app.Service()
			if err != nil {
				return err
			}

			if dir, _ := cmd.Flags().GetBool("directory"); dir {
				d, err := svc.Directory(cmd.Context())
				if err != nil {
					return err
				}
				// The directory nests reviews, so tables fall back to JSON.
				return output.Render(cmd.OutOrStdout(), format, d, nil)
			}

			stores, err := svc.Stores(cmd.Context())
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), format, stores, func(wide bool) output.Data {
				return output.StoresTable(stores, wide)
			})
		},
	}

	cmd.Flags().Bool("directory", false, "Include each store's reviews and average rating")

	return cmd
}
