// Package reviews provides the reviews command for the storefront CLI.
package reviews

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/internal/cmd/output"
)

// NewCommand creates the reviews command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reviews",
		GroupID: "core",
		Short:   "List reviews for one store",
		Example: `  storefront reviews --store "Acme Solar"
  storefront reviews --store "Acme Solar" -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			store, _ := cmd.Flags().GetString("store")

			svc, err := app.Service()
			if err != nil {
				return err
			}
			list, err := svc.Reviews(cmd.Context(), store)
			if err != nil {
				return err
			}
			return output.Render(cmd.OutOrStdout(), format, list, func(wide bool) output.Data {
				return output.ReviewsTable(list, wide)
			})
		},
	}

	cmd.Flags().StringP("store", "s", "", "Store name as shown in the store report")
	_ = cmd.MarkFlagRequired("store")

	return cmd
}
