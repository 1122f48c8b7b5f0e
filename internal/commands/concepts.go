package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rubros-dev/rubros/internal/catalog"
	"github.com/rubros-dev/rubros/internal/report"
)

func newConceptsCommand(opts *globalOptions) *cobra.Command {
	var remote bool
	var apiURL string

	cmd := &cobra.Command{
		Use:   "concepts",
		Short: "Print the line-item concept catalog",
		Long: `Print the standard waterfall concepts. With --remote, every client is
loaded and the catalog observed across their line items is printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !remote {
				return report.Concepts(cmd.OutOrStdout(), catalog.DefaultConcepts())
			}

			_, s, err := opts.openSession(apiURL)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.LoadAll(cmd.Context()); err != nil {
				return fmt.Errorf("loading accounts: %w", err)
			}
			return report.Concepts(cmd.OutOrStdout(), s.Concepts())
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "build the catalog from the backend's clients")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "backend base URL (overrides config)")

	return cmd
}
