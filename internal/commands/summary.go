package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rubros-dev/rubros/internal/catalog"
	"github.com/rubros-dev/rubros/internal/report"
	"github.com/rubros-dev/rubros/internal/textkey"
)

type summaryOptions struct {
	apiURL        string
	codes         string
	clients       string
	overridesPath string
	remote        bool
	collapsed     bool
}

func newSummaryCommand(opts *globalOptions) *cobra.Command {
	o := &summaryOptions{}

	cmd := &cobra.Command{
		Use:     "summary",
		Aliases: []string{"resumen"},
		Short:   "Total the computed waterfall per product across clients",
		Long: `Total the waterfall of every selected product across the selected clients.
By default clients are loaded and computed locally, so --overrides edits
apply. With --remote the backend computes the totals instead.`,
		Example: `  rubros summary --codes 617573,614763 --clients 4000348
  rubros summary --remote --collapsed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if o.remote {
				return runRemoteSummary(cmd, opts, o)
			}
			return runSummary(cmd, opts, o)
		},
	}

	cmd.Flags().StringVar(&o.apiURL, "api-url", "", "backend base URL (overrides config)")
	cmd.Flags().StringVar(&o.codes, "codes", "", "product codes, separated by commas, semicolons or spaces")
	cmd.Flags().StringVar(&o.clients, "clients", "", "client ids, separated by commas, semicolons or spaces")
	cmd.Flags().StringVar(&o.overridesPath, "overrides", "", "YAML file of percentage and gross-sales edits")
	cmd.Flags().BoolVar(&o.remote, "remote", false, "ask the backend for its totals")
	cmd.Flags().BoolVar(&o.collapsed, "collapsed", false, "show only the operating profit of each product")
	cmd.MarkFlagsMutuallyExclusive("remote", "overrides")

	return cmd
}

func runSummary(cmd *cobra.Command, opts *globalOptions, o *summaryOptions) error {
	cfg, s, err := opts.openSession(o.apiURL)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.LoadAll(cmd.Context()); err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}
	if err := applyOverridesFile(s, o.overridesPath); err != nil {
		return err
	}
	sel, err := selectClients(cmd, s.Accounts(), o.clients)
	if err != nil {
		return err
	}

	sums := s.Summary(sel, textkey.SplitList(o.codes))
	return report.Summary(cmd.OutOrStdout(), sums, catalog.DefaultConcepts(), cfg.Money(), o.collapsed)
}

func runRemoteSummary(cmd *cobra.Command, opts *globalOptions, o *summaryOptions) error {
	cfg, client, err := opts.openClient(o.apiURL)
	if err != nil {
		return err
	}
	sums, err := client.ProductSummaries(cmd.Context(), textkey.SplitList(o.codes), textkey.SplitList(o.clients))
	if err != nil {
		return fmt.Errorf("loading product summaries: %w", err)
	}
	return report.Summary(cmd.OutOrStdout(), sums, catalog.DefaultConcepts(), cfg.Money(), o.collapsed)
}
