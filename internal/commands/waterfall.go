package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rubros-dev/rubros/internal/catalog"
	"github.com/rubros-dev/rubros/internal/model"
	"github.com/rubros-dev/rubros/internal/overrides"
	"github.com/rubros-dev/rubros/internal/report"
	"github.com/rubros-dev/rubros/internal/waterfall"
)

func newWaterfallCommand(opts *globalOptions) *cobra.Command {
	var base, cost string
	var pcts []string

	cmd := &cobra.Command{
		Use:     "waterfall",
		Short:   "Compute the waterfall for a single base quantity and cost",
		Example: `  rubros waterfall --base 1.000.000 --cost 400.000 --pct 80=5 --pct 500=2,5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			pctConfig, err := parsePercentFlags(pcts)
			if err != nil {
				return err
			}

			concepts := waterfallConcepts(pctConfig)
			eng := waterfall.New(cfg.EngineConfig())
			b := eng.Compute(waterfall.Input{
				BaseQty: overrides.ClampMoney(base),
				CostQty: overrides.ClampMoney(cost),
			}, pctConfig)

			return report.Lines(cmd.OutOrStdout(), b.Vector(concepts), cfg.Money())
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "gross sales, e.g. 1.000.000 (required)")
	_ = cmd.MarkFlagRequired("base")
	cmd.Flags().StringVar(&cost, "cost", "0", "cost of sales")
	cmd.Flags().StringArrayVar(&pcts, "pct", nil, "concept percentage as id=value (repeatable)")

	return cmd
}

// parsePercentFlags parses id=value pairs. Values go through the same parsing
// as an edited percentage; a later pair for the same id wins.
func parsePercentFlags(pairs []string) (model.PercentageConfig, error) {
	pcts := make(model.PercentageConfig, len(pairs))
	for _, p := range pairs {
		id, raw, ok := strings.Cut(p, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --pct %q: expected id=value", p)
		}
		pcts[id] = overrides.ParsePercent(raw)
	}
	return pcts, nil
}

// waterfallConcepts returns the default concepts plus any concept given a percentage.
func waterfallConcepts(pcts model.PercentageConfig) []model.Concept {
	var defs []model.LineItemDef
	for _, c := range catalog.DefaultConcepts() {
		defs = append(defs, model.LineItemDef{ConceptID: c.ID, Name: c.Name})
	}
	for id := range pcts {
		defs = append(defs, model.LineItemDef{ConceptID: id})
	}
	return catalog.NewFromAccounts([]model.Account{{LineItems: defs}}).Concepts()
}
