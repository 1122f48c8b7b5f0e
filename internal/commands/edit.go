package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rubros-dev/rubros/internal/catalog"
	"github.com/rubros-dev/rubros/internal/config"
	"github.com/rubros-dev/rubros/internal/filter"
	"github.com/rubros-dev/rubros/internal/overrides"
	"github.com/rubros-dev/rubros/internal/report"
	"github.com/rubros-dev/rubros/internal/session"
	"github.com/rubros-dev/rubros/internal/source"
)

// editFunc changes one account through the session.
type editFunc func(cmd *cobra.Command, s *session.Session, accountID string, args []string) error

// runEdit loads a single client, applies fn and prints the client's resulting view.
func runEdit(cmd *cobra.Command, opts *globalOptions, apiURL string, args []string, fn editFunc) error {
	cfg, s, err := opts.openSession(apiURL)
	if err != nil {
		return err
	}
	defer s.Close()

	accountID := args[0]
	if _, err := s.LoadAccount(cmd.Context(), accountID); err != nil {
		return err
	}
	if fn != nil {
		if err := fn(cmd, s, accountID, args[1:]); err != nil {
			return err
		}
	}
	return printAccount(cmd, cfg, s, accountID)
}

func printAccount(cmd *cobra.Command, cfg *config.Config, s *session.Session, accountID string) error {
	views := s.View(filter.Only(accountID), "")
	return report.Text(cmd.OutOrStdout(), views, s.Concepts(), cfg.Money())
}

func newDetailCommand(opts *globalOptions) *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "detail <client>",
		Short: "Fetch one client and print its computed waterfall",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, opts, apiURL, args, nil)
		},
	}
	cmd.Flags().StringVar(&apiURL, "api-url", "", "backend base URL (overrides config)")
	return cmd
}

func newLineItemCommand(opts *globalOptions) *cobra.Command {
	var apiURL string

	lineItemCmd := &cobra.Command{
		Use:     "line-item",
		Aliases: []string{"rubro"},
		Short:   "Create, change or remove a client's line items",
	}
	lineItemCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend base URL (overrides config)")

	var name, pct string
	addCmd := &cobra.Command{
		Use:   "add <client> <concept>",
		Short: "Add a line item with a percentage",
		Long: `Add a line item with a percentage. Without --name, standard concepts
take their catalog name.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lineName := lineItemName(args[1], name)
			if lineName == "" {
				return fmt.Errorf("concept %s has no standard name: pass --name", args[1])
			}
			return runEdit(cmd, opts, apiURL, args, func(cmd *cobra.Command, s *session.Session, accountID string, rest []string) error {
				return s.CreateLineItem(cmd.Context(), accountID, rest[0], lineName, pct)
			})
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "line item name (defaults to the standard concept name)")
	addCmd.Flags().StringVar(&pct, "pct", "0", "percentage, e.g. 2,5")

	setCmd := &cobra.Command{
		Use:   "set <client> <concept> <pct>",
		Short: "Change a line item's percentage",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, opts, apiURL, args, func(cmd *cobra.Command, s *session.Session, accountID string, rest []string) error {
				return s.UpdateLineItem(cmd.Context(), accountID, rest[0], rest[1])
			})
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <client> <concept>",
		Short: "Remove a line item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, opts, apiURL, args, func(cmd *cobra.Command, s *session.Session, accountID string, rest []string) error {
				return s.DeleteLineItem(cmd.Context(), accountID, rest[0])
			})
		},
	}

	lineItemCmd.AddCommand(addCmd, setCmd, rmCmd)
	return lineItemCmd
}

func lineItemName(conceptID, name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return catalog.DefaultName(conceptID)
}

func newItemCommand(opts *globalOptions) *cobra.Command {
	var apiURL string

	itemCmd := &cobra.Command{
		Use:     "item",
		Aliases: []string{"oferta"},
		Short:   "Create, change or remove a client's products",
	}
	itemCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend base URL (overrides config)")

	var name, base, cost string
	addCmd := &cobra.Command{
		Use:   "add <client> <code>",
		Short: "Add a product with gross sales and cost",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, opts, apiURL, args, func(cmd *cobra.Command, s *session.Session, accountID string, rest []string) error {
				return s.CreateItem(cmd.Context(), accountID, rest[0], name, base, cost)
			})
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "product name")
	addCmd.Flags().StringVar(&base, "base", "0", "gross sales, e.g. 1.000.000")
	addCmd.Flags().StringVar(&cost, "cost", "0", "cost of sales")

	var newName, newBase, newCost string
	setCmd := &cobra.Command{
		Use:   "set <client> <code>",
		Short: "Change a product's name, gross sales or cost",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ch source.ItemChanges
			flags := cmd.Flags()
			if flags.Changed("name") {
				ch.Name = &newName
			}
			if flags.Changed("base") {
				v := overrides.ClampMoney(newBase)
				ch.BaseQty = &v
			}
			if flags.Changed("cost") {
				v := overrides.ClampMoney(newCost)
				ch.CostQty = &v
			}
			if ch.Name == nil && ch.BaseQty == nil && ch.CostQty == nil {
				return errors.New("nothing to change: pass --name, --base or --cost")
			}
			return runEdit(cmd, opts, apiURL, args, func(cmd *cobra.Command, s *session.Session, accountID string, rest []string) error {
				return s.UpdateItem(cmd.Context(), accountID, rest[0], ch)
			})
		},
	}
	setCmd.Flags().StringVar(&newName, "name", "", "product name")
	setCmd.Flags().StringVar(&newBase, "base", "", "gross sales")
	setCmd.Flags().StringVar(&newCost, "cost", "", "cost of sales")

	rmCmd := &cobra.Command{
		Use:   "rm <client> <code>",
		Short: "Remove a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, opts, apiURL, args, func(cmd *cobra.Command, s *session.Session, accountID string, rest []string) error {
				return s.DeleteItem(cmd.Context(), accountID, rest[0])
			})
		},
	}

	itemCmd.AddCommand(addCmd, setCmd, rmCmd)
	return itemCmd
}
