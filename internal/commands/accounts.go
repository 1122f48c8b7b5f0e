package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rubros-dev/rubros/internal/config"
	"github.com/rubros-dev/rubros/internal/filter"
	"github.com/rubros-dev/rubros/internal/model"
	"github.com/rubros-dev/rubros/internal/overrides"
	"github.com/rubros-dev/rubros/internal/report"
	"github.com/rubros-dev/rubros/internal/session"
	"github.com/rubros-dev/rubros/internal/textkey"
)

type accountsOptions struct {
	apiURL        string
	clients       string
	ref           string
	overridesPath string
	saveOverrides string
	csv           bool
}

func newAccountsCommand(opts *globalOptions) *cobra.Command {
	o := &accountsOptions{}

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Load every client and print the computed waterfall per product",
		Example: `  rubros accounts --clients 4000348,1000478 --ref 6175
  rubros accounts --overrides edits.yaml --csv > rubros.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, s, err := opts.openSession(o.apiURL)
			if err != nil {
				return err
			}
			defer s.Close()
			return runAccounts(cmd, cfg, s, o)
		},
	}

	cmd.Flags().StringVar(&o.apiURL, "api-url", "", "backend base URL (overrides config)")
	cmd.Flags().StringVar(&o.clients, "clients", "", "client ids to show, separated by commas or spaces")
	cmd.Flags().StringVar(&o.ref, "ref", "", "only products whose code contains this text")
	cmd.Flags().StringVar(&o.overridesPath, "overrides", "", "YAML file of percentage and gross-sales edits")
	cmd.Flags().StringVar(&o.saveOverrides, "save-overrides", "", "write the effective edits to this YAML file")
	cmd.Flags().BoolVar(&o.csv, "csv", false, "write CSV instead of tables")

	return cmd
}

func runAccounts(cmd *cobra.Command, cfg *config.Config, s *session.Session, o *accountsOptions) error {
	logger := slog.Default()

	if err := s.LoadAll(cmd.Context()); err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}
	logger.Debug("accounts loaded", "accounts", len(s.Accounts()), "concepts", len(s.Concepts()))

	if err := applyOverridesFile(s, o.overridesPath); err != nil {
		return err
	}

	sel, err := selectClients(cmd, s.Accounts(), o.clients)
	if err != nil {
		return err
	}

	views := s.View(sel, o.ref)
	if o.csv {
		err = report.CSV(cmd.OutOrStdout(), views, s.Concepts())
	} else {
		err = report.Text(cmd.OutOrStdout(), views, s.Concepts(), cfg.Money())
	}
	if err != nil {
		return err
	}

	if o.saveOverrides != "" {
		if err := overrides.SaveFile(o.saveOverrides, overrides.Snapshot(s.Overrides())); err != nil {
			return err
		}
	}
	return nil
}

// resolveClients maps a free-text list of client ids to a selection of loaded
// accounts, matching on normalized keys. Tokens that match nothing are returned.
func resolveClients(accounts []model.Account, list string) (filter.Selection, []string) {
	tokens := textkey.SplitList(list)
	if len(tokens) == 0 {
		return filter.All(), nil
	}

	byKey := make(map[string]string, len(accounts))
	for _, a := range accounts {
		byKey[textkey.Normalize(a.ID)] = a.ID
	}

	var ids, unknown []string
	for _, tok := range tokens {
		if id, ok := byKey[tok]; ok {
			ids = append(ids, id)
			continue
		}
		unknown = append(unknown, tok)
	}
	return filter.Only(ids...), unknown
}

func applyOverridesFile(s *session.Session, path string) error {
	if path == "" {
		return nil
	}
	f, err := overrides.LoadFile(path)
	if err != nil {
		return err
	}
	n := f.Apply(s.Overrides())
	slog.Debug("overrides applied", "path", path, "edits", n)
	return nil
}

// selectClients resolves list against the loaded accounts and reports unknown
// ids on stderr with suggestions. It fails only when nothing matched.
func selectClients(cmd *cobra.Command, accounts []model.Account, list string) (filter.Selection, error) {
	sel, unknown := resolveClients(accounts, list)
	for _, id := range unknown {
		msg := fmt.Sprintf("unknown client %q", id)
		if hints := filter.Suggest(id, accountIDs(accounts), 3, 2); len(hints) > 0 {
			msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(hints, ", "))
		}
		fmt.Fprintln(cmd.ErrOrStderr(), msg)
	}
	if len(unknown) > 0 && sel.IsAll() {
		return sel, errors.New("no matching clients")
	}
	return sel, nil
}

func accountIDs(accounts []model.Account) []string {
	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.ID
	}
	return ids
}
