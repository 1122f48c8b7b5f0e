package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rubros-dev/rubros/internal/buildinfo"
	"github.com/rubros-dev/rubros/internal/config"
)

type globalOptions struct {
	configPath string
	debug      bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "rubros",
		Short:   "Line-item profitability waterfall per client and product",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if opts.debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.FileName, "config file")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newWaterfallCommand(opts))
	rootCmd.AddCommand(newAccountsCommand(opts))
	rootCmd.AddCommand(newSummaryCommand(opts))
	rootCmd.AddCommand(newConceptsCommand(opts))
	rootCmd.AddCommand(newDetailCommand(opts))
	rootCmd.AddCommand(newLineItemCommand(opts))
	rootCmd.AddCommand(newItemCommand(opts))
	rootCmd.AddCommand(newEmulatorCommand())

	return rootCmd
}

// loadConfig reads the config file if present and overlays the environment.
// Callers apply their own flags before validating.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}
