package commands

import (
	"fmt"
	"log/slog"

	"github.com/rubros-dev/rubros/internal/config"
	"github.com/rubros-dev/rubros/internal/session"
	"github.com/rubros-dev/rubros/internal/source"
)

// openClient loads the config, applies an --api-url override and returns a
// client for the configured backend.
func (o *globalOptions) openClient(apiURL string) (*config.Config, *source.Client, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	client := source.NewClient(source.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  slog.Default(),
	})
	return cfg, client, nil
}

// openSession returns a session reading from the configured backend.
// Callers must Close it.
func (o *globalOptions) openSession(apiURL string) (*config.Config, *session.Session, error) {
	cfg, client, err := o.openClient(apiURL)
	if err != nil {
		return nil, nil, err
	}
	s := session.New(client, session.Config{
		PageSize:  cfg.API.PageSize,
		Waterfall: cfg.EngineConfig(),
		Logger:    slog.Default(),
	})
	return cfg, s, nil
}
