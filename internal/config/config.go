package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rubros-dev/rubros/internal/money"
	"github.com/rubros-dev/rubros/internal/waterfall"
)

// FileName is the default configuration file name.
const FileName = "rubros.yaml"

// Environments accepted in RUBROS_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DevelopmentURL is the backend address used during development.
const DevelopmentURL = "https://localhost:7016"

// Config represents the top-level rubros.yaml configuration.
type Config struct {
	Env       string          `yaml:"env"`
	API       APIConfig       `yaml:"api"`
	Waterfall WaterfallConfig `yaml:"waterfall"`
	Display   DisplayConfig   `yaml:"display"`
}

// APIConfig locates the line-item backend.
type APIConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	PageSize int           `yaml:"page_size"`
}

// WaterfallConfig names the concepts that drive the computation.
type WaterfallConfig struct {
	DiscountConcept         string          `yaml:"discount_concept"`
	VariableExpenseConcepts []string        `yaml:"variable_expense_concepts"`
	OperatingConcept        string          `yaml:"operating_concept"`
	OperatingDefaultPct     decimal.Decimal `yaml:"operating_default_pct"`
	FinancialConcept        string          `yaml:"financial_concept"`
	FinancialDefaultPct     decimal.Decimal `yaml:"financial_default_pct"`
}

// DisplayConfig controls how amounts are printed.
type DisplayConfig struct {
	Currency     string `yaml:"currency"`
	ThousandsSep string `yaml:"thousands_sep"`
	DecimalSep   string `yaml:"decimal_sep"`
}

// Load reads a rubros.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault reads path, falling back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	wf := waterfall.DefaultConfig()
	return &Config{
		Env: EnvDevelopment,
		API: APIConfig{
			BaseURL:  DevelopmentURL,
			Timeout:  30 * time.Second,
			PageSize: 15,
		},
		Waterfall: WaterfallConfig{
			DiscountConcept:         wf.DiscountConcept,
			VariableExpenseConcepts: wf.VariableExpenseConcepts,
			OperatingConcept:        wf.OperatingConcept,
			OperatingDefaultPct:     wf.OperatingDefaultPct,
			FinancialConcept:        wf.FinancialConcept,
			FinancialDefaultPct:     wf.FinancialDefaultPct,
		},
		Display: DisplayConfig{
			Currency:     money.COP.Symbol,
			ThousandsSep: money.COP.ThousandsSep,
			DecimalSep:   money.COP.DecimalSep,
		},
	}
}

// ApplyEnv overlays environment variables onto the config.
// A .env file is loaded first: envPath if given, otherwise ./.env when present.
func (c *Config) ApplyEnv(envPath ...string) error {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("RUBROS_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("RUBROS_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("RUBROS_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RUBROS_PAGE_SIZE: %w", err)
		}
		c.API.PageSize = n
	}
	if v := os.Getenv("RUBROS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RUBROS_TIMEOUT: %w", err)
		}
		c.API.Timeout = d
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("env must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env))
	}
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.Env == EnvProduction && c.API.BaseURL == DevelopmentURL {
		errs = append(errs, errors.New("api.base_url must be set for production"))
	}
	if c.API.PageSize < 1 {
		errs = append(errs, fmt.Errorf("api.page_size must be at least 1, got %d", c.API.PageSize))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout))
	}

	wf := c.Waterfall
	if wf.DiscountConcept == "" || wf.OperatingConcept == "" || wf.FinancialConcept == "" {
		errs = append(errs, errors.New("waterfall concept ids must not be empty"))
	}
	for i, id := range wf.VariableExpenseConcepts {
		if id == "" {
			errs = append(errs, fmt.Errorf("waterfall.variable_expense_concepts[%d] is empty", i))
		}
	}
	return errors.Join(errs...)
}

// EngineConfig converts the waterfall section into an engine configuration.
func (c *Config) EngineConfig() waterfall.Config {
	wf := c.Waterfall
	return waterfall.Config{
		DiscountConcept:         wf.DiscountConcept,
		VariableExpenseConcepts: append([]string(nil), wf.VariableExpenseConcepts...),
		OperatingConcept:        wf.OperatingConcept,
		OperatingDefaultPct:     wf.OperatingDefaultPct,
		FinancialConcept:        wf.FinancialConcept,
		FinancialDefaultPct:     wf.FinancialDefaultPct,
	}
}

// Money returns the display format.
func (c *Config) Money() money.Format {
	return money.Format{
		Symbol:       c.Display.Currency,
		ThousandsSep: c.Display.ThousandsSep,
		DecimalSep:   c.Display.DecimalSep,
	}
}
