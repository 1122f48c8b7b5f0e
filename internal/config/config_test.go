package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubros-dev/rubros/internal/waterfall"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "https://rubros.example.co"
	cfg.API.PageSize = 40
	cfg.Waterfall.OperatingDefaultPct = decimal.RequireFromString("12.5")

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://rubros.example.co", got.API.BaseURL)
	assert.Equal(t, 40, got.API.PageSize)
	assert.Equal(t, 30*time.Second, got.API.Timeout)
	assert.Equal(t, []string{"500", "600", "920"}, got.Waterfall.VariableExpenseConcepts)
	assert.True(t, decimal.RequireFromString("12.5").Equal(got.Waterfall.OperatingDefaultPct))
	assert.True(t, decimal.NewFromInt(3).Equal(got.Waterfall.FinancialDefaultPct))
	assert.Equal(t, ".", got.Display.ThousandsSep)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, DevelopmentURL, cfg.API.BaseURL)
	assert.Equal(t, 15, cfg.API.PageSize)
	assert.Equal(t, "80", cfg.Waterfall.DiscountConcept)
	assert.Equal(t, "1200", cfg.Waterfall.OperatingConcept)
	assert.Equal(t, "2010", cfg.Waterfall.FinancialConcept)
	assert.Equal(t, "$", cfg.Display.Currency)
	require.NoError(t, cfg.Validate())

	ec := cfg.EngineConfig()
	want := waterfall.DefaultConfig()
	assert.Equal(t, want.VariableExpenseConcepts, ec.VariableExpenseConcepts)
	assert.True(t, want.OperatingDefaultPct.Equal(ec.OperatingDefaultPct))
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("api:\n  page_size: 25\nwaterfall:\n  operating_default_pct: 9.5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.API.PageSize)
	assert.Equal(t, DevelopmentURL, cfg.API.BaseURL)
	assert.True(t, decimal.RequireFromString("9.5").Equal(cfg.Waterfall.OperatingDefaultPct))
	assert.Equal(t, "2010", cfg.Waterfall.FinancialConcept)
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, Default())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "base_url: https://localhost:7016")
	assert.Contains(t, contents, "page_size: 15")
	assert.Contains(t, contents, "timeout: 30s")
	assert.Contains(t, contents, "discount_concept: \"80\"")
}

func TestApplyEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("RUBROS_PAGE_SIZE=50\n"), 0o644))
	t.Setenv("RUBROS_API_URL", "https://api.example.co")
	t.Setenv("RUBROS_TIMEOUT", "5s")
	t.Setenv("RUBROS_ENV", EnvProduction)
	t.Cleanup(func() { os.Unsetenv("RUBROS_PAGE_SIZE") })

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envFile))

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, "https://api.example.co", cfg.API.BaseURL)
	assert.Equal(t, 50, cfg.API.PageSize)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	t.Setenv("RUBROS_PAGE_SIZE", "many")
	err := Default().ApplyEnv(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err, "an explicit .env path must exist")

	err = Default().ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RUBROS_PAGE_SIZE")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }, "api.base_url is required"},
		{"zero page size", func(c *Config) { c.API.PageSize = 0 }, "api.page_size"},
		{"negative timeout", func(c *Config) { c.API.Timeout = -time.Second }, "api.timeout"},
		{"unknown env", func(c *Config) { c.Env = "staging" }, "env must be"},
		{"production on dev url", func(c *Config) { c.Env = EnvProduction }, "production"},
		{"empty concept", func(c *Config) { c.Waterfall.OperatingConcept = "" }, "concept ids"},
		{"empty variable concept", func(c *Config) { c.Waterfall.VariableExpenseConcepts = []string{"500", ""} }, "[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMoney(t *testing.T) {
	cfg := Default()
	cfg.Display.ThousandsSep = ","
	assert.Equal(t, "$ 1,234", cfg.Money().Currency(decimal.NewFromInt(1234)))
}
