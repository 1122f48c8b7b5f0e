package commands_test

import (
	"bytes"
	"encoding/csv"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubros-dev/rubros/internal/commands"
	"github.com/rubros-dev/rubros/internal/config"
	"github.com/rubros-dev/rubros/internal/emulator"
	"github.com/rubros-dev/rubros/internal/overrides"
	"github.com/rubros-dev/rubros/internal/report"
	"github.com/rubros-dev/rubros/internal/source"
)

func runRubros(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := commands.NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// configFlag points at a config file that does not exist, so defaults apply.
func configFlag(t *testing.T) string {
	t.Helper()
	return "--config=" + filepath.Join(t.TempDir(), config.FileName)
}

func startEmulator(t *testing.T) string {
	t.Helper()
	url, _ := startEmulatorStore(t)
	return url
}

func startEmulatorStore(t *testing.T) (string, *emulator.Store) {
	t.Helper()
	st, err := emulator.Open(filepath.Join(t.TempDir(), "emulator.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Load([]emulator.Account{
		{
			ID:   "4000348",
			Name: "Droguería Alemana",
			LineItems: []emulator.LineItem{
				{ID: "80", Name: "Descuentos", Percentage: "5"},
				{ID: "1200", Name: "Gastos de Operación", Percentage: "11.05"},
				{ID: "2010", Name: "Costo Financiero", Percentage: "3"},
				{ID: "2020", Name: "Utilidad despues de C.T.O.", Percentage: "0"},
			},
			Items: []emulator.Item{
				{Code: "617573", Name: "Caja x 12", TotalBase: "1000000", TotalCost: "400000"},
				{Code: "614763", Name: "Display", TotalBase: "200000", TotalCost: "50000"},
			},
		},
		{ID: "1000478", Name: "Tiendas D1"},
		{ID: "2000100", Name: "Éxito"},
	}))

	srv := httptest.NewServer(emulator.NewRouter(st, emulator.Options{ReportTotal: true}))
	t.Cleanup(srv.Close)
	return srv.URL, st
}

func TestVersion(t *testing.T) {
	out, _, err := runRubros(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "rubros version dev")
}

func TestInit_WritesConfig(t *testing.T) {
	dir := t.TempDir()
	out, _, err := runRubros(t, "init", dir, "--api-url", "http://localhost:8080", "--page-size", "20")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, config.FileName))

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 20, cfg.API.PageSize)
	assert.Equal(t, "80", cfg.Waterfall.DiscountConcept)
}

func TestInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runRubros(t, "init", dir)
	require.NoError(t, err)

	_, _, err = runRubros(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = runRubros(t, "init", dir, "--force")
	require.NoError(t, err)
}

func TestWaterfall(t *testing.T) {
	out, _, err := runRubros(t, "waterfall", configFlag(t),
		"--base", "1.000.000", "--cost", "400.000", "--pct", "80=5")
	require.NoError(t, err)

	assert.Contains(t, out, "Ventas Netas")
	assert.Contains(t, out, "$ 950.000")
	assert.Contains(t, out, "$ 104.975")
	assert.Contains(t, out, "$ 28.500")
	assert.Contains(t, out, "$ 416.525")
}

func TestWaterfall_ExtraConceptAndBadPair(t *testing.T) {
	out, _, err := runRubros(t, "waterfall", configFlag(t), "--base", "100", "--pct", "9999=4")
	require.NoError(t, err)
	assert.Contains(t, out, "9999")

	_, _, err = runRubros(t, "waterfall", configFlag(t), "--base", "100", "--pct", "80")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected id=value")
}

func TestWaterfall_RequiresBase(t *testing.T) {
	_, _, err := runRubros(t, "waterfall", configFlag(t))
	require.Error(t, err)
}

func TestConcepts_Defaults(t *testing.T) {
	out, _, err := runRubros(t, "concepts")
	require.NoError(t, err)
	assert.Contains(t, out, "Utilidad despues de C.T.O.")
	assert.Contains(t, out, "net_profit")
}

func TestConcepts_Remote(t *testing.T) {
	url := startEmulator(t)
	out, _, err := runRubros(t, "concepts", configFlag(t), "--remote", "--api-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Gastos de Operación")
	assert.NotContains(t, out, "Ventas Brutas - Colombia")
}

func TestAccounts_Text(t *testing.T) {
	url := startEmulator(t)
	out, _, err := runRubros(t, "accounts", configFlag(t), "--api-url", url)
	require.NoError(t, err)

	assert.Contains(t, out, "4000348 - Droguería Alemana")
	assert.Contains(t, out, "$ 1.000.000")
	assert.Contains(t, out, "$ 416.525")
	assert.Contains(t, out, "43.8%")
	assert.Contains(t, out, "1000478 - Tiendas D1")
	assert.Contains(t, out, "Sin productos.")
}

func TestAccounts_ClientsAndRef(t *testing.T) {
	url := startEmulator(t)
	out, stderr, err := runRubros(t, "accounts", configFlag(t), "--api-url", url,
		"--clients", "4000348; 400034", "--ref", "6147")
	require.NoError(t, err)

	assert.Contains(t, out, "614763")
	assert.NotContains(t, out, "617573")
	assert.NotContains(t, out, "Tiendas D1")
	assert.Contains(t, stderr, `unknown client "400034"`)
	assert.Contains(t, stderr, "did you mean 4000348")
}

func TestAccounts_NoMatchingClients(t *testing.T) {
	url := startEmulator(t)
	_, _, err := runRubros(t, "accounts", configFlag(t), "--api-url", url, "--clients", "nadie")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no matching clients")
}

func TestAccounts_CSVWithOverrides(t *testing.T) {
	url := startEmulator(t)
	dir := t.TempDir()

	edits := filepath.Join(dir, "edits.yaml")
	require.NoError(t, overrides.SaveFile(edits, &overrides.File{Accounts: map[string]overrides.AccountFile{
		"4000348": {
			Percentages: map[string]string{"80": "0"},
			Items:       map[string]string{"617573": "2.000.000"},
		},
	}}))
	saved := filepath.Join(dir, "saved.yaml")

	out, _, err := runRubros(t, "accounts", configFlag(t), "--api-url", url,
		"--clients", "4000348", "--ref", "617573", "--overrides", edits, "--save-overrides", saved, "--csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, strings.Split(report.Header, ","), records[0])

	for _, rec := range records[1:] {
		assert.Equal(t, "617573", rec[2])
		assert.Equal(t, "2000000", rec[3])
		assert.Equal(t, "true", rec[4])
		if rec[5] == "80" {
			assert.Equal(t, "0.00", rec[7])
		}
	}

	f, err := overrides.LoadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, "2000000", f.Accounts["4000348"].Items["617573"])
}

func TestAccounts_BackendDown(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	_, _, err := runRubros(t, "accounts", configFlag(t), "--api-url", url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading accounts")
}

func TestAccounts_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("api:\n  page_size: 0\n"), 0o644))

	_, _, err := runRubros(t, "accounts", "--config", path, "--api-url", "http://localhost:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page_size")
}

func TestDetail(t *testing.T) {
	url := startEmulator(t)
	out, _, err := runRubros(t, "detail", "4000348", configFlag(t), "--api-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "4000348 - Droguería Alemana")
	assert.Contains(t, out, "$ 416.525")
	assert.NotContains(t, out, "Tiendas D1")

	_, _, err = runRubros(t, "detail", "999", configFlag(t), "--api-url", url)
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrNotFound)
}

func TestLineItemCommands(t *testing.T) {
	url, st := startEmulatorStore(t)
	cfg := configFlag(t)

	out, _, err := runRubros(t, "line-item", "set", "4000348", "80", "10", cfg, "--api-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "$ 100.000", "10% discount on the first product")
	a, err := st.GetAccount("4000348")
	require.NoError(t, err)
	assert.Equal(t, "10", a.LineItems[0].Percentage.String())

	out, _, err = runRubros(t, "rubro", "add", "4000348", "500", "--name", "Mercadeo", "--pct", "2,5", cfg, "--api-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Mercadeo")

	_, _, err = runRubros(t, "line-item", "add", "4000348", "500", "--name", "Mercadeo", cfg, "--api-url", url)
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrConflict)

	out, _, err = runRubros(t, "line-item", "add", "4000348", "600", "--pct", "1", cfg, "--api-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Vendedores y Asesoras Belle")

	_, _, err = runRubros(t, "line-item", "add", "4000348", "777", cfg, "--api-url", url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pass --name")

	_, _, err = runRubros(t, "line-item", "rm", "4000348", "600", cfg, "--api-url", url)
	require.NoError(t, err)

	_, _, err = runRubros(t, "line-item", "rm", "4000348", "500", cfg, "--api-url", url)
	require.NoError(t, err)
	a, err = st.GetAccount("4000348")
	require.NoError(t, err)
	assert.Len(t, a.LineItems, 4)
}

func TestItemCommands(t *testing.T) {
	url, st := startEmulatorStore(t)
	cfg := configFlag(t)

	out, _, err := runRubros(t, "item", "add", "1000478", "X1", "--name", "Caja", "--base", "1.500.000", "--cost", "500.000", cfg, "--api-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "X1")
	assert.Contains(t, out, "$ 1.500.000")

	_, _, err = runRubros(t, "oferta", "set", "1000478", "X1", "--base", "2.000.000", cfg, "--api-url", url)
	require.NoError(t, err)
	a, err := st.GetAccount("1000478")
	require.NoError(t, err)
	require.Len(t, a.Items, 1)
	assert.Equal(t, "2000000", a.Items[0].TotalBase.String())
	assert.Equal(t, "500000", a.Items[0].TotalCost.String())

	_, _, err = runRubros(t, "item", "set", "1000478", "X1", cfg, "--api-url", url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to change")

	out, _, err = runRubros(t, "item", "rm", "1000478", "X1", cfg, "--api-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Sin productos.")
}

func TestSummary_Local(t *testing.T) {
	url := startEmulator(t)
	out, _, err := runRubros(t, "summary", configFlag(t), "--api-url", url, "--codes", "617573", "--clients", "4000348")
	require.NoError(t, err)

	assert.Contains(t, out, "617573 - Caja x 12 (1 cliente)")
	assert.Contains(t, out, "$ 950.000")
	assert.Contains(t, out, "$ 445.025")
	assert.Contains(t, out, "46.8%")
	assert.Contains(t, out, "$ 416.525")
	assert.NotContains(t, out, "614763")
}

func TestSummary_CollapsedWithOverrides(t *testing.T) {
	url := startEmulator(t)
	edits := filepath.Join(t.TempDir(), "edits.yaml")
	require.NoError(t, overrides.SaveFile(edits, &overrides.File{Accounts: map[string]overrides.AccountFile{
		"4000348": {Percentages: map[string]string{"80": "0"}},
	}}))

	out, _, err := runRubros(t, "resumen", configFlag(t), "--api-url", url, "--collapsed", "--overrides", edits)
	require.NoError(t, err)

	assert.Contains(t, out, "617573 - Caja x 12")
	assert.Contains(t, out, "Utilidad o perdida Operacion  $ 489.500  49.0%")
	assert.Contains(t, out, "614763 - Display")
	assert.NotContains(t, out, "Ventas Netas")
}

func TestSummary_Remote(t *testing.T) {
	url := startEmulator(t)
	out, _, err := runRubros(t, "summary", configFlag(t), "--api-url", url, "--remote", "--codes", "617573;614763", "--clients", "4000348")
	require.NoError(t, err)

	assert.Contains(t, out, "617573 - Caja x 12 (1 cliente)")
	assert.Contains(t, out, "$ 445.025")
	assert.Contains(t, out, "614763 - Display")

	out, _, err = runRubros(t, "summary", configFlag(t), "--api-url", url, "--remote", "--clients", "1000478")
	require.NoError(t, err)
	assert.Equal(t, "Sin resultados.\n", out)
}

func TestSummary_RemoteExcludesOverrides(t *testing.T) {
	url := startEmulator(t)
	_, _, err := runRubros(t, "summary", configFlag(t), "--api-url", url, "--remote", "--overrides", "edits.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote")
}
