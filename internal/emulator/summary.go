package emulator

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/rubros-dev/rubros/internal/model"
	"github.com/rubros-dev/rubros/internal/textkey"
	"github.com/rubros-dev/rubros/internal/waterfall"
)

// ProductSummary is one product's totals as served by /rubros/calculos.
type ProductSummary struct {
	Code    string                 `json:"codigoProducto"`
	Name    string                 `json:"productoNombre"`
	Clients int                    `json:"clientes"`
	Totals  map[string]json.Number `json:"resumen"`
}

type summaryResponse struct {
	Data []ProductSummary `json:"data"`
}

// Summaries handles GET /rubros/calculos. Both codigos and clientes are
// optional and may repeat or hold several values separated by commas,
// semicolons or spaces. Backend percentages apply; there are no overrides.
func (h *Handler) Summaries(w http.ResponseWriter, r *http.Request) {
	codes := queryKeys(r, "codigos")
	clients := queryKeys(r, "clientes")

	accounts, _, err := h.store.ListAccounts(0, math.MaxInt)
	if err != nil {
		h.logger.Error("listing accounts", "error", err)
		writeAck(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	sum := waterfall.NewSummarizer()
	for _, a := range accounts {
		if len(clients) > 0 && !clients[textkey.Normalize(a.ID)] {
			continue
		}
		pcts := a.percentages()
		for _, it := range a.Items {
			if len(codes) > 0 && !codes[textkey.Normalize(it.Code)] {
				continue
			}
			b := h.engine.Compute(waterfall.Input{
				BaseQty: numberValue(it.TotalBase),
				CostQty: numberValue(it.TotalCost),
			}, pcts)
			sum.Add(it.Code, it.Name, b)
		}
	}

	resp := summaryResponse{Data: []ProductSummary{}}
	for _, ps := range sum.Summaries() {
		resp.Data = append(resp.Data, ProductSummary{
			Code:    ps.Code,
			Name:    ps.Name,
			Clients: ps.Accounts,
			Totals:  totals(ps.Breakdown),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func totals(b waterfall.Breakdown) map[string]json.Number {
	m := map[string]json.Number{
		"ventasBrutas":      number(b.BaseQty),
		"descuentos":        number(b.Discount),
		"ventasNetas":       number(b.NetRevenue),
		"costoVenta":        number(b.Cost),
		"utilidadBruta":     number(b.GrossProfit),
		"totalGastosVentas": number(b.ExpenseSubtotal),
		"gastosOperacion":   number(b.OperatingExpense),
		"utilidadOperacion": number(b.OperatingProfit),
		"financierosCalc":   number(b.FinancialCost),
		"utilidadDespCTO":   number(b.NetProfit),
	}
	for id, v := range b.VariableExpenses {
		m["g"+id] = number(v)
	}
	return m
}

// percentages returns the account's line-item percentages; the first
// definition of a concept wins.
func (a *Account) percentages() model.PercentageConfig {
	pcts := make(model.PercentageConfig, len(a.LineItems))
	for _, li := range a.LineItems {
		if _, ok := pcts[li.ID]; !ok {
			pcts[li.ID] = numberValue(li.Percentage)
		}
	}
	return pcts
}

func numberValue(n json.Number) decimal.Decimal {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func queryKeys(r *http.Request, key string) map[string]bool {
	keys := make(map[string]bool)
	for _, v := range r.URL.Query()[key] {
		for _, k := range textkey.SplitList(v) {
			keys[k] = true
		}
	}
	return keys
}
