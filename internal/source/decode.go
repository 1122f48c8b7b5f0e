package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rubros-dev/rubros/internal/model"
	"github.com/rubros-dev/rubros/internal/waterfall"
)

// The backend is inconsistent about field casing and id names, so decoding goes
// through a loose object that picks the first key present.
type wireObject map[string]json.RawMessage

func (o wireObject) raw(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := o[k]; ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

// str returns a string field, accepting numeric ids.
func (o wireObject) str(keys ...string) string {
	v, ok := o.raw(keys...)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}

// num returns a numeric field. Missing or malformed values read as zero.
func (o wireObject) num(keys ...string) decimal.Decimal {
	v, ok := o.raw(keys...)
	if !ok {
		return decimal.Zero
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(v); err != nil {
		return decimal.Zero
	}
	return d
}

// count returns an integer field only when it is a JSON number.
func (o wireObject) count(keys ...string) (int, bool) {
	for _, k := range keys {
		v, ok := o[k]
		if !ok || !isNumber(v) {
			continue
		}
		var n int
		if err := json.Unmarshal(v, &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

func (o wireObject) list(keys ...string) []wireObject {
	for _, k := range keys {
		v, ok := o[k]
		if !ok {
			continue
		}
		var out []wireObject
		if err := json.Unmarshal(v, &out); err == nil {
			return out
		}
	}
	return nil
}

func (o wireObject) object(keys ...string) wireObject {
	v, ok := o.raw(keys...)
	if !ok {
		return wireObject{}
	}
	var out wireObject
	if err := json.Unmarshal(v, &out); err != nil {
		return wireObject{}
	}
	return out
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func isNumber(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && (v[0] == '-' || (v[0] >= '0' && v[0] <= '9'))
}

func isArray(v []byte) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '['
}

// decodePage reads a listing response: either a bare array of accounts or
// {data: [...], totalGlobal | totalClientes: n}.
func decodePage(body []byte) (model.AccountPage, error) {
	var page model.AccountPage
	var rows []wireObject

	if isArray(body) {
		if err := json.Unmarshal(body, &rows); err != nil {
			return page, fmt.Errorf("decoding account list: %w", err)
		}
	} else {
		var env wireObject
		if err := json.Unmarshal(body, &env); err != nil {
			return page, fmt.Errorf("decoding account list: %w", err)
		}
		rows = env.list("data", "Data")
		if n, ok := env.count("totalGlobal", "totalClientes"); ok {
			page.Total = &n
		}
	}

	page.Accounts = make([]model.Account, 0, len(rows))
	for _, row := range rows {
		page.Accounts = append(page.Accounts, decodeAccount(row))
	}
	return page, nil
}

func decodeAccount(o wireObject) model.Account {
	a := model.Account{
		ID:   o.str("clienteId", "ClienteId"),
		Name: o.str("clienteNombre", "ClienteNombre"),
	}
	for _, r := range o.list("rubros", "Rubros") {
		a.LineItems = append(a.LineItems, decodeLineItem(r))
	}
	for _, it := range o.list("ofertas", "Ofertas") {
		a.Items = append(a.Items, decodeItem(it))
	}
	return a
}

func decodeLineItem(o wireObject) model.LineItemDef {
	return model.LineItemDef{
		ConceptID:  o.str("id", "Id", "rubroId", "RubroId"),
		Name:       o.str("nombre", "Nombre", "rubroNombre", "RubroNombre"),
		Percentage: o.num("porcentaje", "Porcentaje"),
	}
}

func decodeItem(o wireObject) model.Item {
	return model.Item{
		Code:    o.str("codigoProducto", "CodigoProducto"),
		Name:    o.str("productoNombre", "ProductoNombre"),
		BaseQty: o.num("totalPrecio", "TotalPrecio"),
		CostQty: o.num("totalCosto", "TotalCosto"),
	}
}

// decodeDetail reads a per-account detail response. Line items may arrive
// under data, rubros, or as a bare array; fallbackID fills a missing account id.
func decodeDetail(body []byte, fallbackID string) (model.Account, error) {
	if isArray(body) {
		var rows []wireObject
		if err := json.Unmarshal(body, &rows); err != nil {
			return model.Account{}, fmt.Errorf("decoding account detail: %w", err)
		}
		a := model.Account{ID: fallbackID}
		for _, r := range rows {
			a.LineItems = append(a.LineItems, decodeLineItem(r))
		}
		return a, nil
	}

	var o wireObject
	if err := json.Unmarshal(body, &o); err != nil {
		return model.Account{}, fmt.Errorf("decoding account detail: %w", err)
	}
	a := model.Account{
		ID:   o.str("clienteId", "ClienteId"),
		Name: o.str("clienteNombre", "ClienteNombre"),
	}
	if a.ID == "" {
		a.ID = fallbackID
	}
	for _, r := range o.list("data", "rubros", "Rubros") {
		a.LineItems = append(a.LineItems, decodeLineItem(r))
	}
	for _, it := range o.list("ofertas", "Ofertas") {
		a.Items = append(a.Items, decodeItem(it))
	}
	return a, nil
}

// decodeSummaries reads a /rubros/calculos response: {data: [...]} or a bare array.
func decodeSummaries(body []byte) ([]waterfall.ProductSummary, error) {
	var rows []wireObject
	if isArray(body) {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decoding product summaries: %w", err)
		}
	} else {
		var env wireObject
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decoding product summaries: %w", err)
		}
		rows = env.list("data", "Data")
	}

	out := make([]waterfall.ProductSummary, 0, len(rows))
	for _, row := range rows {
		ps := waterfall.ProductSummary{
			Code:      row.str("codigoProducto", "CodigoProducto"),
			Name:      row.str("productoNombre", "ProductoNombre"),
			Breakdown: decodeTotals(row.object("resumen", "Resumen")),
		}
		ps.Accounts, _ = row.count("clientes", "Clientes")
		out = append(out, ps)
	}
	return out, nil
}

// decodeTotals maps summary fields to a breakdown. Variable expenses arrive
// as g<concept id>, e.g. g500.
func decodeTotals(o wireObject) waterfall.Breakdown {
	b := waterfall.Breakdown{
		BaseQty:          o.num("ventasBrutas", "VentasBrutas"),
		Discount:         o.num("descuentos", "Descuentos"),
		NetRevenue:       o.num("ventasNetas", "VentasNetas"),
		Cost:             o.num("costoVenta", "CostoVenta"),
		GrossProfit:      o.num("utilidadBruta", "UtilidadBruta"),
		VariableExpenses: make(map[string]decimal.Decimal),
		ExpenseSubtotal:  o.num("totalGastosVentas", "TotalGastosVentas"),
		OperatingExpense: o.num("gastosOperacion", "GastosOperacion"),
		OperatingProfit:  o.num("utilidadOperacion", "UtilidadOperacion"),
		FinancialCost:    o.num("financierosCalc", "FinancierosCalc"),
		NetProfit:        o.num("utilidadDespCTO", "UtilidadDespCTO"),
	}
	for k := range o {
		if id, ok := variableExpenseID(k); ok {
			b.VariableExpenses[id] = o.num(k)
		}
	}
	return b
}

func variableExpenseID(key string) (string, bool) {
	if len(key) < 2 || (key[0] != 'g' && key[0] != 'G') {
		return "", false
	}
	for _, r := range key[1:] {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return key[1:], true
}

// envelope is the acknowledgment shape of mutating endpoints.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// decodeEnvelope reports a rejection carried in a 2xx body as {success: false}.
func decodeEnvelope(body []byte) (rejected bool, message string) {
	if len(bytes.TrimSpace(body)) == 0 || isArray(body) {
		return false, ""
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return false, ""
	}
	return env.Success != nil && !*env.Success, env.Message
}

// errorMessage extracts a human-readable message from an error body.
func errorMessage(body []byte) string {
	var o wireObject
	if err := json.Unmarshal(body, &o); err != nil {
		return ""
	}
	return o.str("message", "Message", "title", "error")
}
