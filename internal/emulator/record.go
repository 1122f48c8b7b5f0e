// Package emulator serves a local stand-in for the line-item backend, backed by bbolt.
package emulator

import "encoding/json"

// Account is the stored and served shape of one account.
type Account struct {
	ID        string     `json:"clienteId"`
	Name      string     `json:"clienteNombre"`
	LineItems []LineItem `json:"rubros"`
	Items     []Item     `json:"ofertas"`
}

// LineItem is a named percentage attached to an account.
type LineItem struct {
	ID         string      `json:"id"`
	Name       string      `json:"nombre"`
	Percentage json.Number `json:"porcentaje"`
}

// Item is a product offered to an account.
type Item struct {
	Code      string      `json:"codigoProducto"`
	Name      string      `json:"productoNombre"`
	TotalCost json.Number `json:"totalCosto"`
	TotalBase json.Number `json:"totalPrecio"`
}

// ItemPatch is a partial item update. Nil fields are left unchanged.
type ItemPatch struct {
	Name      *string      `json:"ProductoNombre,omitempty"`
	TotalCost *json.Number `json:"TotalCosto,omitempty"`
	TotalBase *json.Number `json:"TotalPrecio,omitempty"`
}

func (a *Account) lineItem(id string) int {
	for i, r := range a.LineItems {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (a *Account) item(code string) int {
	for i, it := range a.Items {
		if it.Code == code {
			return i
		}
	}
	return -1
}
