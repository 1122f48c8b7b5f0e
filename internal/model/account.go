package model

import "github.com/shopspring/decimal"

// Account is a client grouping a set of sellable items and their line-item definitions.
type Account struct {
	ID        string
	Name      string
	Items     []Item
	LineItems []LineItemDef
}

// Item is a sellable unit (offer/product) under an account.
type Item struct {
	Code    string          // unique within the account
	Name    string          // display name
	BaseQty decimal.Decimal // gross sales ("ventas brutas") as loaded
	CostQty decimal.Decimal // cost of sales
}

// LineItemDef is a backend-provided line-item definition ("rubro") of an account.
type LineItemDef struct {
	ConceptID  string
	Name       string
	Percentage decimal.Decimal
}

// Item returns the item with the given code.
func (a Account) Item(code string) (Item, bool) {
	for _, it := range a.Items {
		if it.Code == code {
			return it, true
		}
	}
	return Item{}, false
}

// Percentages returns the percentage configuration seeded from the account's line items.
// The first definition of a concept id wins.
func (a Account) Percentages() PercentageConfig {
	pcts := make(PercentageConfig, len(a.LineItems))
	for _, li := range a.LineItems {
		if _, ok := pcts[li.ConceptID]; ok {
			continue
		}
		pcts[li.ConceptID] = li.Percentage
	}
	return pcts
}

// IndexByID maps account ID to its position in accounts.
func IndexByID(accounts []Account) map[string]int {
	idx := make(map[string]int, len(accounts))
	for i, a := range accounts {
		if _, ok := idx[a.ID]; !ok {
			idx[a.ID] = i
		}
	}
	return idx
}

// AccountPage is one page of the paginated account listing.
// Total is nil when the backend does not report a total count.
type AccountPage struct {
	Accounts []Account
	Total    *int
}
