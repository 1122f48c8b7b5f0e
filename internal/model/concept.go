package model

import "github.com/shopspring/decimal"

// Role classifies a concept's position in the waterfall.
type Role string

const (
	RoleBase             Role = "base"
	RoleDiscount         Role = "discount"
	RoleNetRevenue       Role = "net_revenue"
	RoleCost             Role = "cost"
	RoleGrossProfit      Role = "gross_profit"
	RoleVariableExpense  Role = "variable_expense"
	RoleExpenseSubtotal  Role = "expense_subtotal"
	RoleOperatingExpense Role = "operating_expense"
	RoleOperatingProfit  Role = "operating_profit"
	RoleFinancialCost    Role = "financial_cost"
	RoleNetProfit        Role = "net_profit"
	RoleOther            Role = "other"
)

// Band is the row shading of a concept in a rendered table.
type Band string

const (
	BandNone         Band = ""
	BandBlue         Band = "blue"
	BandYellow       Band = "yellow"
	BandYellowStrong Band = "yellow-strong"
)

// ConceptMeta holds presentation hints for a concept.
type ConceptMeta struct {
	Band     Band
	Strong   bool
	Emph     bool
	Italic   bool
	Editable bool // base quantity is user-editable on this row
}

// Concept is a line in the waterfall ("rubro").
type Concept struct {
	ID   string
	Name string
	Role Role
	Meta ConceptMeta
}

// PercentageConfig maps concept ID to a percentage. A missing key means
// the engine default applies.
type PercentageConfig map[string]decimal.Decimal

// Get returns the percentage for id and whether it is set.
func (p PercentageConfig) Get(id string) (decimal.Decimal, bool) {
	v, ok := p[id]
	return v, ok
}

// Clone returns an independent copy.
func (p PercentageConfig) Clone() PercentageConfig {
	out := make(PercentageConfig, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
