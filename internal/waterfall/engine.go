// Package waterfall derives every line of the profitability waterfall from an
// item's base quantity, its cost and the account's percentage configuration.
package waterfall

import (
	"github.com/shopspring/decimal"

	"github.com/rubros-dev/rubros/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Config names the concepts whose percentages drive the computation.
type Config struct {
	DiscountConcept         string
	VariableExpenseConcepts []string
	OperatingConcept        string
	OperatingDefaultPct     decimal.Decimal
	FinancialConcept        string
	FinancialDefaultPct     decimal.Decimal
}

// DefaultConfig returns the standard concept ids and fallback percentages.
func DefaultConfig() Config {
	return Config{
		DiscountConcept:         "80",
		VariableExpenseConcepts: []string{"500", "600", "920"},
		OperatingConcept:        "1200",
		OperatingDefaultPct:     decimal.RequireFromString("11.05"),
		FinancialConcept:        "2010",
		FinancialDefaultPct:     decimal.NewFromInt(3),
	}
}

// Input is the per-item data the engine needs.
type Input struct {
	BaseQty decimal.Decimal
	CostQty decimal.Decimal
}

// Breakdown is the full computed waterfall for one item.
type Breakdown struct {
	BaseQty          decimal.Decimal
	Discount         decimal.Decimal
	NetRevenue       decimal.Decimal
	Cost             decimal.Decimal
	GrossProfit      decimal.Decimal
	VariableExpenses map[string]decimal.Decimal
	ExpenseSubtotal  decimal.Decimal
	OperatingExpense decimal.Decimal
	OperatingProfit  decimal.Decimal
	FinancialCost    decimal.Decimal
	NetProfit        decimal.Decimal
}

// Engine computes breakdowns. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// New creates an Engine.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Compute derives the breakdown in dependency order. Negative results are kept as-is.
func (e *Engine) Compute(in Input, pcts model.PercentageConfig) Breakdown {
	b := Breakdown{
		BaseQty:          in.BaseQty,
		Cost:             in.CostQty,
		VariableExpenses: make(map[string]decimal.Decimal, len(e.cfg.VariableExpenseConcepts)),
	}

	b.Discount = percentOf(in.BaseQty, pctOr(pcts, e.cfg.DiscountConcept, decimal.Zero))
	b.NetRevenue = in.BaseQty.Sub(b.Discount)
	b.GrossProfit = b.NetRevenue.Sub(in.CostQty)

	b.ExpenseSubtotal = decimal.Zero
	for _, id := range e.cfg.VariableExpenseConcepts {
		amount := percentOf(b.NetRevenue, pctOr(pcts, id, decimal.Zero))
		b.VariableExpenses[id] = amount
		b.ExpenseSubtotal = b.ExpenseSubtotal.Add(amount)
	}

	b.OperatingExpense = percentOf(b.NetRevenue, pctOr(pcts, e.cfg.OperatingConcept, e.cfg.OperatingDefaultPct))
	b.OperatingProfit = b.GrossProfit.Sub(b.ExpenseSubtotal).Sub(b.OperatingExpense)

	b.FinancialCost = percentOf(b.NetRevenue, pctOr(pcts, e.cfg.FinancialConcept, e.cfg.FinancialDefaultPct))
	b.NetProfit = b.OperatingProfit.Sub(b.FinancialCost)

	return b
}

func pctOr(pcts model.PercentageConfig, id string, fallback decimal.Decimal) decimal.Decimal {
	if v, ok := pcts.Get(id); ok {
		return v
	}
	return fallback
}

func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}
