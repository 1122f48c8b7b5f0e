package waterfall

import (
	"github.com/shopspring/decimal"

	"github.com/rubros-dev/rubros/internal/model"
)

// Line is one computed row: a concept, its value and the base its ratio is reported against.
// An invalid Value means "no data" and is distinct from zero.
type Line struct {
	Concept model.Concept
	Value   decimal.NullDecimal
	Base    decimal.Decimal
}

// Ratio returns Value/Base as a percentage. ok is false when the value is
// undefined or the base is zero.
func (l Line) Ratio() (decimal.Decimal, bool) {
	if !l.Value.Valid || l.Base.IsZero() {
		return decimal.Zero, false
	}
	return l.Value.Decimal.Mul(hundred).Div(l.Base), true
}

type valueFunc func(b *Breakdown, conceptID string) (decimal.Decimal, bool)

func fixed(get func(b *Breakdown) decimal.Decimal) valueFunc {
	return func(b *Breakdown, _ string) (decimal.Decimal, bool) {
		return get(b), true
	}
}

var valueByRole = map[model.Role]valueFunc{
	model.RoleBase:        fixed(func(b *Breakdown) decimal.Decimal { return b.BaseQty }),
	model.RoleDiscount:    fixed(func(b *Breakdown) decimal.Decimal { return b.Discount }),
	model.RoleNetRevenue:  fixed(func(b *Breakdown) decimal.Decimal { return b.NetRevenue }),
	model.RoleCost:        fixed(func(b *Breakdown) decimal.Decimal { return b.Cost }),
	model.RoleGrossProfit: fixed(func(b *Breakdown) decimal.Decimal { return b.GrossProfit }),
	model.RoleVariableExpense: func(b *Breakdown, id string) (decimal.Decimal, bool) {
		v, ok := b.VariableExpenses[id]
		return v, ok
	},
	model.RoleExpenseSubtotal:  fixed(func(b *Breakdown) decimal.Decimal { return b.ExpenseSubtotal }),
	model.RoleOperatingExpense: fixed(func(b *Breakdown) decimal.Decimal { return b.OperatingExpense }),
	model.RoleOperatingProfit:  fixed(func(b *Breakdown) decimal.Decimal { return b.OperatingProfit }),
	model.RoleFinancialCost:    fixed(func(b *Breakdown) decimal.Decimal { return b.FinancialCost }),
	model.RoleNetProfit:        fixed(func(b *Breakdown) decimal.Decimal { return b.NetProfit }),
}

// grossBased roles report their ratio against the base quantity; all others against net revenue.
var grossBased = map[model.Role]bool{
	model.RoleBase:     true,
	model.RoleDiscount: true,
}

// Line returns the computed row for a concept.
func (b Breakdown) Line(c model.Concept) Line {
	line := Line{Concept: c, Base: b.NetRevenue}
	if grossBased[c.Role] {
		line.Base = b.BaseQty
	}
	if get, ok := valueByRole[c.Role]; ok {
		if v, ok := get(&b, c.ID); ok {
			line.Value = decimal.NewNullDecimal(v)
		}
	}
	return line
}

// Vector returns one line per concept, in the given order.
func (b Breakdown) Vector(concepts []model.Concept) []Line {
	lines := make([]Line, len(concepts))
	for i, c := range concepts {
		lines[i] = b.Line(c)
	}
	return lines
}
