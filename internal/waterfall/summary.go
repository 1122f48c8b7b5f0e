package waterfall

import "github.com/shopspring/decimal"

// Add returns the line-by-line sum of b and o.
func (b Breakdown) Add(o Breakdown) Breakdown {
	sum := Breakdown{
		BaseQty:          b.BaseQty.Add(o.BaseQty),
		Discount:         b.Discount.Add(o.Discount),
		NetRevenue:       b.NetRevenue.Add(o.NetRevenue),
		Cost:             b.Cost.Add(o.Cost),
		GrossProfit:      b.GrossProfit.Add(o.GrossProfit),
		VariableExpenses: make(map[string]decimal.Decimal, len(b.VariableExpenses)),
		ExpenseSubtotal:  b.ExpenseSubtotal.Add(o.ExpenseSubtotal),
		OperatingExpense: b.OperatingExpense.Add(o.OperatingExpense),
		OperatingProfit:  b.OperatingProfit.Add(o.OperatingProfit),
		FinancialCost:    b.FinancialCost.Add(o.FinancialCost),
		NetProfit:        b.NetProfit.Add(o.NetProfit),
	}
	for id, v := range b.VariableExpenses {
		sum.VariableExpenses[id] = v
	}
	for id, v := range o.VariableExpenses {
		sum.VariableExpenses[id] = sum.VariableExpenses[id].Add(v)
	}
	return sum
}

// ProductSummary is the summed breakdown of one product code across accounts.
type ProductSummary struct {
	Code      string
	Name      string
	Accounts  int
	Breakdown Breakdown
}

// Summarizer accumulates breakdowns per product code in first-seen order.
type Summarizer struct {
	index     map[string]int
	summaries []ProductSummary
}

// NewSummarizer creates an empty Summarizer.
func NewSummarizer() *Summarizer {
	return &Summarizer{index: make(map[string]int)}
}

// Add folds one item's breakdown into its product's summary. The first
// non-empty name seen for a code is kept.
func (s *Summarizer) Add(code, name string, b Breakdown) {
	i, ok := s.index[code]
	if !ok {
		s.index[code] = len(s.summaries)
		s.summaries = append(s.summaries, ProductSummary{
			Code:      code,
			Name:      name,
			Accounts:  1,
			Breakdown: b.Add(Breakdown{}),
		})
		return
	}
	ps := &s.summaries[i]
	if ps.Name == "" {
		ps.Name = name
	}
	ps.Accounts++
	ps.Breakdown = ps.Breakdown.Add(b)
}

// Summaries returns the accumulated summaries.
func (s *Summarizer) Summaries() []ProductSummary {
	out := make([]ProductSummary, len(s.summaries))
	copy(out, s.summaries)
	return out
}
