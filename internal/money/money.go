// Package money formats amounts and ratios for display.
package money

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rubros-dev/rubros/internal/waterfall"
)

// NoData is shown for undefined ratios and values.
const NoData = "-"

// Format controls separators and the currency symbol.
type Format struct {
	Symbol       string
	ThousandsSep string
	DecimalSep   string
}

// COP is the Colombian peso format: "$ 1.234.567".
var COP = Format{Symbol: "$", ThousandsSep: ".", DecimalSep: ","}

// Currency formats d with the symbol and no fractional digits.
func (f Format) Currency(d decimal.Decimal) string {
	s := f.Thousands(d)
	if strings.HasPrefix(s, "-") {
		return "-" + f.Symbol + " " + s[1:]
	}
	return f.Symbol + " " + s
}

// Thousands formats d rounded to an integer with grouped thousands: "1.234.567".
func (f Format) Thousands(d decimal.Decimal) string {
	s := d.Round(0).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if s == "0" {
		neg = false
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(f.ThousandsSep)
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// Ratio formats a line's ratio as "12.3%", or NoData when it is undefined.
func Ratio(l waterfall.Line) string {
	r, ok := l.Ratio()
	if !ok {
		return NoData
	}
	return r.StringFixed(1) + "%"
}

// Value formats a line's value as currency, or NoData when it is undefined.
func (f Format) Value(l waterfall.Line) string {
	if !l.Value.Valid {
		return NoData
	}
	return f.Currency(l.Value.Decimal)
}

// Pct formats a percentage using the decimal separator, trimming trailing zeros.
func (f Format) Pct(d decimal.Decimal) string {
	return strings.Replace(d.String(), ".", f.DecimalSep, 1)
}
