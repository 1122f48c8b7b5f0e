package overrides

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	pctEditorMax = decimal.NewFromInt(9999)
	pctMin       = decimal.NewFromInt(-9999)
	pctMax       = decimal.NewFromInt(9999)
)

// ParseThousands parses a thousands-formatted amount such as "1.234.567" by
// dropping every non-digit character. Unparsable input yields 0.
func ParseThousands(raw string) decimal.Decimal {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if digits == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParsePercent parses a percentage typed into the config editor. A comma is
// accepted as decimal separator, other characters are dropped, and the result
// is clamped to [0, 9999]. Unparsable input yields 0.
func ParsePercent(raw string) decimal.Decimal {
	s := strings.Replace(raw, ",", ".", 1)
	s = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '.' {
			return r
		}
		return -1
	}, s)
	d, ok := leadingDecimal(s)
	if !ok {
		return decimal.Zero
	}
	return clamp(d, decimal.Zero, pctEditorMax)
}

// ClampPercent parses a signed percentage for a line-item definition and
// clamps it to [-9999, 9999]. Unparsable input yields 0.
func ClampPercent(raw string) decimal.Decimal {
	s := strings.TrimSpace(strings.Replace(raw, ",", ".", 1))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return clamp(d, pctMin, pctMax)
}

// ClampMoney parses a money amount written with "." thousands and "," decimals.
// Negative amounts become 0, as does unparsable input.
func ClampMoney(raw string) decimal.Decimal {
	s := strings.Join(strings.Fields(raw), "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// leadingDecimal parses the longest "digits[.digits]" prefix of s.
func leadingDecimal(s string) (decimal.Decimal, bool) {
	end := 0
	seenDot := false
	digits := 0
	for end < len(s) {
		c := s[end]
		if c == '.' {
			if seenDot {
				break
			}
			seenDot = true
		} else {
			digits++
		}
		end++
	}
	if digits == 0 {
		return decimal.Zero, false
	}
	prefix := strings.TrimSuffix(s[:end], ".")
	if strings.HasPrefix(prefix, ".") {
		prefix = "0" + prefix
	}
	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}
