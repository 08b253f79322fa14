package calc

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// maxAmountLength bounds the digits a single field may carry.
const maxAmountLength = 32

// plainDecimal accepts signed decimal text without exponents.
var plainDecimal = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// ParseAmount converts free-form user text into a decimal.
// Blank or malformed input degrades to zero so data entry is never interrupted.
func ParseAmount(text string) decimal.Decimal {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return decimal.Zero
	}

	// Digit grouping ("1,250.50") is common in pasted figures
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if len(cleaned) > maxAmountLength || !plainDecimal.MatchString(cleaned) {
		return decimal.Zero
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return value
}

// Round2 rounds a monetary value to 2 decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatMoney renders a monetary value with exactly two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatQty renders a quantity as a whole number for display.
func FormatQty(d decimal.Decimal) string {
	return d.StringFixed(0)
}

// percentOf returns base × percent / 100, rounded to currency precision.
func percentOf(base, percent decimal.Decimal) decimal.Decimal {
	return Round2(base.Mul(percent).Div(hundred))
}
