package calc

import "strings"

// Mode selects which representation of a discount or tax is authoritative.
type Mode string

const (
	// ModePercent derives the amount from the percentage.
	ModePercent Mode = "percent"
	// ModeAmount takes the entered amount as-is.
	ModeAmount Mode = "amount"
)

// ParseMode maps text onto a Mode. Anything unrecognised falls back to ModePercent.
func ParseMode(text string) Mode {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "amount", "amount-authoritative", "amount_authoritative", "a":
		return ModeAmount
	default:
		return ModePercent
	}
}

// UnmarshalText decodes m with the same spellings ParseMode accepts.
func (m *Mode) UnmarshalText(text []byte) error {
	*m = ParseMode(string(text))
	return nil
}

// IsValid reports whether m is one of the known modes.
func (m Mode) IsValid() bool {
	return m == ModePercent || m == ModeAmount
}

// Policy tells the calculator how to resolve the discount and tax of a row.
type Policy struct {
	Discount Mode `json:"discount"`
	Tax      Mode `json:"tax"`
}

var (
	// PercentAuthoritative derives both discount and tax amounts from their percentages.
	PercentAuthoritative = Policy{Discount: ModePercent, Tax: ModePercent}

	// AmountAuthoritative accepts both discount and tax amounts as entered.
	AmountAuthoritative = Policy{Discount: ModeAmount, Tax: ModeAmount}
)

// Normalize replaces unknown modes with ModePercent.
func (p Policy) Normalize() Policy {
	if !p.Discount.IsValid() {
		p.Discount = ModePercent
	}
	if !p.Tax.IsValid() {
		p.Tax = ModePercent
	}
	return p
}
