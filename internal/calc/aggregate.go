package calc

import "github.com/shopspring/decimal"

// Totals are the document-level figures folded from computed lines.
type Totals struct {
	TotalQty        decimal.Decimal `json:"total_qty"`
	TotalDiscount   decimal.Decimal `json:"total_discount"`
	TotalTax        decimal.Decimal `json:"total_tax"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	RoundOffEnabled bool            `json:"round_off_enabled"`
	RoundOffValue   decimal.Decimal `json:"round_off_value"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
}

// Aggregate sums per-line figures into document totals.
//
// TotalAmount is the sum of the already rounded per-line net amounts. It is never
// re-derived from the aggregate subtotal, so the displayed total always equals the
// sum of the rows. When roundOff is enabled, roundOffValue is added to TotalAmount
// as given; it is a manual adjustment and is not computed here.
func Aggregate(lines []LineResult, roundOff bool, roundOffValue decimal.Decimal) Totals {
	totals := Totals{
		TotalQty:      decimal.Zero,
		TotalDiscount: decimal.Zero,
		TotalTax:      decimal.Zero,
		Subtotal:      decimal.Zero,
		TotalAmount:   decimal.Zero,
		RoundOffValue: decimal.Zero,
	}

	for _, line := range lines {
		totals.TotalQty = totals.TotalQty.Add(line.Quantity)
		totals.TotalDiscount = totals.TotalDiscount.Add(line.ResolvedDiscountAmount)
		totals.TotalTax = totals.TotalTax.Add(line.ResolvedTaxAmount)
		totals.Subtotal = totals.Subtotal.Add(line.Subtotal)
		totals.TotalAmount = totals.TotalAmount.Add(line.NetAmount)
	}

	totals.TotalDiscount = Round2(totals.TotalDiscount)
	totals.TotalTax = Round2(totals.TotalTax)
	totals.Subtotal = Round2(totals.Subtotal)

	totals.GrandTotal = totals.TotalAmount
	if roundOff {
		totals.RoundOffEnabled = true
		totals.RoundOffValue = roundOffValue
		totals.GrandTotal = totals.TotalAmount.Add(roundOffValue)
	}

	return totals
}

// SuggestRoundOff returns the adjustment that would bring total to the nearest
// whole currency unit. It is advisory only; Aggregate never applies it.
func SuggestRoundOff(total decimal.Decimal) decimal.Decimal {
	return total.Round(0).Sub(total)
}

// TotalsView is the display form of Totals with fixed decimal places.
type TotalsView struct {
	TotalQty        string `json:"total_qty"`
	TotalDiscount   string `json:"total_discount"`
	TotalTax        string `json:"total_tax"`
	Subtotal        string `json:"subtotal"`
	TotalAmount     string `json:"total_amount"`
	RoundOffEnabled bool   `json:"round_off_enabled"`
	RoundOffValue   string `json:"round_off_value"`
	GrandTotal      string `json:"grand_total"`
}

// View formats the totals for display.
func (t Totals) View() TotalsView {
	return TotalsView{
		TotalQty:        FormatQty(t.TotalQty),
		TotalDiscount:   FormatMoney(t.TotalDiscount),
		TotalTax:        FormatMoney(t.TotalTax),
		Subtotal:        FormatMoney(t.Subtotal),
		TotalAmount:     FormatMoney(t.TotalAmount),
		RoundOffEnabled: t.RoundOffEnabled,
		RoundOffValue:   FormatMoney(t.RoundOffValue),
		GrandTotal:      FormatMoney(t.GrandTotal),
	}
}
