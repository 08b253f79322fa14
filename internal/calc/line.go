package calc

import "github.com/shopspring/decimal"

// LineInput holds the raw text a user typed into one document row.
type LineInput struct {
	Quantity        string `json:"quantity"`
	UnitPrice       string `json:"unit_price"`
	DiscountPercent string `json:"discount_percent"`
	DiscountAmount  string `json:"discount_amount"`
	TaxPercent      string `json:"tax_percent"`
	TaxAmount       string `json:"tax_amount"`
}

// LineResult holds the validated figures derived from a LineInput.
type LineResult struct {
	Quantity               decimal.Decimal `json:"quantity"`
	UnitPrice              decimal.Decimal `json:"unit_price"`
	Subtotal               decimal.Decimal `json:"subtotal"`
	ResolvedDiscountAmount decimal.Decimal `json:"resolved_discount_amount"`
	TaxableAmount          decimal.Decimal `json:"taxable_amount"`
	ResolvedTaxAmount      decimal.Decimal `json:"resolved_tax_amount"`
	NetAmount              decimal.Decimal `json:"net_amount"`
}

// ComputeLine resolves discount and tax for one row and derives its net amount.
// It is a total function: unparseable inputs count as zero.
func ComputeLine(in LineInput, policy Policy) LineResult {
	policy = policy.Normalize()

	quantity := ParseAmount(in.Quantity)
	unitPrice := ParseAmount(in.UnitPrice)
	subtotal := quantity.Mul(unitPrice)

	var discount decimal.Decimal
	switch policy.Discount {
	case ModeAmount:
		discount = ParseAmount(in.DiscountAmount)
	default:
		discount = percentOf(subtotal, ParseAmount(in.DiscountPercent))
	}

	taxable := subtotal.Sub(discount)

	var tax decimal.Decimal
	switch policy.Tax {
	case ModeAmount:
		tax = ParseAmount(in.TaxAmount)
	default:
		tax = percentOf(taxable, ParseAmount(in.TaxPercent))
	}

	return LineResult{
		Quantity:               quantity,
		UnitPrice:              unitPrice,
		Subtotal:               subtotal,
		ResolvedDiscountAmount: discount,
		TaxableAmount:          taxable,
		ResolvedTaxAmount:      tax,
		NetAmount:              Round2(subtotal.Sub(discount).Add(tax)),
	}
}
