package models

import (
	"fmt"
	"strings"

	"billbook-api/internal/calc"
)

// LineField names an editable input on a row
type LineField string

const (
	LineFieldItemName        LineField = "item_name"
	LineFieldHSNCode         LineField = "hsn_code"
	LineFieldUnit            LineField = "unit"
	LineFieldQuantity        LineField = "quantity"
	LineFieldUnitPrice       LineField = "unit_price"
	LineFieldDiscountPercent LineField = "discount_percent"
	LineFieldDiscountAmount  LineField = "discount_amount"
	LineFieldTaxPercent      LineField = "tax_percent"
	LineFieldTaxAmount       LineField = "tax_amount"
)

// LineItem is one row of a document. Numeric inputs are kept as the text the
// user typed; derived figures are computed on demand and never stored here.
type LineItem struct {
	ID              int    `json:"id" db:"line_no"`
	ItemName        string `json:"item_name" db:"item_name" validate:"max=255"`
	HSNCode         string `json:"hsn_code,omitempty" db:"hsn_code" validate:"max=16"`
	Unit            string `json:"unit,omitempty" db:"unit" validate:"max=32"`
	Quantity        string `json:"quantity" db:"quantity"`
	UnitPrice       string `json:"unit_price" db:"unit_price"`
	DiscountPercent string `json:"discount_percent" db:"discount_percent"`
	DiscountAmount  string `json:"discount_amount" db:"discount_amount"`
	TaxPercent      string `json:"tax_percent" db:"tax_percent"`
	TaxAmount       string `json:"tax_amount" db:"tax_amount"`
}

// NewLineItem creates an empty row with the given sequential id
func NewLineItem(id int) *LineItem {
	return &LineItem{ID: id}
}

// Input returns the raw calculator input for this row
func (li *LineItem) Input() calc.LineInput {
	return calc.LineInput{
		Quantity:        li.Quantity,
		UnitPrice:       li.UnitPrice,
		DiscountPercent: li.DiscountPercent,
		DiscountAmount:  li.DiscountAmount,
		TaxPercent:      li.TaxPercent,
		TaxAmount:       li.TaxAmount,
	}
}

// Compute runs the calculator over this row
func (li *LineItem) Compute(policy calc.Policy) calc.LineResult {
	return calc.ComputeLine(li.Input(), policy)
}

// SetField replaces one input field. Net amount is derived and cannot be set.
func (li *LineItem) SetField(field LineField, value string) error {
	switch field {
	case LineFieldItemName:
		li.ItemName = SanitizeString(value)
	case LineFieldHSNCode:
		li.HSNCode = strings.TrimSpace(value)
	case LineFieldUnit:
		li.Unit = strings.TrimSpace(value)
	case LineFieldQuantity:
		li.Quantity = value
	case LineFieldUnitPrice:
		li.UnitPrice = value
	case LineFieldDiscountPercent:
		li.DiscountPercent = value
	case LineFieldDiscountAmount:
		li.DiscountAmount = value
	case LineFieldTaxPercent:
		li.TaxPercent = value
	case LineFieldTaxAmount:
		li.TaxAmount = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// Reconcile recomputes this row and, for percent-authoritative modes, writes the
// resolved amount back into the amount field so both representations agree.
func (li *LineItem) Reconcile(policy calc.Policy) calc.LineResult {
	policy = policy.Normalize()
	result := li.Compute(policy)

	if policy.Discount == calc.ModePercent {
		li.DiscountAmount = calc.FormatMoney(result.ResolvedDiscountAmount)
	}
	if policy.Tax == calc.ModePercent {
		li.TaxAmount = calc.FormatMoney(result.ResolvedTaxAmount)
	}

	return result
}

// Validate validates the descriptive fields of the row. Numeric inputs are never
// rejected; unparseable text counts as zero.
func (li *LineItem) Validate() error {
	if li.ID <= 0 {
		return fmt.Errorf("line id must be greater than 0")
	}
	if err := ValidateStringLength(li.ItemName, "item_name", 0, 255); err != nil {
		return err
	}
	if err := ValidateStringLength(li.HSNCode, "hsn_code", 0, 16); err != nil {
		return err
	}
	return ValidateStringLength(li.Unit, "unit", 0, 32)
}
