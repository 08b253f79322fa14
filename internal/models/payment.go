package models

import (
	"strings"

	"github.com/shopspring/decimal"

	"billbook-api/internal/calc"
)

// PaymentType represents how an amount was settled
type PaymentType string

const (
	PaymentTypeCash         PaymentType = "cash"
	PaymentTypeCheque       PaymentType = "cheque"
	PaymentTypeUPI          PaymentType = "upi"
	PaymentTypeCard         PaymentType = "card"
	PaymentTypeBankTransfer PaymentType = "bank_transfer"
	PaymentTypeOther        PaymentType = "other"
)

var paymentTypes = []string{
	string(PaymentTypeCash),
	string(PaymentTypeCheque),
	string(PaymentTypeUPI),
	string(PaymentTypeCard),
	string(PaymentTypeBankTransfer),
	string(PaymentTypeOther),
}

// Payment is one entry in a document's payment allocation
type Payment struct {
	ID          int         `json:"id"`
	Type        PaymentType `json:"type"`
	Amount      string      `json:"amount"`
	ReferenceNo string      `json:"reference_no,omitempty"`
}

// PaymentField names an editable payment input
type PaymentField string

const (
	PaymentFieldType        PaymentField = "type"
	PaymentFieldAmount      PaymentField = "amount"
	PaymentFieldReferenceNo PaymentField = "reference_no"
)

// NewPayment creates a cash payment entry with no amount
func NewPayment(id int) *Payment {
	return &Payment{ID: id, Type: PaymentTypeCash}
}

// ParsedAmount returns the entered amount, zero when blank or malformed
func (p *Payment) ParsedAmount() decimal.Decimal {
	return calc.ParseAmount(p.Amount)
}

// Validate checks the payment type and reference length
func (p *Payment) Validate() error {
	if err := ValidateEnum(string(p.Type), PaymentTypeStrings(), "payment_type"); err != nil {
		return err
	}
	return ValidateStringLength(p.ReferenceNo, "reference_no", 0, 64)
}

// PaymentTypeStrings returns the allowed payment types
func PaymentTypeStrings() []string {
	values := make([]string, len(paymentTypes))
	copy(values, paymentTypes)
	return values
}

func parsePaymentType(value string) PaymentType {
	return PaymentType(strings.ToLower(strings.TrimSpace(value)))
}
