package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"billbook-api/internal/calc"
)

// Document is a sale, purchase bill, purchase order, expense, delivery challan
// or estimate together with its rows, round-off and payment allocation.
type Document struct {
	ID            string       `json:"id" db:"id" validate:"required,uuid"`
	Type          DocumentType `json:"type" db:"doc_type" validate:"required"`
	Number        string       `json:"number" db:"doc_number" validate:"max=50"`
	PartyName     string       `json:"party_name" db:"party_name" validate:"max=255"`
	PartyGSTIN    string       `json:"party_gstin,omitempty" db:"party_gstin"`
	DocumentDate  time.Time    `json:"document_date" db:"document_date"`
	Policy        calc.Policy  `json:"policy" db:"policy"`
	Lines         []LineItem   `json:"lines"`
	RoundOff      bool         `json:"round_off" db:"round_off"`
	RoundOffValue string       `json:"round_off_value" db:"round_off_value"`
	Payments      []Payment    `json:"payments" db:"payments"`
	Notes         string       `json:"notes,omitempty" db:"notes"`
	NextLineID    int          `json:"next_line_id"`
	NextPaymentID int          `json:"next_payment_id"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// LineSummary holds the derived figures of one row, formatted for display
type LineSummary struct {
	ID             int    `json:"id"`
	Subtotal       string `json:"subtotal"`
	DiscountAmount string `json:"discount_amount"`
	TaxableAmount  string `json:"taxable_amount"`
	TaxAmount      string `json:"tax_amount"`
	NetAmount      string `json:"net_amount"`
}

// DocumentSummary is everything a document view displays besides the raw inputs
type DocumentSummary struct {
	DocumentID        string          `json:"document_id,omitempty"`
	Type              DocumentType    `json:"type"`
	Policy            calc.Policy     `json:"policy"`
	Lines             []LineSummary   `json:"lines"`
	Totals            calc.TotalsView `json:"totals"`
	TotalPayment      string          `json:"total_payment,omitempty"`
	BalanceDue        string          `json:"balance_due,omitempty"`
	SuggestedRoundOff string          `json:"suggested_round_off"`
}

// NewDocument creates a document with one empty row and, when the type records
// payments, one empty payment entry
func NewDocument(docType DocumentType, policy calc.Policy) *Document {
	now := time.Now().UTC()
	doc := &Document{
		ID:            uuid.New().String(),
		Type:          docType,
		DocumentDate:  now,
		Policy:        policy.Normalize(),
		RoundOffValue: "0",
		NextLineID:    1,
		NextPaymentID: 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	doc.Lines = []LineItem{*NewLineItem(doc.allocLineID())}
	if docType.HasPayments() {
		doc.Payments = []Payment{*NewPayment(doc.allocPaymentID())}
	}

	return doc
}

func (d *Document) allocLineID() int {
	if d.NextLineID <= 0 {
		d.NextLineID = 1
	}
	id := d.NextLineID
	d.NextLineID++
	return id
}

func (d *Document) allocPaymentID() int {
	if d.NextPaymentID <= 0 {
		d.NextPaymentID = 1
	}
	id := d.NextPaymentID
	d.NextPaymentID++
	return id
}

func (d *Document) touch() {
	d.UpdatedAt = time.Now().UTC()
}

func (d *Document) lineIndex(id int) int {
	for i := range d.Lines {
		if d.Lines[i].ID == id {
			return i
		}
	}
	return -1
}

func (d *Document) paymentIndex(id int) int {
	for i := range d.Payments {
		if d.Payments[i].ID == id {
			return i
		}
	}
	return -1
}

// Line returns the row with the given id
func (d *Document) Line(id int) (*LineItem, error) {
	idx := d.lineIndex(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %d", ErrLineNotFound, id)
	}
	return &d.Lines[idx], nil
}

// AddRow appends an empty row with a fresh id. Ids are never reused.
func (d *Document) AddRow() (*LineItem, error) {
	if len(d.Lines) >= MaxLinesPerDocument {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyLines, MaxLinesPerDocument)
	}
	d.Lines = append(d.Lines, *NewLineItem(d.allocLineID()))
	d.touch()
	return &d.Lines[len(d.Lines)-1], nil
}

// RemoveRow deletes a row. Removing the only remaining row is a no-op and
// reports false.
func (d *Document) RemoveRow(id int) (bool, error) {
	idx := d.lineIndex(id)
	if idx < 0 {
		return false, fmt.Errorf("%w: %d", ErrLineNotFound, id)
	}
	if len(d.Lines) <= 1 {
		return false, nil
	}
	d.Lines = append(d.Lines[:idx], d.Lines[idx+1:]...)
	d.touch()
	return true, nil
}

// UpdateRow replaces one input of a row and recomputes that row's figures
func (d *Document) UpdateRow(id int, field LineField, value string) (*LineItem, calc.LineResult, error) {
	line, err := d.Line(id)
	if err != nil {
		return nil, calc.LineResult{}, err
	}
	if err := line.SetField(field, value); err != nil {
		return nil, calc.LineResult{}, err
	}
	result := line.Reconcile(d.Policy)
	d.touch()
	return line, result, nil
}

// SetRoundOff enables or disables round-off and records the entered adjustment.
// The value is kept as typed; it is a manual override and never derived.
func (d *Document) SetRoundOff(enabled bool, value string) {
	d.RoundOff = enabled
	d.RoundOffValue = strings.TrimSpace(value)
	if d.RoundOffValue == "" {
		d.RoundOffValue = "0"
	}
	d.touch()
}

// AddPayment appends an empty cash payment entry
func (d *Document) AddPayment() (*Payment, error) {
	if !d.Type.HasPayments() {
		return nil, ErrPaymentsNotSupported
	}
	if len(d.Payments) >= MaxPaymentsPerDocument {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyPayments, MaxPaymentsPerDocument)
	}
	d.Payments = append(d.Payments, *NewPayment(d.allocPaymentID()))
	d.touch()
	return &d.Payments[len(d.Payments)-1], nil
}

// RemovePayment deletes a payment entry. The last remaining entry is kept.
func (d *Document) RemovePayment(id int) (bool, error) {
	if !d.Type.HasPayments() {
		return false, ErrPaymentsNotSupported
	}
	idx := d.paymentIndex(id)
	if idx < 0 {
		return false, fmt.Errorf("%w: %d", ErrPaymentNotFound, id)
	}
	if len(d.Payments) <= 1 {
		return false, nil
	}
	d.Payments = append(d.Payments[:idx], d.Payments[idx+1:]...)
	d.touch()
	return true, nil
}

// UpdatePayment replaces one field of a payment entry. A reference number on
// the first entry is ignored.
func (d *Document) UpdatePayment(id int, field PaymentField, value string) (*Payment, error) {
	if !d.Type.HasPayments() {
		return nil, ErrPaymentsNotSupported
	}
	idx := d.paymentIndex(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %d", ErrPaymentNotFound, id)
	}

	payment := &d.Payments[idx]
	switch field {
	case PaymentFieldType:
		paymentType := parsePaymentType(value)
		if err := ValidateEnum(string(paymentType), PaymentTypeStrings(), "payment_type"); err != nil {
			return nil, err
		}
		payment.Type = paymentType
	case PaymentFieldAmount:
		payment.Amount = value
	case PaymentFieldReferenceNo:
		if idx == 0 {
			return payment, nil
		}
		payment.ReferenceNo = strings.TrimSpace(value)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	d.touch()
	return payment, nil
}

// TotalPayment sums the entered payment amounts
func (d *Document) TotalPayment() decimal.Decimal {
	total := decimal.Zero
	for i := range d.Payments {
		total = total.Add(d.Payments[i].ParsedAmount())
	}
	return total
}

// ComputeTotals folds every row into document totals
func (d *Document) ComputeTotals() calc.Totals {
	policy := d.Policy.Normalize()
	results := make([]calc.LineResult, len(d.Lines))
	for i := range d.Lines {
		results[i] = d.Lines[i].Compute(policy)
	}
	return calc.Aggregate(results, d.RoundOff, calc.ParseAmount(d.RoundOffValue))
}

// Compute derives the full summary from the current state. Nothing is cached.
func (d *Document) Compute() *DocumentSummary {
	policy := d.Policy.Normalize()
	results := make([]calc.LineResult, len(d.Lines))
	lines := make([]LineSummary, len(d.Lines))

	for i := range d.Lines {
		result := d.Lines[i].Compute(policy)
		results[i] = result
		lines[i] = LineSummary{
			ID:             d.Lines[i].ID,
			Subtotal:       calc.FormatMoney(result.Subtotal),
			DiscountAmount: calc.FormatMoney(result.ResolvedDiscountAmount),
			TaxableAmount:  calc.FormatMoney(result.TaxableAmount),
			TaxAmount:      calc.FormatMoney(result.ResolvedTaxAmount),
			NetAmount:      calc.FormatMoney(result.NetAmount),
		}
	}

	totals := calc.Aggregate(results, d.RoundOff, calc.ParseAmount(d.RoundOffValue))

	summary := &DocumentSummary{
		DocumentID:        d.ID,
		Type:              d.Type,
		Policy:            policy,
		Lines:             lines,
		Totals:            totals.View(),
		SuggestedRoundOff: calc.FormatMoney(calc.SuggestRoundOff(totals.TotalAmount)),
	}

	if d.Type.HasPayments() {
		paid := d.TotalPayment()
		summary.TotalPayment = calc.FormatMoney(paid)
		summary.BalanceDue = calc.FormatMoney(totals.GrandTotal.Sub(paid))
	}

	return summary
}

// Validate checks a document before it is persisted. Arithmetic inputs are
// never judged here; only structure and descriptive fields.
func (d *Document) Validate() error {
	if err := ValidateUUID(d.ID, "id"); err != nil {
		return err
	}
	if err := ValidateEnum(string(d.Type), DocumentTypeStrings(), "type"); err != nil {
		return err
	}
	if len(d.Lines) == 0 {
		return &ValidationError{Field: "lines", Message: "document must have at least one line"}
	}
	if len(d.Lines) > MaxLinesPerDocument {
		return &ValidationError{Field: "lines", Message: fmt.Sprintf("document cannot exceed %d lines", MaxLinesPerDocument)}
	}
	if err := ValidateStringLength(d.Number, "number", 0, 50); err != nil {
		return err
	}
	if err := ValidateStringLength(d.PartyName, "party_name", 0, 255); err != nil {
		return err
	}
	if err := ValidateStringLength(d.Notes, "notes", 0, 1000); err != nil {
		return err
	}
	if err := ValidateGSTINField(d.PartyGSTIN, "party_gstin"); err != nil {
		return err
	}

	seen := make(map[int]bool, len(d.Lines))
	for i := range d.Lines {
		if err := d.Lines[i].Validate(); err != nil {
			return fmt.Errorf("line %d: %w", d.Lines[i].ID, err)
		}
		if seen[d.Lines[i].ID] {
			return &ValidationError{Field: "lines", Message: fmt.Sprintf("duplicate line id %d", d.Lines[i].ID), Value: d.Lines[i].ID}
		}
		seen[d.Lines[i].ID] = true
	}

	for i := range d.Payments {
		if err := d.Payments[i].Validate(); err != nil {
			return fmt.Errorf("payment %d: %w", d.Payments[i].ID, err)
		}
	}

	return nil
}

// SetHeader updates the descriptive header fields
func (d *Document) SetHeader(number, partyName, partyGSTIN, notes string, date *time.Time) {
	d.Number = strings.TrimSpace(number)
	d.PartyName = SanitizeString(partyName)
	d.PartyGSTIN = strings.ToUpper(strings.TrimSpace(partyGSTIN))
	d.Notes = strings.TrimSpace(notes)
	if date != nil && !date.IsZero() {
		d.DocumentDate = date.UTC()
	}
	d.touch()
}

// GetDisplayName returns a short label for lists and logs
func (d *Document) GetDisplayName() string {
	label := strings.ReplaceAll(string(d.Type), "_", " ")
	if d.Number != "" {
		label = fmt.Sprintf("%s %s", label, d.Number)
	}
	if d.PartyName != "" {
		label = fmt.Sprintf("%s - %s", label, d.PartyName)
	}
	return label
}
