package services

import (
	"time"

	"billbook-api/internal/calc"
	"billbook-api/internal/models"
)

// HandoffSnapshot is the read-only copy of a finalized document written to
// file storage for printing and export
type HandoffSnapshot struct {
	DocumentID   string              `json:"document_id"`
	Type         models.DocumentType `json:"type"`
	Number       string              `json:"number,omitempty"`
	PartyName    string              `json:"party_name,omitempty"`
	PartyGSTIN   string              `json:"party_gstin,omitempty"`
	DocumentDate time.Time           `json:"document_date"`
	Policy       calc.Policy         `json:"policy"`
	Lines        []HandoffLine       `json:"lines"`
	Totals       calc.TotalsView     `json:"totals"`
	Payments     []models.Payment    `json:"payments,omitempty"`
	TotalPayment string              `json:"total_payment,omitempty"`
	BalanceDue   string              `json:"balance_due,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

// HandoffLine is one row of a snapshot with every figure resolved
type HandoffLine struct {
	ID             int    `json:"id"`
	ItemName       string `json:"item_name"`
	HSNCode        string `json:"hsn_code,omitempty"`
	Unit           string `json:"unit,omitempty"`
	Quantity       string `json:"quantity"`
	UnitPrice      string `json:"unit_price"`
	Subtotal       string `json:"subtotal"`
	DiscountAmount string `json:"discount_amount"`
	TaxPercent     string `json:"tax_percent,omitempty"`
	TaxAmount      string `json:"tax_amount"`
	NetAmount      string `json:"net_amount"`
}

// NewHandoffSnapshot builds a snapshot from a document and its summary
func NewHandoffSnapshot(doc *models.Document, summary *models.DocumentSummary) *HandoffSnapshot {
	snapshot := &HandoffSnapshot{
		DocumentID:   doc.ID,
		Type:         doc.Type,
		Number:       doc.Number,
		PartyName:    doc.PartyName,
		PartyGSTIN:   doc.PartyGSTIN,
		DocumentDate: doc.DocumentDate,
		Policy:       summary.Policy,
		Lines:        make([]HandoffLine, len(doc.Lines)),
		Totals:       summary.Totals,
		Payments:     doc.Payments,
		TotalPayment: summary.TotalPayment,
		BalanceDue:   summary.BalanceDue,
		Notes:        doc.Notes,
		GeneratedAt:  time.Now().UTC(),
	}

	for i := range doc.Lines {
		line := &doc.Lines[i]
		figures := summary.Lines[i]
		snapshot.Lines[i] = HandoffLine{
			ID:             line.ID,
			ItemName:       line.ItemName,
			HSNCode:        line.HSNCode,
			Unit:           line.Unit,
			Quantity:       calc.ParseAmount(line.Quantity).String(),
			UnitPrice:      calc.FormatMoney(calc.ParseAmount(line.UnitPrice)),
			Subtotal:       figures.Subtotal,
			DiscountAmount: figures.DiscountAmount,
			TaxPercent:     line.TaxPercent,
			TaxAmount:      figures.TaxAmount,
			NetAmount:      figures.NetAmount,
		}
	}

	return snapshot
}
