package services

import (
	"context"
	"time"

	"billbook-api/internal/calc"
	"billbook-api/internal/models"
)

// CalculatorService defines the stateless calculation operations
type CalculatorService interface {
	CalculateLine(ctx context.Context, req *CalculateLineRequest) (*LineCalculation, error)
	CalculateDocument(ctx context.Context, req *CalculateDocumentRequest) (*models.DocumentSummary, error)
	PolicyFor(docType models.DocumentType) calc.Policy
	GetTaxSlabs(ctx context.Context) *TaxSlabsResponse
	ValidateGSTIN(ctx context.Context, gstin string) *GSTINValidation
}

// DocumentService defines the draft editing and document lifecycle operations
type DocumentService interface {
	// Draft lifecycle
	CreateDraft(ctx context.Context, req *CreateDraftRequest) (*DraftView, error)
	GetDraft(ctx context.Context, id string) (*DraftView, error)
	DeleteDraft(ctx context.Context, id string) error
	UpdateHeader(ctx context.Context, id string, req *UpdateHeaderRequest) (*DraftView, error)

	// Row editing
	AddRow(ctx context.Context, id string) (*RowChange, error)
	RemoveRow(ctx context.Context, id string, rowID int) (*RowChange, error)
	UpdateRow(ctx context.Context, id string, rowID int, req *UpdateFieldRequest) (*RowChange, error)

	// Round-off and payments
	SetRoundOff(ctx context.Context, id string, req *SetRoundOffRequest) (*DraftView, error)
	AddPayment(ctx context.Context, id string) (*DraftView, error)
	RemovePayment(ctx context.Context, id string, paymentID int) (*DraftView, error)
	UpdatePayment(ctx context.Context, id string, paymentID int, req *UpdateFieldRequest) (*DraftView, error)

	Summarize(ctx context.Context, id string) (*models.DocumentSummary, error)
	Finalize(ctx context.Context, id string) (*FinalizeResult, error)

	// Finalized documents
	GetDocument(ctx context.Context, id string) (*DocumentView, error)
	ListDocuments(ctx context.Context, filters *models.DocumentFilters) (*DocumentList, error)
	GetHandoff(ctx context.Context, id string) (*HandoffSnapshot, error)
	DeleteDocument(ctx context.Context, id string) error
}

// Calculator service types

// CalculateLineRequest computes a single row. Policy overrides the default
// policy for DocumentType when given.
type CalculateLineRequest struct {
	DocumentType models.DocumentType `json:"document_type,omitempty" validate:"omitempty,oneof=sale purchase_bill purchase_order expense delivery_challan estimate"`
	Policy       *calc.Policy        `json:"policy,omitempty"`
	Line         calc.LineInput      `json:"line"`
}

// LineCalculation is the result of a single row computation
type LineCalculation struct {
	Policy         calc.Policy    `json:"policy"`
	Input          calc.LineInput `json:"input"`
	Subtotal       string         `json:"subtotal"`
	DiscountAmount string         `json:"discount_amount"`
	TaxableAmount  string         `json:"taxable_amount"`
	TaxAmount      string         `json:"tax_amount"`
	NetAmount      string         `json:"net_amount"`
	StandardRate   bool           `json:"standard_rate"`
}

// CalculateDocumentRequest computes a whole document without storing it
type CalculateDocumentRequest struct {
	Type          models.DocumentType `json:"type" validate:"required,oneof=sale purchase_bill purchase_order expense delivery_challan estimate"`
	Policy        *calc.Policy        `json:"policy,omitempty"`
	Lines         []calc.LineInput    `json:"lines" validate:"required,min=1,max=500"`
	RoundOff      bool                `json:"round_off"`
	RoundOffValue string              `json:"round_off_value,omitempty"`
	Payments      []PaymentInput      `json:"payments,omitempty" validate:"max=20,dive"`
}

// PaymentInput is one payment entry of a calculation request
type PaymentInput struct {
	Type        string `json:"type,omitempty"`
	Amount      string `json:"amount"`
	ReferenceNo string `json:"reference_no,omitempty" validate:"max=64"`
}

// TaxSlabsResponse lists the selectable tax rates
type TaxSlabsResponse struct {
	TaxName     string           `json:"tax_name"`
	CountryCode string           `json:"country_code"`
	Slabs       []models.TaxSlab `json:"slabs"`
}

// GSTINValidation is the outcome of checking a GSTIN
type GSTINValidation struct {
	GSTIN     string `json:"gstin"`
	Valid     bool   `json:"valid"`
	StateCode string `json:"state_code,omitempty"`
	PAN       string `json:"pan,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Document service types

// CreateDraftRequest starts a new draft
type CreateDraftRequest struct {
	Type         models.DocumentType `json:"type" validate:"required,oneof=sale purchase_bill purchase_order expense delivery_challan estimate"`
	Policy       *calc.Policy        `json:"policy,omitempty"`
	Number       string              `json:"number,omitempty" validate:"max=50"`
	PartyName    string              `json:"party_name,omitempty" validate:"max=255"`
	PartyGSTIN   string              `json:"party_gstin,omitempty"`
	DocumentDate *time.Time          `json:"document_date,omitempty"`
	Notes        string              `json:"notes,omitempty" validate:"max=1000"`
}

// UpdateHeaderRequest changes the descriptive fields of a draft. Nil fields
// are left unchanged.
type UpdateHeaderRequest struct {
	Number       *string    `json:"number,omitempty" validate:"omitempty,max=50"`
	PartyName    *string    `json:"party_name,omitempty" validate:"omitempty,max=255"`
	PartyGSTIN   *string    `json:"party_gstin,omitempty"`
	DocumentDate *time.Time `json:"document_date,omitempty"`
	Notes        *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// UpdateFieldRequest replaces one field of a row or payment entry
type UpdateFieldRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

// SetRoundOffRequest enables or disables the manual round-off adjustment
type SetRoundOffRequest struct {
	Enabled bool   `json:"enabled"`
	Value   string `json:"value"`
}

// DraftView is a draft with its freshly computed summary
type DraftView struct {
	Document *models.Document        `json:"document"`
	Summary  *models.DocumentSummary `json:"summary"`
}

// RowChange reports the effect of a row operation
type RowChange struct {
	Line    *models.LineItem        `json:"line,omitempty"`
	Changed bool                    `json:"changed"`
	Summary *models.DocumentSummary `json:"summary"`
}

// FinalizeResult is returned when a draft is persisted
type FinalizeResult struct {
	Document   *models.Document        `json:"document"`
	Summary    *models.DocumentSummary `json:"summary"`
	HandoffKey string                  `json:"handoff_key,omitempty"`
}

// DocumentView is a stored document. StaleTotals is set when the stored
// totals disagreed with the rows; Summary is always recomputed.
type DocumentView struct {
	Document    *models.Document        `json:"document"`
	Summary     *models.DocumentSummary `json:"summary"`
	StaleTotals bool                    `json:"stale_totals,omitempty"`
}

// DocumentList is a page of stored documents
type DocumentList struct {
	Documents  []*models.DocumentListItem `json:"documents"`
	Pagination *models.PaginationResult   `json:"pagination"`
}
