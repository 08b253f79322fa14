package models

import (
	"time"
)

// DocumentType identifies the business document a set of line items belongs to
type DocumentType string

const (
	DocumentTypeSale            DocumentType = "sale"
	DocumentTypePurchaseBill    DocumentType = "purchase_bill"
	DocumentTypePurchaseOrder   DocumentType = "purchase_order"
	DocumentTypeExpense         DocumentType = "expense"
	DocumentTypeDeliveryChallan DocumentType = "delivery_challan"
	DocumentTypeEstimate        DocumentType = "estimate"
)

// AllDocumentTypes lists every supported document type in display order
var AllDocumentTypes = []DocumentType{
	DocumentTypeSale,
	DocumentTypePurchaseBill,
	DocumentTypePurchaseOrder,
	DocumentTypeExpense,
	DocumentTypeDeliveryChallan,
	DocumentTypeEstimate,
}

// IsValid reports whether t is a known document type
func (t DocumentType) IsValid() bool {
	for _, known := range AllDocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// HasPayments reports whether documents of this type record payments against them
func (t DocumentType) HasPayments() bool {
	switch t {
	case DocumentTypeSale, DocumentTypePurchaseBill, DocumentTypePurchaseOrder, DocumentTypeExpense:
		return true
	default:
		return false
	}
}

// DocumentTypeStrings returns the document types as plain strings
func DocumentTypeStrings() []string {
	values := make([]string, len(AllDocumentTypes))
	for i, t := range AllDocumentTypes {
		values[i] = string(t)
	}
	return values
}

// Common constants
const (
	// Upper bound on rows in a single document
	MaxLinesPerDocument = 500

	// Upper bound on payment entries in a single document
	MaxPaymentsPerDocument = 20

	// Default draft lifetime when the store supports expiry
	DefaultDraftTTL = 24 * time.Hour
)

// DocumentFilters represents search and filter parameters for stored documents
type DocumentFilters struct {
	Type      DocumentType `json:"type,omitempty"`
	PartyName string       `json:"party_name,omitempty"`
	StartDate *time.Time   `json:"start_date,omitempty"`
	EndDate   *time.Time   `json:"end_date,omitempty"`
	Limit     int          `json:"limit,omitempty"`
	Offset    int          `json:"offset,omitempty"`
	SortBy    string       `json:"sort_by,omitempty"`
	SortOrder string       `json:"sort_order,omitempty"` // "asc" or "desc"
}

// PaginationResult represents paginated results
type PaginationResult struct {
	Total       int  `json:"total"`
	Limit       int  `json:"limit"`
	Offset      int  `json:"offset"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// NewPaginationResult builds pagination metadata for a page of results
func NewPaginationResult(total, limit, offset int) *PaginationResult {
	return &PaginationResult{
		Total:       total,
		Limit:       limit,
		Offset:      offset,
		HasNext:     limit > 0 && offset+limit < total,
		HasPrevious: offset > 0,
	}
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	return ve.Message
}

// HealthCheck represents system health status
type HealthCheck struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
}

// DocumentListItem is the stored header of a finalized document
type DocumentListItem struct {
	ID           string       `json:"id" db:"id"`
	Type         DocumentType `json:"type" db:"doc_type"`
	Number       string       `json:"number" db:"doc_number"`
	PartyName    string       `json:"party_name" db:"party_name"`
	DocumentDate time.Time    `json:"document_date" db:"document_date"`
	LineCount    int          `json:"line_count"`
	TotalAmount  string       `json:"total_amount" db:"total_amount"`
	GrandTotal   string       `json:"grand_total" db:"grand_total"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}
