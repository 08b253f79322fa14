package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"billbook-api/internal/models"
	"billbook-api/internal/services"
)

// DocumentHandler serves finalized documents
type DocumentHandler struct {
	documents services.DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// @Summary List documents
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param type query string false "Document type" Enums(sale, purchase_bill, purchase_order, expense, delivery_challan, estimate)
// @Param party_name query string false "Party name"
// @Param start_date query string false "Start date (RFC3339)"
// @Param end_date query string false "End date (RFC3339)"
// @Param sort_by query string false "Sort column" Enums(document_date, created_at, doc_number, grand_total)
// @Param sort_order query string false "Sort order" Enums(asc, desc)
// @Param limit query int false "Limit" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} services.DocumentList
// @Failure 400 {object} ErrorResponse
// @Router /documents [get]
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	filters := &models.DocumentFilters{
		Type:      models.DocumentType(strings.ToLower(c.Query("type"))),
		PartyName: c.Query("party_name"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if filters.Type != "" && !filters.Type.IsValid() {
		badRequest(c, "Invalid query parameters", "unknown document type: "+string(filters.Type))
		return
	}

	if startDate := c.Query("start_date"); startDate != "" {
		if t, err := time.Parse(time.RFC3339, startDate); err == nil {
			filters.StartDate = &t
		}
	}
	if endDate := c.Query("end_date"); endDate != "" {
		if t, err := time.Parse(time.RFC3339, endDate); err == nil {
			filters.EndDate = &t
		}
	}
	if limit := c.Query("limit"); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil && val > 0 {
			filters.Limit = val
		}
	}
	if offset := c.Query("offset"); offset != "" {
		if val, err := strconv.Atoi(offset); err == nil && val >= 0 {
			filters.Offset = val
		}
	}

	list, err := h.documents.ListDocuments(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err, "Failed to list documents")
		return
	}

	c.JSON(http.StatusOK, list)
}

// @Summary Get a document
// @Description stale_totals is set when stored totals no longer match the rows
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} services.DocumentView
// @Failure 404 {object} ErrorResponse
// @Router /documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	view, err := h.documents.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get document")
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary Get hand-off snapshot
// @Description The snapshot consumed by downstream renderers
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} services.HandoffSnapshot
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /documents/{id}/handoff [get]
func (h *DocumentHandler) GetHandoff(c *gin.Context) {
	snapshot, err := h.documents.GetHandoff(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get hand-off snapshot")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// @Summary Delete a document
// @Tags documents
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /documents/{id} [delete]
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	if err := h.documents.DeleteDocument(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete document")
		return
	}

	c.Status(http.StatusNoContent)
}
