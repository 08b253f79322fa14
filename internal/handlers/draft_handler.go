package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"billbook-api/internal/services"
)

// DraftHandler serves the draft editing endpoints
type DraftHandler struct {
	documents services.DocumentService
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(documents services.DocumentService) *DraftHandler {
	return &DraftHandler{documents: documents}
}

// intParam reads a positive integer path parameter
func intParam(c *gin.Context, name string) (int, bool) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil || value <= 0 {
		badRequest(c, "Invalid path parameter", name+" must be a positive integer")
		return 0, false
	}
	return value, true
}

// @Summary Create a draft
// @Description Start a new draft document with one empty row
// @Tags drafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param draft body services.CreateDraftRequest true "Draft header"
// @Success 201 {object} services.DraftView
// @Failure 400 {object} ErrorResponse
// @Router /drafts [post]
func (h *DraftHandler) CreateDraft(c *gin.Context) {
	var req services.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	draft, err := h.documents.CreateDraft(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create draft")
		return
	}

	c.JSON(http.StatusCreated, draft)
}

// @Summary Get a draft
// @Tags drafts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Success 200 {object} services.DraftView
// @Failure 404 {object} ErrorResponse
// @Router /drafts/{id} [get]
func (h *DraftHandler) GetDraft(c *gin.Context) {
	draft, err := h.documents.GetDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get draft")
		return
	}

	c.JSON(http.StatusOK, draft)
}

// @Summary Discard a draft
// @Tags drafts
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /drafts/{id} [delete]
func (h *DraftHandler) DeleteDraft(c *gin.Context) {
	if err := h.documents.DeleteDraft(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete draft")
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Update draft header
// @Tags drafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Param header body services.UpdateHeaderRequest true "Header fields"
// @Success 200 {object} services.DraftView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /drafts/{id}/header [put]
func (h *DraftHandler) UpdateHeader(c *gin.Context) {
	var req services.UpdateHeaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	draft, err := h.documents.UpdateHeader(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, "Failed to update draft")
		return
	}

	c.JSON(http.StatusOK, draft)
}

// @Summary Add a row
// @Tags drafts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Success 201 {object} services.RowChange
// @Failure 404 {object} ErrorResponse
// @Router /drafts/{id}/rows [post]
func (h *DraftHandler) AddRow(c *gin.Context) {
	change, err := h.documents.AddRow(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to add row")
		return
	}

	c.JSON(http.StatusCreated, change)
}

// @Summary Update a row field
// @Description Set one input field of a row and recompute it
// @Tags drafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Param row path int true "Row ID"
// @Param field body services.UpdateFieldRequest true "Field and value"
// @Success 200 {object} services.RowChange
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /drafts/{id}/rows/{row} [patch]
func (h *DraftHandler) UpdateRow(c *gin.Context) {
	rowID, ok := intParam(c, "row")
	if !ok {
		return
	}

	var req services.UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	change, err := h.documents.UpdateRow(c.Request.Context(), c.Param("id"), rowID, &req)
	if err != nil {
		respondError(c, err, "Failed to update row")
		return
	}

	c.JSON(http.StatusOK, change)
}

// @Summary Remove a row
// @Description Removing the only row leaves the draft unchanged
// @Tags drafts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Param row path int true "Row ID"
// @Success 200 {object} services.RowChange
// @Failure 404 {object} ErrorResponse
// @Router /drafts/{id}/rows/{row} [delete]
func (h *DraftHandler) RemoveRow(c *gin.Context) {
	rowID, ok := intParam(c, "row")
	if !ok {
		return
	}

	change, err := h.documents.RemoveRow(c.Request.Context(), c.Param("id"), rowID)
	if err != nil {
		respondError(c, err, "Failed to remove row")
		return
	}

	c.JSON(http.StatusOK, change)
}

// @Summary Set round-off
// @Tags drafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Param round_off body services.SetRoundOffRequest true "Round-off"
// @Success 200 {object} services.DraftView
// @Failure 404 {object} ErrorResponse
// @Router /drafts/{id}/round-off [put]
func (h *DraftHandler) SetRoundOff(c *gin.Context) {
	var req services.SetRoundOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	draft, err := h.documents.SetRoundOff(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, "Failed to set round-off")
		return
	}

	c.JSON(http.StatusOK, draft)
}

// @Summary Add a payment entry
// @Tags drafts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Success 201 {object} services.DraftView
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /drafts/{id}/payments [post]
func (h *DraftHandler) AddPayment(c *gin.Context) {
	draft, err := h.documents.AddPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to add payment")
		return
	}

	c.JSON(http.StatusCreated, draft)
}

// @Summary Update a payment field
// @Tags drafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Param payment path int true "Payment ID"
// @Param field body services.UpdateFieldRequest true "Field and value"
// @Success 200 {object} services.DraftView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /drafts/{id}/payments/{payment} [patch]
func (h *DraftHandler) UpdatePayment(c *gin.Context) {
	paymentID, ok := intParam(c, "payment")
	if !ok {
		return
	}

	var req services.UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	draft, err := h.documents.UpdatePayment(c.Request.Context(), c.Param("id"), paymentID, &req)
	if err != nil {
		respondError(c, err, "Failed to update payment")
		return
	}

	c.JSON(http.StatusOK, draft)
}

// @Summary Remove a payment entry
// @Tags drafts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Param payment path int true "Payment ID"
// @Success 200 {object} services.DraftView
// @Failure 404 {object} ErrorResponse
// @Router /drafts/{id}/payments/{payment} [delete]
func (h *DraftHandler) RemovePayment(c *gin.Context) {
	paymentID, ok := intParam(c, "payment")
	if !ok {
		return
	}

	draft, err := h.documents.RemovePayment(c.Request.Context(), c.Param("id"), paymentID)
	if err != nil {
		respondError(c, err, "Failed to remove payment")
		return
	}

	c.JSON(http.StatusOK, draft)
}

// @Summary Draft summary
// @Tags drafts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Success 200 {object} models.DocumentSummary
// @Failure 404 {object} ErrorResponse
// @Router /drafts/{id}/summary [get]
func (h *DraftHandler) Summarize(c *gin.Context) {
	summary, err := h.documents.Summarize(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to summarize draft")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// @Summary Finalize a draft
// @Description Store the draft as a document and write its hand-off snapshot
// @Tags drafts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draft ID"
// @Success 201 {object} services.FinalizeResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /drafts/{id}/finalize [post]
func (h *DraftHandler) Finalize(c *gin.Context) {
	result, err := h.documents.Finalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to finalize draft")
		return
	}

	c.JSON(http.StatusCreated, result)
}
