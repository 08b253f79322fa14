package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"billbook-api/internal/services"
	"billbook-api/pkg/lambda"
)

// CalculationHandler serves the stateless calculation endpoints
type CalculationHandler struct {
	calculator services.CalculatorService
}

// NewCalculationHandler creates a new calculation handler
func NewCalculationHandler(calculator services.CalculatorService) *CalculationHandler {
	return &CalculationHandler{calculator: calculator}
}

// @Summary Calculate a line
// @Description Compute subtotal, discount, tax and net amount of one row
// @Tags calculate
// @Accept json
// @Produce json
// @Param line body services.CalculateLineRequest true "Row values"
// @Success 200 {object} services.LineCalculation
// @Failure 400 {object} ErrorResponse
// @Router /calculate/line [post]
func (h *CalculationHandler) CalculateLine(c *gin.Context) {
	var req services.CalculateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	result, err := h.calculator.CalculateLine(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to calculate line")
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Calculate a document
// @Description Compute the totals of a document without storing it
// @Tags calculate
// @Accept json
// @Produce json
// @Param document body services.CalculateDocumentRequest true "Document rows"
// @Success 200 {object} models.DocumentSummary
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /calculate/document [post]
func (h *CalculationHandler) CalculateDocument(c *gin.Context) {
	var req services.CalculateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	summary, err := h.calculator.CalculateDocument(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to calculate document")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// @Summary Tax slabs
// @Description List the standard tax rates offered for selection
// @Tags calculate
// @Produce json
// @Success 200 {object} services.TaxSlabsResponse
// @Router /tax-slabs [get]
func (h *CalculationHandler) GetTaxSlabs(c *gin.Context) {
	c.JSON(http.StatusOK, h.calculator.GetTaxSlabs(c.Request.Context()))
}

// @Summary Validate GSTIN
// @Description Check the format, state code and check character of a GSTIN
// @Tags calculate
// @Produce json
// @Param gstin path string true "GSTIN"
// @Success 200 {object} services.GSTINValidation
// @Router /gstin/{gstin}/validate [get]
func (h *CalculationHandler) ValidateGSTIN(c *gin.Context) {
	c.JSON(http.StatusOK, h.calculator.ValidateGSTIN(c.Request.Context(), c.Param("gstin")))
}

// Lambda handler methods

// HandleCalculateLine handles single row calculation for Lambda
func (h *CalculationHandler) HandleCalculateLine(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	var lineReq services.CalculateLineRequest
	if err := json.Unmarshal(req.Body, &lineReq); err != nil {
		return jsonResponse(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		}), nil
	}

	result, err := h.calculator.CalculateLine(ctx, &lineReq)
	if err != nil {
		return lambdaError(err, "Failed to calculate line"), nil
	}

	return jsonResponse(http.StatusOK, result), nil
}

// HandleCalculateDocument handles document calculation for Lambda
func (h *CalculationHandler) HandleCalculateDocument(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	var docReq services.CalculateDocumentRequest
	if err := json.Unmarshal(req.Body, &docReq); err != nil {
		return jsonResponse(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		}), nil
	}

	summary, err := h.calculator.CalculateDocument(ctx, &docReq)
	if err != nil {
		return lambdaError(err, "Failed to calculate document"), nil
	}

	return jsonResponse(http.StatusOK, summary), nil
}

// HandleGetTaxSlabs lists tax slabs for Lambda
func (h *CalculationHandler) HandleGetTaxSlabs(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	return jsonResponse(http.StatusOK, h.calculator.GetTaxSlabs(ctx)), nil
}
