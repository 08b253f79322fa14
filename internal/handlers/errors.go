package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"billbook-api/internal/adapters/drafts"
	"billbook-api/internal/adapters/storage"
	"billbook-api/internal/middleware"
	"billbook-api/internal/models"
	"billbook-api/internal/repositories"
	"billbook-api/internal/services"
	"billbook-api/pkg/lambda"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// errorStatus maps a service error to an HTTP status and a short title
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidRequest),
		errors.Is(err, models.ErrUnknownField),
		errors.Is(err, models.ErrTooManyLines),
		errors.Is(err, models.ErrTooManyPayments),
		repositories.IsValidation(err):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, models.ErrPaymentsNotSupported):
		return http.StatusUnprocessableEntity, "Payments not supported"
	case errors.Is(err, drafts.ErrDraftNotFound):
		return http.StatusNotFound, "Draft not found"
	case errors.Is(err, models.ErrLineNotFound):
		return http.StatusNotFound, "Row not found"
	case errors.Is(err, models.ErrPaymentNotFound):
		return http.StatusNotFound, "Payment not found"
	case repositories.IsNotFound(err), storage.IsNotFound(err):
		return http.StatusNotFound, "Document not found"
	case repositories.IsDuplicate(err):
		return http.StatusConflict, "Duplicate document number"
	case errors.Is(err, services.ErrHandoffUnavailable):
		return http.StatusServiceUnavailable, "Hand-off storage unavailable"
	default:
		return http.StatusInternalServerError, ""
	}
}

// respondError writes err as an ErrorResponse. fallback is the title used
// for unexpected errors.
func respondError(c *gin.Context, err error, fallback string) {
	status, title := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		title = fallback
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey),
			"path":       c.Request.URL.Path,
			"error":      err.Error(),
		}).Error(fallback)
		message = "An internal error occurred"
	}

	c.JSON(status, ErrorResponse{
		Error:     title,
		Message:   message,
		RequestID: c.GetString(middleware.RequestIDKey),
	})
}

func badRequest(c *gin.Context, title, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:     title,
		Message:   message,
		RequestID: c.GetString(middleware.RequestIDKey),
	})
}

// jsonResponse builds a serverless response with a JSON body
func jsonResponse(status int, v interface{}) *lambda.Response {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Failed to marshal response"}`)
	}

	return &lambda.Response{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Date":         time.Now().UTC().Format(http.TimeFormat),
		},
		Body: body,
	}
}

// lambdaError renders err the same way respondError does for gin
func lambdaError(err error, fallback string) *lambda.Response {
	status, title := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		title = fallback
		logrus.WithError(err).Error(fallback)
		message = "An internal error occurred"
	}
	return jsonResponse(status, ErrorResponse{Error: title, Message: message})
}
