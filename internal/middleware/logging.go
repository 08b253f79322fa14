package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDKey is the key used to store request ID in context
const RequestIDKey = "request_id"

// CorrelationIDKey is the key used to store correlation ID in context
const CorrelationIDKey = "correlation_id"

const maxLoggedBody = 10 * 1024

// bodyRecorder keeps a copy of the response body for error logging
type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	if w.body.Len() < maxLoggedBody {
		w.body.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// headerID returns a middleware that propagates or generates an id header
func headerID(header, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(key, id)
		c.Header(header, id)
		c.Next()
	}
}

// RequestID adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return headerID("X-Request-ID", RequestIDKey)
}

// CorrelationID adds a correlation ID for tracing across services
func CorrelationID() gin.HandlerFunc {
	return headerID("X-Correlation-ID", CorrelationIDKey)
}

// StructuredLogger logs every request with its context
func StructuredLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		var requestBody []byte
		if gin.Mode() == gin.DebugMode && c.Request.Body != nil && c.Request.ContentLength < maxLoggedBody {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder

		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"request_id":     c.GetString(RequestIDKey),
			"correlation_id": c.GetString(CorrelationIDKey),
			"method":         c.Request.Method,
			"path":           path,
			"status_code":    status,
			"latency_ms":     float64(time.Since(start).Microseconds()) / 1000,
			"client_ip":      c.ClientIP(),
			"user_agent":     c.Request.UserAgent(),
			"response_size":  c.Writer.Size(),
		}

		if raw != "" {
			fields["query"] = raw
		}
		if userID := c.GetString("user_id"); userID != "" {
			fields["user_id"] = userID
		}
		if len(requestBody) > 0 {
			fields["request_body"] = string(requestBody)
		}
		if gin.Mode() == gin.DebugMode && status >= http.StatusBadRequest && recorder.body.Len() < 1024 {
			fields["response_body"] = recorder.body.String()
		}

		entry := logrus.WithFields(fields)
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Server error")
		case status >= http.StatusBadRequest:
			entry.Warn("Client error")
		default:
			entry.Info("Request completed")
		}
	}
}

// AuditLogger logs every state-changing request on drafts and documents
func AuditLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		fields := logrus.Fields{
			"audit":          true,
			"request_id":     c.GetString(RequestIDKey),
			"user_id":        c.GetString("user_id"),
			"username":       c.GetString("username"),
			"method":         c.Request.Method,
			"path":           path,
			"status_code":    c.Writer.Status(),
			"client_ip":      c.ClientIP(),
			"operation":      auditOperation(c.Request.Method, path),
			"operation_time": time.Since(start).Milliseconds(),
		}

		if resource := resourceType(path); resource != "" {
			fields["resource_type"] = resource
		}
		if resourceID := extractResourceID(path); resourceID != "" {
			fields["resource_id"] = resourceID
		}

		logrus.WithFields(fields).Info("Audit log")
	}
}

// PerformanceMonitor logs requests slower than slowThreshold
func PerformanceMonitor(slowThreshold time.Duration) gin.HandlerFunc {
	if slowThreshold == 0 {
		slowThreshold = time.Second
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		if latency > slowThreshold {
			logrus.WithFields(logrus.Fields{
				"performance_alert": true,
				"request_id":        c.GetString(RequestIDKey),
				"method":            c.Request.Method,
				"path":              c.Request.URL.Path,
				"latency_ms":        latency.Milliseconds(),
				"threshold_ms":      slowThreshold.Milliseconds(),
				"status_code":       c.Writer.Status(),
			}).Warn("Slow request detected")
		}
	}
}

// ErrorTracker logs errors attached to the gin context
func ErrorTracker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, err := range c.Errors {
			fields := logrus.Fields{
				"error_tracking": true,
				"request_id":     c.GetString(RequestIDKey),
				"correlation_id": c.GetString(CorrelationIDKey),
				"user_id":        c.GetString("user_id"),
				"method":         c.Request.Method,
				"path":           c.Request.URL.Path,
				"error_type":     fmt.Sprintf("%d", err.Type),
				"error_message":  err.Error(),
				"status_code":    c.Writer.Status(),
			}
			if err.Type == gin.ErrorTypePrivate {
				fields["stack_trace"] = fmt.Sprintf("%+v", err.Err)
			}
			logrus.WithFields(fields).Error("Error tracked")
		}
	}
}

func auditOperation(method, path string) string {
	switch {
	case strings.HasSuffix(path, "/finalize"):
		return "FINALIZE"
	case method == http.MethodPost:
		return "CREATE"
	case method == http.MethodPut || method == http.MethodPatch:
		return "UPDATE"
	case method == http.MethodDelete:
		return "DELETE"
	default:
		return method
	}
}

func resourceType(path string) string {
	switch {
	case strings.Contains(path, "/rows"):
		return "draft_row"
	case strings.Contains(path, "/payments"):
		return "draft_payment"
	case strings.Contains(path, "/drafts"):
		return "draft"
	case strings.Contains(path, "/documents"):
		return "document"
	case strings.Contains(path, "/calculate"):
		return "calculation"
	case strings.Contains(path, "/auth"):
		return "auth"
	default:
		return ""
	}
}

func extractResourceID(path string) string {
	for _, part := range strings.Split(path, "/") {
		if _, err := uuid.Parse(part); err == nil {
			return part
		}
	}
	return ""
}
