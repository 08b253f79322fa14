package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"billbook-api/internal/adapters/drafts"
	"billbook-api/internal/adapters/storage"
	"billbook-api/internal/config"
	"billbook-api/internal/database"
	"billbook-api/internal/middleware"
	"billbook-api/internal/models"
	"billbook-api/internal/repositories/sqlite"
	"billbook-api/internal/services"
	"billbook-api/pkg/lambda"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router     *gin.Engine
	calculator services.CalculatorService
	token      string
}

func newTestServer(t *testing.T, withAuth bool) *testServer {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	cm := database.NewConnectionManager(&database.ConnectionConfig{
		DatabasePath:   filepath.Join(t.TempDir(), "handlers.db"),
		MigrationsPath: filepath.Join("..", "..", "migrations"),
		AutoMigrate:    true,
		MaxOpenConns:   1,
		MaxIdleConns:   1,
		Logger:         logger,
	})
	if err := cm.Connect(context.Background()); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { cm.Close() })

	container, err := services.NewServiceContainer(sqlite.NewSQLiteRepositoryManager(cm.GetDB(), logger), &services.ServiceConfig{
		Billing: config.DefaultBillingConfig(),
		Drafts:  drafts.NewMemoryStore(models.DefaultDraftTTL),
		Files:   storage.NewMockFileStorage(),
		Logger:  logger,
	})
	if err != nil {
		t.Fatalf("Failed to create services: %v", err)
	}

	routerConfig := &RouterConfig{
		CalculatorService: container.CalculatorService,
		DocumentService:   container.DocumentService,
		HealthCheck:       cm.HealthCheck,
	}

	srv := &testServer{calculator: container.CalculatorService}
	if withAuth {
		auth := middleware.NewAuthService(&middleware.AuthConfig{JWTSecret: "test-secret", TokenDuration: time.Hour})
		routerConfig.AuthService = auth
		routerConfig.Credentials = Credentials{Username: "owner", Password: "s3cret"}
	}

	router := gin.New()
	SetupMiddleware(router, &MiddlewareConfig{})
	SetupRoutes(router, routerConfig)
	srv.router = router

	if withAuth {
		w := srv.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "owner", "password": "s3cret"})
		if w.Code != http.StatusOK {
			t.Fatalf("login status = %d: %s", w.Code, w.Body.String())
		}
		var login LoginResponse
		decode(t, w, &login)
		srv.token = login.Token
	}

	return srv
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode %q: %v", w.Body.String(), err)
	}
}

func TestCalculationRoutes(t *testing.T) {
	srv := newTestServer(t, false)

	w := srv.do(t, http.MethodPost, "/api/v1/calculate/line", map[string]interface{}{
		"document_type": "sale",
		"line":          map[string]string{"quantity": "10", "unit_price": "100", "discount_percent": "10", "tax_percent": "18"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("calculate line status = %d: %s", w.Code, w.Body.String())
	}
	var line services.LineCalculation
	decode(t, w, &line)
	if line.NetAmount != "1062.00" {
		t.Errorf("NetAmount = %s, want 1062.00", line.NetAmount)
	}

	w = srv.do(t, http.MethodPost, "/api/v1/calculate/document", map[string]interface{}{
		"type": "sale",
		"lines": []map[string]string{
			{"quantity": "10", "unit_price": "100", "discount_percent": "10", "tax_percent": "18"},
			{"quantity": "5", "unit_price": "60", "tax_percent": "18"},
		},
		"round_off":       true,
		"round_off_value": "-2",
		"payments":        []map[string]string{{"type": "cash", "amount": "1000"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("calculate document status = %d: %s", w.Code, w.Body.String())
	}
	var summary models.DocumentSummary
	decode(t, w, &summary)
	if summary.Totals.GrandTotal != "1414.00" || summary.BalanceDue != "414.00" {
		t.Errorf("totals = %+v balance = %s", summary.Totals, summary.BalanceDue)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"document without lines", http.MethodPost, "/api/v1/calculate/document", map[string]interface{}{"type": "sale"}, http.StatusBadRequest},
		{"unknown type", http.MethodPost, "/api/v1/calculate/line", map[string]interface{}{"document_type": "invoice"}, http.StatusBadRequest},
		{"tax slabs", http.MethodGet, "/api/v1/tax-slabs", nil, http.StatusOK},
		{"gstin", http.MethodGet, "/api/v1/gstin/27AAPFU0939F1ZV/validate", nil, http.StatusOK},
		{"health", http.MethodGet, "/health", nil, http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := srv.do(t, tt.method, tt.path, tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	var gstin services.GSTINValidation
	decode(t, srv.do(t, http.MethodGet, "/api/v1/gstin/27AAPFU0939F1ZX/validate", nil), &gstin)
	if gstin.Valid {
		t.Error("Expected invalid GSTIN")
	}
}

func TestDraftRoutes(t *testing.T) {
	srv := newTestServer(t, false)

	w := srv.do(t, http.MethodPost, "/api/v1/drafts", map[string]string{"type": "sale", "number": "INV-100", "party_name": "Sharma Traders"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	var draft services.DraftView
	decode(t, w, &draft)
	id := draft.Document.ID
	base := "/api/v1/drafts/" + id

	for field, value := range map[string]string{"item_name": "Rice", "quantity": "10", "unit_price": "100", "discount_percent": "10", "tax_percent": "18"} {
		w := srv.do(t, http.MethodPatch, base+"/rows/1", map[string]string{"field": field, "value": value})
		if w.Code != http.StatusOK {
			t.Fatalf("update %s status = %d: %s", field, w.Code, w.Body.String())
		}
	}

	w = srv.do(t, http.MethodPost, base+"/rows", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("add row status = %d: %s", w.Code, w.Body.String())
	}
	var change services.RowChange
	decode(t, w, &change)
	row := fmt.Sprintf("%s/rows/%d", base, change.Line.ID)
	for field, value := range map[string]string{"quantity": "5", "unit_price": "60", "tax_percent": "18"} {
		srv.do(t, http.MethodPatch, row, map[string]string{"field": field, "value": value})
	}

	if w := srv.do(t, http.MethodPut, base+"/round-off", map[string]interface{}{"enabled": true, "value": "-2"}); w.Code != http.StatusOK {
		t.Fatalf("round-off status = %d", w.Code)
	}
	if w := srv.do(t, http.MethodPatch, base+"/payments/1", map[string]string{"field": "amount", "value": "1000"}); w.Code != http.StatusOK {
		t.Fatalf("payment status = %d: %s", w.Code, w.Body.String())
	}

	var summary models.DocumentSummary
	decode(t, srv.do(t, http.MethodGet, base+"/summary", nil), &summary)
	if summary.Totals.GrandTotal != "1414.00" || summary.BalanceDue != "414.00" {
		t.Errorf("summary = %+v", summary.Totals)
	}

	errorCases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"unknown field", http.MethodPatch, base + "/rows/1", map[string]string{"field": "net_amount", "value": "1"}, http.StatusBadRequest},
		{"missing row", http.MethodPatch, base + "/rows/99", map[string]string{"field": "quantity", "value": "1"}, http.StatusNotFound},
		{"bad row id", http.MethodDelete, base + "/rows/abc", nil, http.StatusBadRequest},
		{"missing payment", http.MethodDelete, base + "/payments/42", nil, http.StatusNotFound},
		{"bad draft id", http.MethodGet, "/api/v1/drafts/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown draft", http.MethodGet, "/api/v1/drafts/3f1c1b9e-4e61-4c55-9d0f-9b1e4d0c2a11", nil, http.StatusNotFound},
		{"invalid type", http.MethodPost, "/api/v1/drafts", map[string]string{"type": "receipt"}, http.StatusBadRequest},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			if w := srv.do(t, tt.method, tt.path, tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	w = srv.do(t, http.MethodPost, base+"/finalize", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("finalize status = %d: %s", w.Code, w.Body.String())
	}
	var result services.FinalizeResult
	decode(t, w, &result)
	if result.Summary.Totals.GrandTotal != "1414.00" || result.HandoffKey == "" {
		t.Errorf("finalize result = %+v", result)
	}

	if w := srv.do(t, http.MethodGet, base, nil); w.Code != http.StatusNotFound {
		t.Errorf("draft after finalize status = %d, want 404", w.Code)
	}

	docPath := "/api/v1/documents/" + id
	var view services.DocumentView
	decode(t, srv.do(t, http.MethodGet, docPath, nil), &view)
	if view.StaleTotals || view.Summary.Totals.GrandTotal != "1414.00" {
		t.Errorf("document view = %+v", view.Summary.Totals)
	}

	var snapshot services.HandoffSnapshot
	decode(t, srv.do(t, http.MethodGet, docPath+"/handoff", nil), &snapshot)
	if len(snapshot.Lines) != 2 {
		t.Errorf("snapshot lines = %d, want 2", len(snapshot.Lines))
	}

	var list services.DocumentList
	decode(t, srv.do(t, http.MethodGet, "/api/v1/documents?type=sale", nil), &list)
	if list.Pagination.Total != 1 || len(list.Documents) != 1 {
		t.Errorf("list = %+v", list.Pagination)
	}
	if w := srv.do(t, http.MethodGet, "/api/v1/documents?type=bogus", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bogus type status = %d, want 400", w.Code)
	}

	// A second draft with the same number conflicts on finalize
	w = srv.do(t, http.MethodPost, "/api/v1/drafts", map[string]string{"type": "sale", "number": "INV-100"})
	decode(t, w, &draft)
	if w := srv.do(t, http.MethodPost, "/api/v1/drafts/"+draft.Document.ID+"/finalize", nil); w.Code != http.StatusConflict {
		t.Errorf("duplicate finalize status = %d, want 409: %s", w.Code, w.Body.String())
	}

	if w := srv.do(t, http.MethodDelete, docPath, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}
	if w := srv.do(t, http.MethodGet, docPath, nil); w.Code != http.StatusNotFound {
		t.Errorf("deleted document status = %d, want 404", w.Code)
	}
}

func TestPaymentsNotSupported(t *testing.T) {
	srv := newTestServer(t, false)

	var draft services.DraftView
	decode(t, srv.do(t, http.MethodPost, "/api/v1/drafts", map[string]string{"type": "estimate"}), &draft)

	if w := srv.do(t, http.MethodPost, "/api/v1/drafts/"+draft.Document.ID+"/payments", nil); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestAuthRoutes(t *testing.T) {
	srv := newTestServer(t, true)

	if w := srv.do(t, http.MethodGet, "/api/v1/auth/me", nil); w.Code != http.StatusOK {
		t.Errorf("me status = %d", w.Code)
	}
	if w := srv.do(t, http.MethodPost, "/api/v1/auth/refresh", map[string]string{"token": srv.token}); w.Code != http.StatusOK {
		t.Errorf("refresh status = %d", w.Code)
	}
	if w := srv.do(t, http.MethodPost, "/api/v1/drafts", map[string]string{"type": "sale"}); w.Code != http.StatusCreated {
		t.Errorf("authenticated create status = %d", w.Code)
	}

	srv.token = ""
	if w := srv.do(t, http.MethodPost, "/api/v1/drafts", map[string]string{"type": "sale"}); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create status = %d, want 401", w.Code)
	}
	if w := srv.do(t, http.MethodPost, "/api/v1/calculate/line", map[string]interface{}{"line": map[string]string{"quantity": "1"}}); w.Code != http.StatusOK {
		t.Errorf("anonymous calculate status = %d, want 200", w.Code)
	}
	if w := srv.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "owner", "password": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", w.Code)
	}
}

func TestLambdaCalculationHandlers(t *testing.T) {
	calculator, err := services.NewCalculatorService(config.DefaultBillingConfig(), nil)
	if err != nil {
		t.Fatalf("NewCalculatorService failed: %v", err)
	}
	h := NewCalculationHandler(calculator)
	ctx := context.Background()

	resp, err := h.HandleCalculateLine(ctx, &lambda.Request{
		Body: []byte(`{"document_type":"purchase_bill","line":{"quantity":"1","unit_price":"100","discount_amount":"5","tax_amount":"17.10"}}`),
	})
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("HandleCalculateLine = %v, %v", resp, err)
	}
	var line services.LineCalculation
	if err := json.Unmarshal(resp.Body, &line); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if line.NetAmount != "112.10" {
		t.Errorf("NetAmount = %s, want 112.10", line.NetAmount)
	}

	resp, _ = h.HandleCalculateDocument(ctx, &lambda.Request{Body: []byte(`{not json`)})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", resp.StatusCode)
	}

	resp, _ = h.HandleCalculateDocument(ctx, &lambda.Request{
		Body: []byte(`{"type":"estimate","lines":[{"quantity":"1","unit_price":"10"}],"payments":[{"amount":"5"}]}`),
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("estimate status = %d: %s", resp.StatusCode, resp.Body)
	}

	resp, _ = h.HandleGetTaxSlabs(ctx, &lambda.Request{})
	if resp.StatusCode != http.StatusOK || resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("tax slabs response = %+v", resp)
	}
}
