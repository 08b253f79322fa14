package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	r.GET("/ping", ok)
	r.POST("/ping", ok)
	r.GET("/drafts/:id", ok)
	r.GET("/drafts/:id/rows/:row", ok)
	return r
}

func perform(r http.Handler, method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthentication(t *testing.T) {
	auth := NewAuthService(&AuthConfig{JWTSecret: "test-secret", TokenDuration: time.Hour})
	other := NewAuthService(&AuthConfig{JWTSecret: "other-secret"})

	valid, err := auth.GenerateToken("u1", "admin", []string{string(RoleAdmin)})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	forged, err := other.GenerateToken("u1", "admin", []string{string(RoleAdmin)})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	r := newRouter(Authentication(auth))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := perform(r, http.MethodGet, "/ping", "", headers)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRefreshToken(t *testing.T) {
	auth := NewAuthService(&AuthConfig{JWTSecret: "test-secret"})

	token, err := auth.GenerateToken("u1", "operator", []string{string(RoleOperator)})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	refreshed, err := auth.RefreshToken(token)
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}

	claims, err := auth.ValidateToken(refreshed)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Username != "operator" || claims.Issuer != "billbook-api" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := auth.RefreshToken("bogus"); err == nil {
		t.Error("RefreshToken() expected error for invalid token")
	}
}

func TestAuthorization(t *testing.T) {
	auth := NewAuthService(&AuthConfig{JWTSecret: "test-secret"})
	admin, _ := auth.GenerateToken("u1", "admin", []string{string(RoleAdmin)})
	operator, _ := auth.GenerateToken("u2", "clerk", []string{string(RoleOperator)})

	r := newRouter(Authentication(auth), Authorization(string(RoleAdmin)))

	if w := perform(r, http.MethodGet, "/ping", "", map[string]string{"Authorization": "Bearer " + admin}); w.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", w.Code)
	}
	if w := perform(r, http.MethodGet, "/ping", "", map[string]string{"Authorization": "Bearer " + operator}); w.Code != http.StatusForbidden {
		t.Errorf("operator status = %d, want 403", w.Code)
	}
}

func TestOptionalAuthentication(t *testing.T) {
	auth := NewAuthService(&AuthConfig{JWTSecret: "test-secret"})
	token, _ := auth.GenerateToken("u1", "admin", []string{string(RoleAdmin)})

	var gotUser string
	var gotAdmin bool
	r := gin.New()
	r.Use(OptionalAuthentication(auth))
	r.GET("/ping", func(c *gin.Context) {
		_, gotUser, _, _ = GetUserFromContext(c)
		gotAdmin = IsAdmin(c)
		c.Status(http.StatusOK)
	})

	if w := perform(r, http.MethodGet, "/ping", "", nil); w.Code != http.StatusOK || gotUser != "" {
		t.Errorf("anonymous: status = %d, user = %q", w.Code, gotUser)
	}
	if w := perform(r, http.MethodGet, "/ping", "", map[string]string{"Authorization": "Bearer junk"}); w.Code != http.StatusOK {
		t.Errorf("invalid token should pass through, status = %d", w.Code)
	}
	perform(r, http.MethodGet, "/ping", "", map[string]string{"Authorization": "Bearer " + token})
	if gotUser != "admin" || !gotAdmin {
		t.Errorf("user = %q, admin = %v", gotUser, gotAdmin)
	}
}

func TestCORS(t *testing.T) {
	t.Run("allow all", func(t *testing.T) {
		r := newRouter(CORS())
		w := perform(r, http.MethodGet, "/ping", "", map[string]string{"Origin": "https://a.example"})
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Allow-Origin = %q, want *", got)
		}
	})

	t.Run("restricted", func(t *testing.T) {
		r := newRouter(CORS("https://a.example"))
		w := perform(r, http.MethodGet, "/ping", "", map[string]string{"Origin": "https://a.example"})
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://a.example" {
			t.Errorf("Allow-Origin = %q", got)
		}
		w = perform(r, http.MethodGet, "/ping", "", map[string]string{"Origin": "https://b.example"})
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS())
		r.OPTIONS("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
		w := perform(r, http.MethodOptions, "/ping", "", nil)
		if w.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", w.Code)
		}
	})
}

func TestRequestID(t *testing.T) {
	r := newRouter(RequestID())

	w := perform(r, http.MethodGet, "/ping", "", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID")
	}

	w = perform(r, http.MethodGet, "/ping", "", map[string]string{"X-Request-ID": "abc"})
	if got := w.Header().Get("X-Request-ID"); got != "abc" {
		t.Errorf("X-Request-ID = %q, want abc", got)
	}
}

func TestRequestValidation(t *testing.T) {
	r := newRouter(RequestValidation())
	id := "3f1c1b9e-4e61-4c55-9d0f-9b1e4d0c2a11"

	tests := []struct {
		path string
		want int
	}{
		{"/ping?limit=10&offset=5", http.StatusOK},
		{"/ping?limit=abc", http.StatusBadRequest},
		{"/ping?limit=5000", http.StatusBadRequest},
		{"/ping?offset=-1", http.StatusBadRequest},
		{"/ping?start_date=2024-04-01T00:00:00Z", http.StatusOK},
		{"/ping?start_date=yesterday", http.StatusBadRequest},
		{"/ping?sort_order=DESC", http.StatusOK},
		{"/ping?sort_order=sideways", http.StatusBadRequest},
		{"/drafts/" + id, http.StatusOK},
		{"/drafts/not-a-uuid", http.StatusBadRequest},
		{"/drafts/" + id + "/rows/2", http.StatusOK},
		{"/drafts/" + id + "/rows/0", http.StatusBadRequest},
		{"/drafts/" + id + "/rows/x", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if w := perform(r, http.MethodGet, tt.path, "", nil); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	r := newRouter(RateLimiter(1, 2))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, perform(r, http.MethodGet, "/ping", "", nil).Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", w.Code)
	}
}

func TestContentTypeValidation(t *testing.T) {
	r := newRouter(ContentTypeValidation())

	if w := perform(r, http.MethodPost, "/ping", `{"a":1}`, map[string]string{"Content-Type": "application/json; charset=utf-8"}); w.Code != http.StatusOK {
		t.Errorf("json status = %d, want 200", w.Code)
	}
	if w := perform(r, http.MethodPost, "/ping", "a=1", map[string]string{"Content-Type": "text/plain"}); w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("text status = %d, want 415", w.Code)
	}
}

func TestRequestSizeLimit(t *testing.T) {
	r := newRouter(RequestSizeLimit(8))

	if w := perform(r, http.MethodPost, "/ping", "tiny", nil); w.Code != http.StatusOK {
		t.Errorf("small body status = %d, want 200", w.Code)
	}
	if w := perform(r, http.MethodPost, "/ping", strings.Repeat("x", 64), nil); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("large body status = %d, want 413", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := perform(newRouter(SecurityHeaders()), http.MethodGet, "/ping", "", nil)
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	r := newRouter(Metrics())
	if w := perform(r, http.MethodGet, "/drafts/3f1c1b9e-4e61-4c55-9d0f-9b1e4d0c2a11", "", nil); w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if w := perform(r, http.MethodGet, "/missing", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestAuditHelpers(t *testing.T) {
	tests := []struct {
		method, path     string
		op, resource, id string
	}{
		{"POST", "/api/v1/drafts", "CREATE", "draft", ""},
		{"PATCH", "/api/v1/drafts/3f1c1b9e-4e61-4c55-9d0f-9b1e4d0c2a11/rows/1", "UPDATE", "draft_row", "3f1c1b9e-4e61-4c55-9d0f-9b1e4d0c2a11"},
		{"POST", "/api/v1/drafts/3f1c1b9e-4e61-4c55-9d0f-9b1e4d0c2a11/finalize", "FINALIZE", "draft", "3f1c1b9e-4e61-4c55-9d0f-9b1e4d0c2a11"},
		{"DELETE", "/api/v1/documents/3f1c1b9e-4e61-4c55-9d0f-9b1e4d0c2a11", "DELETE", "document", "3f1c1b9e-4e61-4c55-9d0f-9b1e4d0c2a11"},
		{"POST", "/api/v1/calculate/line", "CREATE", "calculation", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := auditOperation(tt.method, tt.path); got != tt.op {
				t.Errorf("auditOperation() = %q, want %q", got, tt.op)
			}
			if got := resourceType(tt.path); got != tt.resource {
				t.Errorf("resourceType() = %q, want %q", got, tt.resource)
			}
			if got := extractResourceID(tt.path); got != tt.id {
				t.Errorf("extractResourceID() = %q, want %q", got, tt.id)
			}
		})
	}
}
