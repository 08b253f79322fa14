package lambda

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"billbook-api/internal/config"
	"billbook-api/pkg/server"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Port:        "8080",
		LogLevel:    "warn",
		Database: config.DatabaseConfig{
			Path:           filepath.Join(t.TempDir(), "lambda.db"),
			MigrationsPath: filepath.Join("..", "..", "migrations"),
			MaxOpenConns:   1,
			MaxIdleConns:   1,
			AutoMigrate:    true,
		},
		Storage: config.StorageConfig{Type: "mock"},
		Drafts:  config.DraftsConfig{Type: "memory", TTL: time.Hour},
		Billing: *config.DefaultBillingConfig(),
	}
}

func TestConnectionManager_ReusesContainer(t *testing.T) {
	cm := NewConnectionManager(testConfig(t))
	ctx := context.Background()

	first, err := cm.GetContainer(ctx)
	if err != nil {
		t.Fatalf("GetContainer() error = %v", err)
	}
	second, err := cm.GetContainer(ctx)
	if err != nil {
		t.Fatalf("GetContainer() error = %v", err)
	}
	if first != second {
		t.Error("Expected the warm container to be reused")
	}
	if !cm.IsHealthy() {
		t.Error("Expected manager to be healthy")
	}

	if err := cm.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if cm.IsHealthy() {
		t.Error("Expected manager to be unhealthy after cleanup")
	}

	third, err := cm.GetContainer(ctx)
	if err != nil {
		t.Fatalf("GetContainer() after cleanup error = %v", err)
	}
	if third == first {
		t.Error("Expected a new container after cleanup")
	}
	cm.Cleanup()
}

func TestConnectionManager_InitError(t *testing.T) {
	cm := NewConnectionManager(testConfig(t))
	calls := 0
	cm.newContainer = func(*config.Config) (*server.Container, error) {
		calls++
		return nil, errors.New("boom")
	}

	for i := 0; i < 2; i++ {
		if _, err := cm.GetContainer(context.Background()); err == nil {
			t.Fatal("Expected error")
		}
	}
	if calls != 2 {
		t.Errorf("calls = %d, want a retry on each invocation", calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := cm.GetContainer(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAPIGatewayConversion(t *testing.T) {
	req := FromAPIGateway(events.APIGatewayProxyRequest{
		HTTPMethod:     http.MethodPost,
		Path:           "/api/v1/calculate/line",
		Body:           `{"line":{}}`,
		PathParameters: map[string]string{"id": "x"},
	})
	if req.Method != http.MethodPost || string(req.Body) != `{"line":{}}` || req.PathParams["id"] != "x" {
		t.Errorf("request = %+v", req)
	}

	resp := NotFound().ToAPIGateway()
	if resp.StatusCode != http.StatusNotFound || resp.Body == "" {
		t.Errorf("response = %+v", resp)
	}
}
