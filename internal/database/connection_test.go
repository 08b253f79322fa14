package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestConfig(t *testing.T) *ConnectionConfig {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	return &ConnectionConfig{
		DatabasePath:    filepath.Join(t.TempDir(), "billbook.db"),
		MigrationsPath:  filepath.Join("..", "..", "migrations"),
		AutoMigrate:     true,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		BusyTimeout:     time.Second,
		Logger:          logger,
	}
}

func TestConnectionManager_ConnectAndMigrate(t *testing.T) {
	ctx := context.Background()
	cm := NewConnectionManager(newTestConfig(t))

	if cm.GetDB() != nil {
		t.Fatal("GetDB() should return nil before Connect")
	}
	if err := cm.Ping(ctx); err == nil {
		t.Error("Ping should fail before Connect")
	}

	if err := cm.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer cm.Close()

	if err := cm.Connect(ctx); err == nil {
		t.Error("Second Connect should fail")
	}

	if err := cm.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}

	mm := cm.GetMigrationManager()
	if err := mm.ValidateSchema(); err != nil {
		t.Errorf("ValidateSchema failed: %v", err)
	}

	status, err := mm.GetMigrationStatus()
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if status.Version != 1 || status.Dirty || !status.Applied {
		t.Errorf("Unexpected migration status: %+v", status)
	}

	// Running again is a no-op
	if err := mm.RunMigrations(); err != nil {
		t.Errorf("Repeated RunMigrations failed: %v", err)
	}
}

func TestMigrationManager_Rollback(t *testing.T) {
	ctx := context.Background()
	cm := NewConnectionManager(newTestConfig(t))
	if err := cm.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer cm.Close()

	mm := cm.GetMigrationManager()
	if err := mm.RollbackMigration(); err != nil {
		t.Fatalf("RollbackMigration failed: %v", err)
	}

	if err := mm.ValidateSchema(); err == nil {
		t.Error("Expected schema validation to fail after rollback")
	}

	if err := mm.RollbackMigration(); err == nil {
		t.Error("Expected rollback with nothing applied to fail")
	}
}

func TestConnectionManager_WithoutMigrations(t *testing.T) {
	ctx := context.Background()
	config := newTestConfig(t)
	config.AutoMigrate = false

	cm := NewConnectionManager(config)
	if err := cm.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := cm.GetMigrationManager().ValidateSchema(); err == nil {
		t.Error("Expected missing tables without migrations")
	}

	if err := cm.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := cm.Close(); err != nil {
		t.Errorf("Close should be idempotent, got %v", err)
	}
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    string
	}{
		{"no timeout", 0, "/tmp/a.db?_foreign_keys=on&_journal_mode=WAL"},
		{"with timeout", 2 * time.Second, "/tmp/a.db?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=2000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildDSN("/tmp/a.db", tt.timeout); got != tt.want {
				t.Errorf("buildDSN() = %s, want %s", got, tt.want)
			}
		})
	}
}
