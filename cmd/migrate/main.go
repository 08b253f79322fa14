package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"billbook-api/internal/config"
	"billbook-api/internal/database"

	"github.com/sirupsen/logrus"
)

func main() {
	defaults := config.DefaultDatabaseConfig()

	var (
		dbPath         = flag.String("db", config.GetEnv("DB_PATH", defaults.Path), "Database file path")
		migrationsPath = flag.String("migrations", config.GetEnv("DB_MIGRATIONS_PATH", defaults.MigrationsPath), "Migrations directory path")
		action         = flag.String("action", "up", "Migration action: up, down, status, validate")
		verbose        = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	absDBPath, err := filepath.Abs(*dbPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to get absolute database path")
	}

	absMigrationsPath, err := filepath.Abs(*migrationsPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to get absolute migrations path")
	}

	logger.WithFields(logrus.Fields{
		"db_path":         absDBPath,
		"migrations_path": absMigrationsPath,
		"action":          *action,
	}).Info("Starting migration tool")

	cm := database.NewConnectionManager(&database.ConnectionConfig{
		DatabasePath:   absDBPath,
		MigrationsPath: absMigrationsPath,
		BusyTimeout:    5 * time.Second,
		Logger:         logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := cm.Connect(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer cm.Close()

	migrations := cm.GetMigrationManager()

	switch *action {
	case "up":
		err = migrations.RunMigrations()
	case "down":
		err = migrations.RollbackMigration()
	case "status":
		err = showMigrationStatus(migrations)
	case "validate":
		if err = migrations.ValidateSchema(); err == nil {
			fmt.Println("Schema validation passed successfully")
		}
	default:
		logger.WithField("action", *action).Fatal("Unknown action. Use: up, down, status, validate")
	}

	if err != nil {
		logger.WithError(err).WithField("action", *action).Fatal("Migration tool failed")
	}

	logger.Info("Migration tool completed successfully")
}

func showMigrationStatus(migrations *database.MigrationManager) error {
	status, err := migrations.GetMigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	fmt.Printf("Migration Status:\n")
	fmt.Printf("  Version: %d\n", status.Version)
	fmt.Printf("  Applied: %t\n", status.Applied)
	fmt.Printf("  Dirty: %t\n", status.Dirty)
	fmt.Printf("  Timestamp: %s\n", status.Timestamp.Format("2006-01-02 15:04:05"))

	return nil
}
