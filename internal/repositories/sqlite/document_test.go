package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"billbook-api/internal/calc"
	"billbook-api/internal/models"
	"billbook-api/internal/repositories"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "000001_create_documents.up.sql"))
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db
}

func newTestRepo(t *testing.T) (*DocumentRepository, *sql.DB) {
	db := setupTestDB(t)
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return NewDocumentRepository(db, nil, logger), db
}

func sampleDocument(t *testing.T) *models.Document {
	t.Helper()

	doc := models.NewDocument(models.DocumentTypeSale, calc.PercentAuthoritative)
	doc.SetHeader("INV-001", "Sharma Traders", "27AAPFU0939F1ZV", "", nil)

	first := doc.Lines[0].ID
	for field, value := range map[models.LineField]string{
		models.LineFieldItemName:        "Steel rod",
		models.LineFieldQuantity:        "10",
		models.LineFieldUnitPrice:       "100",
		models.LineFieldDiscountPercent: "10",
		models.LineFieldTaxPercent:      "18",
	} {
		if _, _, err := doc.UpdateRow(first, field, value); err != nil {
			t.Fatalf("UpdateRow failed: %v", err)
		}
	}

	second, _ := doc.AddRow()
	_, _, _ = doc.UpdateRow(second.ID, models.LineFieldQuantity, "5")
	_, _, _ = doc.UpdateRow(second.ID, models.LineFieldUnitPrice, "60")
	_, _, _ = doc.UpdateRow(second.ID, models.LineFieldTaxPercent, "18")

	doc.SetRoundOff(true, "-2")
	_, _ = doc.UpdatePayment(doc.Payments[0].ID, models.PaymentFieldAmount, "1000")
	return doc
}

func TestDocumentRepository_CreateAndGet(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	doc := sampleDocument(t)

	if err := repo.Create(ctx, doc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	loaded, err := repo.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if loaded.Number != "INV-001" || loaded.PartyGSTIN != "27AAPFU0939F1ZV" {
		t.Errorf("Header mismatch: %+v", loaded)
	}
	if len(loaded.Lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(loaded.Lines))
	}
	if loaded.Lines[0].ItemName != "Steel rod" || loaded.Lines[1].ID != 2 {
		t.Errorf("Lines not restored in order: %+v", loaded.Lines)
	}
	if len(loaded.Payments) != 1 || loaded.Payments[0].Amount != "1000" {
		t.Errorf("Payments not restored: %+v", loaded.Payments)
	}
	if loaded.Policy != calc.PercentAuthoritative {
		t.Errorf("Policy not restored: %+v", loaded.Policy)
	}

	summary := loaded.Compute()
	if summary.Totals.GrandTotal != "1414.00" {
		t.Errorf("Expected grand total 1414.00, got %s", summary.Totals.GrandTotal)
	}
	if loaded.NextLineID != doc.NextLineID {
		t.Errorf("Expected NextLineID %d, got %d", doc.NextLineID, loaded.NextLineID)
	}
}

func TestDocumentRepository_Duplicate(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	doc := sampleDocument(t)
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	other := sampleDocument(t)
	err := repo.Create(ctx, other)
	if !repositories.IsDuplicate(err) {
		t.Fatalf("Expected duplicate number error, got %v", err)
	}

	// The failed insert must not leave rows behind
	exists, _ := repo.Exists(ctx, other.ID)
	if exists {
		t.Error("Expected failed create to be rolled back")
	}
}

func TestDocumentRepository_DuplicateID(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	doc := sampleDocument(t)
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	other := sampleDocument(t)
	other.ID = doc.ID
	other.Number = "INV-002"
	err := repo.Create(ctx, other)
	if !repositories.IsDuplicate(err) {
		t.Fatalf("Expected duplicate id error, got %v", err)
	}
	if !strings.Contains(err.Error(), "with id") {
		t.Errorf("Expected the conflict to name the id, got %q", err.Error())
	}
}

func TestConstraintClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		unique     bool
		primaryKey bool
	}{
		{
			name:   "unique index",
			err:    sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique},
			unique: true,
		},
		{
			name:       "primary key",
			err:        sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey},
			unique:     true,
			primaryKey: true,
		},
		{
			name: "foreign key",
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey},
		},
		{
			name: "message only",
			err:  errors.New("UNIQUE constraint failed: documents.id"),
		},
		{
			name: "nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.unique {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.unique)
			}
			if got := isPrimaryKeyViolation(tt.err); got != tt.primaryKey {
				t.Errorf("isPrimaryKeyViolation() = %v, want %v", got, tt.primaryKey)
			}
		})
	}
}

func TestDocumentRepository_Validation(t *testing.T) {
	repo, _ := newTestRepo(t)
	doc := sampleDocument(t)
	doc.PartyGSTIN = "27AAPFU0939F1ZX"

	err := repo.Create(context.Background(), doc)
	if !repositories.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestDocumentRepository_StaleTotals(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	doc := sampleDocument(t)

	if err := repo.Create(ctx, doc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := db.Exec("UPDATE document_lines SET quantity = '11' WHERE document_id = ? AND line_no = 1", doc.ID); err != nil {
		t.Fatalf("Failed to tamper with row: %v", err)
	}

	loaded, err := repo.GetByID(ctx, doc.ID)
	if !repositories.IsStaleTotals(err) {
		t.Fatalf("Expected stale totals error, got %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected document to be returned alongside stale totals error")
	}
}

func TestDocumentRepository_Delete(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	doc := sampleDocument(t)

	_ = repo.Create(ctx, doc)
	if err := repo.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var lines int
	_ = db.QueryRow("SELECT COUNT(*) FROM document_lines WHERE document_id = ?", doc.ID).Scan(&lines)
	if lines != 0 {
		t.Errorf("Expected lines to be deleted, %d remain", lines)
	}

	if _, err := repo.GetByID(ctx, doc.ID); !repositories.IsNotFound(err) {
		t.Errorf("Expected not found after delete, got %v", err)
	}
	if err := repo.Delete(ctx, doc.ID); !repositories.IsNotFound(err) {
		t.Errorf("Expected not found on second delete, got %v", err)
	}
}

func TestDocumentRepository_ListAndCount(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	for i, docType := range []models.DocumentType{models.DocumentTypeSale, models.DocumentTypeSale, models.DocumentTypeExpense} {
		doc := models.NewDocument(docType, calc.PercentAuthoritative)
		date := base.AddDate(0, 0, i)
		doc.SetHeader("", []string{"Alpha Stores", "Beta Mart", "Alpha Fuels"}[i], "", "", &date)
		if err := repo.Create(ctx, doc); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	all, err := repo.List(ctx, nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 documents, got %d", len(all))
	}
	if all[0].PartyName != "Alpha Fuels" {
		t.Errorf("Expected newest first, got %s", all[0].PartyName)
	}
	if all[0].LineCount != 1 {
		t.Errorf("Expected line count 1, got %d", all[0].LineCount)
	}

	sales, _ := repo.List(ctx, &models.DocumentFilters{Type: models.DocumentTypeSale, SortBy: "document_date", SortOrder: "asc"})
	if len(sales) != 2 || sales[0].PartyName != "Alpha Stores" {
		t.Errorf("Unexpected sale listing: %+v", sales)
	}

	count, err := repo.Count(ctx, &models.DocumentFilters{PartyName: "Alpha"})
	if err != nil || count != 2 {
		t.Errorf("Count(Alpha) = %d, %v; want 2", count, err)
	}

	page, _ := repo.List(ctx, &models.DocumentFilters{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].PartyName != "Beta Mart" {
		t.Errorf("Unexpected page: %+v", page)
	}
}

func TestSQLiteTransactionManager_Rollback(t *testing.T) {
	db := setupTestDB(t)
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	manager := NewSQLiteRepositoryManager(db, logger)
	ctx := context.Background()

	doc := sampleDocument(t)
	sentinel := errors.New("abort")

	err := manager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := manager.Documents().Create(ctx, doc); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected sentinel error, got %v", err)
	}

	exists, _ := manager.Documents().Exists(ctx, doc.ID)
	if exists {
		t.Error("Expected document creation to be rolled back")
	}

	if err := manager.Health(ctx); err != nil {
		t.Errorf("Health failed: %v", err)
	}
}
