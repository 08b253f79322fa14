package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"billbook-api/internal/calc"
	"billbook-api/internal/models"
	"billbook-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

const documentColumns = `id, doc_type, doc_number, party_name, party_gstin, document_date,
	discount_mode, tax_mode, round_off, round_off_value, payments, notes,
	next_line_id, next_payment_id, created_at, updated_at`

var documentSortColumns = map[string]string{
	"document_date": "d.document_date",
	"created_at":    "d.created_at",
	"doc_number":    "d.doc_number",
	"party_name":    "d.party_name",
	"grand_total":   "CAST(d.grand_total AS REAL)",
}

// DocumentRepository implements repositories.DocumentRepository for SQLite
type DocumentRepository struct {
	*BaseRepository[models.Document]
	txm *SQLiteTransactionManager
}

// NewDocumentRepository creates a new SQLite document repository
func NewDocumentRepository(db *sql.DB, txm *SQLiteTransactionManager, logger *logrus.Logger) *DocumentRepository {
	if txm == nil {
		txm = NewSQLiteTransactionManager(db, logger)
	}
	return &DocumentRepository{
		BaseRepository: NewBaseRepository[models.Document](db, "documents", "document", logger),
		txm:            txm,
	}
}

// Create stores the document header, its rows and a snapshot of the totals in one transaction
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if err := doc.Validate(); err != nil {
		return repositories.ValidationError("document", doc.ID, err)
	}

	payments, err := json.Marshal(doc.Payments)
	if err != nil {
		return repositories.NewRepositoryError("create", "document", doc.ID, fmt.Errorf("failed to encode payments: %w", err))
	}

	policy := doc.Policy.Normalize()
	totals := doc.ComputeTotals()

	return r.txm.WithTransaction(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO documents (` + documentColumns + `,
				total_qty, total_discount, total_tax, total_amount, grand_total
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

		_, err := r.executeExec(ctx, "create", query,
			doc.ID,
			doc.Type,
			doc.Number,
			doc.PartyName,
			doc.PartyGSTIN,
			doc.DocumentDate,
			policy.Discount,
			policy.Tax,
			doc.RoundOff,
			doc.RoundOffValue,
			string(payments),
			doc.Notes,
			doc.NextLineID,
			doc.NextPaymentID,
			doc.CreatedAt,
			doc.UpdatedAt,
			calc.FormatQty(totals.TotalQty),
			calc.FormatMoney(totals.TotalDiscount),
			calc.FormatMoney(totals.TotalTax),
			calc.FormatMoney(totals.TotalAmount),
			calc.FormatMoney(totals.GrandTotal),
		)
		if err != nil {
			if isUniqueViolation(err) {
				if isPrimaryKeyViolation(err) {
					return repositories.DuplicateError("document", "id", doc.ID)
				}
				return repositories.DuplicateError("document", "number", doc.Number)
			}
			return err
		}

		lineQuery := `
			INSERT INTO document_lines (
				document_id, line_no, position, item_name, hsn_code, unit, quantity, unit_price,
				discount_percent, discount_amount, tax_percent, tax_amount, net_amount
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

		for i := range doc.Lines {
			line := &doc.Lines[i]
			result := line.Compute(policy)
			if _, err := r.executeExec(ctx, "create_line", lineQuery,
				doc.ID,
				line.ID,
				i,
				line.ItemName,
				line.HSNCode,
				line.Unit,
				line.Quantity,
				line.UnitPrice,
				line.DiscountPercent,
				line.DiscountAmount,
				line.TaxPercent,
				line.TaxAmount,
				calc.FormatMoney(result.NetAmount),
			); err != nil {
				return err
			}
		}

		return nil
	})
}

// GetByID loads a document and its rows, then checks the stored grand total
// against one recomputed from the rows
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := `SELECT ` + documentColumns + `, grand_total FROM documents WHERE id = ?`

	doc := &models.Document{}
	var payments, storedGrandTotal string
	err := r.executeQueryRow(ctx, "get_by_id", query, id).Scan(
		&doc.ID,
		&doc.Type,
		&doc.Number,
		&doc.PartyName,
		&doc.PartyGSTIN,
		&doc.DocumentDate,
		&doc.Policy.Discount,
		&doc.Policy.Tax,
		&doc.RoundOff,
		&doc.RoundOffValue,
		&payments,
		&doc.Notes,
		&doc.NextLineID,
		&doc.NextPaymentID,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&storedGrandTotal,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("document", id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", "document", id, err)
	}

	if payments != "" {
		if err := json.Unmarshal([]byte(payments), &doc.Payments); err != nil {
			return nil, repositories.NewRepositoryError("get_by_id", "document", id, fmt.Errorf("failed to decode payments: %w", err))
		}
	}

	lines, err := r.getLines(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines

	computed := calc.FormatMoney(doc.ComputeTotals().GrandTotal)
	if computed != storedGrandTotal {
		r.logger.WithFields(logrus.Fields{
			"document_id": id,
			"stored":      storedGrandTotal,
			"computed":    computed,
		}).Warn("Stored document totals are stale")
		return doc, repositories.StaleTotalsError("document", id, storedGrandTotal, computed)
	}

	return doc, nil
}

func (r *DocumentRepository) getLines(ctx context.Context, documentID string) ([]models.LineItem, error) {
	query := `
		SELECT line_no, item_name, hsn_code, unit, quantity, unit_price,
			   discount_percent, discount_amount, tax_percent, tax_amount
		FROM document_lines
		WHERE document_id = ?
		ORDER BY position`

	rows, err := r.executeQuery(ctx, "get_lines", query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.LineItem
	for rows.Next() {
		var line models.LineItem
		if err := rows.Scan(
			&line.ID,
			&line.ItemName,
			&line.HSNCode,
			&line.Unit,
			&line.Quantity,
			&line.UnitPrice,
			&line.DiscountPercent,
			&line.DiscountAmount,
			&line.TaxPercent,
			&line.TaxAmount,
		); err != nil {
			return nil, repositories.NewRepositoryError("get_lines", "document", documentID, err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("get_lines", "document", documentID, err)
	}

	return lines, nil
}

// Delete deletes a document and its rows
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	if err := r.validateID(id); err != nil {
		return err
	}

	return r.txm.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := r.executeExec(ctx, "delete_lines", "DELETE FROM document_lines WHERE document_id = ?", id); err != nil {
			return err
		}

		result, err := r.executeExec(ctx, "delete", "DELETE FROM documents WHERE id = ?", id)
		if err != nil {
			return err
		}
		return r.checkRowsAffected(result, "delete", id)
	})
}

// List returns document headers ordered by document date, newest first unless
// the filters ask otherwise
func (r *DocumentRepository) List(ctx context.Context, filters *models.DocumentFilters) ([]*models.DocumentListItem, error) {
	query := `
		SELECT d.id, d.doc_type, d.doc_number, d.party_name, d.document_date,
			   (SELECT COUNT(*) FROM document_lines l WHERE l.document_id = d.id),
			   d.total_amount, d.grand_total, d.created_at
		FROM documents d`

	whereClause, args := buildDocumentWhere(filters)
	query += whereClause
	query += buildDocumentOrder(filters)

	if filters != nil && filters.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filters.Limit, filters.Offset)
	}

	rows, err := r.executeQuery(ctx, "list", query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.DocumentListItem
	for rows.Next() {
		item := &models.DocumentListItem{}
		if err := rows.Scan(
			&item.ID,
			&item.Type,
			&item.Number,
			&item.PartyName,
			&item.DocumentDate,
			&item.LineCount,
			&item.TotalAmount,
			&item.GrandTotal,
			&item.CreatedAt,
		); err != nil {
			return nil, repositories.NewRepositoryError("list", "document", "", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("list", "document", "", err)
	}

	return items, nil
}

// Count returns the number of documents matching the filters
func (r *DocumentRepository) Count(ctx context.Context, filters *models.DocumentFilters) (int64, error) {
	whereClause, args := buildDocumentWhere(filters)

	var count int64
	err := r.executeQueryRow(ctx, "count", "SELECT COUNT(*) FROM documents d"+whereClause, args...).Scan(&count)
	if err != nil {
		return 0, repositories.NewRepositoryError("count", "document", "", err)
	}
	return count, nil
}

func buildDocumentWhere(filters *models.DocumentFilters) (string, []interface{}) {
	if filters == nil {
		return "", nil
	}

	var conditions []string
	var args []interface{}

	if filters.Type != "" {
		conditions = append(conditions, "d.doc_type = ?")
		args = append(args, filters.Type)
	}
	if filters.PartyName != "" {
		conditions = append(conditions, "d.party_name LIKE ?")
		args = append(args, "%"+filters.PartyName+"%")
	}
	if filters.StartDate != nil {
		conditions = append(conditions, "d.document_date >= ?")
		args = append(args, *filters.StartDate)
	}
	if filters.EndDate != nil {
		conditions = append(conditions, "d.document_date <= ?")
		args = append(args, *filters.EndDate)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func buildDocumentOrder(filters *models.DocumentFilters) string {
	column := documentSortColumns["document_date"]
	direction := "DESC"

	if filters != nil {
		if c, ok := documentSortColumns[filters.SortBy]; ok {
			column = c
		}
		if strings.EqualFold(filters.SortOrder, "asc") {
			direction = "ASC"
		}
	}

	return fmt.Sprintf(" ORDER BY %s %s, d.id", column, direction)
}

var _ repositories.DocumentRepository = (*DocumentRepository)(nil)
