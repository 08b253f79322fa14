package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"billbook-api/internal/adapters/drafts"
	"billbook-api/internal/adapters/storage"
	"billbook-api/internal/config"
	"billbook-api/internal/metrics"
	"billbook-api/internal/models"
	"billbook-api/internal/repositories"
)

// documentService implements DocumentService. Each call loads the draft,
// mutates it synchronously and saves it back while holding the draft's lock.
type documentService struct {
	drafts    drafts.DraftStore
	repos     repositories.RepositoryManager
	files     storage.FileStorage
	billing   *config.BillingConfig
	locks     *keyedMutex
	validator *validator.Validate
	logger    *logrus.Logger
}

// NewDocumentService creates a new document service. files may be nil, in
// which case no hand-off snapshot is written.
func NewDocumentService(
	draftStore drafts.DraftStore,
	repos repositories.RepositoryManager,
	files storage.FileStorage,
	billing *config.BillingConfig,
	logger *logrus.Logger,
) DocumentService {
	if billing == nil {
		billing = config.DefaultBillingConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &documentService{
		drafts:    draftStore,
		repos:     repos,
		files:     files,
		billing:   billing,
		locks:     newKeyedMutex(),
		validator: validator.New(),
		logger:    logger,
	}
}

// withDraft runs fn on the draft under its lock and saves it when fn succeeds
func (s *documentService) withDraft(ctx context.Context, op, id string, fn func(doc *models.Document) error) (*models.Document, error) {
	if err := models.ValidateUUID(id, "id"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	doc, err := s.drafts.Get(ctx, id)
	if err != nil {
		metrics.DraftOperationsTotal.WithLabelValues(op, metrics.Result(err)).Inc()
		return nil, err
	}

	if err := fn(doc); err != nil {
		metrics.DraftOperationsTotal.WithLabelValues(op, metrics.Result(err)).Inc()
		return nil, err
	}

	err = s.drafts.Save(ctx, doc)
	metrics.DraftOperationsTotal.WithLabelValues(op, metrics.Result(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	return doc, nil
}

func view(doc *models.Document) *DraftView {
	return &DraftView{Document: doc, Summary: doc.Compute()}
}

func (s *documentService) checkGSTIN(gstin string) error {
	if !s.billing.EnforceGSTIN {
		return nil
	}
	if err := models.ValidateGSTINField(gstin, "party_gstin"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// CreateDraft starts a draft with one empty row and, where the type records
// payments, one empty payment entry
func (s *documentService) CreateDraft(ctx context.Context, req *CreateDraftRequest) (*DraftView, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: create draft request cannot be nil", ErrInvalidRequest)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if err := s.checkGSTIN(req.PartyGSTIN); err != nil {
		return nil, err
	}

	policy := s.billing.PolicyFor(req.Type)
	if req.Policy != nil {
		policy = req.Policy.Normalize()
	}

	doc := models.NewDocument(req.Type, policy)
	doc.SetHeader(req.Number, req.PartyName, req.PartyGSTIN, req.Notes, req.DocumentDate)
	if s.billing.DefaultRoundOff {
		doc.SetRoundOff(true, "0")
	}

	err := s.drafts.Save(ctx, doc)
	metrics.DraftOperationsTotal.WithLabelValues("create", metrics.Result(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"draft_id": doc.ID,
		"doc_type": doc.Type,
	}).Info("Draft created")

	return view(doc), nil
}

// GetDraft returns a draft with its computed summary
func (s *documentService) GetDraft(ctx context.Context, id string) (*DraftView, error) {
	if err := models.ValidateUUID(id, "id"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	doc, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return view(doc), nil
}

// DeleteDraft discards a draft
func (s *documentService) DeleteDraft(ctx context.Context, id string) error {
	if err := models.ValidateUUID(id, "id"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	err := s.drafts.Delete(ctx, id)
	metrics.DraftOperationsTotal.WithLabelValues("delete", metrics.Result(err)).Inc()
	return err
}

// UpdateHeader changes the descriptive fields of a draft
func (s *documentService) UpdateHeader(ctx context.Context, id string, req *UpdateHeaderRequest) (*DraftView, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: update header request cannot be nil", ErrInvalidRequest)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if req.PartyGSTIN != nil {
		if err := s.checkGSTIN(*req.PartyGSTIN); err != nil {
			return nil, err
		}
	}

	doc, err := s.withDraft(ctx, "update_header", id, func(doc *models.Document) error {
		number, party, gstin, notes := doc.Number, doc.PartyName, doc.PartyGSTIN, doc.Notes
		if req.Number != nil {
			number = *req.Number
		}
		if req.PartyName != nil {
			party = *req.PartyName
		}
		if req.PartyGSTIN != nil {
			gstin = *req.PartyGSTIN
		}
		if req.Notes != nil {
			notes = *req.Notes
		}
		doc.SetHeader(number, party, gstin, notes, req.DocumentDate)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view(doc), nil
}

// AddRow appends an empty row
func (s *documentService) AddRow(ctx context.Context, id string) (*RowChange, error) {
	var line *models.LineItem
	doc, err := s.withDraft(ctx, "add_row", id, func(doc *models.Document) error {
		added, err := doc.AddRow()
		line = added
		return err
	})
	if err != nil {
		return nil, err
	}
	return &RowChange{Line: line, Changed: true, Summary: doc.Compute()}, nil
}

// RemoveRow deletes a row. Removing the only row leaves the draft unchanged.
func (s *documentService) RemoveRow(ctx context.Context, id string, rowID int) (*RowChange, error) {
	var removed bool
	doc, err := s.withDraft(ctx, "remove_row", id, func(doc *models.Document) error {
		var err error
		removed, err = doc.RemoveRow(rowID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &RowChange{Changed: removed, Summary: doc.Compute()}, nil
}

// UpdateRow replaces one input of a row and recomputes the draft
func (s *documentService) UpdateRow(ctx context.Context, id string, rowID int, req *UpdateFieldRequest) (*RowChange, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: update row request cannot be nil", ErrInvalidRequest)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	var line *models.LineItem
	doc, err := s.withDraft(ctx, "update_row", id, func(doc *models.Document) error {
		updated, _, err := doc.UpdateRow(rowID, models.LineField(strings.ToLower(req.Field)), req.Value)
		line = updated
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.LineCalculationsTotal.WithLabelValues(string(doc.Policy.Discount), string(doc.Policy.Tax)).Inc()
	return &RowChange{Line: line, Changed: true, Summary: doc.Compute()}, nil
}

// SetRoundOff records the manual round-off adjustment
func (s *documentService) SetRoundOff(ctx context.Context, id string, req *SetRoundOffRequest) (*DraftView, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: round-off request cannot be nil", ErrInvalidRequest)
	}
	doc, err := s.withDraft(ctx, "set_round_off", id, func(doc *models.Document) error {
		doc.SetRoundOff(req.Enabled, req.Value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view(doc), nil
}

// AddPayment appends an empty payment entry
func (s *documentService) AddPayment(ctx context.Context, id string) (*DraftView, error) {
	doc, err := s.withDraft(ctx, "add_payment", id, func(doc *models.Document) error {
		_, err := doc.AddPayment()
		return err
	})
	if err != nil {
		return nil, err
	}
	return view(doc), nil
}

// RemovePayment deletes a payment entry. The last entry is kept.
func (s *documentService) RemovePayment(ctx context.Context, id string, paymentID int) (*DraftView, error) {
	doc, err := s.withDraft(ctx, "remove_payment", id, func(doc *models.Document) error {
		_, err := doc.RemovePayment(paymentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view(doc), nil
}

// UpdatePayment replaces one field of a payment entry
func (s *documentService) UpdatePayment(ctx context.Context, id string, paymentID int, req *UpdateFieldRequest) (*DraftView, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: update payment request cannot be nil", ErrInvalidRequest)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	doc, err := s.withDraft(ctx, "update_payment", id, func(doc *models.Document) error {
		_, err := doc.UpdatePayment(paymentID, models.PaymentField(strings.ToLower(req.Field)), req.Value)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view(doc), nil
}

// Summarize recomputes every figure of a draft
func (s *documentService) Summarize(ctx context.Context, id string) (*models.DocumentSummary, error) {
	draft, err := s.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	return draft.Summary, nil
}

// Finalize persists a draft and writes its hand-off snapshot in one
// transaction, then discards the draft
func (s *documentService) Finalize(ctx context.Context, id string) (*FinalizeResult, error) {
	if err := models.ValidateUUID(id, "id"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	doc, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := doc.Compute()
	result := &FinalizeResult{Document: doc, Summary: summary}

	err = s.repos.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repos.Documents().Create(ctx, doc); err != nil {
			return err
		}
		if s.files == nil {
			return nil
		}

		data, err := json.Marshal(NewHandoffSnapshot(doc, summary))
		if err != nil {
			return fmt.Errorf("failed to encode hand-off snapshot: %w", err)
		}

		key := storage.HandoffKey(doc.ID)
		if err := s.files.Store(ctx, key, data, &storage.StoreOptions{ContentType: "application/json", Overwrite: true}); err != nil {
			metrics.HandoffWriteFailuresTotal.Inc()
			return fmt.Errorf("failed to write hand-off snapshot: %w", err)
		}
		result.HandoffKey = key
		return nil
	})
	metrics.DraftOperationsTotal.WithLabelValues("finalize", metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}

	if err := s.drafts.Delete(ctx, id); err != nil && !errors.Is(err, drafts.ErrDraftNotFound) {
		s.logger.WithError(err).WithField("draft_id", id).Warn("Failed to discard finalized draft")
	}

	metrics.DocumentsFinalizedTotal.WithLabelValues(string(doc.Type)).Inc()
	s.logger.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"document":    doc.GetDisplayName(),
		"doc_type":    doc.Type,
		"grand_total": summary.Totals.GrandTotal,
	}).Info("Document finalized")

	return result, nil
}

// GetDocument loads a stored document. Stale stored totals are logged and
// reported on the view; the summary is always recomputed from the rows.
func (s *documentService) GetDocument(ctx context.Context, id string) (*DocumentView, error) {
	doc, err := s.repos.Documents().GetByID(ctx, id)
	stale := repositories.IsStaleTotals(err)
	if err != nil && !stale {
		return nil, err
	}

	if stale {
		metrics.StaleTotalsTotal.Inc()
		s.logger.WithError(err).WithField("document_id", id).Warn("Serving document with recomputed totals")
	}

	return &DocumentView{Document: doc, Summary: doc.Compute(), StaleTotals: stale}, nil
}

// ListDocuments returns a page of stored documents
func (s *documentService) ListDocuments(ctx context.Context, filters *models.DocumentFilters) (*DocumentList, error) {
	if filters == nil {
		filters = &models.DocumentFilters{}
	}
	if filters.Limit <= 0 {
		filters.Limit = 50
	}
	if filters.Limit > 1000 {
		filters.Limit = 1000
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	items, err := s.repos.Documents().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	total, err := s.repos.Documents().Count(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	if items == nil {
		items = []*models.DocumentListItem{}
	}

	return &DocumentList{
		Documents:  items,
		Pagination: models.NewPaginationResult(int(total), filters.Limit, filters.Offset),
	}, nil
}

// GetHandoff reads the hand-off snapshot of a finalized document
func (s *documentService) GetHandoff(ctx context.Context, id string) (*HandoffSnapshot, error) {
	if s.files == nil {
		return nil, ErrHandoffUnavailable
	}
	if err := models.ValidateUUID(id, "id"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	data, err := s.files.Retrieve(ctx, storage.HandoffKey(id))
	if err != nil {
		return nil, err
	}

	var snapshot HandoffSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode hand-off snapshot: %w", err)
	}
	return &snapshot, nil
}

// DeleteDocument deletes a stored document and its hand-off snapshot
func (s *documentService) DeleteDocument(ctx context.Context, id string) error {
	if err := s.repos.Documents().Delete(ctx, id); err != nil {
		return err
	}

	if s.files != nil {
		if err := s.files.Delete(ctx, storage.HandoffKey(id)); err != nil && !storage.IsNotFound(err) {
			s.logger.WithError(err).WithField("document_id", id).Warn("Failed to delete hand-off snapshot")
		}
	}

	s.logger.WithField("document_id", id).Info("Document deleted")
	return nil
}
