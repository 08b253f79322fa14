package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"billbook-api/internal/calc"
	"billbook-api/internal/config"
	"billbook-api/internal/metrics"
	"billbook-api/internal/models"
)

// calculatorService implements CalculatorService. It holds no state beyond
// configuration and is safe for concurrent use.
type calculatorService struct {
	billing   *config.BillingConfig
	taxConfig models.TaxConfig
	validator *validator.Validate
	logger    *logrus.Logger
}

// NewCalculatorService creates a calculator service for the given billing configuration
func NewCalculatorService(billing *config.BillingConfig, logger *logrus.Logger) (CalculatorService, error) {
	if billing == nil {
		billing = config.DefaultBillingConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}

	taxConfig, err := billing.TaxConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create tax config for country %s: %w", billing.CountryCode, err)
	}

	return &calculatorService{
		billing:   billing,
		taxConfig: taxConfig,
		validator: validator.New(),
		logger:    logger,
	}, nil
}

// PolicyFor returns the configured policy for a document type
func (s *calculatorService) PolicyFor(docType models.DocumentType) calc.Policy {
	return s.billing.PolicyFor(docType)
}

func (s *calculatorService) resolvePolicy(docType models.DocumentType, override *calc.Policy) calc.Policy {
	if override != nil {
		return override.Normalize()
	}
	return s.PolicyFor(docType)
}

// CalculateLine computes one row. Unparseable numbers count as zero; the
// request is only rejected for structural problems.
func (s *calculatorService) CalculateLine(ctx context.Context, req *CalculateLineRequest) (*LineCalculation, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: calculate line request cannot be nil", ErrInvalidRequest)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	policy := s.resolvePolicy(req.DocumentType, req.Policy)

	line := models.LineItem{
		ID:              1,
		Quantity:        req.Line.Quantity,
		UnitPrice:       req.Line.UnitPrice,
		DiscountPercent: req.Line.DiscountPercent,
		DiscountAmount:  req.Line.DiscountAmount,
		TaxPercent:      req.Line.TaxPercent,
		TaxAmount:       req.Line.TaxAmount,
	}
	result := line.Reconcile(policy)

	metrics.LineCalculationsTotal.WithLabelValues(string(policy.Discount), string(policy.Tax)).Inc()

	return &LineCalculation{
		Policy:         policy,
		Input:          line.Input(),
		Subtotal:       calc.FormatMoney(result.Subtotal),
		DiscountAmount: calc.FormatMoney(result.ResolvedDiscountAmount),
		TaxableAmount:  calc.FormatMoney(result.TaxableAmount),
		TaxAmount:      calc.FormatMoney(result.ResolvedTaxAmount),
		NetAmount:      calc.FormatMoney(result.NetAmount),
		StandardRate:   policy.Tax == calc.ModeAmount || s.taxConfig.IsStandardRate(line.TaxPercent),
	}, nil
}

// CalculateDocument computes the totals of a complete set of rows
func (s *calculatorService) CalculateDocument(ctx context.Context, req *CalculateDocumentRequest) (*models.DocumentSummary, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: calculate document request cannot be nil", ErrInvalidRequest)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	doc := &models.Document{
		Type:          req.Type,
		Policy:        s.resolvePolicy(req.Type, req.Policy),
		RoundOff:      req.RoundOff,
		RoundOffValue: req.RoundOffValue,
		Lines:         make([]models.LineItem, len(req.Lines)),
	}

	for i, in := range req.Lines {
		doc.Lines[i] = models.LineItem{
			ID:              i + 1,
			Quantity:        in.Quantity,
			UnitPrice:       in.UnitPrice,
			DiscountPercent: in.DiscountPercent,
			DiscountAmount:  in.DiscountAmount,
			TaxPercent:      in.TaxPercent,
			TaxAmount:       in.TaxAmount,
		}
	}

	if req.Type.HasPayments() {
		for i, p := range req.Payments {
			doc.Payments = append(doc.Payments, models.Payment{
				ID:          i + 1,
				Type:        models.PaymentType(strings.ToLower(strings.TrimSpace(p.Type))),
				Amount:      p.Amount,
				ReferenceNo: p.ReferenceNo,
			})
		}
	}

	summary := doc.Compute()

	metrics.DocumentCalculationsTotal.WithLabelValues(string(req.Type)).Inc()
	metrics.DocumentLines.Observe(float64(len(req.Lines)))

	s.logger.WithFields(logrus.Fields{
		"doc_type":    req.Type,
		"lines":       len(req.Lines),
		"grand_total": summary.Totals.GrandTotal,
	}).Debug("Calculated document totals")

	return summary, nil
}

// GetTaxSlabs returns the selectable tax rates
func (s *calculatorService) GetTaxSlabs(ctx context.Context) *TaxSlabsResponse {
	return &TaxSlabsResponse{
		TaxName:     s.taxConfig.GetTaxName(),
		CountryCode: s.taxConfig.GetCountryCode(),
		Slabs:       s.taxConfig.GetTaxSlabs(),
	}
}

// ValidateGSTIN checks a GSTIN and splits out its state code and PAN
func (s *calculatorService) ValidateGSTIN(ctx context.Context, gstin string) *GSTINValidation {
	normalized := strings.ToUpper(strings.TrimSpace(gstin))
	result := &GSTINValidation{GSTIN: normalized}

	if err := s.taxConfig.ValidateBusinessNumber(normalized); err != nil || normalized == "" {
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Error = "GSTIN is empty"
		}
		return result
	}

	result.Valid = true
	result.StateCode = normalized[:2]
	result.PAN = normalized[2:12]
	return result
}
