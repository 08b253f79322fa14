package config

import (
	"fmt"
	"os"
	"strings"

	"billbook-api/internal/calc"
	"billbook-api/internal/models"
)

// BillingConfig holds the calculation settings for each document type
type BillingConfig struct {
	CountryCode     string
	Policies        map[models.DocumentType]calc.Policy
	EnforceGSTIN    bool
	DefaultRoundOff bool
}

// defaultPolicies: sales-side documents derive discount and tax from
// percentages, purchase bills and expenses copy the supplier's amounts.
var defaultPolicies = map[models.DocumentType]calc.Policy{
	models.DocumentTypeSale:            calc.PercentAuthoritative,
	models.DocumentTypeEstimate:        calc.PercentAuthoritative,
	models.DocumentTypeDeliveryChallan: calc.PercentAuthoritative,
	models.DocumentTypePurchaseOrder:   calc.PercentAuthoritative,
	models.DocumentTypePurchaseBill:    calc.AmountAuthoritative,
	models.DocumentTypeExpense:         calc.AmountAuthoritative,
}

// DefaultBillingConfig returns the built-in billing configuration
func DefaultBillingConfig() *BillingConfig {
	policies := make(map[models.DocumentType]calc.Policy, len(defaultPolicies))
	for docType, policy := range defaultPolicies {
		policies[docType] = policy
	}
	return &BillingConfig{
		CountryCode:  "IN",
		Policies:     policies,
		EnforceGSTIN: true,
	}
}

// LoadBillingConfig loads billing configuration from environment variables.
// POLICY_<TYPE> accepts "percent", "amount" or "<discount>,<tax>".
func LoadBillingConfig() (*BillingConfig, error) {
	config := DefaultBillingConfig()
	config.CountryCode = GetEnv("TAX_COUNTRY_CODE", config.CountryCode)
	config.EnforceGSTIN = GetEnvAsBool("BILLING_ENFORCE_GSTIN", config.EnforceGSTIN)
	config.DefaultRoundOff = GetEnvAsBool("BILLING_DEFAULT_ROUND_OFF", config.DefaultRoundOff)

	for _, docType := range models.AllDocumentTypes {
		key := "POLICY_" + strings.ToUpper(string(docType))
		value := os.Getenv(key)
		if value == "" {
			continue
		}
		policy, err := ParsePolicy(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		config.Policies[docType] = policy
	}

	return config, nil
}

// ParsePolicy parses "percent", "amount" or "<discount>,<tax>"
func ParsePolicy(value string) (calc.Policy, error) {
	parts := strings.Split(value, ",")
	modes := make([]calc.Mode, 0, 2)
	for _, part := range parts {
		mode := calc.Mode(strings.ToLower(strings.TrimSpace(part)))
		if !mode.IsValid() {
			return calc.Policy{}, fmt.Errorf("unknown mode %q", part)
		}
		modes = append(modes, mode)
	}

	switch len(modes) {
	case 1:
		return calc.Policy{Discount: modes[0], Tax: modes[0]}, nil
	case 2:
		return calc.Policy{Discount: modes[0], Tax: modes[1]}, nil
	default:
		return calc.Policy{}, fmt.Errorf("expected one or two modes, got %d", len(modes))
	}
}

// PolicyFor returns the configured policy for a document type
func (c *BillingConfig) PolicyFor(docType models.DocumentType) calc.Policy {
	if policy, ok := c.Policies[docType]; ok {
		return policy.Normalize()
	}
	return calc.PercentAuthoritative
}

// TaxConfig returns the tax configuration for the configured country
func (c *BillingConfig) TaxConfig() (models.TaxConfig, error) {
	return models.NewTaxConfig(c.CountryCode)
}

// Validate validates the billing configuration
func (c *BillingConfig) Validate() error {
	if c.CountryCode == "" {
		return fmt.Errorf("country code cannot be empty")
	}
	if _, err := c.TaxConfig(); err != nil {
		return fmt.Errorf("unsupported country code %s: %w", c.CountryCode, err)
	}
	for docType, policy := range c.Policies {
		if !docType.IsValid() {
			return fmt.Errorf("policy configured for unknown document type %s", docType)
		}
		if !policy.Discount.IsValid() || !policy.Tax.IsValid() {
			return fmt.Errorf("invalid policy for %s", docType)
		}
	}
	return nil
}
