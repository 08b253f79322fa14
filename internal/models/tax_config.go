package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxConfig defines the interface for a tax regime the documents are issued under
type TaxConfig interface {
	GetTaxName() string
	GetCountryCode() string
	GetTaxSlabs() []TaxSlab
	IsStandardRate(percent string) bool
	ValidateBusinessNumber(businessNumber string) error
}

// TaxSlab is one selectable tax rate in the row editor
type TaxSlab struct {
	Code    string `json:"code"`
	Label   string `json:"label"`
	Percent string `json:"percent"`
}

// IndianGSTConfig implements TaxConfig for Indian GST.
// Rates follow the standard slab structure and GSTIN is the business identifier.
type IndianGSTConfig struct{}

// StandardTaxSlabs are the GST slabs offered on every document row
var StandardTaxSlabs = []TaxSlab{
	{Code: "none", Label: "None", Percent: "0"},
	{Code: "gst_0", Label: "GST 0%", Percent: "0"},
	{Code: "gst_5", Label: "GST 5%", Percent: "5"},
	{Code: "gst_12", Label: "GST 12%", Percent: "12"},
	{Code: "gst_18", Label: "GST 18%", Percent: "18"},
	{Code: "gst_28", Label: "GST 28%", Percent: "28"},
}

func (c *IndianGSTConfig) GetTaxName() string {
	return "GST"
}

func (c *IndianGSTConfig) GetCountryCode() string {
	return "IN"
}

func (c *IndianGSTConfig) GetTaxSlabs() []TaxSlab {
	slabs := make([]TaxSlab, len(StandardTaxSlabs))
	copy(slabs, StandardTaxSlabs)
	return slabs
}

// IsStandardRate reports whether percent matches one of the GST slabs.
// Rows may carry any rate; this is informational.
func (c *IndianGSTConfig) IsStandardRate(percent string) bool {
	return IsStandardTaxRate(percent)
}

// ValidateBusinessNumber validates a GSTIN
func (c *IndianGSTConfig) ValidateBusinessNumber(gstin string) error {
	if gstin == "" {
		return nil // GSTIN is optional for unregistered parties
	}
	return ValidateGSTIN(gstin)
}

// NewTaxConfig creates tax configuration based on country code
func NewTaxConfig(countryCode string) (TaxConfig, error) {
	switch strings.ToUpper(countryCode) {
	case "IN", "IND", "INDIA":
		return &IndianGSTConfig{}, nil
	default:
		return nil, fmt.Errorf("unsupported country code: %s", countryCode)
	}
}

// IsStandardTaxRate reports whether percent equals one of the standard slab rates
func IsStandardTaxRate(percent string) bool {
	cleaned := strings.TrimSuffix(strings.TrimSpace(percent), "%")
	value := decimal.Zero
	if cleaned != "" {
		parsed, err := decimal.NewFromString(cleaned)
		if err != nil {
			return false
		}
		value = parsed
	}
	for _, slab := range StandardTaxSlabs {
		if decimal.RequireFromString(slab.Percent).Equal(value) {
			return true
		}
	}
	return false
}

// GSTIN layout: state code, PAN (5 letters, 4 digits, 1 letter), entity number, 'Z', check character
var gstinRegex = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

const gstinCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ValidateGSTIN validates the format, state code and check character of a GSTIN
func ValidateGSTIN(gstin string) error {
	cleaned := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(gstin), " ", ""))

	if len(cleaned) != 15 {
		return errors.New("GSTIN must be 15 characters")
	}

	if !gstinRegex.MatchString(cleaned) {
		return errors.New("invalid GSTIN format")
	}

	state := int(cleaned[0]-'0')*10 + int(cleaned[1]-'0')
	if !isValidStateCode(state) {
		return fmt.Errorf("invalid GSTIN state code: %02d", state)
	}

	if gstinCheckChar(cleaned[:14]) != cleaned[14] {
		return errors.New("invalid GSTIN check character")
	}

	return nil
}

// IsValidGSTIN reports whether gstin passes ValidateGSTIN
func IsValidGSTIN(gstin string) bool {
	return ValidateGSTIN(gstin) == nil
}

func isValidStateCode(code int) bool {
	return (code >= 1 && code <= 38) || code == 97 || code == 99
}

// gstinCheckChar computes the mod-36 check character over the first 14 characters
func gstinCheckChar(body string) byte {
	sum := 0
	for i := 0; i < len(body); i++ {
		value := strings.IndexByte(gstinCharset, body[i])
		factor := 1
		if i%2 == 1 {
			factor = 2
		}
		product := value * factor
		sum += product/36 + product%36
	}
	return gstinCharset[(36-sum%36)%36]
}
