// Package analysis turns unreliable model output into trusted, typed
// records: receipt extraction, expense classification and savings insights,
// all behind a shared retry policy and a single coercion boundary.
package analysis

import (
	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/category"
	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/model"
)

// ReceiptItem is a single line item extracted from a receipt. It has no
// identity of its own and is owned by its parent receipt.
type ReceiptItem struct {
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	UnitPrice   *float64 `json:"unitPrice,omitempty"`
	TotalPrice  float64  `json:"totalPrice"`
}

// Receipt is the validated result of extracting a single receipt image.
type Receipt struct {
	VendorName      string        `json:"vendorName"`
	TransactionDate string        `json:"transactionDate"` // YYYY-MM-DD
	Items           []ReceiptItem `json:"items"`
	Subtotal        *float64      `json:"subtotal,omitempty"`
	TaxAmount       *float64      `json:"taxAmount,omitempty"`
	TotalAmount     float64       `json:"totalAmount"`
	Currency        string        `json:"currency"`
	PaymentMethod   string        `json:"paymentMethod,omitempty"`
}

// SavingsInsightItem is one observation/suggestion pair for a category. The
// potential saving is deliberately a qualitative string, not a currency
// amount, to avoid false precision.
type SavingsInsightItem struct {
	Category        category.Category `json:"category"`
	Observation     string            `json:"observation"`
	Suggestion      string            `json:"suggestion"`
	PotentialSaving string            `json:"potentialSaving"`
}

// SavingsInsight is the full analysis result. It is recomputed on demand and
// never persisted.
type SavingsInsight struct {
	Insights       []SavingsInsightItem `json:"insights"`
	OverallSummary string               `json:"overallSummary"`
}

// Analyzer runs the extraction, classification and insight operations
// against a model client.
type Analyzer struct {
	client           model.Client
	policy           RetryPolicy
	fallbackCurrency string
}

// NewAnalyzer creates an Analyzer with the default retry policy.
func NewAnalyzer(client model.Client, fallbackCurrency string) *Analyzer {
	return NewAnalyzerWithPolicy(client, fallbackCurrency, DefaultRetryPolicy)
}

// NewAnalyzerWithPolicy creates an Analyzer with a custom retry policy for
// testing.
func NewAnalyzerWithPolicy(client model.Client, fallbackCurrency string, policy RetryPolicy) *Analyzer {
	if fallbackCurrency == "" {
		fallbackCurrency = "EUR"
	}
	return &Analyzer{
		client:           client,
		policy:           policy,
		fallbackCurrency: fallbackCurrency,
	}
}
