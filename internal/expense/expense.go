// Package expense owns the durable expense records, their bbolt-backed
// store, spending thresholds and the service that ties extraction,
// classification and monitoring together.
package expense

import (
	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/analysis"
	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/category"
)

// Expense is a receipt once persisted: the extracted record plus a stable
// unique identifier, the stored image reference and a category. Created once
// at ingestion time and immutable thereafter except for deletion.
type Expense struct {
	analysis.Receipt
	ID                string            `json:"id"`
	Category          category.Category `json:"category"`
	OriginalImageName string            `json:"originalImageName,omitempty"`
	ImagePath         string            `json:"imagePath,omitempty"`
	ImageContentType  string            `json:"imageContentType,omitempty"`
}

// Threshold is a per-category monthly spending ceiling. An amount of 0 means
// the threshold is not set.
type Threshold struct {
	Category category.Category `json:"category"`
	Amount   float64           `json:"amount"`
}

// Breach signals that the current month's spend for a category strictly
// exceeds its threshold.
type Breach struct {
	Category  category.Category `json:"category"`
	Spent     float64           `json:"spent"`
	Threshold float64           `json:"threshold"`
}
